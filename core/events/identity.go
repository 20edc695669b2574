package events

import (
	"encoding/hex"
	"fmt"

	"github.com/paveldovnar/wino-business/core/types"
	"github.com/paveldovnar/wino-business/crypto"
)

const (
	TypeIdentityCreated = "identity.created"
	TypeIdentityUpdated = "identity.updated"
)

// IdentityCreated is emitted when a wallet allocates its business identity
// account for the first time.
type IdentityCreated struct {
	Authority [32]byte
	Address   [32]byte
	Name      string
	Bump      uint8
}

// EventType implements the Event interface.
func (IdentityCreated) EventType() string { return TypeIdentityCreated }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e IdentityCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeIdentityCreated,
		Attributes: map[string]string{
			"authority": crypto.NewAddress(crypto.WinoPrefix, e.Authority[:]).String(),
			"address":   "0x" + hex.EncodeToString(e.Address[:]),
			"name":      e.Name,
			"bump":      fmt.Sprintf("%d", e.Bump),
		},
	}
}

// IdentityUpdated is emitted when an authority rewrites the mutable fields of
// its existing identity account.
type IdentityUpdated struct {
	Authority [32]byte
	Address   [32]byte
	Name      string
}

// EventType implements the Event interface.
func (IdentityUpdated) EventType() string { return TypeIdentityUpdated }

// Event converts the strongly typed event to the generic representation used by subscribers.
func (e IdentityUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeIdentityUpdated,
		Attributes: map[string]string{
			"authority": crypto.NewAddress(crypto.WinoPrefix, e.Authority[:]).String(),
			"address":   "0x" + hex.EncodeToString(e.Address[:]),
			"name":      e.Name,
		},
	}
}
