package core

import (
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/paveldovnar/wino-business/core/events"
	"github.com/paveldovnar/wino-business/core/identity"
	"github.com/paveldovnar/wino-business/core/state"
	"github.com/paveldovnar/wino-business/crypto"
	"github.com/paveldovnar/wino-business/storage"
)

// Node is the central controller for the identity registry. It serialises all
// state transitions behind a single mutex so each operation executes as one
// atomic unit: two racing creations for the same wallet deterministically
// produce one success and one allocation collision.
type Node struct {
	db      storage.Database
	stateMu sync.Mutex
	state   *state.Manager
	emitter events.Emitter
	logger  *slog.Logger
}

// NewNode wires a registry node on top of the provided database.
func NewNode(db storage.Database) *Node {
	return &Node{
		db:      db,
		state:   state.NewManager(db),
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
	}
}

// SetEmitter configures the event emitter used for state change notifications.
func (n *Node) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		n.emitter = events.NoopEmitter{}
		return
	}
	n.emitter = emitter
}

// SetLogger overrides the logger used for diagnostic log lines.
func (n *Node) SetLogger(logger *slog.Logger) {
	if logger == nil {
		n.logger = slog.Default()
		return
	}
	n.logger = logger
}

// State exposes the underlying state manager, primarily for tests.
func (n *Node) State() *state.Manager {
	return n.state
}

func (n *Node) emit(evt events.Event) {
	if n == nil || evt == nil || n.emitter == nil {
		return
	}
	n.emitter.Emit(evt)
}

// IdentityCreate allocates the business identity account for the authority.
func (n *Node) IdentityCreate(authority [32]byte, name, logoURI string) (*identity.BusinessIdentity, [32]byte, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	record, addr, err := n.state.IdentityCreate(authority, name, logoURI)
	if err != nil {
		return nil, addr, err
	}
	n.logger.Info("business identity created",
		"authority", crypto.NewAddress(crypto.WinoPrefix, record.Authority[:]).String(),
		"name", record.Name,
		"address", "0x"+hex.EncodeToString(addr[:]),
	)
	n.emit(events.IdentityCreated{Authority: record.Authority, Address: addr, Name: record.Name, Bump: record.Bump})
	return record, addr, nil
}

// IdentityUpdate rewrites the mutable fields of the account owned by owner on
// behalf of caller.
func (n *Node) IdentityUpdate(caller, owner [32]byte, bump uint8, name, logoURI string) (*identity.BusinessIdentity, [32]byte, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	record, addr, err := n.state.IdentityUpdate(caller, owner, bump, name, logoURI)
	if err != nil {
		return nil, addr, err
	}
	n.logger.Info("business identity updated",
		"authority", crypto.NewAddress(crypto.WinoPrefix, record.Authority[:]).String(),
		"name", record.Name,
	)
	n.emit(events.IdentityUpdated{Authority: record.Authority, Address: addr, Name: record.Name})
	return record, addr, nil
}

// IdentityResolve returns the identity account for the authority, if any.
func (n *Node) IdentityResolve(authority [32]byte) (*identity.BusinessIdentity, [32]byte, bool) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	record, addr, ok, err := n.state.IdentityGet(authority)
	if err != nil || !ok {
		return nil, addr, false
	}
	return record, addr, true
}

// IdentityAt returns the identity account stored at the derived address.
func (n *Node) IdentityAt(addr [32]byte) (*identity.BusinessIdentity, bool) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	record, ok, err := n.state.IdentityAt(addr)
	if err != nil || !ok {
		return nil, false
	}
	return record, true
}
