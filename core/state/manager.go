package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/paveldovnar/wino-business/core/identity"
	"github.com/paveldovnar/wino-business/storage"
)

var (
	// ErrIdentityExists marks an allocation collision: the derived address
	// for the authority is already in use. This is how the one-account-per
	// wallet rule surfaces; it is an environment failure, not a domain error.
	ErrIdentityExists = errors.New("state: identity account already allocated")
	// ErrIdentityNotFound marks operations against an address that holds no
	// identity account, including updates with a stale or wrong bump.
	ErrIdentityNotFound = errors.New("state: identity account not found")
)

// Manager reads and writes identity accounts at their derived addresses. Each
// operation validates fully before its single write, so a failed call leaves
// no partial state behind.
type Manager struct {
	db    storage.Database
	nowFn func() int64
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:    db,
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the wall clock used for record timestamps. Primarily
// leveraged in tests to provide deterministic timestamps.
func (m *Manager) SetNowFunc(now func() int64) {
	if m == nil {
		return
	}
	if now == nil {
		m.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	m.nowFn = now
}

func (m *Manager) now() int64 {
	if m == nil || m.nowFn == nil {
		return time.Now().Unix()
	}
	return m.nowFn()
}

// IdentityCreate allocates the identity account for the authority with the
// initial field values. Creation fails when the derived address is already in
// use; the first account is left untouched in that case.
func (m *Manager) IdentityCreate(authority [32]byte, name, logoURI string) (*identity.BusinessIdentity, [32]byte, error) {
	var zero [32]byte
	if m == nil || m.db == nil {
		return nil, zero, errors.New("state: manager not initialised")
	}
	if err := identity.ValidateName(name); err != nil {
		return nil, zero, err
	}
	if err := identity.ValidateLogoURI(logoURI); err != nil {
		return nil, zero, err
	}
	addr, bump, err := identity.FindAddress(authority)
	if err != nil {
		return nil, zero, err
	}
	taken, err := m.db.Has(addr[:])
	if err != nil {
		return nil, zero, err
	}
	if taken {
		return nil, zero, fmt.Errorf("%w: address %x", ErrIdentityExists, addr)
	}
	now := m.now()
	record := &identity.BusinessIdentity{
		Authority:    authority,
		IdentityType: identity.TypeBusiness,
		Name:         name,
		LogoURI:      logoURI,
		CreatedAt:    now,
		UpdatedAt:    now,
		Bump:         bump,
	}
	encoded, err := identity.Encode(record)
	if err != nil {
		return nil, zero, err
	}
	if err := m.db.Put(addr[:], encoded); err != nil {
		return nil, zero, err
	}
	return record, addr, nil
}

// IdentityUpdate rewrites the mutable fields of the account owned by owner.
// The account must exist at the address derived from the supplied bump, and
// the caller must match the recorded authority. Authority, identity type,
// creation time and bump are left untouched.
func (m *Manager) IdentityUpdate(caller, owner [32]byte, bump uint8, name, logoURI string) (*identity.BusinessIdentity, [32]byte, error) {
	var zero [32]byte
	if m == nil || m.db == nil {
		return nil, zero, errors.New("state: manager not initialised")
	}
	if err := identity.ValidateName(name); err != nil {
		return nil, zero, err
	}
	if err := identity.ValidateLogoURI(logoURI); err != nil {
		return nil, zero, err
	}
	addr := identity.DeriveAddress(owner, bump)
	record, ok, err := m.identityLoad(addr)
	if err != nil {
		return nil, zero, err
	}
	if !ok {
		return nil, zero, fmt.Errorf("%w: address %x", ErrIdentityNotFound, addr)
	}
	if record.Bump != bump {
		return nil, zero, fmt.Errorf("%w: bump mismatch", ErrIdentityNotFound)
	}
	if record.Authority != caller {
		return nil, zero, identity.ErrUnauthorized
	}
	now := m.now()
	if now < record.CreatedAt {
		now = record.CreatedAt
	}
	record.Name = name
	record.LogoURI = logoURI
	record.UpdatedAt = now
	encoded, err := identity.Encode(record)
	if err != nil {
		return nil, zero, err
	}
	if err := m.db.Put(addr[:], encoded); err != nil {
		return nil, zero, err
	}
	return record, addr, nil
}

// IdentityGet resolves the identity account for the authority by re-deriving
// its address. The boolean reports whether an account exists.
func (m *Manager) IdentityGet(authority [32]byte) (*identity.BusinessIdentity, [32]byte, bool, error) {
	var zero [32]byte
	if m == nil || m.db == nil {
		return nil, zero, false, errors.New("state: manager not initialised")
	}
	addr, _, err := identity.FindAddress(authority)
	if err != nil {
		return nil, zero, false, err
	}
	record, ok, err := m.identityLoad(addr)
	if err != nil || !ok {
		return nil, zero, false, err
	}
	return record, addr, true, nil
}

// IdentityAt loads the identity account stored at the given derived address.
func (m *Manager) IdentityAt(addr [32]byte) (*identity.BusinessIdentity, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, errors.New("state: manager not initialised")
	}
	return m.identityLoad(addr)
}

// IdentityRaw returns the encoded account image at the derived address, the
// form external clients parse directly.
func (m *Manager) IdentityRaw(addr [32]byte) ([]byte, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, errors.New("state: manager not initialised")
	}
	data, err := m.db.Get(addr[:])
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) identityLoad(addr [32]byte) (*identity.BusinessIdentity, bool, error) {
	data, err := m.db.Get(addr[:])
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	record, err := identity.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}
