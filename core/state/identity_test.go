package state

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/paveldovnar/wino-business/core/identity"
	"github.com/paveldovnar/wino-business/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() {
		db.Close()
	})
	return NewManager(db)
}

func testAuthority(tag byte) [32]byte {
	var addr [32]byte
	addr[31] = tag
	return addr
}

func TestIdentityCreateAndGet(t *testing.T) {
	manager := newTestManager(t)
	manager.SetNowFunc(func() int64 { return 1700000000 })
	authority := testAuthority(1)

	record, addr, err := manager.IdentityCreate(authority, "Acme", "https://x/y.png")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	if record.Authority != authority {
		t.Fatalf("authority mismatch")
	}
	if record.IdentityType != identity.TypeBusiness {
		t.Fatalf("expected business identity type, got %d", record.IdentityType)
	}
	if record.CreatedAt != 1700000000 || record.UpdatedAt != 1700000000 {
		t.Fatalf("expected creation timestamps to match, got created=%d updated=%d", record.CreatedAt, record.UpdatedAt)
	}
	if addr != identity.DeriveAddress(authority, record.Bump) {
		t.Fatalf("stored address must re-derive from authority and bump")
	}

	loaded, loadedAddr, ok, err := manager.IdentityGet(authority)
	if err != nil || !ok {
		t.Fatalf("expected identity to resolve: ok=%v err=%v", ok, err)
	}
	if loadedAddr != addr {
		t.Fatalf("resolved address mismatch")
	}
	if loaded.Name != "Acme" || loaded.LogoURI != "https://x/y.png" {
		t.Fatalf("unexpected fields stored: %+v", loaded)
	}
}

func TestIdentityCreateDuplicateRejected(t *testing.T) {
	manager := newTestManager(t)
	authority := testAuthority(2)

	first, addr, err := manager.IdentityCreate(authority, "Acme", "")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, _, err := manager.IdentityCreate(authority, "Other", ""); !errors.Is(err, ErrIdentityExists) {
		t.Fatalf("expected ErrIdentityExists, got %v", err)
	}
	loaded, ok, err := manager.IdentityAt(addr)
	if err != nil || !ok {
		t.Fatalf("expected first record to survive: ok=%v err=%v", ok, err)
	}
	if loaded.Name != first.Name {
		t.Fatalf("first record mutated by failed create: %q", loaded.Name)
	}
}

func TestIdentityCreateValidation(t *testing.T) {
	manager := newTestManager(t)
	authority := testAuthority(3)

	if _, _, err := manager.IdentityCreate(authority, "", ""); !errors.Is(err, identity.ErrInvalidNameLength) {
		t.Fatalf("expected ErrInvalidNameLength for empty name, got %v", err)
	}
	if _, _, err := manager.IdentityCreate(authority, strings.Repeat("n", identity.MaxNameLength+1), ""); !errors.Is(err, identity.ErrInvalidNameLength) {
		t.Fatalf("expected ErrInvalidNameLength for long name, got %v", err)
	}
	if _, _, err := manager.IdentityCreate(authority, "Acme", strings.Repeat("u", identity.MaxLogoURILength+1)); !errors.Is(err, identity.ErrInvalidLogoURILength) {
		t.Fatalf("expected ErrInvalidLogoURILength, got %v", err)
	}
	if _, _, ok, _ := manager.IdentityGet(authority); ok {
		t.Fatalf("no record should exist after rejected creates")
	}
}

func TestIdentityUpdateByOwner(t *testing.T) {
	manager := newTestManager(t)
	now := int64(1700000000)
	manager.SetNowFunc(func() int64 { return now })
	authority := testAuthority(4)

	created, _, err := manager.IdentityCreate(authority, "Acme", "https://x/y.png")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now += 5
	updated, _, err := manager.IdentityUpdate(authority, authority, created.Bump, "Acme Inc", "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Acme Inc" || updated.LogoURI != "" {
		t.Fatalf("mutable fields not rewritten: %+v", updated)
	}
	if updated.UpdatedAt != 1700000005 {
		t.Fatalf("expected updatedAt 1700000005, got %d", updated.UpdatedAt)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Fatalf("createdAt mutated: got %d want %d", updated.CreatedAt, created.CreatedAt)
	}
	if updated.Authority != created.Authority || updated.Bump != created.Bump || updated.IdentityType != created.IdentityType {
		t.Fatalf("immutable fields mutated: %+v", updated)
	}
}

func TestIdentityUpdateUnauthorized(t *testing.T) {
	manager := newTestManager(t)
	owner := testAuthority(5)
	stranger := testAuthority(6)

	created, addr, err := manager.IdentityCreate(owner, "Acme", "https://x/y.png")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before, ok, err := manager.IdentityRaw(addr)
	if err != nil || !ok {
		t.Fatalf("raw read: ok=%v err=%v", ok, err)
	}

	if _, _, err := manager.IdentityUpdate(stranger, owner, created.Bump, "Hijacked", ""); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	after, ok, err := manager.IdentityRaw(addr)
	if err != nil || !ok {
		t.Fatalf("raw read after failed update: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("record changed by unauthorized update")
	}
}

func TestIdentityUpdateMissingRecord(t *testing.T) {
	manager := newTestManager(t)
	authority := testAuthority(7)

	if _, _, err := manager.IdentityUpdate(authority, authority, 255, "Acme", ""); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}

	created, _, err := manager.IdentityCreate(authority, "Acme", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := manager.IdentityUpdate(authority, authority, created.Bump-1, "Acme", ""); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound for wrong bump, got %v", err)
	}
}

func TestIdentityUpdateClampsClock(t *testing.T) {
	manager := newTestManager(t)
	now := int64(1700000000)
	manager.SetNowFunc(func() int64 { return now })
	authority := testAuthority(8)

	created, _, err := manager.IdentityCreate(authority, "Acme", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// A clock that runs backwards must not violate updatedAt >= createdAt.
	now -= 100
	updated, _, err := manager.IdentityUpdate(authority, authority, created.Bump, "Acme Inc", "")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UpdatedAt < updated.CreatedAt {
		t.Fatalf("updatedAt %d precedes createdAt %d", updated.UpdatedAt, updated.CreatedAt)
	}
}
