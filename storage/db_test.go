package storage

import (
	"errors"
	"testing"
)

func testDatabase(t *testing.T, db Database) {
	t.Helper()

	key := []byte("identity/acct")
	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}
	if ok, err := db.Has(key); err != nil || ok {
		t.Fatalf("expected Has=false for missing key, got ok=%v err=%v", ok, err)
	}

	value := []byte{0x01, 0x02, 0x03}
	if err := db.Put(key, value); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(value) {
		t.Fatalf("value mismatch: got %x want %x", got, value)
	}
	if ok, err := db.Has(key); err != nil || !ok {
		t.Fatalf("expected Has=true, got ok=%v err=%v", ok, err)
	}

	// Overwrites replace the stored value.
	if err := db.Put(key, []byte{0xff}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = db.Get(key)
	if err != nil || len(got) != 1 || got[0] != 0xff {
		t.Fatalf("overwrite not visible: got %x err=%v", got, err)
	}
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	testDatabase(t, db)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	value := []byte{0x01}
	if err := db.Put([]byte("k"), value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 0xff

	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[0] != 0x01 {
		t.Fatalf("stored value aliases caller slice")
	}
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	defer db.Close()
	testDatabase(t, db)
}
