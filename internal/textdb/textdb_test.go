package textdb

import (
	"path/filepath"
	"testing"
)

// Creates a string table database for testing. A fresh SQLite file per test
// keeps the tests independent and is cheap at this scale.
func setUpTextDB(t *testing.T) *TextDB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "text.db"), false)
	if err != nil {
		t.Fatalf("error initializing test text database: %s", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGetMessageString(t *testing.T) {
	db := setUpTextDB(t)

	if err := db.Put(20, 1, "%s scored %d points"); err != nil {
		t.Fatalf("Put() returned error: %s", err)
	}

	got, ok := db.GetMessageString(20, 1)
	if !ok {
		t.Fatalf("expected (20, 1) to resolve")
	}
	if got != "%s scored %d points" {
		t.Errorf("GetMessageString(20, 1) = %q", got)
	}

	if _, ok := db.GetMessageString(20, 2); ok {
		t.Errorf("expected missing entry not to resolve")
	}
}

func TestGetMessageStringMemoized(t *testing.T) {
	db := setUpTextDB(t)

	if err := db.Put(10, 77, "Sword of Testing"); err != nil {
		t.Fatalf("Put() returned error: %s", err)
	}

	if _, ok := db.GetMessageString(10, 77); !ok {
		t.Fatalf("expected first lookup to resolve")
	}

	// A second lookup served from the memo must agree with the database.
	got, ok := db.GetMessageString(10, 77)
	if !ok || got != "Sword of Testing" {
		t.Errorf("memoized lookup = %q, %v", got, ok)
	}

	// Replacement invalidates the memo entry.
	if err := db.Put(10, 77, "Axe of Testing"); err != nil {
		t.Fatalf("Put() returned error: %s", err)
	}
	if got, _ := db.GetMessageString(10, 77); got != "Axe of Testing" {
		t.Errorf("expected replacement to be visible, got %q", got)
	}
}
