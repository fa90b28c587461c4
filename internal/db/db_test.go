package db

import (
	"path/filepath"
	"testing"
)

func TestNew_AppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splice.db")

	d, err := New(path, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer d.Close()

	for _, table := range []string{"_migrations", "sources", "files", "config"} {
		var name string
		err := d.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing: %v", table, err)
		}
	}

	var applied int
	if err := d.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&applied); err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Errorf("applied migrations = %d, want 1", applied)
	}
}

func TestNew_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splice.db")

	d, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	d.Close()

	d, err = New(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer d.Close()

	var applied int
	if err := d.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&applied); err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Errorf("migrations reapplied on reopen: count = %d", applied)
	}
}
