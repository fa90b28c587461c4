package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shortsplice/splice-agent/internal/db"
	"github.com/shortsplice/splice-agent/internal/library"
	"github.com/shortsplice/splice-agent/internal/session"
)

func testRepo(t *testing.T) library.Repository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	database, err := db.New(filepath.Join(t.TempDir(), "splice.db"), logger)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return library.NewRepository(database.Conn())
}

func TestSweep_FlipsPresence(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dir := filepath.Join(t.TempDir(), "clips")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	src := &library.Source{
		ID:        session.NewID(),
		Path:      dir,
		Present:   true,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateSource(ctx, src); err != nil {
		t.Fatal(err)
	}

	w := NewPresenceWatcher(repo, time.Minute, logger)

	// Folder exists: flag stays set.
	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	got, err := repo.GetSource(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Present {
		t.Error("present source must stay present")
	}

	// Folder removed: flag clears on the next sweep.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	got, err = repo.GetSource(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Present {
		t.Error("missing folder must clear the present flag")
	}

	// Folder restored: flag comes back.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	got, err = repo.GetSource(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Present {
		t.Error("restored folder must set the present flag")
	}
}

func TestNewPresenceWatcher_DefaultInterval(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewPresenceWatcher(testRepo(t), 0, logger)
	if w.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", w.interval, DefaultInterval)
	}
}
