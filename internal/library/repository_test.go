package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shortsplice/splice-agent/internal/db"
	"github.com/shortsplice/splice-agent/internal/session"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	d, err := db.New(filepath.Join(t.TempDir(), "splice.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return NewRepository(d.Conn())
}

func testSource() *Source {
	return &Source{
		ID:          session.NewID(),
		Path:        "/videos",
		DisplayName: "Videos",
		Present:     true,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestRepository_Sources(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	src := testSource()
	if err := repo.CreateSource(ctx, src); err != nil {
		t.Fatalf("CreateSource() error = %v", err)
	}

	got, err := repo.GetSource(ctx, src.ID)
	if err != nil {
		t.Fatalf("GetSource() error = %v", err)
	}
	if got.Path != src.Path || got.DisplayName != src.DisplayName || !got.Present {
		t.Errorf("got %+v, want %+v", got, src)
	}

	byPath, err := repo.GetSourceByPath(ctx, "/videos")
	if err != nil || byPath.ID != src.ID {
		t.Errorf("GetSourceByPath() = %v, %v", byPath, err)
	}

	if err := repo.UpdateSourcePresent(ctx, src.ID, false); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.GetSource(ctx, src.ID)
	if got.Present {
		t.Error("present flag not cleared")
	}

	list, err := repo.ListSources(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("ListSources() = %d sources, %v", len(list), err)
	}

	if err := repo.DeleteSource(ctx, src.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetSource(ctx, src.ID); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("deleted source lookup error = %v, want ErrSourceNotFound", err)
	}
}

func TestRepository_SourceNotFound(t *testing.T) {
	repo := testRepo(t)
	if _, err := repo.GetSource(context.Background(), "nope"); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("error = %v, want ErrSourceNotFound", err)
	}
	if _, err := repo.GetSourceByPath(context.Background(), "/nope"); !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("error = %v, want ErrSourceNotFound", err)
	}
}

func TestRepository_Files(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	src := testSource()
	if err := repo.CreateSource(ctx, src); err != nil {
		t.Fatal(err)
	}

	file := &File{
		ID:          session.NewID(),
		SourceID:    src.ID,
		Path:        "/videos/clip.mp4",
		Filename:    "clip.mp4",
		Size:        1024,
		Mtime:       time.Now().UTC().Truncate(time.Second),
		Fingerprint: "abc123",
		Duration:    60.5,
		Width:       1920,
		Height:      1080,
		FrameRate:   30,
		HasAudio:    true,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.UpsertFile(ctx, file); err != nil {
		t.Fatalf("UpsertFile() error = %v", err)
	}

	got, err := repo.GetFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if got.Duration != 60.5 || got.Width != 1920 || !got.HasAudio {
		t.Errorf("probe metadata lost: %+v", got)
	}

	// Re-scanning the same path updates in place instead of duplicating.
	updated := *file
	updated.ID = session.NewID()
	updated.Size = 2048
	updated.Duration = 61
	if err := repo.UpsertFile(ctx, &updated); err != nil {
		t.Fatal(err)
	}

	count, err := repo.CountFiles(ctx)
	if err != nil || count != 1 {
		t.Errorf("CountFiles() = %d, %v; want 1", count, err)
	}
	got, _ = repo.GetFile(ctx, file.ID)
	if got.Size != 2048 || got.Duration != 61 {
		t.Errorf("upsert did not update: %+v", got)
	}

	bySource, err := repo.GetFilesBySource(ctx, src.ID)
	if err != nil || len(bySource) != 1 {
		t.Errorf("GetFilesBySource() = %d files, %v", len(bySource), err)
	}

	if err := repo.DeleteFilesBySource(ctx, src.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetFile(ctx, file.ID); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("deleted file lookup error = %v, want ErrFileNotFound", err)
	}
}

func TestRepository_Config(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	val, err := repo.GetConfig(ctx, "auth_token")
	if err != nil || val != "" {
		t.Errorf("missing key = %q, %v; want empty without error", val, err)
	}

	if err := repo.SetConfig(ctx, "auth_token", "secret"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetConfig(ctx, "auth_token", "rotated"); err != nil {
		t.Fatal(err)
	}

	val, err = repo.GetConfig(ctx, "auth_token")
	if err != nil || val != "rotated" {
		t.Errorf("GetConfig() = %q, %v; want rotated", val, err)
	}
}
