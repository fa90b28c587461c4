package library

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository is the catalog's persistence contract. The sqlite
// implementation is the only production one; tests may substitute an
// in-memory fake.
type Repository interface {
	CreateSource(ctx context.Context, source *Source) error
	GetSource(ctx context.Context, id string) (*Source, error)
	GetSourceByPath(ctx context.Context, path string) (*Source, error)
	ListSources(ctx context.Context) ([]*Source, error)
	DeleteSource(ctx context.Context, id string) error
	UpdateSourcePresent(ctx context.Context, id string, present bool) error

	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, id string) (*File, error)
	ListFiles(ctx context.Context) ([]*File, error)
	GetFilesBySource(ctx context.Context, sourceID string) ([]*File, error)
	DeleteFilesBySource(ctx context.Context, sourceID string) error
	CountFiles(ctx context.Context) (int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sourceColumns = "id, path, display_name, present, created_at"

func (r *SQLiteRepository) CreateSource(ctx context.Context, s *Source) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sources (`+sourceColumns+`)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.Path, s.DisplayName, boolToInt(s.Present), s.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetSource(ctx context.Context, id string) (*Source, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sourceColumns+` FROM sources WHERE id = ?
	`, id)
	return scanSource(row)
}

func (r *SQLiteRepository) GetSourceByPath(ctx context.Context, path string) (*Source, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sourceColumns+` FROM sources WHERE path = ?
	`, path)
	return scanSource(row)
}

func scanSource(row *sql.Row) (*Source, error) {
	var s Source
	var present int
	var createdAt string

	err := row.Scan(&s.ID, &s.Path, &s.DisplayName, &present, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, err
	}

	s.Present = present == 1
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

func (r *SQLiteRepository) ListSources(ctx context.Context) ([]*Source, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sourceColumns+` FROM sources ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		var s Source
		var present int
		var createdAt string

		if err := rows.Scan(&s.ID, &s.Path, &s.DisplayName, &present, &createdAt); err != nil {
			return nil, err
		}
		s.Present = present == 1
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sources = append(sources, &s)
	}
	return sources, rows.Err()
}

func (r *SQLiteRepository) DeleteSource(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) UpdateSourcePresent(ctx context.Context, id string, present bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE sources SET present = ? WHERE id = ?", boolToInt(present), id)
	return err
}

const fileColumns = "id, source_id, path, filename, size, mtime, fingerprint, duration, width, height, frame_rate, has_audio, created_at"

func (r *SQLiteRepository) UpsertFile(ctx context.Context, f *File) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO files (`+fileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, path) DO UPDATE SET
			size = excluded.size,
			mtime = excluded.mtime,
			fingerprint = excluded.fingerprint,
			duration = excluded.duration,
			width = excluded.width,
			height = excluded.height,
			frame_rate = excluded.frame_rate,
			has_audio = excluded.has_audio
	`, f.ID, f.SourceID, f.Path, f.Filename, f.Size, f.Mtime.Format(time.RFC3339),
		f.Fingerprint, f.Duration, f.Width, f.Height, f.FrameRate, boolToInt(f.HasAudio),
		f.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetFile(ctx context.Context, id string) (*File, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+fileColumns+` FROM files WHERE id = ?
	`, id)

	f, err := scanFileRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	return f, err
}

func (r *SQLiteRepository) ListFiles(ctx context.Context) ([]*File, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fileColumns+` FROM files ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFiles(rows)
}

func (r *SQLiteRepository) GetFilesBySource(ctx context.Context, sourceID string) ([]*File, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+fileColumns+` FROM files WHERE source_id = ? ORDER BY filename
	`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFiles(rows)
}

func collectFiles(rows *sql.Rows) ([]*File, error) {
	var files []*File
	for rows.Next() {
		f, err := scanFileRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func scanFileRow(scan func(...any) error) (*File, error) {
	var f File
	var mtime, createdAt string
	var hasAudio int

	err := scan(&f.ID, &f.SourceID, &f.Path, &f.Filename, &f.Size, &mtime,
		&f.Fingerprint, &f.Duration, &f.Width, &f.Height, &f.FrameRate, &hasAudio, &createdAt)
	if err != nil {
		return nil, err
	}

	f.HasAudio = hasAudio == 1
	f.Mtime, _ = time.Parse(time.RFC3339, mtime)
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &f, nil
}

func (r *SQLiteRepository) DeleteFilesBySource(ctx context.Context, sourceID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE source_id = ?", sourceID)
	return err
}

func (r *SQLiteRepository) CountFiles(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
