package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shortsplice/splice-agent/internal/render"
	"github.com/shortsplice/splice-agent/internal/session"
)

// Head-of-file bytes hashed for the fingerprint. Enough to tell files
// apart without reading gigabytes.
const fingerprintSize = 64 * 1024

// Prober extracts stream metadata from a video file. Satisfied by
// render.FFmpeg.
type Prober interface {
	Probe(ctx context.Context, path string) (*render.ProbeResult, error)
}

// Service maintains the catalog: folders in, probed video files out.
type Service struct {
	repo   Repository
	prober Prober
	logger *slog.Logger
}

func NewService(repo Repository, prober Prober, logger *slog.Logger) *Service {
	return &Service{repo: repo, prober: prober, logger: logger}
}

// AddFolder registers a folder as a catalog source. Re-adding an
// already registered path returns the existing source.
func (s *Service) AddFolder(ctx context.Context, path, displayName string) (*Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, ErrNotADirectory
	}

	existing, err := s.repo.GetSourceByPath(ctx, absPath)
	if err == nil {
		return existing, nil
	}
	if err != ErrSourceNotFound {
		return nil, err
	}

	if displayName == "" {
		displayName = filepath.Base(absPath)
	}

	source := &Source{
		ID:          session.NewID(),
		Path:        absPath,
		DisplayName: displayName,
		Present:     true,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.CreateSource(ctx, source); err != nil {
		return nil, err
	}

	s.logger.Info("folder added", "source_id", source.ID, "path", absPath)
	return source, nil
}

// RemoveSource drops a source and all of its cataloged files.
func (s *Service) RemoveSource(ctx context.Context, id string) error {
	if err := s.repo.DeleteFilesBySource(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteSource(ctx, id)
}

func (s *Service) Sources(ctx context.Context) ([]*Source, error) {
	return s.repo.ListSources(ctx)
}

func (s *Service) Files(ctx context.Context, sourceID string) ([]*File, error) {
	return s.repo.GetFilesBySource(ctx, sourceID)
}

func (s *Service) AllFiles(ctx context.Context) ([]*File, error) {
	return s.repo.ListFiles(ctx)
}

func (s *Service) File(ctx context.Context, id string) (*File, error) {
	return s.repo.GetFile(ctx, id)
}

func (s *Service) CountFiles(ctx context.Context) (int, error) {
	return s.repo.CountFiles(ctx)
}

// ScanResult summarizes one source scan.
type ScanResult struct {
	SourceID  string `json:"source_id"`
	Found     int    `json:"found"`
	Cataloged int    `json:"cataloged"`
}

// Scan walks a source folder, fingerprints and probes every video file
// and upserts the results. Files that fail to probe are cataloged
// without stream metadata rather than dropped.
func (s *Service) Scan(ctx context.Context, sourceID string) (*ScanResult, error) {
	source, err := s.repo.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(source.Path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && IsVideoFile(d.Name()) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ScanResult{SourceID: sourceID, Found: len(paths)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.catalogFile(ctx, sourceID, path); err != nil {
			s.logger.Warn("failed to catalog file", "path", filepath.Base(path), "error", err)
			continue
		}
		result.Cataloged++
	}

	s.logger.Info("scan completed", "source_id", sourceID, "found", result.Found, "cataloged", result.Cataloged)
	return result, nil
}

func (s *Service) catalogFile(ctx context.Context, sourceID, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	fingerprint, err := computeFingerprint(path)
	if err != nil {
		return err
	}

	file := &File{
		ID:          session.NewID(),
		SourceID:    sourceID,
		Path:        path,
		Filename:    filepath.Base(path),
		Size:        info.Size(),
		Mtime:       info.ModTime(),
		Fingerprint: fingerprint,
		CreatedAt:   time.Now(),
	}

	if probe, err := s.prober.Probe(ctx, path); err != nil {
		s.logger.Warn("probe failed, cataloging without metadata", "path", filepath.Base(path), "error", err)
	} else {
		file.Duration = probe.Duration
		file.Width = probe.Width
		file.Height = probe.Height
		file.FrameRate = probe.FrameRate
		file.HasAudio = probe.HasAudio
	}

	return s.repo.UpsertFile(ctx, file)
}

func computeFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, io.LimitReader(f, fingerprintSize)); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
