// Package watcher keeps the library's source presence flags in step
// with the filesystem. External drives and network mounts come and go;
// playback and rendering must not be attempted against a path that is
// currently unreachable.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shortsplice/splice-agent/internal/library"
)

const DefaultInterval = 30 * time.Second

// PresenceWatcher polls every registered source folder and flips its
// present flag when the folder appears or disappears.
type PresenceWatcher struct {
	repo     library.Repository
	interval time.Duration
	logger   *slog.Logger
}

func NewPresenceWatcher(repo library.Repository, interval time.Duration, logger *slog.Logger) *PresenceWatcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &PresenceWatcher{repo: repo, interval: interval, logger: logger}
}

// Run blocks until the context is cancelled, sweeping all sources once
// per interval. The first sweep happens immediately.
func (w *PresenceWatcher) Run(ctx context.Context) {
	if err := w.Sweep(ctx); err != nil {
		w.logger.Warn("presence sweep failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.logger.Warn("presence sweep failed", "error", err)
			}
		}
	}
}

// Sweep checks every source folder once and persists flag changes.
func (w *PresenceWatcher) Sweep(ctx context.Context) error {
	sources, err := w.repo.ListSources(ctx)
	if err != nil {
		return err
	}

	for _, src := range sources {
		present := folderExists(src.Path)
		if present == src.Present {
			continue
		}
		if err := w.repo.UpdateSourcePresent(ctx, src.ID, present); err != nil {
			w.logger.Error("failed to update source presence", "source_id", src.ID, "error", err)
			continue
		}
		w.logger.Info("source presence changed", "source_id", src.ID, "path", src.Path, "present", present)
	}
	return nil
}

func folderExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
