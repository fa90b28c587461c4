package library

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// Streamer serves catalog file bytes to the preview player with HTTP
// Range support, so the media element can scrub freely.
type Streamer struct {
	logger *slog.Logger
}

func NewStreamer(logger *slog.Logger) *Streamer {
	return &Streamer{logger: logger}
}

// ServeFile writes the file (or the requested byte range of it) to the
// response. Missing files and unsatisfiable ranges are answered
// directly; only unexpected failures return an error.
func (s *Streamer) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	br, err := ParseRange(r.Header.Get("Range"), size)
	if errors.Is(err, ErrUnsatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	// Malformed Range headers degrade to a full-body response.
	if err != nil && !errors.Is(err, ErrInvalidRange) {
		return err
	}

	if br == nil || errors.Is(err, ErrInvalidRange) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, f)
		return nil
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", br.Length()))
	w.Header().Set("Content-Range", br.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := f.Seek(br.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	io.CopyN(w, f, br.Length())
	return nil
}
