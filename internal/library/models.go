// Package library is the source-video catalog: registered folders, the
// video files found inside them with their probed metadata, and byte
// serving for the preview player.
package library

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrFileNotFound   = errors.New("file not found")
	ErrNotADirectory  = errors.New("path is not a directory")
)

// Source is a registered folder the catalog scans for videos.
type Source struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	Present     bool      `json:"present"`
	CreatedAt   time.Time `json:"created_at"`
}

// File is one cataloged video with the metadata the editor needs to
// open a session on it.
type File struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	Path        string    `json:"path"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	Mtime       time.Time `json:"mtime"`
	Fingerprint string    `json:"fingerprint"`
	Duration    float64   `json:"duration"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	FrameRate   float64   `json:"frame_rate"`
	HasAudio    bool      `json:"has_audio"`
	CreatedAt   time.Time `json:"created_at"`
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// IsVideoFile reports whether a filename carries a supported video
// extension.
func IsVideoFile(filename string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}
