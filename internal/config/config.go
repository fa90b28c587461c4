// Package config provides configuration management for the Splice Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8765
	DefaultLogLevel = "info"
	DefaultDataDir  = ".splice"

	// Environment variable names
	EnvPort     = "SPLICE_PORT"
	EnvLogLevel = "SPLICE_LOG_LEVEL"
	EnvDataDir  = "SPLICE_DATA_DIR"
	EnvFFmpeg   = "SPLICE_FFMPEG"
	EnvFFprobe  = "SPLICE_FFPROBE"
	EnvHeadless = "SPLICE_HEADLESS"
	EnvFrameMs  = "SPLICE_FRAME_MS"
	EnvSeekStep = "SPLICE_SEEK_STEP"
	EnvBackend  = "SPLICE_BACKEND_URL"

	// Database filename
	DBFilename = "splice.db"

	// Playback reconciliation defaults
	DefaultFrameMs  = 16  // ~60 reconciliation frames per second
	DefaultSeekStep = 5.0 // seconds moved by the seek keys

	// Render defaults
	DefaultFFmpeg        = "ffmpeg"
	DefaultFFprobe       = "ffprobe"
	DefaultRenderTimeout = 1800 // seconds
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	RenderDir() string
	FFmpegPath() string
	FFprobePath() string
	Headless() bool
	FrameInterval() time.Duration
	SeekStep() float64
	RenderTimeout() time.Duration
	BackendURL() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	ffmpeg   string
	ffprobe  string
	headless bool
	frameMs  int
	seekStep float64
	backend  string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
		ffmpeg:   DefaultFFmpeg,
		ffprobe:  DefaultFFprobe,
		frameMs:  DefaultFrameMs,
		seekStep: DefaultSeekStep,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if f := os.Getenv(EnvFFmpeg); f != "" {
		cfg.ffmpeg = f
	}
	if f := os.Getenv(EnvFFprobe); f != "" {
		cfg.ffprobe = f
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if fm := os.Getenv(EnvFrameMs); fm != "" {
		frameMs, err := strconv.Atoi(fm)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvFrameMs, err)
		}
		if frameMs < 1 || frameMs > 1000 {
			return nil, fmt.Errorf("invalid %s: frame interval must be between 1 and 1000 ms", EnvFrameMs)
		}
		cfg.frameMs = frameMs
	}

	if ss := os.Getenv(EnvSeekStep); ss != "" {
		step, err := strconv.ParseFloat(ss, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSeekStep, err)
		}
		if step <= 0 {
			return nil, fmt.Errorf("invalid %s: seek step must be positive", EnvSeekStep)
		}
		cfg.seekStep = step
	}

	cfg.backend = os.Getenv(EnvBackend)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// RenderDir returns the directory rendered cuts are written to
func (c *EnvConfig) RenderDir() string {
	return filepath.Join(c.dataDir, "renders")
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// FrameInterval returns the playback reconciliation tick interval
func (c *EnvConfig) FrameInterval() time.Duration {
	return time.Duration(c.frameMs) * time.Millisecond
}

// SeekStep returns the keyboard seek delta in seconds
func (c *EnvConfig) SeekStep() float64 {
	return c.seekStep
}

func (c *EnvConfig) RenderTimeout() time.Duration {
	return time.Duration(DefaultRenderTimeout) * time.Second
}

// BackendURL returns the remote render backend base URL, empty when rendering locally
func (c *EnvConfig) BackendURL() string {
	return c.backend
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
