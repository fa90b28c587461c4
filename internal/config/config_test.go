package config

import (
	"os"
	"testing"
	"time"
)

func TestFrameInterval_Default(t *testing.T) {
	os.Unsetenv(EnvFrameMs)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FrameInterval() != 16*time.Millisecond {
		t.Errorf("default FrameInterval = %v, want 16ms", cfg.FrameInterval())
	}
}

func TestFrameInterval_FromEnv(t *testing.T) {
	os.Setenv(EnvFrameMs, "33")
	defer os.Unsetenv(EnvFrameMs)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FrameInterval() != 33*time.Millisecond {
		t.Errorf("FrameInterval = %v, want 33ms", cfg.FrameInterval())
	}
}

func TestFrameInterval_Invalid(t *testing.T) {
	os.Setenv(EnvFrameMs, "0")
	defer os.Unsetenv(EnvFrameMs)

	if _, err := New(); err == nil {
		t.Error("expected error for zero frame interval")
	}
}

func TestSeekStep_FromEnv(t *testing.T) {
	os.Setenv(EnvSeekStep, "2.5")
	defer os.Unsetenv(EnvSeekStep)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SeekStep() != 2.5 {
		t.Errorf("SeekStep = %v, want 2.5", cfg.SeekStep())
	}
}

func TestPort_Invalid(t *testing.T) {
	os.Setenv(EnvPort, "99999")
	defer os.Unsetenv(EnvPort)

	if _, err := New(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}
