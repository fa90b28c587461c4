package player

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reconciler is one frame of playback reconciliation plus its own
// re-arm condition. The scheduler evaluates Active at the entry of
// every frame and stops the instant it turns false, so no work is
// scheduled while idle and a stale frame after a mode exit cannot act.
type Reconciler interface {
	Active() bool
	Tick() bool
}

// Scheduler runs a reconciler at a fixed frame interval while a
// continuous playback mode is active. Arm is idempotent; Disarm
// synchronously cancels the pending frames.
type Scheduler struct {
	interval   time.Duration
	reconciler Reconciler
	logger     *slog.Logger

	mu     sync.Mutex
	armed  bool
	cancel context.CancelFunc
}

// NewScheduler creates a dormant scheduler. It issues no work until Arm
// is called.
func NewScheduler(interval time.Duration, reconciler Reconciler, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &Scheduler{interval: interval, reconciler: reconciler, logger: logger}
}

// Arm starts the frame loop if it is not already running.
func (s *Scheduler) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.armed = true
	s.cancel = cancel
	go s.run(ctx)
}

// Disarm synchronously cancels the frame loop. Safe to call when idle.
func (s *Scheduler) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
}

func (s *Scheduler) disarmLocked() {
	if !s.armed {
		return
	}
	s.armed = false
	s.cancel()
	s.cancel = nil
}

// Armed reports whether the frame loop is running.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Stop condition is evaluated at frame entry: the moment the
			// mode exits the loop disarms itself instead of busy-polling.
			if !s.reconciler.Active() {
				s.mu.Lock()
				s.disarmLocked()
				s.mu.Unlock()
				return
			}
			s.reconciler.Tick()
		}
	}
}
