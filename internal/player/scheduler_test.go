package player

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeReconciler struct {
	active atomic.Bool
	ticks  atomic.Int64
}

func (r *fakeReconciler) Active() bool { return r.active.Load() }
func (r *fakeReconciler) Tick() bool {
	r.ticks.Add(1)
	return false
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestScheduler_TicksWhileActive(t *testing.T) {
	r := &fakeReconciler{}
	r.active.Store(true)
	s := NewScheduler(time.Millisecond, r, nil)

	s.Arm()
	waitFor(t, func() bool { return r.ticks.Load() >= 3 }, "reconciler never ticked")
	s.Disarm()
}

func TestScheduler_StopsWhenModeExits(t *testing.T) {
	r := &fakeReconciler{}
	r.active.Store(true)
	s := NewScheduler(time.Millisecond, r, nil)

	s.Arm()
	waitFor(t, func() bool { return r.ticks.Load() >= 1 }, "reconciler never ticked")

	// The frame loop checks the stop condition at entry and releases
	// itself; no Disarm call needed.
	r.active.Store(false)
	waitFor(t, func() bool { return !s.Armed() }, "scheduler did not self-disarm")

	settled := r.ticks.Load()
	time.Sleep(10 * time.Millisecond)
	if r.ticks.Load() != settled {
		t.Error("ticks continued after self-disarm")
	}
}

func TestScheduler_DisarmIsSynchronousAndIdempotent(t *testing.T) {
	r := &fakeReconciler{}
	r.active.Store(true)
	s := NewScheduler(time.Millisecond, r, nil)

	s.Arm()
	s.Disarm()
	if s.Armed() {
		t.Error("scheduler still armed after Disarm")
	}
	s.Disarm() // no-op

	// Re-arming after a disarm starts a fresh loop.
	before := r.ticks.Load()
	s.Arm()
	waitFor(t, func() bool { return r.ticks.Load() > before }, "re-armed scheduler never ticked")
	s.Disarm()
}

func TestScheduler_ArmIsIdempotent(t *testing.T) {
	r := &fakeReconciler{}
	r.active.Store(true)
	s := NewScheduler(time.Millisecond, r, nil)

	s.Arm()
	s.Arm()
	s.Arm()
	waitFor(t, func() bool { return r.ticks.Load() >= 2 }, "reconciler never ticked")
	s.Disarm()

	if s.Armed() {
		t.Error("scheduler armed after final Disarm")
	}
}

func TestScheduler_DormantWithoutArm(t *testing.T) {
	r := &fakeReconciler{}
	r.active.Store(true)
	NewScheduler(time.Millisecond, r, nil)

	time.Sleep(5 * time.Millisecond)
	if r.ticks.Load() != 0 {
		t.Error("dormant scheduler issued work")
	}
}
