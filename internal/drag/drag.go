// Package drag implements the pointer-drag state machine shared by the
// timeline tracks and the crop overlay. A drag captures a snapshot of
// its target on pointer-down, turns every pointer-move into a clamped
// domain update, and discards the snapshot on pointer-up.
package drag

import (
	"errors"

	"github.com/shortsplice/splice-agent/internal/timeline"
)

// Kind is the closed set of drag gestures. Adding a kind without
// handling it in Move is a compile-visible switch hole, not a silent
// string mismatch.
type Kind int

const (
	KindMove Kind = iota
	KindResizeStart
	KindResizeEnd
	KindPan
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindResizeStart:
		return "resize-start"
	case KindResizeEnd:
		return "resize-end"
	case KindPan:
		return "pan"
	default:
		return "unknown"
	}
}

var (
	ErrNoDrag      = errors.New("no drag in progress")
	ErrUnknownKind = errors.New("unknown drag kind")
)

// Interval is the snapshot of the dragged entity's bounds at
// pointer-down. All moves are computed against the snapshot, not the
// entity's live state, so a drag never accumulates rounding drift.
type Interval struct {
	Start float64
	End   float64
}

// Update is the result of one pointer move: either new interval bounds
// for the target entity, or a new scroll offset for a pan.
type Update struct {
	Kind   Kind
	Start  float64
	End    float64
	Scroll float64
}

// Drag is one pointer gesture. Zero value is idle; Begin arms it.
type Drag struct {
	active      bool
	kind        Kind
	snapshot    Interval
	scrollStart float64
	originPx    float64
	minLength   float64
	mapper      timeline.Mapper
}

// Begin arms a drag of the given kind against an entity snapshot.
// minLength is the shortest interval a resize may produce.
func (d *Drag) Begin(kind Kind, snapshot Interval, pointerX, minLength float64, mapper timeline.Mapper) {
	d.active = true
	d.kind = kind
	d.snapshot = snapshot
	d.originPx = pointerX
	d.minLength = minLength
	d.mapper = mapper
}

// BeginPan arms a pan drag against the current scroll offset.
func (d *Drag) BeginPan(scrollOffset, pointerX float64, mapper timeline.Mapper) {
	d.active = true
	d.kind = KindPan
	d.scrollStart = scrollOffset
	d.originPx = pointerX
	d.mapper = mapper
}

// Active reports whether a gesture is in progress.
func (d *Drag) Active() bool {
	return d.active
}

// Kind returns the kind of the gesture in progress.
func (d *Drag) Kind() Kind {
	return d.kind
}

// Move computes the update for the pointer's current position. The
// result is fully clamped: resizes respect the minimum length and the
// source bounds, moves preserve length and pin at the timeline's end
// instead of clipping.
func (d *Drag) Move(pointerX float64) (Update, error) {
	if !d.active {
		return Update{}, ErrNoDrag
	}

	deltaPx := pointerX - d.originPx
	deltaTime := d.mapper.DeltaTime(deltaPx)
	duration := d.mapper.Duration
	snap := d.snapshot

	switch d.kind {
	case KindResizeStart:
		newStart := clamp(snap.Start+deltaTime, 0, snap.End-d.minLength)
		return Update{Kind: d.kind, Start: newStart, End: snap.End}, nil

	case KindResizeEnd:
		newEnd := clamp(snap.End+deltaTime, snap.Start+d.minLength, duration)
		return Update{Kind: d.kind, Start: snap.Start, End: newEnd}, nil

	case KindMove:
		length := snap.End - snap.Start
		newStart := snap.Start + deltaTime
		if newStart < 0 {
			newStart = 0
		}
		newEnd := newStart + length
		if newEnd > duration {
			// Pin at the timeline's end rather than shortening the segment.
			newEnd = duration
			newStart = newEnd - length
		}
		return Update{Kind: d.kind, Start: newStart, End: newEnd}, nil

	case KindPan:
		return Update{Kind: d.kind, Scroll: d.scrollStart - deltaPx}, nil

	default:
		return Update{}, ErrUnknownKind
	}
}

// End finishes the gesture and discards the snapshot.
func (d *Drag) End() {
	*d = Drag{}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
