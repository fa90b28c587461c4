package session

import (
	"sort"
	"time"
)

// SegmentPatch carries a partial segment update. Nil fields are left
// untouched.
type SegmentPatch struct {
	Start      *float64 `json:"start,omitempty"`
	End        *float64 `json:"end,omitempty"`
	CropOffset *float64 `json:"cropOffset,omitempty"`
	Speed      *float64 `json:"speed,omitempty"`
	TitleID    *string  `json:"titleId,omitempty"`
}

// AddSegment appends a new segment and makes it active. The interval is
// validated against the source duration and the minimum segment length.
// Overlap with existing segments is allowed by design.
func (s *Session) AddSegment(start, end, cropOffset float64) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSegmentLocked(start, end, cropOffset)
}

func (s *Session) addSegmentLocked(start, end, cropOffset float64) (*Segment, error) {
	if err := s.validateIntervalLocked(start, end); err != nil {
		return nil, err
	}
	seg := Segment{
		ID:         NewID(),
		Start:      start,
		End:        end,
		CropOffset: clamp01(cropOffset),
		Speed:      DefaultSpeed,
		CreatedAt:  time.Now(),
	}
	s.segments = append(s.segments, seg)
	s.state.ActiveSegmentID = seg.ID
	s.state.LoopingSegmentID = ""
	s.state.Previewing = false
	cp := seg
	return &cp, nil
}

func (s *Session) validateIntervalLocked(start, end float64) error {
	if end <= start {
		return ErrInvalidInterval
	}
	if end-start < MinSegmentDuration {
		return ErrSegmentTooShort
	}
	if start < 0 || (s.duration > 0 && end > s.duration) {
		return ErrOutOfBounds
	}
	return nil
}

// UpdateSegment merges a patch into the segment. The store re-validates
// the resulting interval; an invalid patch leaves the segment at its
// last valid state and reports the violation.
func (s *Session) UpdateSegment(id string, patch SegmentPatch) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg := s.findSegmentLocked(id)
	if seg == nil {
		return nil, ErrNotFound
	}

	next := *seg
	if patch.Start != nil {
		next.Start = *patch.Start
	}
	if patch.End != nil {
		next.End = *patch.End
	}
	if patch.CropOffset != nil {
		next.CropOffset = clamp01(*patch.CropOffset)
	}
	if patch.Speed != nil {
		if *patch.Speed <= 0 {
			return nil, ErrInvalidSpeed
		}
		next.Speed = *patch.Speed
	}
	if patch.TitleID != nil {
		next.TitleID = *patch.TitleID
	}

	if err := s.validateIntervalLocked(next.Start, next.End); err != nil {
		return nil, err
	}

	*seg = next
	cp := next
	return &cp, nil
}

// DeleteSegment removes a segment. If the segment was active or looped
// the reference is cleared so the synchronizer falls back to idle.
func (s *Session) DeleteSegment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.segments {
		if s.segments[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}
	s.segments = append(s.segments[:idx], s.segments[idx+1:]...)
	if s.state.ActiveSegmentID == id {
		s.state.ActiveSegmentID = ""
	}
	if s.state.LoopingSegmentID == id {
		s.state.LoopingSegmentID = ""
	}
	return nil
}

// ClearSegments drops every segment and the selection state referencing them.
func (s *Session) ClearSegments() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = nil
	s.state.ActiveSegmentID = ""
	s.state.LoopingSegmentID = ""
	s.state.Previewing = false
}

// Segments returns a copy of the segments in insertion order.
func (s *Session) Segments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// OrderedSegments returns a copy sorted ascending by start time. The
// synchronizer and renderers always process segments in this order.
func (s *Session) OrderedSegments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderedLocked()
}

func (s *Session) orderedLocked() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// Segment returns a copy of the segment with the given id.
func (s *Session) Segment(id string) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg := s.findSegmentLocked(id)
	if seg == nil {
		return nil, ErrNotFound
	}
	cp := *seg
	return &cp, nil
}

// SegmentAt returns the segment containing t, or nil. When several
// overlapping segments contain t the earliest start wins, ties broken by
// creation order.
func (s *Session) SegmentAt(t float64) *Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seg := range s.orderedLocked() {
		if seg.Contains(t) {
			cp := seg
			return &cp
		}
	}
	return nil
}

// CountSegments returns the number of segments in the session.
func (s *Session) CountSegments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

func (s *Session) findSegmentLocked(id string) *Segment {
	for i := range s.segments {
		if s.segments[i].ID == id {
			return &s.segments[i]
		}
	}
	return nil
}
