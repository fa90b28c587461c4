package session

import (
	"sync"
	"time"
)

// State is the single authoritative playback/editing record. Looping and
// previewing are mutually exclusive, as are marking and previewing; every
// mutation that could violate those invariants goes through Session
// methods so they are enforced in one place.
type State struct {
	CurrentTime      float64  `json:"current_time"`
	Playing          bool     `json:"playing"`
	MarkStart        *float64 `json:"mark_start,omitempty"`
	PendingCrop      float64  `json:"pending_crop"`
	ActiveSegmentID  string   `json:"active_segment_id,omitempty"`
	LoopingSegmentID string   `json:"looping_segment_id,omitempty"`
	Previewing       bool     `json:"previewing"`
}

// Session is one in-memory editing session bound to a source video.
// All methods are safe for concurrent use.
type Session struct {
	ID        string
	FileID    string
	CreatedAt time.Time

	mu       sync.Mutex
	duration float64
	videoW   int
	videoH   int
	segments []Segment
	titles   []Title
	tracks   []AudioTrack
	state    State
}

// New creates a session for a source of the given duration and pixel
// dimensions. The original audio track sentinel is seeded immediately.
func New(fileID string, duration float64, videoW, videoH int) *Session {
	return &Session{
		ID:        NewID(),
		FileID:    fileID,
		CreatedAt: time.Now(),
		duration:  duration,
		videoW:    videoW,
		videoH:    videoH,
		tracks: []AudioTrack{{
			ID:     OriginalTrackID,
			Name:   "Original Audio",
			Type:   TrackTypeOriginal,
			Volume: 1,
		}},
		state: State{PendingCrop: DefaultCropOffset},
	}
}

// Duration returns the source duration in seconds.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// VideoSize returns the source pixel dimensions.
func (s *Session) VideoSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoW, s.videoH
}

// State returns a copy of the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetCurrentTime mirrors the media element's reported position. The
// mirrored value may lag the element by one frame; the synchronizer
// always reads the element directly.
func (s *Session) SetCurrentTime(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t < 0 {
		t = 0
	}
	if s.duration > 0 && t > s.duration {
		t = s.duration
	}
	s.state.CurrentTime = t
}

// SetPlaying records whether the media element is playing.
func (s *Session) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Playing = playing
}

// MarkIn records an in-point at t for a future segment. Marking is
// disabled while previewing.
func (s *Session) MarkIn(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Previewing {
		return ErrMarkWhilePreview
	}
	mark := t
	s.state.MarkStart = &mark
	return nil
}

// MarkOut commits the pending in-point as a new segment ending at t,
// carrying the pending crop offset. The mark is cleared on success.
func (s *Session) MarkOut(t float64) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.MarkStart == nil {
		return nil, ErrNoMark
	}
	seg, err := s.addSegmentLocked(*s.state.MarkStart, t, s.state.PendingCrop)
	if err != nil {
		return nil, err
	}
	s.state.MarkStart = nil
	s.state.PendingCrop = DefaultCropOffset
	return seg, nil
}

// CancelMark discards a pending in-point.
func (s *Session) CancelMark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.MarkStart = nil
}

// SetActive selects a segment for editing. Selecting clears loop and
// preview modes; selection and continuous playback modes never coexist.
func (s *Session) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.findSegmentLocked(id) == nil {
		return ErrNotFound
	}
	s.state.ActiveSegmentID = id
	s.state.LoopingSegmentID = ""
	s.state.Previewing = false
	return nil
}

// StartLoop puts the session in single-segment loop mode and forces
// playing. Previewing is cleared.
func (s *Session) StartLoop(id string) (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg := s.findSegmentLocked(id)
	if seg == nil {
		return nil, ErrNotFound
	}
	s.state.LoopingSegmentID = id
	s.state.Previewing = false
	s.state.Playing = true
	cp := *seg
	return &cp, nil
}

// StopLoop leaves single-segment loop mode.
func (s *Session) StopLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LoopingSegmentID = ""
}

// StartPreview enters full-cut preview mode. Requires at least one
// segment; clears selection, loop mode and any pending mark, and forces
// playing. Returns the first segment in output order.
func (s *Session) StartPreview() (*Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.segments) == 0 {
		return nil, ErrNoSegments
	}
	s.state.Previewing = true
	s.state.LoopingSegmentID = ""
	s.state.ActiveSegmentID = ""
	s.state.MarkStart = nil
	s.state.Playing = true
	ordered := s.orderedLocked()
	first := ordered[0]
	return &first, nil
}

// StopPreview leaves preview mode.
func (s *Session) StopPreview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Previewing = false
}

// Escape cancels every transient mode: mark, selection, loop and preview.
func (s *Session) Escape() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.MarkStart = nil
	s.state.ActiveSegmentID = ""
	s.state.LoopingSegmentID = ""
	s.state.Previewing = false
}

// SetPendingCrop stores the crop offset used for the next mark-out commit.
func (s *Session) SetPendingCrop(offset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PendingCrop = clamp01(offset)
}

// ApplyCrop writes a normalized crop offset to the active segment, or to
// the pending crop while an in-point is marked. Without either target the
// call is a no-op.
func (s *Session) ApplyCrop(offset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset = clamp01(offset)
	if s.state.ActiveSegmentID != "" {
		if seg := s.findSegmentLocked(s.state.ActiveSegmentID); seg != nil {
			seg.CropOffset = offset
			return
		}
	}
	if s.state.MarkStart != nil {
		s.state.PendingCrop = offset
	}
}

// Reset clears segments, titles, custom audio tracks and all transient
// state. Invoked when a new source file is loaded into the session.
func (s *Session) Reset(duration float64, videoW, videoH int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = duration
	s.videoW = videoW
	s.videoH = videoH
	s.segments = nil
	s.titles = nil
	s.tracks = []AudioTrack{{
		ID:     OriginalTrackID,
		Name:   "Original Audio",
		Type:   TrackTypeOriginal,
		Volume: 1,
	}}
	s.state = State{PendingCrop: DefaultCropOffset}
}
