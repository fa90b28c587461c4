// Package session owns the in-memory editing session: the segment,
// title and audio-track interval stores and the single playback/editing
// state value whose invariants are enforced in one place.
package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"
)

const (
	// MinSegmentDuration is the shortest interval a segment may have, in seconds.
	MinSegmentDuration = 0.5
	// MinTitleDuration is the shortest interval a title overlay may have, in seconds.
	MinTitleDuration = 0.5

	// DefaultCropOffset centers the crop window.
	DefaultCropOffset = 0.5
	// DefaultSpeed is the playback speed ratio applied to new segments.
	DefaultSpeed = 1.0

	// OriginalTrackID identifies the sentinel audio track carrying the
	// source's own audio. It cannot be removed.
	OriginalTrackID = "original"
)

var (
	ErrInvalidInterval  = errors.New("end time must be after start time")
	ErrSegmentTooShort  = errors.New("segment shorter than minimum duration")
	ErrTitleTooShort    = errors.New("title shorter than minimum duration")
	ErrOutOfBounds      = errors.New("interval outside source duration")
	ErrNotFound         = errors.New("not found")
	ErrNoMark           = errors.New("no in-point marked")
	ErrMarkWhilePreview = errors.New("marking is disabled while previewing")
	ErrNoSegments       = errors.New("session has no segments")
	ErrOriginalTrack    = errors.New("the original audio track cannot be removed")
	ErrInvalidPosition  = errors.New("position must be top, center or bottom")
	ErrInvalidSpeed     = errors.New("speed must be positive")
)

// Segment is a source-time interval with an independent crop and speed,
// the atomic unit of the edited output. Segments may overlap in source
// time; two different crops of the same moment is a valid composition.
type Segment struct {
	ID         string    `json:"id"`
	Start      float64   `json:"start"`
	End        float64   `json:"end"`
	CropOffset float64   `json:"cropOffset"`
	Speed      float64   `json:"speed"`
	TitleID    string    `json:"titleId,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Contains reports whether t falls inside the segment's half-open interval.
func (s Segment) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// Length returns the segment's source-time length in seconds.
func (s Segment) Length() float64 {
	return s.End - s.Start
}

// Title positions on the output frame.
const (
	PositionTop    = "top"
	PositionCenter = "center"
	PositionBottom = "bottom"
)

// Title is a text overlay on the output timeline. Its coordinates are
// output-timeline seconds, independent from segment intervals: overlays
// are not clipped or reflowed when segments change.
type Title struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
	Animation string  `json:"animation"`
	FontSize  int     `json:"fontSize"`
	Position  string  `json:"position"`
	Visible   bool    `json:"visible"`
}

// Audio track types.
const (
	TrackTypeOriginal = "original"
	TrackTypeCustom   = "custom"
)

// AudioTrack models start-time/volume/mute bookkeeping for one audio
// layer. No mixing math happens here.
type AudioTrack struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	StartTime  float64 `json:"startTime"`
	Duration   float64 `json:"duration"`
	Volume     float64 `json:"volume"`
	Muted      bool    `json:"muted"`
	Solo       bool    `json:"solo"`
	SourcePath string  `json:"source_path,omitempty"`
}

// NewID returns a random 128-bit identifier. Uniqueness is the only contract.
func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
