package api

import (
	"time"

	"github.com/shortsplice/splice-agent/internal/library"
	"github.com/shortsplice/splice-agent/internal/session"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State          string `json:"state"`
	SourcesCount   int    `json:"sources_count"`
	FilesCount     int    `json:"files_count"`
	SessionsCount  int    `json:"sessions_count"`
	RendersRunning int    `json:"renders_running"`
}

type AddFolderRequest struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name,omitempty"`
}

type AddFolderResponse struct {
	SourceID string `json:"source_id"`
}

type SourceResponse struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Present     bool   `json:"present"`
	CreatedAt   string `json:"created_at"`
}

type SourcesResponse struct {
	Sources []SourceResponse `json:"sources"`
}

type FileResponse struct {
	ID          string  `json:"id"`
	SourceID    string  `json:"source_id"`
	Filename    string  `json:"filename"`
	Size        int64   `json:"size"`
	Fingerprint string  `json:"fingerprint"`
	Duration    float64 `json:"duration"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FrameRate   float64 `json:"frame_rate"`
	HasAudio    bool    `json:"has_audio"`
	CreatedAt   string  `json:"created_at"`
}

type FilesResponse struct {
	Files []FileResponse `json:"files"`
}

type CreateSessionRequest struct {
	FileID string `json:"file_id"`
}

type SessionResponse struct {
	ID        string  `json:"id"`
	FileID    string  `json:"file_id"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	CreatedAt string  `json:"created_at"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// SessionDetailResponse is the full editing state the client renders
// its timeline from.
type SessionDetailResponse struct {
	SessionResponse
	State    session.State        `json:"state"`
	Segments []session.Segment    `json:"segments"`
	Titles   []session.Title      `json:"titles"`
	Audio    []session.AudioTrack `json:"audio"`
}

type AddSegmentRequest struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	CropOffset float64 `json:"cropOffset"`
}

type AddTrackRequest struct {
	Name       string `json:"name"`
	SourcePath string `json:"source_path,omitempty"`
}

type TickRequest struct {
	Time float64 `json:"time"`
}

// TickResponse carries the reconciliation outcome for one frame: the
// seek directive for the media element, if any, and the state the
// client should mirror.
type TickResponse struct {
	SeekTo           *float64 `json:"seek_to,omitempty"`
	Playing          bool     `json:"playing"`
	Previewing       bool     `json:"previewing"`
	PreviewSegmentID string   `json:"preview_segment_id,omitempty"`
	LoopingSegmentID string   `json:"looping_segment_id,omitempty"`
}

type KeyRequest struct {
	Key string `json:"key"`
}

type KeyResponse struct {
	Handled bool `json:"handled"`
}

type SeekRequest struct {
	Time  *float64 `json:"time,omitempty"`
	Delta *float64 `json:"delta,omitempty"`
}

type CropRequest struct {
	Offset float64 `json:"offset"`
}

// TimelineView carries the client's current timeline viewport, the
// inputs for the time-to-pixel mapping.
type TimelineView struct {
	BaseWidth     float64 `json:"base_width"`
	Zoom          float64 `json:"zoom"`
	ViewportWidth float64 `json:"viewport_width"`
}

type DragBeginRequest struct {
	Kind         string       `json:"kind"`
	Target       string       `json:"target,omitempty"`
	TargetID     string       `json:"target_id,omitempty"`
	PointerX     float64      `json:"pointer_x"`
	ScrollOffset float64      `json:"scroll_offset,omitempty"`
	View         TimelineView `json:"view"`
}

type DragMoveRequest struct {
	PointerX float64 `json:"pointer_x"`
}

// DragUpdateResponse echoes the clamped interval (or pan scroll) the
// move resolved to, already written through to the store.
type DragUpdateResponse struct {
	Kind   string  `json:"kind"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Scroll float64 `json:"scroll"`
}

// CropPointerRequest positions the 9:16 crop window from a raw pointer
// coordinate over the display rect the client computed its layout in.
type CropPointerRequest struct {
	ClientX         float64 `json:"client_x"`
	ContainerWidth  float64 `json:"container_width"`
	ContainerHeight float64 `json:"container_height"`
}

type CropPointerResponse struct {
	Offset    float64       `json:"offset"`
	Draggable bool          `json:"draggable"`
	State     session.State `json:"state"`
}

type MediaErrorRequest struct {
	Code   int    `json:"code"`
	Detail string `json:"detail,omitempty"`
}

type MediaErrorResponse struct {
	Error       string        `json:"error"`
	DecodeClass bool          `json:"decode_class"`
	State       session.State `json:"state"`
}

type RenderResponse struct {
	JobID string `json:"job_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SourceToResponse(s *library.Source) SourceResponse {
	return SourceResponse{
		ID:          s.ID,
		Path:        s.Path,
		DisplayName: s.DisplayName,
		Present:     s.Present,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func FileToResponse(f *library.File) FileResponse {
	return FileResponse{
		ID:          f.ID,
		SourceID:    f.SourceID,
		Filename:    f.Filename,
		Size:        f.Size,
		Fingerprint: f.Fingerprint,
		Duration:    f.Duration,
		Width:       f.Width,
		Height:      f.Height,
		FrameRate:   f.FrameRate,
		HasAudio:    f.HasAudio,
		CreatedAt:   f.CreatedAt.Format(time.RFC3339),
	}
}

func SessionToResponse(s *session.Session) SessionResponse {
	w, h := s.VideoSize()
	return SessionResponse{
		ID:        s.ID,
		FileID:    s.FileID,
		Duration:  s.Duration(),
		Width:     w,
		Height:    h,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}
