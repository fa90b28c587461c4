// Package export turns an editing session into its outward-facing
// artifacts: the render payload posted to a processing backend and a
// CMX-style EDL cut list for NLE handoff.
package export

import (
	"github.com/shortsplice/splice-agent/internal/session"
)

// RenderPayload is the JSON document describing one full cut: the
// ordered segments with their per-segment crop and speed, the title
// overlays and the audio-track configuration.
type RenderPayload struct {
	FileID   string           `json:"fileId"`
	Segments []SegmentPayload `json:"segments"`
	Titles   []TitlePayload   `json:"titles"`
	Audio    []AudioPayload   `json:"audio"`
}

type SegmentPayload struct {
	ID         string  `json:"id"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	CropOffset float64 `json:"cropOffset"`
	Speed      float64 `json:"speed"`
}

type TitlePayload struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
	Animation string  `json:"animation"`
	FontSize  int     `json:"fontSize"`
	Position  string  `json:"position"`
	Visible   bool    `json:"visible"`
}

type AudioPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	StartTime float64 `json:"startTime"`
	Volume    float64 `json:"volume"`
	Muted     bool    `json:"muted"`
	Solo      bool    `json:"solo"`
}

// BuildPayload snapshots a session into a render payload. Segments are
// emitted in output order (earliest source start first). A session with
// no segments has nothing to render.
func BuildPayload(sess *session.Session) (*RenderPayload, error) {
	ordered := sess.OrderedSegments()
	if len(ordered) == 0 {
		return nil, session.ErrNoSegments
	}

	p := &RenderPayload{
		FileID:   sess.FileID,
		Segments: make([]SegmentPayload, 0, len(ordered)),
	}
	for _, seg := range ordered {
		p.Segments = append(p.Segments, SegmentPayload{
			ID:         seg.ID,
			Start:      seg.Start,
			End:        seg.End,
			CropOffset: seg.CropOffset,
			Speed:      seg.Speed,
		})
	}
	for _, t := range sess.Titles() {
		p.Titles = append(p.Titles, TitlePayload{
			ID:        t.ID,
			Text:      t.Text,
			StartTime: t.StartTime,
			Duration:  t.Duration,
			Animation: t.Animation,
			FontSize:  t.FontSize,
			Position:  t.Position,
			Visible:   t.Visible,
		})
	}
	for _, a := range sess.AudioTracks() {
		p.Audio = append(p.Audio, AudioPayload{
			ID:        a.ID,
			Name:      a.Name,
			Type:      a.Type,
			StartTime: a.StartTime,
			Volume:    a.Volume,
			Muted:     a.Muted,
			Solo:      a.Solo,
		})
	}
	return p, nil
}

// OutputDuration sums the record-side length of the payload's segments,
// with each segment shortened or stretched by its speed ratio.
func (p *RenderPayload) OutputDuration() float64 {
	var total float64
	for _, seg := range p.Segments {
		speed := seg.Speed
		if speed <= 0 {
			speed = 1
		}
		total += (seg.End - seg.Start) / speed
	}
	return total
}
