package timeline

// CropRatio is the width:height ratio of the output crop window.
// The splicer always produces a vertical 9:16 cut.
const CropRatio = 9.0 / 16.0

// CropGeometry describes the crop window laid over a displayed video
// rectangle. Offsets are in pixels relative to the rectangle's left edge.
type CropGeometry struct {
	CropWidth   float64 `json:"crop_width"`
	MaxOffsetPx float64 `json:"max_offset_px"`
}

// CropFor computes the crop window geometry for a displayed rectangle.
// When the video is already narrower than the crop window MaxOffsetPx
// is zero or negative and dragging must be treated as a no-op.
func CropFor(display Rect) CropGeometry {
	cropWidth := display.Height * CropRatio
	return CropGeometry{
		CropWidth:   cropWidth,
		MaxOffsetPx: display.Width - cropWidth,
	}
}

// Draggable reports whether the crop window has any horizontal travel.
func (g CropGeometry) Draggable() bool {
	return g.MaxOffsetPx > 0
}

// OffsetFromPointer maps an absolute pointer x position to a normalized
// crop offset in [0,1]. The pointer is treated as the desired center of
// the crop window. Returns 0.5 (centered) when the window cannot move.
func (g CropGeometry) OffsetFromPointer(clientX float64, display Rect) float64 {
	if !g.Draggable() {
		return 0.5
	}
	raw := clientX - display.Left - g.CropWidth/2
	raw = clampFloat(raw, 0, g.MaxOffsetPx)
	return raw / g.MaxOffsetPx
}

// OffsetToPx converts a normalized offset back to the crop window's
// left edge in pixels relative to the displayed rectangle.
func (g CropGeometry) OffsetToPx(offset float64) float64 {
	return g.MaxOffsetPx * clampFloat(offset, 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
