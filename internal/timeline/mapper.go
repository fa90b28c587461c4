// Package timeline holds the pure geometry of the editor: conversions
// between time and timeline pixels under zoom, and the letterboxed
// display rectangle of a video inside its container.
package timeline

// Mapper converts between a time in seconds and a horizontal pixel
// offset on the timeline strip. The strip's content width is the base
// width scaled by the zoom factor, never narrower than the viewport.
type Mapper struct {
	Duration     float64
	ContentWidth float64
}

// NewMapper builds a mapper for a source of the given duration rendered
// into a strip of baseWidth pixels at the given zoom factor. The strip
// never shrinks below viewportWidth so the timeline always fills its
// container.
func NewMapper(duration, baseWidth, zoom, viewportWidth float64) Mapper {
	if zoom <= 0 {
		zoom = 1
	}
	width := baseWidth * zoom
	if width < viewportWidth {
		width = viewportWidth
	}
	return Mapper{Duration: duration, ContentWidth: width}
}

// TimeToPx maps a time in seconds to a pixel offset from the strip's left edge.
func (m Mapper) TimeToPx(t float64) float64 {
	if m.Duration <= 0 {
		return 0
	}
	return t / m.Duration * m.ContentWidth
}

// PxToTime maps a pixel offset back to a time in seconds.
func (m Mapper) PxToTime(px float64) float64 {
	if m.ContentWidth <= 0 {
		return 0
	}
	return px / m.ContentWidth * m.Duration
}

// DeltaTime converts a pixel delta from a drag gesture into a time delta.
func (m Mapper) DeltaTime(deltaPx float64) float64 {
	return m.PxToTime(deltaPx)
}

// Rect is the displayed video rectangle inside its container, in pixels.
type Rect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
}

// FitRect letterboxes a video of videoW x videoH into a container of
// containerW x containerH, preserving aspect ratio and centering the
// leftover axis. A wider container than the video is height-limited;
// otherwise the fit is width-limited.
func FitRect(containerW, containerH, videoW, videoH float64) Rect {
	if containerW <= 0 || containerH <= 0 {
		return Rect{}
	}
	if videoW <= 0 {
		videoW = 16
	}
	if videoH <= 0 {
		videoH = 9
	}

	containerRatio := containerW / containerH
	videoRatio := videoW / videoH

	var r Rect
	if containerRatio > videoRatio {
		r.Height = containerH
		r.Width = r.Height * videoRatio
		r.Top = 0
		r.Left = (containerW - r.Width) / 2
	} else {
		r.Width = containerW
		r.Height = r.Width / videoRatio
		r.Left = 0
		r.Top = (containerH - r.Height) / 2
	}
	return r
}
