// Package player drives preview playback: it owns the narrow contract
// to the media element and the synchronizer that reconciles the playback
// position against segment boundaries every frame.
package player

// Media is the narrow interface to the media element behind the preview.
// Implementations mirror an HTML video element or a headless decoder:
// Play may be rejected asynchronously and reports that as an error,
// CurrentTime is the authoritative playback position, and Duration is
// only meaningful after metadata has loaded.
type Media interface {
	Play() error
	Pause()
	CurrentTime() float64
	SeekTo(t float64)
	Duration() float64
}
