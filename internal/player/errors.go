package player

import "fmt"

// Media element error codes, mirroring the HTMLMediaElement error
// contract surfaced by the preview frontend.
const (
	MediaErrAborted      = 1
	MediaErrNetwork      = 2
	MediaErrDecode       = 3
	MediaErrNotSupported = 4
)

// MediaError is a non-fatal playback failure reported by the media
// element. It never unwinds editing state: the caller resets playback to
// paused and keeps segments and selection intact.
type MediaError struct {
	Code   int
	Detail string
}

func (e *MediaError) Error() string {
	msg := "failed to load video"
	switch e.Code {
	case MediaErrAborted:
		msg = "video load aborted"
	case MediaErrNetwork:
		msg = "network error while loading video"
	case MediaErrDecode:
		msg = "video decoding error (codec issue?)"
	case MediaErrNotSupported:
		msg = "video format not supported"
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// IsDecodeClass reports whether the error is a decode/format failure as
// opposed to a transient load problem.
func (e *MediaError) IsDecodeClass() bool {
	return e.Code == MediaErrDecode || e.Code == MediaErrNotSupported
}
