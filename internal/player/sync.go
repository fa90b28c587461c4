package player

import (
	"log/slog"
	"sync"

	"github.com/shortsplice/splice-agent/internal/session"
)

const (
	// BackTolerance absorbs the one-frame lag between a seek command and
	// the media element reporting the new position. Without it a loop
	// restart would look like an out-of-range position and trigger a
	// second corrective seek.
	BackTolerance = 0.5

	// LeadTolerance cuts to the next segment slightly before the current
	// one ends so the transition feels seamless despite seek latency.
	LeadTolerance = 0.2
)

// Synchronizer reconciles the authoritative media position against the
// session's segment boundaries. It realizes two continuous modes:
// single-segment loop and full-cut preview. Each Tick is idempotent;
// repeated calls with an unchanged position never stack seeks.
type Synchronizer struct {
	sess   *session.Session
	media  Media
	sched  *Scheduler
	logger *slog.Logger

	// frameMu serializes reconciliation frames: the scheduler and an
	// externally driven tick may fire at the same instant, and only one
	// of them may act on a given out-of-range position.
	frameMu sync.Mutex

	mu               sync.Mutex
	previewSegmentID string
}

// NewSynchronizer wires a synchronizer to one session and its media
// element. The frame scheduler is attached afterwards via SetScheduler.
func NewSynchronizer(sess *session.Session, media Media, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{sess: sess, media: media, logger: logger}
}

// SetScheduler attaches the frame scheduler that re-arms reconciliation
// whenever a continuous mode starts.
func (y *Synchronizer) SetScheduler(sched *Scheduler) {
	y.sched = sched
}

// Active reports whether per-frame reconciliation has any work: the
// session must be playing in loop or preview mode. The scheduler checks
// this at the entry of every frame and stops itself when it turns false.
func (y *Synchronizer) Active() bool {
	st := y.sess.State()
	return st.Playing && (st.Previewing || st.LoopingSegmentID != "")
}

// PreviewSegmentID returns the segment the preview position was inside
// at the last reconciliation frame, to drive the per-segment crop
// preview. Empty between segments or outside preview mode.
func (y *Synchronizer) PreviewSegmentID() string {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.previewSegmentID
}

// ToggleLoop enters single-segment loop mode on the given segment, or
// leaves it when the same segment is toggled again. Entering seeks to
// the segment start and forces playback.
func (y *Synchronizer) ToggleLoop(id string) error {
	st := y.sess.State()
	if st.LoopingSegmentID == id {
		y.sess.StopLoop()
		y.disarm()
		return nil
	}

	seg, err := y.sess.StartLoop(id)
	if err != nil {
		return err
	}
	y.seek(seg.Start)
	if err := y.play(); err != nil {
		return err
	}
	y.arm()
	return nil
}

// TogglePreview enters full-cut preview mode, or leaves it when already
// previewing. Entering requires at least one segment, clears selection
// and seeks to the first segment in output order.
func (y *Synchronizer) TogglePreview() error {
	if y.sess.State().Previewing {
		y.sess.StopPreview()
		y.setPreviewSegment("")
		y.disarm()
		return nil
	}

	first, err := y.sess.StartPreview()
	if err != nil {
		return err
	}
	y.seek(first.Start)
	if err := y.play(); err != nil {
		return err
	}
	y.arm()
	return nil
}

// SelectSegment makes a segment active for editing: any continuous mode
// exits, the position jumps to the segment start and playback pauses.
func (y *Synchronizer) SelectSegment(id string) error {
	seg, err := y.sess.Segment(id)
	if err != nil {
		return err
	}
	if err := y.sess.SetActive(id); err != nil {
		return err
	}
	y.disarm()
	y.seek(seg.Start)
	y.pause()
	return nil
}

// DeleteSegment removes a segment through the session store. If the
// deleted segment was being looped the mode collapses to idle and the
// scheduler is released.
func (y *Synchronizer) DeleteSegment(id string) error {
	if err := y.sess.DeleteSegment(id); err != nil {
		return err
	}
	if !y.Active() {
		y.disarm()
	}
	return nil
}

// Escape cancels mark, selection, loop and preview in one stroke.
func (y *Synchronizer) Escape() {
	y.sess.Escape()
	y.setPreviewSegment("")
	y.disarm()
}

// Shutdown releases the scheduler. A frame already in flight is a
// guaranteed no-op once the session left its mode.
func (y *Synchronizer) Shutdown() {
	y.disarm()
}

// MarkIn records an in-point at the authoritative media position.
func (y *Synchronizer) MarkIn() error {
	return y.sess.MarkIn(y.media.CurrentTime())
}

// MarkOut commits the pending in-point as a segment ending at the
// authoritative media position.
func (y *Synchronizer) MarkOut() (*session.Segment, error) {
	return y.sess.MarkOut(y.media.CurrentTime())
}

// DeleteActive removes the active segment if there is one.
func (y *Synchronizer) DeleteActive() error {
	st := y.sess.State()
	if st.ActiveSegmentID == "" {
		return nil
	}
	return y.DeleteSegment(st.ActiveSegmentID)
}

// TogglePlay flips play/pause. A rejected play is surfaced as a
// MediaError and leaves the session paused; segments and selection are
// untouched.
func (y *Synchronizer) TogglePlay() error {
	if y.sess.State().Playing {
		y.pause()
		return nil
	}
	if err := y.play(); err != nil {
		return err
	}
	y.arm()
	return nil
}

// ReportMediaError records a playback failure raised by the media
// element. Playback drops to paused and the scheduler is released;
// segments, titles and selection stay intact so the cut survives a
// broken source.
func (y *Synchronizer) ReportMediaError(code int, detail string) *MediaError {
	merr := &MediaError{Code: code, Detail: detail}
	y.pause()
	y.disarm()
	if y.logger != nil {
		y.logger.Warn("media element error",
			"code", code,
			"decode_class", merr.IsDecodeClass(),
			"error", merr)
	}
	return merr
}

// SeekRelative moves the position by delta seconds, clamped to the
// source duration.
func (y *Synchronizer) SeekRelative(delta float64) {
	y.seek(y.media.CurrentTime() + delta)
}

// SeekTo moves the position to t, clamped to the source duration.
func (y *Synchronizer) SeekTo(t float64) {
	y.seek(t)
}

// Tick runs one reconciliation frame. It reads the authoritative
// position from the media element, applies the loop or preview policy
// and reports whether a seek was issued. Dormant (and free of any side
// effect) unless playing in a continuous mode.
func (y *Synchronizer) Tick() bool {
	y.frameMu.Lock()
	defer y.frameMu.Unlock()

	st := y.sess.State()
	if !st.Playing || (!st.Previewing && st.LoopingSegmentID == "") {
		return false
	}

	realTime := y.media.CurrentTime()

	if st.LoopingSegmentID != "" {
		return y.tickLoop(st.LoopingSegmentID, realTime)
	}
	return y.tickPreview(realTime)
}

func (y *Synchronizer) tickLoop(id string, realTime float64) bool {
	seg, err := y.sess.Segment(id)
	if err != nil {
		// Segment deleted mid-loop: collapse to idle instead of erroring.
		y.sess.StopLoop()
		return false
	}
	if realTime >= seg.End || realTime < seg.Start-BackTolerance {
		y.seek(seg.Start)
		return true
	}
	return false
}

func (y *Synchronizer) tickPreview(realTime float64) bool {
	ordered := y.sess.OrderedSegments()
	if len(ordered) == 0 {
		y.sess.StopPreview()
		y.setPreviewSegment("")
		return false
	}

	idx := -1
	for i, seg := range ordered {
		if seg.Contains(realTime) {
			idx = i
			break
		}
	}

	if idx == -1 {
		// Between segments: skip the gap to the next start, or wrap to
		// the first segment to loop the whole cut.
		y.setPreviewSegment("")
		for _, seg := range ordered {
			if seg.Start > realTime {
				y.seek(seg.Start)
				return true
			}
		}
		y.seek(ordered[0].Start)
		return true
	}

	seg := ordered[idx]
	y.setPreviewSegment(seg.ID)
	if realTime >= seg.End-LeadTolerance {
		if idx+1 < len(ordered) {
			y.seek(ordered[idx+1].Start)
		} else {
			y.seek(ordered[0].Start)
		}
		return true
	}
	return false
}

func (y *Synchronizer) seek(t float64) {
	if t < 0 {
		t = 0
	}
	if d := y.media.Duration(); d > 0 && t > d {
		t = d
	}
	y.media.SeekTo(t)
	y.sess.SetCurrentTime(t)
}

func (y *Synchronizer) play() error {
	if err := y.media.Play(); err != nil {
		y.sess.SetPlaying(false)
		if y.logger != nil {
			y.logger.Warn("play rejected", "error", err)
		}
		return err
	}
	y.sess.SetPlaying(true)
	return nil
}

func (y *Synchronizer) pause() {
	y.media.Pause()
	y.sess.SetPlaying(false)
}

func (y *Synchronizer) arm() {
	if y.sched != nil && y.Active() {
		y.sched.Arm()
	}
}

func (y *Synchronizer) disarm() {
	if y.sched != nil {
		y.sched.Disarm()
	}
}

func (y *Synchronizer) setPreviewSegment(id string) {
	y.mu.Lock()
	y.previewSegmentID = id
	y.mu.Unlock()
}
