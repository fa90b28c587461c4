package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shortsplice/splice-agent/internal/drag"
	"github.com/shortsplice/splice-agent/internal/session"
	"github.com/shortsplice/splice-agent/internal/timeline"
)

// Drag targets.
const (
	dragTargetSegment = "segment"
	dragTargetTitle   = "title"
	dragTargetAudio   = "audio"
)

// dragTarget remembers which entity a drag writes through to. Empty
// kind means pan, which touches no entity.
type dragTarget struct {
	kind string
	id   string
}

func parseDragKind(s string) (drag.Kind, bool) {
	switch s {
	case "move":
		return drag.KindMove, true
	case "resize-start":
		return drag.KindResizeStart, true
	case "resize-end":
		return drag.KindResizeEnd, true
	case "pan":
		return drag.KindPan, true
	default:
		return 0, false
	}
}

// beginDrag arms a pointer gesture against a snapshot of its target.
// The snapshot is taken here, once, so later moves are computed against
// pointer-down state rather than whatever the store holds by then.
func (h *handlers) beginDrag(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req DragBeginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	kind, ok := parseDragKind(req.Kind)
	if !ok {
		WriteError(w, http.StatusBadRequest, "unknown drag kind", "BAD_REQUEST")
		return
	}

	mapper := timeline.NewMapper(ed.sess.Duration(), req.View.BaseWidth, req.View.Zoom, req.View.ViewportWidth)

	if kind == drag.KindPan {
		ed.dragMu.Lock()
		ed.drag.BeginPan(req.ScrollOffset, req.PointerX, mapper)
		ed.dragTarget = dragTarget{}
		ed.dragMu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	snap, minLength, err := dragSnapshot(ed.sess, req.Target, req.TargetID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	ed.dragMu.Lock()
	ed.drag.Begin(kind, snap, req.PointerX, minLength, mapper)
	ed.dragTarget = dragTarget{kind: req.Target, id: req.TargetID}
	ed.dragMu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// dragSnapshot resolves the dragged entity's current bounds and the
// minimum length a resize may shrink it to.
func dragSnapshot(sess *session.Session, target, id string) (drag.Interval, float64, error) {
	switch target {
	case dragTargetSegment:
		seg, err := sess.Segment(id)
		if err != nil {
			return drag.Interval{}, 0, err
		}
		return drag.Interval{Start: seg.Start, End: seg.End}, session.MinSegmentDuration, nil

	case dragTargetTitle:
		for _, t := range sess.Titles() {
			if t.ID == id {
				return drag.Interval{Start: t.StartTime, End: t.StartTime + t.Duration}, session.MinTitleDuration, nil
			}
		}
		return drag.Interval{}, 0, session.ErrNotFound

	case dragTargetAudio:
		for _, tr := range sess.AudioTracks() {
			if tr.ID == id {
				return drag.Interval{Start: tr.StartTime, End: tr.StartTime + tr.Duration}, 0, nil
			}
		}
		return drag.Interval{}, 0, session.ErrNotFound
	}
	return drag.Interval{}, 0, errUnknownDragTarget
}

var errUnknownDragTarget = errors.New("unknown drag target")

// moveDrag turns a pointer position into a clamped update and writes it
// through to the dragged entity.
func (h *handlers) moveDrag(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req DragMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	ed.dragMu.Lock()
	upd, err := ed.drag.Move(req.PointerX)
	target := ed.dragTarget
	ed.dragMu.Unlock()
	if err != nil {
		WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
		return
	}

	if upd.Kind == drag.KindPan {
		WriteJSON(w, http.StatusOK, DragUpdateResponse{Kind: upd.Kind.String(), Scroll: upd.Scroll})
		return
	}

	if err := applyDragUpdate(ed.sess, target, upd); err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, DragUpdateResponse{
		Kind:  upd.Kind.String(),
		Start: upd.Start,
		End:   upd.End,
	})
}

func applyDragUpdate(sess *session.Session, target dragTarget, upd drag.Update) error {
	switch target.kind {
	case dragTargetSegment:
		_, err := sess.UpdateSegment(target.id, session.SegmentPatch{Start: &upd.Start, End: &upd.End})
		return err
	case dragTargetTitle:
		dur := upd.End - upd.Start
		_, err := sess.UpdateTitle(target.id, session.TitlePatch{StartTime: &upd.Start, Duration: &dur})
		return err
	case dragTargetAudio:
		dur := upd.End - upd.Start
		_, err := sess.UpdateAudioTrack(target.id, session.AudioPatch{StartTime: &upd.Start, Duration: &dur})
		return err
	}
	return session.ErrNotFound
}

// endDrag discards the gesture. The entity already holds the last
// written-through bounds; there is nothing to commit.
func (h *handlers) endDrag(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	ed.dragMu.Lock()
	ed.drag.End()
	ed.dragTarget = dragTarget{}
	ed.dragMu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// cropPointer positions the 9:16 crop window from a raw pointer X over
// the client's display rect: the geometry is recomputed server-side and
// the normalized offset lands on the active segment (or the pending
// crop while marking).
func (h *handlers) cropPointer(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req CropPointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	vw, vh := ed.sess.VideoSize()
	display := timeline.FitRect(req.ContainerWidth, req.ContainerHeight, float64(vw), float64(vh))
	geo := timeline.CropFor(display)
	if !geo.Draggable() {
		// Source narrower than 9:16: the window covers the full width and
		// there is nothing to position.
		WriteJSON(w, http.StatusOK, CropPointerResponse{
			Offset: session.DefaultCropOffset,
			State:  ed.sess.State(),
		})
		return
	}

	offset := geo.OffsetFromPointer(req.ClientX, display)
	ed.sess.ApplyCrop(offset)
	WriteJSON(w, http.StatusOK, CropPointerResponse{
		Offset:    offset,
		Draggable: true,
		State:     ed.sess.State(),
	})
}
