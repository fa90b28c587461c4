package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shortsplice/splice-agent/internal/drag"
	"github.com/shortsplice/splice-agent/internal/input"
	"github.com/shortsplice/splice-agent/internal/library"
	"github.com/shortsplice/splice-agent/internal/player"
	"github.com/shortsplice/splice-agent/internal/session"
)

// remoteMedia mirrors the client's media element. The client reports
// the authoritative position on every frame; seeks decided here are
// buffered as a directive the client picks up in the tick response.
type remoteMedia struct {
	mu          sync.Mutex
	duration    float64
	time        float64
	pendingSeek *float64
}

func (m *remoteMedia) Play() error { return nil }
func (m *remoteMedia) Pause()      {}

func (m *remoteMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time
}

func (m *remoteMedia) SeekTo(t float64) {
	m.mu.Lock()
	m.time = t
	m.pendingSeek = &t
	m.mu.Unlock()
}

func (m *remoteMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *remoteMedia) setTime(t float64) {
	m.mu.Lock()
	m.time = t
	m.mu.Unlock()
}

func (m *remoteMedia) takeSeek() *float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	seek := m.pendingSeek
	m.pendingSeek = nil
	return seek
}

// editor bundles one session with its synchronizer, media mirror,
// keyboard dispatcher and the in-flight timeline drag, if any.
type editor struct {
	sess  *session.Session
	sync  *player.Synchronizer
	media *remoteMedia
	keys  *input.Dispatcher

	dragMu     sync.Mutex
	drag       drag.Drag
	dragTarget dragTarget
}

type handlers struct {
	cfg ServerConfig

	mu      sync.Mutex
	editors map[string]*editor
}

func newHandlers(cfg ServerConfig) *handlers {
	return &handlers{cfg: cfg, editors: make(map[string]*editor)}
}

func (h *handlers) editor(id string) *editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.editors[id]
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.FileID == "" {
		WriteError(w, http.StatusBadRequest, "file_id is required", "BAD_REQUEST")
		return
	}

	file, err := h.cfg.Library.File(r.Context(), req.FileID)
	if err != nil {
		if errors.Is(err, library.ErrFileNotFound) {
			WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return
	}

	sess := h.cfg.Sessions.Create(file.ID, file.Duration, file.Width, file.Height)
	media := &remoteMedia{duration: file.Duration}
	syn := player.NewSynchronizer(sess, media, h.cfg.Logger)
	syn.SetScheduler(player.NewScheduler(h.cfg.FrameInterval, syn, h.cfg.Logger))

	ed := &editor{
		sess:  sess,
		sync:  syn,
		media: media,
	}
	ed.keys = input.NewDispatcher(input.Handlers{
		PlayPause: syn.TogglePlay,
		Seek:      syn.SeekRelative,
		MarkIn:    syn.MarkIn,
		MarkOut: func() error {
			_, err := syn.MarkOut()
			return err
		},
		Delete: syn.DeleteActive,
		Escape: syn.Escape,
	}, h.cfg.SeekStep)

	h.mu.Lock()
	h.editors[sess.ID] = ed
	h.mu.Unlock()

	h.cfg.Logger.Info("session created", "session_id", sess.ID, "file_id", file.ID)
	WriteJSON(w, http.StatusCreated, SessionToResponse(sess))
}

func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.cfg.Sessions.List()
	resp := SessionsResponse{Sessions: make([]SessionResponse, len(sessions))}
	for i, s := range sessions {
		resp.Sessions[i] = SessionToResponse(s)
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	WriteJSON(w, http.StatusOK, SessionDetailResponse{
		SessionResponse: SessionToResponse(ed.sess),
		State:           ed.sess.State(),
		Segments:        ed.sess.Segments(),
		Titles:          ed.sess.Titles(),
		Audio:           ed.sess.AudioTracks(),
	})
}

func (h *handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ed := h.editor(id)
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	ed.sync.Shutdown()
	h.cfg.Sessions.Delete(id)
	h.mu.Lock()
	delete(h.editors, id)
	h.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// tick runs one reconciliation frame against the client's reported
// position and returns the seek directive, if the policy issued one.
func (h *handlers) tick(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req TickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	ed.media.setTime(req.Time)
	ed.sess.SetCurrentTime(req.Time)
	ed.sync.Tick()

	st := ed.sess.State()
	WriteJSON(w, http.StatusOK, TickResponse{
		SeekTo:           ed.media.takeSeek(),
		Playing:          st.Playing,
		Previewing:       st.Previewing,
		PreviewSegmentID: ed.sync.PreviewSegmentID(),
		LoopingSegmentID: st.LoopingSegmentID,
	})
}

func (h *handlers) key(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	handled, err := ed.keys.Handle(req.Key)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, KeyResponse{Handled: handled})
}

func (h *handlers) seek(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req SeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	switch {
	case req.Time != nil:
		ed.sync.SeekTo(*req.Time)
	case req.Delta != nil:
		ed.sync.SeekRelative(*req.Delta)
	default:
		WriteError(w, http.StatusBadRequest, "time or delta is required", "BAD_REQUEST")
		return
	}

	WriteJSON(w, http.StatusOK, TickResponse{
		SeekTo:  ed.media.takeSeek(),
		Playing: ed.sess.State().Playing,
	})
}

func (h *handlers) markIn(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	if err := ed.sync.MarkIn(); err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ed.sess.State())
}

func (h *handlers) markOut(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	seg, err := ed.sync.MarkOut()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, seg)
}

func (h *handlers) addSegment(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req AddSegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	seg, err := ed.sess.AddSegment(req.Start, req.End, req.CropOffset)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, seg)
}

func (h *handlers) updateSegment(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var patch session.SegmentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	seg, err := ed.sess.UpdateSegment(chi.URLParam(r, "segmentID"), patch)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, seg)
}

func (h *handlers) deleteSegment(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	if err := ed.sync.DeleteSegment(chi.URLParam(r, "segmentID")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) selectSegment(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	if err := ed.sync.SelectSegment(chi.URLParam(r, "segmentID")); err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, TickResponse{
		SeekTo:  ed.media.takeSeek(),
		Playing: ed.sess.State().Playing,
	})
}

func (h *handlers) toggleLoop(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	if err := ed.sync.ToggleLoop(chi.URLParam(r, "segmentID")); err != nil {
		writeSessionError(w, err)
		return
	}
	st := ed.sess.State()
	WriteJSON(w, http.StatusOK, TickResponse{
		SeekTo:           ed.media.takeSeek(),
		Playing:          st.Playing,
		LoopingSegmentID: st.LoopingSegmentID,
	})
}

func (h *handlers) togglePreview(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	if err := ed.sync.TogglePreview(); err != nil {
		writeSessionError(w, err)
		return
	}
	st := ed.sess.State()
	WriteJSON(w, http.StatusOK, TickResponse{
		SeekTo:           ed.media.takeSeek(),
		Playing:          st.Playing,
		Previewing:       st.Previewing,
		PreviewSegmentID: ed.sync.PreviewSegmentID(),
	})
}

func (h *handlers) escape(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	ed.sync.Escape()
	WriteJSON(w, http.StatusOK, ed.sess.State())
}

func (h *handlers) setPendingCrop(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req CropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	ed.sess.SetPendingCrop(req.Offset)
	WriteJSON(w, http.StatusOK, ed.sess.State())
}

func (h *handlers) applyCrop(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req CropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	ed.sess.ApplyCrop(req.Offset)
	WriteJSON(w, http.StatusOK, ed.sess.State())
}

// mediaError records a playback failure the client's media element
// raised. The cut survives; only playback state changes.
func (h *handlers) mediaError(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req MediaErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	merr := ed.sync.ReportMediaError(req.Code, req.Detail)
	WriteJSON(w, http.StatusOK, MediaErrorResponse{
		Error:       merr.Error(),
		DecodeClass: merr.IsDecodeClass(),
		State:       ed.sess.State(),
	})
}

func (h *handlers) addTitle(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var in session.TitleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	title, err := ed.sess.AddTitle(in)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, title)
}

func (h *handlers) updateTitle(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var patch session.TitlePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	title, err := ed.sess.UpdateTitle(chi.URLParam(r, "titleID"), patch)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, title)
}

func (h *handlers) deleteTitle(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	if err := ed.sess.DeleteTitle(chi.URLParam(r, "titleID")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) toggleTitle(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	title, err := ed.sess.ToggleTitleVisibility(chi.URLParam(r, "titleID"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, title)
}

func (h *handlers) addTrack(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var req AddTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	track, err := ed.sess.AddAudioTrack(req.Name, req.SourcePath)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, track)
}

func (h *handlers) updateTrack(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	var patch session.AudioPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	track, err := ed.sess.UpdateAudioTrack(chi.URLParam(r, "trackID"), patch)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, track)
}

func (h *handlers) deleteTrack(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	if err := ed.sess.RemoveAudioTrack(chi.URLParam(r, "trackID")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) muteTrack(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	track, err := ed.sess.ToggleTrackMute(chi.URLParam(r, "trackID"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, track)
}

func (h *handlers) soloTrack(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}
	track, err := ed.sess.ToggleTrackSolo(chi.URLParam(r, "trackID"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, track)
}

// writeSessionError maps store errors onto HTTP statuses: missing
// entities are 404, mode conflicts 409, every other validation
// failure 400.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, session.ErrMarkWhilePreview), errors.Is(err, session.ErrOriginalTrack):
		WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
	default:
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	}
}
