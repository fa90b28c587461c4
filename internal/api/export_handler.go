package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shortsplice/splice-agent/internal/export"
	"github.com/shortsplice/splice-agent/internal/library"
	"github.com/shortsplice/splice-agent/internal/render"
	"github.com/shortsplice/splice-agent/internal/session"
)

func (h *handlers) exportPayload(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	payload, err := export.BuildPayload(ed.sess)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload)
}

func (h *handlers) exportEDL(w http.ResponseWriter, r *http.Request) {
	ed := h.editor(chi.URLParam(r, "id"))
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	segments := ed.sess.OrderedSegments()
	if len(segments) == 0 {
		writeSessionError(w, session.ErrNoSegments)
		return
	}

	file, err := h.cfg.Library.File(r.Context(), ed.sess.FileID)
	if err != nil {
		if errors.Is(err, library.ErrFileNotFound) {
			WriteError(w, http.StatusNotFound, "source file not found", "NOT_FOUND")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return
	}

	frameRate := file.FrameRate
	if frameRate <= 0 {
		frameRate = 30
	}

	edl := export.GenerateEDL(segments, file.Filename, file.Path, frameRate)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.SanitizeName(file.Filename, 64)+`.edl"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(edl))
}

func (h *handlers) startRender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ed := h.editor(id)
	if ed == nil {
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
		return
	}

	payload, err := export.BuildPayload(ed.sess)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	file, err := h.cfg.Library.File(r.Context(), ed.sess.FileID)
	if err != nil {
		if errors.Is(err, library.ErrFileNotFound) {
			WriteError(w, http.StatusNotFound, "source file not found", "NOT_FOUND")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return
	}

	job, err := h.cfg.Renderer.Start(r.Context(), payload, id, file.Path)
	if err != nil {
		if errors.Is(err, render.ErrSessionBusy) {
			WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}

	WriteJSON(w, http.StatusAccepted, RenderResponse{JobID: job.ID})
}

func (h *handlers) renderStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.cfg.Renderer.Job(chi.URLParam(r, "jobID"))
	if err != nil {
		if errors.Is(err, render.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "render job not found", "NOT_FOUND")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return
	}
	WriteJSON(w, http.StatusOK, job.Status())
}
