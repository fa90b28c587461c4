package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shortsplice/splice-agent/internal/library"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()
	h := newHandlers(cfg)

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repo, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/sources", listSourcesHandler(cfg))
		r.Post("/sources/folders", addFolderHandler(cfg))
		r.Delete("/sources/{id}", deleteSourceHandler(cfg))
		r.Get("/sources/{id}/files", listFilesHandler(cfg))
		r.Post("/sources/{id}/scan", scanHandler(cfg))
		r.Get("/files", listAllFilesHandler(cfg))
		r.Get("/playback/file", playbackHandler(cfg))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Get("/", h.listSessions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.deleteSession)

				r.Post("/tick", h.tick)
				r.Post("/key", h.key)
				r.Post("/seek", h.seek)
				r.Post("/mark-in", h.markIn)
				r.Post("/mark-out", h.markOut)
				r.Post("/preview", h.togglePreview)
				r.Post("/escape", h.escape)

				r.Post("/segments", h.addSegment)
				r.Patch("/segments/{segmentID}", h.updateSegment)
				r.Delete("/segments/{segmentID}", h.deleteSegment)
				r.Post("/segments/{segmentID}/select", h.selectSegment)
				r.Post("/segments/{segmentID}/loop", h.toggleLoop)

				r.Post("/drag", h.beginDrag)
				r.Post("/drag/move", h.moveDrag)
				r.Post("/drag/end", h.endDrag)

				r.Post("/crop/pending", h.setPendingCrop)
				r.Post("/crop", h.applyCrop)
				r.Post("/crop/pointer", h.cropPointer)

				r.Post("/media-error", h.mediaError)

				r.Post("/titles", h.addTitle)
				r.Patch("/titles/{titleID}", h.updateTitle)
				r.Delete("/titles/{titleID}", h.deleteTitle)
				r.Post("/titles/{titleID}/toggle", h.toggleTitle)

				r.Post("/audio", h.addTrack)
				r.Patch("/audio/{trackID}", h.updateTrack)
				r.Delete("/audio/{trackID}", h.deleteTrack)
				r.Post("/audio/{trackID}/mute", h.muteTrack)
				r.Post("/audio/{trackID}/solo", h.soloTrack)

				r.Get("/export", h.exportPayload)
				r.Get("/export/edl", h.exportEDL)
				r.Post("/render", h.startRender)
			})
		})

		r.Get("/render/{jobID}", h.renderStatus)
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  "0.1.0",
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sources, _ := cfg.Library.Sources(ctx)
		filesCount, _ := cfg.Library.CountFiles(ctx)
		running := cfg.Renderer.Running()

		state := "idle"
		if running > 0 {
			state = "rendering"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:          state,
			SourcesCount:   len(sources),
			FilesCount:     filesCount,
			SessionsCount:  cfg.Sessions.Count(),
			RendersRunning: running,
		})
	}
}

func listSourcesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := cfg.Library.Sources(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list sources", "INTERNAL_ERROR")
			return
		}

		resp := SourcesResponse{Sources: make([]SourceResponse, len(sources))}
		for i, s := range sources {
			resp.Sources[i] = SourceToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func addFolderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddFolderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		source, err := cfg.Library.AddFolder(r.Context(), req.Path, req.DisplayName)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, AddFolderResponse{SourceID: source.ID})
	}
}

func deleteSourceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Library.RemoveSource(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, library.ErrSourceNotFound) {
				WriteError(w, http.StatusNotFound, "source not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listFilesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := cfg.Library.Files(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := FilesResponse{Files: make([]FileResponse, len(files))}
		for i, f := range files {
			resp.Files[i] = FileToResponse(f)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listAllFilesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := cfg.Library.AllFiles(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := FilesResponse{Files: make([]FileResponse, len(files))}
		for i, f := range files {
			resp.Files[i] = FileToResponse(f)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func scanHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := cfg.Library.Scan(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, library.ErrSourceNotFound) {
				WriteError(w, http.StatusNotFound, "source not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, result)
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileID := r.URL.Query().Get("file_id")
		if fileID == "" {
			WriteError(w, http.StatusBadRequest, "file_id is required", "BAD_REQUEST")
			return
		}

		file, err := cfg.Library.File(r.Context(), fileID)
		if err != nil {
			if errors.Is(err, library.ErrFileNotFound) {
				WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		source, _ := cfg.Repo.GetSource(r.Context(), file.SourceID)
		if source != nil && !source.Present {
			WriteError(w, http.StatusNotFound,
				"file not available - folder '"+source.DisplayName+"' is offline",
				"SOURCE_OFFLINE")
			return
		}

		if err := cfg.Streamer.ServeFile(w, r, file.Path); err != nil {
			cfg.Logger.Error("playback error", "error", err, "file_id", fileID)
		}
	}
}
