package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelforge/reelforge-agent/internal/backend"
	"github.com/reelforge/reelforge-agent/internal/config"
	"github.com/reelforge/reelforge-agent/internal/gallery"
	"github.com/reelforge/reelforge-agent/internal/uploader"
	"github.com/reelforge/reelforge-agent/internal/video"
)

// maxUploadBytes caps one multipart upload request (memory plus temp files).
const maxUploadBytes = 256 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/session", getSessionHandler(cfg))
		r.Post("/session", startSessionHandler(cfg))
		r.Delete("/session", resetSessionHandler(cfg))

		r.Get("/photos", listPhotosHandler(cfg))
		r.Post("/photos", uploadPhotosHandler(cfg))
		r.Delete("/photos/{fileID}", deletePhotoHandler(cfg))
		r.Put("/photos/{fileID}/reorder", reorderPhotoHandler(cfg))

		r.Get("/templates", listTemplatesHandler(cfg))
		r.Get("/templates/{id}", getTemplateHandler(cfg))

		r.Post("/videos", createVideoHandler(cfg))
		r.Get("/videos", listVideosHandler(cfg))
		r.Get("/videos/{jobID}", videoStatusHandler(cfg))
		r.Post("/videos/{jobID}/retry", retryVideoHandler(cfg))
		r.Post("/videos/{jobID}/download", downloadVideoHandler(cfg))
		r.With(LoopbackGuard()).Get("/videos/{jobID}/stream", streamVideoHandler(cfg))

		r.Post("/watch/pause", watchPauseHandler(cfg))
		r.Post("/watch/resume", watchResumeHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, _ := cfg.Sessions.Current(r.Context())

		resp := StatusResponse{
			SessionCode: code,
			Queue:       cfg.Queue.Items(),
		}
		if cfg.Health != nil {
			st := cfg.Health.Status()
			resp.BackendHealthy = st.Healthy
			resp.BackendError = st.Error
		}
		if cfg.Scanner != nil {
			resp.WatchEnabled = true
			resp.WatchPaused = cfg.Scanner.Paused()
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := cfg.Sessions.Current(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if code == "" {
			WriteError(w, http.StatusNotFound, "no active session", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, SessionResponse{SessionCode: code})
	}
}

func startSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := cfg.Sessions.Ensure(r.Context())
		if err != nil {
			writeBackendError(w, err, "failed to start session")
			return
		}
		WriteJSON(w, http.StatusOK, SessionResponse{SessionCode: code})
	}
}

func resetSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, _ := cfg.Sessions.Current(r.Context())
		if err := cfg.Sessions.Reset(r.Context()); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if code != "" {
			cfg.Gallery.Invalidate(code)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listPhotosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := cfg.Sessions.Current(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if code == "" {
			WriteJSON(w, http.StatusOK, PhotosResponse{Photos: nil})
			return
		}

		var photos []gallery.Photo
		if r.URL.Query().Get("refresh") == "true" {
			photos, err = cfg.Gallery.Refresh(r.Context(), code)
		} else {
			photos, err = cfg.Gallery.Photos(r.Context(), code)
		}
		if err != nil {
			writeBackendError(w, err, "failed to list photos")
			return
		}
		WriteJSON(w, http.StatusOK, PhotosResponse{Photos: photos})
	}
}

func uploadPhotosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid multipart body", "BAD_REQUEST")
			return
		}

		files := r.MultipartForm.File["photos"]
		if len(files) == 0 {
			WriteError(w, http.StatusBadRequest, "no photos in request", "BAD_REQUEST")
			return
		}

		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				WriteError(w, http.StatusBadRequest, "unreadable file part", "BAD_REQUEST")
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				WriteError(w, http.StatusBadRequest, "unreadable file part", "BAD_REQUEST")
				return
			}

			contentType := fh.Header.Get("Content-Type")
			if contentType == "" {
				contentType = uploader.DetectContentType(fh.Filename)
			}
			cfg.Queue.Enqueue(fh.Filename, contentType, data)
		}

		result, err := cfg.Queue.Process(r.Context())
		if err != nil {
			writeBackendError(w, err, "upload failed")
			return
		}

		status := http.StatusOK
		if result.Failed > 0 {
			status = http.StatusMultiStatus
		}
		WriteJSON(w, status, UploadResponse{Result: *result, Items: cfg.Queue.Items()})
	}
}

func deletePhotoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileID, err := strconv.Atoi(chi.URLParam(r, "fileID"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid file id", "BAD_REQUEST")
			return
		}

		code, err := requireSession(cfg, w, r)
		if err != nil {
			return
		}

		resp, err := cfg.Gallery.Delete(r.Context(), code, fileID)
		if err != nil {
			writeBackendError(w, err, "failed to delete photo")
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func reorderPhotoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileID, err := strconv.Atoi(chi.URLParam(r, "fileID"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid file id", "BAD_REQUEST")
			return
		}

		var req ReorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var direction backend.Direction
		switch req.Direction {
		case "up":
			direction = backend.DirectionUp
		case "down":
			direction = backend.DirectionDown
		default:
			WriteError(w, http.StatusBadRequest, "direction must be up or down", "BAD_REQUEST")
			return
		}

		code, err := requireSession(cfg, w, r)
		if err != nil {
			return
		}

		outcome, err := cfg.Gallery.Reorder(r.Context(), code, fileID, direction)
		if err != nil {
			writeBackendError(w, err, "failed to reorder photo")
			return
		}
		WriteJSON(w, http.StatusOK, outcome)
	}
}

func listTemplatesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		templates, err := cfg.Templates.Templates(r.Context())
		if err != nil {
			writeBackendError(w, err, "failed to list templates")
			return
		}
		WriteJSON(w, http.StatusOK, backend.TemplatesResponse{Templates: templates})
	}
}

func getTemplateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, err := cfg.Templates.Template(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeBackendError(w, err, "failed to get template")
			return
		}
		if tmpl == nil {
			WriteError(w, http.StatusNotFound, "template not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, tmpl)
	}
}

func createVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.TemplateID == "" {
			WriteError(w, http.StatusBadRequest, "template_id is required", "BAD_REQUEST")
			return
		}

		code, err := requireSession(cfg, w, r)
		if err != nil {
			return
		}

		result, err := cfg.Orchestrator.Create(r.Context(), video.CreateParams{
			SessionCode: code,
			TemplateID:  req.TemplateID,
			Output: video.OutputOptions{
				Format:     req.Format,
				Resolution: req.Resolution,
				FPS:        req.FPS,
			},
		})
		if err != nil {
			writeCreateError(w, err)
			return
		}

		// Track the job in the background so local history stays
		// current even if the UI stops polling. The poll outlives the
		// request but not the server.
		base := cfg.BaseContext
		if base == nil {
			base = context.Background()
		}
		go cfg.Poller.Run(base, result.JobID, nil)

		WriteJSON(w, http.StatusAccepted, result)
	}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListVideoJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list videos", "INTERNAL_ERROR")
			return
		}

		resp := VideoJobsResponse{Jobs: make([]VideoJobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = VideoJobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func videoStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")

		update, err := cfg.Poller.Once(r.Context(), jobID)
		if err != nil {
			writeBackendError(w, err, "failed to fetch video status")
			return
		}
		if update.State == video.StateNotFound {
			WriteError(w, http.StatusNotFound, "video job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, UpdateToResponse(update))
	}
}

func retryVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")

		if err := cfg.Orchestrator.Retry(r.Context(), jobID); err != nil {
			writeBackendError(w, err, "failed to retry video")
			return
		}
		WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": "processing"})
	}
}

func downloadVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")

		path, err := cfg.Media.Fetch(r.Context(), jobID)
		if err != nil {
			writeBackendError(w, err, "failed to download video")
			return
		}
		WriteJSON(w, http.StatusOK, DownloadResponse{JobID: jobID, Path: path})
	}
}

func streamVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		if err := cfg.Media.ServeVideo(w, r, jobID); err != nil {
			cfg.Logger.Error("stream error", "error", err, "job_id", jobID)
		}
	}
}

func watchPauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Scanner == nil {
			WriteError(w, http.StatusConflict, "folder watching is not enabled", "WATCH_DISABLED")
			return
		}
		cfg.Scanner.Pause()
		w.WriteHeader(http.StatusNoContent)
	}
}

func watchResumeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Scanner == nil {
			WriteError(w, http.StatusConflict, "folder watching is not enabled", "WATCH_DISABLED")
			return
		}
		cfg.Scanner.Resume()
		w.WriteHeader(http.StatusNoContent)
	}
}

// requireSession resolves the current session code or writes a 409. The
// returned error only signals that a response was already written.
func requireSession(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (string, error) {
	code, err := cfg.Sessions.Current(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return "", err
	}
	if code == "" {
		WriteError(w, http.StatusConflict, "no active session", "NO_SESSION")
		return "", errors.New("no session")
	}
	return code, nil
}

// writeCreateError maps the orchestrator's precondition failures to 409s
// so the caller can distinguish them from backend faults.
func writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, video.ErrNoSession):
		WriteError(w, http.StatusConflict, err.Error(), "NO_SESSION")
	case errors.Is(err, video.ErrNoTemplate):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, video.ErrNoPhotos), errors.Is(err, video.ErrUploadsIncomplete):
		WriteError(w, http.StatusConflict, err.Error(), "NOT_READY")
	case errors.Is(err, video.ErrMalformedResponse):
		WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
	default:
		writeBackendError(w, err, "failed to create video")
	}
}

// writeBackendError relays backend status codes where they carry meaning
// for the caller and folds everything else into a 502.
func writeBackendError(w http.ResponseWriter, err error, fallback string) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			WriteError(w, http.StatusNotFound, apiErr.Error(), "NOT_FOUND")
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			WriteError(w, http.StatusBadRequest, apiErr.Error(), "BAD_REQUEST")
		default:
			WriteError(w, http.StatusBadGateway, apiErr.Error(), "BACKEND_ERROR")
		}
		return
	}
	WriteError(w, http.StatusBadGateway, fallback+": "+err.Error(), "BACKEND_ERROR")
}
