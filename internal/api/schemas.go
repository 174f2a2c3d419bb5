package api

import (
	"time"

	"github.com/reelforge/reelforge-agent/internal/gallery"
	"github.com/reelforge/reelforge-agent/internal/store"
	"github.com/reelforge/reelforge-agent/internal/uploader"
	"github.com/reelforge/reelforge-agent/internal/video"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	SessionCode    string          `json:"session_code,omitempty"`
	BackendHealthy bool            `json:"backend_healthy"`
	BackendError   string          `json:"backend_error,omitempty"`
	WatchPaused    bool            `json:"watch_paused"`
	WatchEnabled   bool            `json:"watch_enabled"`
	Queue          []uploader.Item `json:"queue"`
}

type SessionResponse struct {
	SessionCode string `json:"session_code"`
}

type PhotosResponse struct {
	Photos []gallery.Photo `json:"photos"`
}

type UploadResponse struct {
	Result uploader.Result `json:"result"`
	Items  []uploader.Item `json:"items"`
}

type ReorderRequest struct {
	Direction string `json:"direction"`
}

type CreateVideoRequest struct {
	TemplateID string `json:"template_id"`
	Format     string `json:"format,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	FPS        int    `json:"fps,omitempty"`
}

type VideoJobResponse struct {
	JobID       string `json:"job_id"`
	SessionCode string `json:"session_code"`
	TemplateID  string `json:"template_id"`
	PhotoCount  int    `json:"photo_count"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	OutputPath  string `json:"output_path,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type VideoJobsResponse struct {
	Jobs []VideoJobResponse `json:"jobs"`
}

type VideoStatusResponse struct {
	JobID             string      `json:"job_id"`
	State             video.State `json:"state"`
	Progress          int         `json:"progress"`
	EstimatedDuration float64     `json:"estimated_duration"`
	OutputPath        string      `json:"output_path,omitempty"`
	Error             string      `json:"error,omitempty"`
}

type DownloadResponse struct {
	JobID string `json:"job_id"`
	Path  string `json:"path"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func VideoJobToResponse(j *store.VideoJob) VideoJobResponse {
	return VideoJobResponse{
		JobID:       j.JobID,
		SessionCode: j.SessionCode,
		TemplateID:  j.TemplateID,
		PhotoCount:  j.PhotoCount,
		Status:      j.Status,
		Progress:    j.Progress,
		OutputPath:  j.OutputPath,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   j.UpdatedAt.Format(time.RFC3339),
	}
}

func UpdateToResponse(u video.Update) VideoStatusResponse {
	return VideoStatusResponse{
		JobID:             u.JobID,
		State:             u.State,
		Progress:          u.Progress,
		EstimatedDuration: u.EstimatedDuration,
		OutputPath:        u.OutputPath,
		Error:             u.Err,
	}
}
