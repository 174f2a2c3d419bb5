// Package video turns a session's photos and a template into a backend
// rendering job, then tracks that job until it finishes.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/reelforge/reelforge-agent/internal/backend"
	"github.com/reelforge/reelforge-agent/internal/gallery"
	"github.com/reelforge/reelforge-agent/internal/store"
	"github.com/reelforge/reelforge-agent/internal/template"
)

// Precondition failures. Each one is checked before the create endpoint
// is called; when any fails, no backend job is created.
var (
	ErrNoSession         = errors.New("no active session")
	ErrNoTemplate        = errors.New("no template selected")
	ErrNoPhotos          = errors.New("no photos in session")
	ErrUploadsIncomplete = errors.New("uploads still in progress")

	// ErrMalformedResponse marks a 2xx create response without a job id.
	ErrMalformedResponse = errors.New("backend returned no job id")
)

// Output defaults.
const (
	DefaultFormat     = "mp4"
	DefaultResolution = "1080p"
	DefaultFPS        = 30
)

// OutputOptions configure the rendered file. Zero values take defaults.
type OutputOptions struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
	FPS        int    `json:"fps"`
}

func (o OutputOptions) withDefaults() OutputOptions {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Resolution == "" {
		o.Resolution = DefaultResolution
	}
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}
	return o
}

// CreateParams describe one video creation request.
type CreateParams struct {
	SessionCode string
	TemplateID  string
	Output      OutputOptions
}

// CreateResult is the accepted rendering job.
type CreateResult struct {
	JobID             string  `json:"job_id"`
	Status            string  `json:"status"`
	EstimatedDuration float64 `json:"estimated_duration"`
	PhotoCount        int     `json:"photo_count"`
}

// VideoClient is the slice of the backend client the orchestrator needs.
type VideoClient interface {
	CreateVideo(ctx context.Context, req backend.VideoCreateRequest) (*backend.VideoCreateResponse, error)
	StartJob(ctx context.Context, code string) error
	StartProcessing(ctx context.Context, jobID string) (*backend.ProcessResponse, error)
}

// GalleryReader supplies the session's current photo list.
type GalleryReader interface {
	Photos(ctx context.Context, code string) ([]gallery.Photo, error)
}

// TemplateResolver resolves a template id to its full definition.
type TemplateResolver interface {
	Template(ctx context.Context, id string) (*backend.Template, error)
}

// Recorder persists the local video-job history.
type Recorder interface {
	CreateVideoJob(ctx context.Context, job *store.VideoJob) error
}

// Orchestrator validates preconditions, assembles the create request and
// records the resulting job locally.
type Orchestrator struct {
	client    VideoClient
	gallery   GalleryReader
	templates TemplateResolver
	recorder  Recorder
	logger    *slog.Logger
}

func NewOrchestrator(client VideoClient, gallery GalleryReader, templates TemplateResolver, recorder Recorder, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client:    client,
		gallery:   gallery,
		templates: templates,
		recorder:  recorder,
		logger:    logger,
	}
}

// Create starts a rendering job for the session's completed photos.
// Photos are ordered by their gallery position and truncated to the
// template's photo limit.
func (o *Orchestrator) Create(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if params.SessionCode == "" {
		return nil, ErrNoSession
	}
	if params.TemplateID == "" {
		return nil, ErrNoTemplate
	}

	tmpl, err := o.templates.Template(ctx, params.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("resolve template: %w", err)
	}

	photos, err := o.gallery.Photos(ctx, params.SessionCode)
	if err != nil {
		return nil, fmt.Errorf("load photos: %w", err)
	}
	if len(photos) == 0 {
		return nil, ErrNoPhotos
	}

	// Every photo must have finished uploading. A failed upload blocks
	// creation the same way an in-flight one does; the user removes or
	// re-uploads it first.
	for _, p := range photos {
		if p.Status != gallery.StatusCompleted {
			return nil, ErrUploadsIncomplete
		}
	}
	completed := photos

	if tmpl.MaxPhotos > 0 && len(completed) > tmpl.MaxPhotos {
		o.logger.Info("truncating photos to template limit",
			"session_code", params.SessionCode,
			"photos", len(completed),
			"max_photos", tmpl.MaxPhotos,
		)
		completed = completed[:tmpl.MaxPhotos]
	}

	output := params.Output.withDefaults()
	req := backend.VideoCreateRequest{
		TemplateID:   params.TemplateID,
		Photos:       make([]backend.PhotoConfig, len(completed)),
		OutputFormat: output.Format,
		Resolution:   output.Resolution,
		FPS:          output.FPS,
	}
	for i, p := range completed {
		req.Photos[i] = backend.PhotoConfig{
			ID:       strconv.Itoa(p.ID),
			FilePath: p.ObjectKey,
			Order:    i,
		}
	}

	resp, err := o.client.CreateVideo(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	if resp.JobID == "" {
		return nil, fmt.Errorf("create video: %w", ErrMalformedResponse)
	}

	// Mark the photo session as processing. Best effort; the rendering
	// job itself is already accepted.
	if err := o.client.StartJob(ctx, params.SessionCode); err != nil {
		o.logger.Warn("failed to mark session processing", "session_code", params.SessionCode, "error", err)
	}

	estimated := resp.EstimatedDuration
	if estimated == 0 {
		estimated = template.EstimateDuration(tmpl, len(completed))
	}

	now := time.Now().UTC()
	record := &store.VideoJob{
		JobID:       resp.JobID,
		SessionCode: params.SessionCode,
		TemplateID:  params.TemplateID,
		PhotoCount:  len(completed),
		Status:      resp.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if record.Status == "" {
		record.Status = "processing"
	}
	if err := o.recorder.CreateVideoJob(ctx, record); err != nil {
		o.logger.Warn("failed to record video job locally", "job_id", resp.JobID, "error", err)
	}

	o.logger.Info("video job created",
		"job_id", resp.JobID,
		"template", params.TemplateID,
		"photos", len(completed),
		"estimated_duration", estimated,
	)

	return &CreateResult{
		JobID:             resp.JobID,
		Status:            record.Status,
		EstimatedDuration: estimated,
		PhotoCount:        len(completed),
	}, nil
}

// Retry re-invokes processing for an existing job. A failed job is never
// recreated; the backend keeps the job's photos and configuration.
func (o *Orchestrator) Retry(ctx context.Context, jobID string) error {
	if _, err := o.client.StartProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("retry processing: %w", err)
	}
	o.logger.Info("processing restarted", "job_id", jobID)
	return nil
}
