package video

import (
	"context"
	"log/slog"
	"time"

	"github.com/reelforge/reelforge-agent/internal/backend"
)

// State is the poller's view of a rendering job.
type State string

const (
	StateLoading    State = "loading"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateError      State = "error"
	StateNotFound   State = "not-found"
)

// Terminal reports whether no further status polls will happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError || s == StateNotFound
}

// Update is one observed snapshot of a job.
type Update struct {
	JobID             string  `json:"job_id"`
	State             State   `json:"state"`
	Progress          int     `json:"progress"`
	EstimatedDuration float64 `json:"estimated_duration"`
	OutputPath        string  `json:"output_path,omitempty"`
	Err               string  `json:"error,omitempty"`
}

// StatusClient is the slice of the backend client the poller needs.
type StatusClient interface {
	VideoStatus(ctx context.Context, jobID string) (*backend.VideoStatusResponse, error)
}

// JobUpdater mirrors observed status into the local job history.
type JobUpdater interface {
	UpdateVideoJob(ctx context.Context, jobID, status string, progress int, outputPath, errorMsg string) error
}

// Poller watches one rendering job until it reaches a terminal state.
// Once a job is done or failed it is never polled again.
type Poller struct {
	client   StatusClient
	updater  JobUpdater
	logger   *slog.Logger
	interval time.Duration

	// delay before the first poll, giving the backend time to register
	// a freshly created job
	initialDelay time.Duration
}

func NewPoller(client StatusClient, updater JobUpdater, interval, initialDelay time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		client:       client,
		updater:      updater,
		logger:       logger,
		interval:     interval,
		initialDelay: initialDelay,
	}
}

// Run polls the job until it is terminal or ctx is cancelled. onUpdate,
// when non-nil, receives every observed snapshot. The returned Update is
// the last one observed.
func (p *Poller) Run(ctx context.Context, jobID string, onUpdate func(Update)) (Update, error) {
	log := p.logger.With("job_id", jobID)
	last := Update{JobID: jobID, State: StateLoading}

	if p.initialDelay > 0 {
		select {
		case <-time.After(p.initialDelay):
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}

	for {
		update, poll := p.poll(ctx, jobID, log)
		if poll {
			last = update
			if onUpdate != nil {
				onUpdate(update)
			}
			p.record(ctx, update, log)
			if update.State.Terminal() {
				log.Info("polling stopped", "state", update.State)
				return last, nil
			}
		}

		select {
		case <-time.After(p.interval):
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}
}

// Once performs a single status fetch without starting a polling loop.
func (p *Poller) Once(ctx context.Context, jobID string) (Update, error) {
	log := p.logger.With("job_id", jobID)

	resp, err := p.client.VideoStatus(ctx, jobID)
	if err != nil {
		if backend.IsNotFound(err) {
			return Update{JobID: jobID, State: StateNotFound, Err: "job not found"}, nil
		}
		return Update{JobID: jobID, State: StateLoading}, err
	}

	update := Update{
		JobID:             jobID,
		State:             mapState(resp.Status, log),
		Progress:          resp.Progress,
		EstimatedDuration: resp.EstimatedDuration,
		OutputPath:        resp.OutputPath,
		Err:               resp.Error,
	}
	p.record(ctx, update, log)
	return update, nil
}

// poll fetches the status once. The bool is false when a transient
// failure means there is no new snapshot.
func (p *Poller) poll(ctx context.Context, jobID string, log *slog.Logger) (Update, bool) {
	resp, err := p.client.VideoStatus(ctx, jobID)
	if err != nil {
		if backend.IsNotFound(err) {
			return Update{JobID: jobID, State: StateNotFound, Err: "job not found"}, true
		}
		// Transient failure: keep the last known state and try again.
		log.Warn("status poll failed", "error", err)
		return Update{}, false
	}

	update := Update{
		JobID:             jobID,
		State:             mapState(resp.Status, log),
		Progress:          resp.Progress,
		EstimatedDuration: resp.EstimatedDuration,
		OutputPath:        resp.OutputPath,
		Err:               resp.Error,
	}
	return update, true
}

func (p *Poller) record(ctx context.Context, u Update, log *slog.Logger) {
	if p.updater == nil || u.State == StateNotFound {
		return
	}
	if err := p.updater.UpdateVideoJob(ctx, u.JobID, string(u.State), u.Progress, u.OutputPath, u.Err); err != nil {
		log.Warn("failed to record job status", "error", err)
	}
}

// mapState folds backend statuses into poller states. Anything the
// backend considers in-flight stays processing.
func mapState(raw string, log *slog.Logger) State {
	switch raw {
	case "done", "completed":
		return StateDone
	case "error", "failed":
		return StateError
	case "created", "uploading", "queued", "pending", "processing":
		return StateProcessing
	default:
		if log != nil {
			log.Warn("unknown video status from backend", "status", raw)
		}
		return StateProcessing
	}
}
