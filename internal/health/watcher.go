// Package health keeps a live view of backend reachability. An unhealthy
// backend is probed more often so recovery is noticed quickly.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reelforge/reelforge-agent/internal/backend"
)

// Prober is the slice of the backend client the watcher needs.
type Prober interface {
	Health(ctx context.Context) error
}

// Status is the last observed backend state.
type Status struct {
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Watcher probes the backend health endpoint on an adaptive interval.
type Watcher struct {
	client          Prober
	logger          *slog.Logger
	healthyInterval time.Duration
	errorInterval   time.Duration

	mu       sync.RWMutex
	status   Status
	onChange func(healthy bool)
}

func NewWatcher(client Prober, healthyInterval, errorInterval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		client:          client,
		logger:          logger,
		healthyInterval: healthyInterval,
		errorInterval:   errorInterval,
	}
}

// SetOnChange registers a callback fired when health flips. Must be
// called before Run.
func (w *Watcher) SetOnChange(fn func(healthy bool)) {
	w.onChange = fn
}

// Run probes until ctx is cancelled. It always returns promptly on
// cancellation, even mid-wait.
func (w *Watcher) Run(ctx context.Context) {
	for {
		interval := w.probe(ctx)

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			w.logger.Debug("health watcher stopped")
			return
		}
	}
}

// probe checks the backend once and returns how long to wait before the
// next check.
func (w *Watcher) probe(ctx context.Context) time.Duration {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := w.client.Health(probeCtx)
	cancel()

	now := time.Now()
	healthy := err == nil

	w.mu.Lock()
	wasHealthy := w.status.Healthy
	hadChecked := !w.status.CheckedAt.IsZero()
	w.status = Status{Healthy: healthy, CheckedAt: now}
	if err != nil {
		w.status.Error = err.Error()
	}
	w.mu.Unlock()

	if !hadChecked || wasHealthy != healthy {
		if healthy {
			w.logger.Info("backend reachable")
		} else {
			w.logger.Warn("backend unreachable", "error", err, "retryable", backend.IsRetryable(err))
		}
		if w.onChange != nil {
			w.onChange(healthy)
		}
	}

	if healthy {
		return w.healthyInterval
	}
	return w.errorInterval
}

// Healthy reports the last observed backend state.
func (w *Watcher) Healthy() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status.Healthy
}

// Status returns the last observation.
func (w *Watcher) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}
