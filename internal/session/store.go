// Package session owns the one upload session code the agent works with.
// The code is minted by the backend and persisted locally so restarts
// rejoin the same session instead of creating a duplicate.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reelforge/reelforge-agent/internal/backend"
	"github.com/reelforge/reelforge-agent/internal/store"
)

// JobCreator is the slice of the backend client the store needs.
type JobCreator interface {
	CreateJob(ctx context.Context, templateID string) (*backend.Job, error)
}

// Store holds the current session code.
type Store struct {
	repo    store.Repository
	creator JobCreator
	logger  *slog.Logger

	mu sync.Mutex
}

func NewStore(repo store.Repository, creator JobCreator, logger *slog.Logger) *Store {
	return &Store{repo: repo, creator: creator, logger: logger}
}

// Current returns the persisted session code, or empty when none exists.
func (s *Store) Current(ctx context.Context) (string, error) {
	code, err := s.repo.GetConfig(ctx, store.ConfigKeySessionCode)
	if err != nil {
		return "", fmt.Errorf("read session code: %w", err)
	}
	return code, nil
}

// Ensure returns the current session code, creating a backend job first
// when none exists. Concurrent callers get the same code.
func (s *Store) Ensure(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.repo.GetConfig(ctx, store.ConfigKeySessionCode)
	if err != nil {
		return "", fmt.Errorf("read session code: %w", err)
	}
	if code != "" {
		return code, nil
	}

	job, err := s.creator.CreateJob(ctx, "")
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if job.Code == "" {
		return "", fmt.Errorf("create session: backend returned empty code")
	}

	if err := s.repo.SetConfig(ctx, store.ConfigKeySessionCode, job.Code); err != nil {
		return "", fmt.Errorf("persist session code: %w", err)
	}

	s.logger.Info("session started", "session_code", job.Code)
	return job.Code, nil
}

// Reset clears the persisted session code. The next Ensure starts a
// fresh session.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteConfig(ctx, store.ConfigKeySessionCode); err != nil {
		return fmt.Errorf("clear session code: %w", err)
	}
	s.logger.Info("session cleared")
	return nil
}
