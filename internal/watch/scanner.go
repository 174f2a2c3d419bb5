// Package watch implements folder auto-upload: a polling scanner that
// enqueues new image files from a configured directory.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/reelforge/reelforge-agent/internal/uploader"
)

// Enqueuer is the slice of the upload queue the scanner needs.
type Enqueuer interface {
	Enqueue(fileName, contentType string, data []byte) string
	Process(ctx context.Context) (*uploader.Result, error)
}

// Scanner polls a directory and uploads image files it has not seen.
// A file is re-uploaded when its modification time changes.
type Scanner struct {
	dir      string
	interval time.Duration
	queue    Enqueuer
	logger   *slog.Logger

	mu     sync.Mutex
	paused bool
	seen   map[string]time.Time
}

func NewScanner(dir string, interval time.Duration, queue Enqueuer, logger *slog.Logger) *Scanner {
	return &Scanner{
		dir:      dir,
		interval: interval,
		queue:    queue,
		logger:   logger,
		seen:     make(map[string]time.Time),
	}
}

// Run scans on the configured interval until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	s.logger.Info("watching folder for new photos", "dir", s.dir, "interval", s.interval)

	for {
		if n, err := s.Scan(ctx); err != nil {
			s.logger.Warn("folder scan failed", "error", err)
		} else if n > 0 {
			s.logger.Info("auto-upload batch finished", "files", n)
		}

		select {
		case <-time.After(s.interval):
		case <-ctx.Done():
			s.logger.Debug("folder watcher stopped")
			return
		}
	}
}

// Scan walks the directory once, enqueues unseen image files and
// processes the queue. Returns how many files were enqueued.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	if s.Paused() {
		return 0, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		contentType := uploader.DetectContentType(name)
		if contentType == "application/octet-stream" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(s.dir, name)

		s.mu.Lock()
		prev, ok := s.seen[path]
		s.mu.Unlock()
		if ok && prev.Equal(info.ModTime()) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "file", name, "error", err)
			continue
		}

		s.queue.Enqueue(name, contentType, data)
		s.mu.Lock()
		s.seen[path] = info.ModTime()
		s.mu.Unlock()
		enqueued++
	}

	if enqueued == 0 {
		return 0, nil
	}

	if _, err := s.queue.Process(ctx); err != nil {
		return enqueued, err
	}
	return enqueued, nil
}

// Pause stops uploads without stopping the scan loop.
func (s *Scanner) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.logger.Info("auto-upload paused")
}

// Resume re-enables uploads.
func (s *Scanner) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.logger.Info("auto-upload resumed")
}

// Paused reports whether uploads are paused.
func (s *Scanner) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}
