// Package uploader implements the sequential upload queue. Each file goes
// through a two-phase upload: ask the backend for a destination URL, then
// PUT the bytes. One file failing never aborts the batch.
package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/reelforge/reelforge-agent/internal/backend"
	"github.com/reelforge/reelforge-agent/internal/gallery"
)

// Item statuses.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Progress milestones within one item's upload.
const (
	progressStarted  = 10
	progressURLReady = 50
	progressDone     = 100
)

const (
	maxUploadRetries = 2
	defaultBackoff   = 500 * time.Millisecond
)

// Item is one queued file.
type Item struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Err      string `json:"error,omitempty"`

	contentType string
	data        []byte
}

// UploadClient is the slice of the backend client the queue needs.
type UploadClient interface {
	GetUploadURL(ctx context.Context, req backend.UploadURLRequest) (*backend.UploadURLResponse, error)
	UploadFile(ctx context.Context, uploadURL, contentType string, data []byte) (*backend.UploadResult, error)
}

// SessionEnsurer provides the session code uploads are attached to.
type SessionEnsurer interface {
	Ensure(ctx context.Context) (string, error)
}

// Refresher rebuilds the photo list after a completed upload.
type Refresher interface {
	Refresh(ctx context.Context, code string) ([]gallery.Photo, error)
}

// Result summarizes one processed batch.
type Result struct {
	SessionCode string `json:"session_code"`
	Total       int    `json:"total"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
}

// Queue uploads files one at a time, in order. It never starts an upload
// without a session code.
type Queue struct {
	sessions SessionEnsurer
	client   UploadClient
	gallery  Refresher
	logger   *slog.Logger

	// backoff for retryable PUT failures, shortened in tests
	backoff time.Duration

	mu    sync.Mutex
	items []*Item
}

func NewQueue(sessions SessionEnsurer, client UploadClient, gallery Refresher, logger *slog.Logger) *Queue {
	return &Queue{
		sessions: sessions,
		client:   client,
		gallery:  gallery,
		logger:   logger,
		backoff:  defaultBackoff,
	}
}

// Enqueue adds a file to the queue in waiting state and returns its id.
func (q *Queue) Enqueue(fileName, contentType string, data []byte) string {
	if contentType == "" {
		contentType = DetectContentType(fileName)
	}
	item := &Item{
		ID:          uuid.NewString(),
		FileName:    fileName,
		Status:      StatusWaiting,
		contentType: contentType,
		data:        data,
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.logger.Debug("file queued", "file", fileName, "item_id", item.ID)
	return item.ID
}

// Process uploads every waiting item sequentially. The session code is
// resolved once before the first upload; if that fails nothing is
// attempted. Individual failures mark their item and the batch goes on.
func (q *Queue) Process(ctx context.Context) (*Result, error) {
	waiting := q.waitingItems()
	if len(waiting) == 0 {
		return &Result{}, nil
	}

	code, err := q.sessions.Ensure(ctx)
	if err != nil {
		return nil, fmt.Errorf("no session for upload: %w", err)
	}

	result := &Result{SessionCode: code, Total: len(waiting)}
	log := q.logger.With("session_code", code)

	for _, item := range waiting {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := q.uploadOne(ctx, code, item); err != nil {
			q.setError(item, err)
			result.Failed++
			log.Warn("upload failed", "file", item.FileName, "error", err)
			continue
		}

		result.Succeeded++
		log.Info("upload completed", "file", item.FileName)

		// Refresh after each completed file so the gallery tracks
		// progress one photo at a time. Failed files skip this.
		if _, err := q.gallery.Refresh(ctx, code); err != nil {
			log.Warn("photo refresh after upload failed", "error", err)
		}
	}

	return result, nil
}

func (q *Queue) uploadOne(ctx context.Context, code string, item *Item) error {
	q.setProgress(item, StatusUploading, progressStarted)

	urlResp, err := q.client.GetUploadURL(ctx, backend.UploadURLRequest{
		Filename:    item.FileName,
		ContentType: item.contentType,
		JobCode:     code,
	})
	if err != nil {
		return fmt.Errorf("request upload url: %w", err)
	}

	q.setProgress(item, StatusUploading, progressURLReady)

	backoff := retry.WithMaxRetries(maxUploadRetries, retry.NewExponential(q.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := q.client.UploadFile(ctx, urlResp.UploadURL, item.contentType, item.data)
		if err != nil && backend.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("upload bytes: %w", err)
	}

	q.mu.Lock()
	item.Status = StatusCompleted
	item.Progress = progressDone
	item.data = nil
	q.mu.Unlock()
	return nil
}

// Items returns a snapshot of the queue.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]Item, len(q.items))
	for i, item := range q.items {
		items[i] = *item
	}
	return items
}

// Clear drops finished items, keeping any still waiting or uploading.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	for _, item := range q.items {
		if item.Status == StatusWaiting || item.Status == StatusUploading {
			kept = append(kept, item)
		}
	}
	q.items = kept
}

func (q *Queue) waitingItems() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	var waiting []*Item
	for _, item := range q.items {
		if item.Status == StatusWaiting {
			waiting = append(waiting, item)
		}
	}
	return waiting
}

func (q *Queue) setProgress(item *Item, status Status, progress int) {
	q.mu.Lock()
	item.Status = status
	item.Progress = progress
	q.mu.Unlock()
}

func (q *Queue) setError(item *Item, err error) {
	q.mu.Lock()
	item.Status = StatusError
	item.Err = err.Error()
	item.data = nil
	q.mu.Unlock()
}

// DetectContentType maps a filename extension to a MIME type for the
// image formats the backend accepts.
func DetectContentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
