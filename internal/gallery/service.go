package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/reelforge/reelforge-agent/internal/backend"
)

// JobReader is the slice of the backend client the gallery needs.
type JobReader interface {
	GetJob(ctx context.Context, code string) (*backend.JobInfo, error)
	DeletePhoto(ctx context.Context, code string, fileID int) (*backend.DeletePhotoResponse, error)
	ReorderPhoto(ctx context.Context, code string, fileID int, direction backend.Direction) (*backend.ReorderResponse, error)
	FileURL(objectKey string) string
}

// ReorderOutcome reports a reorder round-trip. Moved is false when the
// photo was already at the boundary; that is informational, not an error.
type ReorderOutcome struct {
	Moved    bool   `json:"moved"`
	FileID   int    `json:"file_id"`
	NewOrder *int   `json:"new_order,omitempty"`
	Message  string `json:"message"`
}

// Service recomputes photo lists from the backend and caches them per
// session code until a mutation invalidates the entry.
type Service struct {
	client JobReader
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string][]Photo
}

func NewService(client JobReader, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
		cache:  make(map[string][]Photo),
	}
}

// Photos returns the photo list for a session, served from cache when a
// fresh entry exists.
func (s *Service) Photos(ctx context.Context, code string) ([]Photo, error) {
	s.mu.Lock()
	cached, ok := s.cache[code]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}
	return s.Refresh(ctx, code)
}

// Refresh refetches the session from the backend and rebuilds the list.
func (s *Service) Refresh(ctx context.Context, code string) ([]Photo, error) {
	info, err := s.client.GetJob(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("refresh photos: %w", err)
	}

	photos := make([]Photo, 0, len(info.Files))
	for _, f := range info.Files {
		photos = append(photos, Photo{
			ID:          f.ID,
			Filename:    f.Filename,
			ContentType: f.ContentType,
			SizeBytes:   f.SizeBytes,
			ObjectKey:   f.ObjectKey,
			Status:      mapStatus(f.Status, s.logger),
			OrderIndex:  f.OrderIndex,
			PreviewURL:  s.client.FileURL(f.ObjectKey),
		})
	}
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].OrderIndex < photos[j].OrderIndex
	})

	s.mu.Lock()
	s.cache[code] = photos
	s.mu.Unlock()
	return photos, nil
}

// Delete removes a photo through the backend and invalidates the cache.
func (s *Service) Delete(ctx context.Context, code string, fileID int) (*backend.DeletePhotoResponse, error) {
	resp, err := s.client.DeletePhoto(ctx, code, fileID)
	if err != nil {
		return nil, err
	}
	s.Invalidate(code)
	s.logger.Info("photo deleted", "session_code", code, "file_id", resp.DeletedFileID)
	return resp, nil
}

// Reorder moves a photo one position up or down through the backend.
// When the backend reports moved=false the list is already in its final
// shape, so the cache entry is kept and no refetch happens.
func (s *Service) Reorder(ctx context.Context, code string, fileID int, direction backend.Direction) (*ReorderOutcome, error) {
	resp, err := s.client.ReorderPhoto(ctx, code, fileID, direction)
	if err != nil {
		return nil, err
	}

	outcome := &ReorderOutcome{
		Moved:    resp.Moved,
		FileID:   resp.FileID,
		NewOrder: resp.NewOrder,
		Message:  resp.Message,
	}
	if !resp.Moved {
		s.logger.Info("photo already at boundary", "session_code", code, "file_id", fileID, "direction", direction)
		return outcome, nil
	}

	s.Invalidate(code)
	s.logger.Info("photo reordered", "session_code", code, "file_id", fileID, "direction", direction)
	return outcome, nil
}

// Invalidate drops the cached list for one session code only.
func (s *Service) Invalidate(code string) {
	s.mu.Lock()
	delete(s.cache, code)
	s.mu.Unlock()
}
