// Package media keeps downloaded videos on disk and serves them to the
// companion UI with HTTP range support, so scrubbing works locally even
// when the backend is slow.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Downloader is the slice of the backend client the library needs.
type Downloader interface {
	DownloadVideo(ctx context.Context, jobID string) (io.ReadCloser, string, error)
}

// Library stores one file per rendered job under the media directory.
type Library struct {
	dir    string
	client Downloader
	logger *slog.Logger
}

func NewLibrary(dir string, client Downloader, logger *slog.Logger) *Library {
	return &Library{dir: dir, client: client, logger: logger}
}

// Cached returns the local path for a job's video if it was downloaded.
func (l *Library) Cached(jobID string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(l.dir, jobID+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// Fetch returns the local path for a job's video, downloading it from
// the backend on first access. Partial downloads never land under the
// final name.
func (l *Library) Fetch(ctx context.Context, jobID string) (string, error) {
	if path, ok := l.Cached(jobID); ok {
		return path, nil
	}

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	body, contentType, err := l.client.DownloadVideo(ctx, jobID)
	if err != nil {
		return "", err
	}
	defer body.Close()

	final := filepath.Join(l.dir, jobID+extensionFor(contentType))
	tmp := final + ".partial"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}

	written, err := io.Copy(f, body)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write download: %w", err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize download: %w", err)
	}

	l.logger.Info("video downloaded", "job_id", jobID, "path", final, "bytes", written)
	return final, nil
}

// SaveTo downloads a job's video to an explicit destination path.
func (l *Library) SaveTo(ctx context.Context, jobID, dest string) (int64, error) {
	body, _, err := l.client.DownloadVideo(ctx, jobID)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	written, err := io.Copy(f, body)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return 0, fmt.Errorf("write %s: %w", dest, err)
	}
	return written, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "video/quicktime":
		return ".mov"
	case "video/x-msvideo":
		return ".avi"
	default:
		return ".mp4"
	}
}
