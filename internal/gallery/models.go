// Package gallery derives the photo list for a session from the backend.
// The backend owns the list; this package only maps, sorts and caches it.
package gallery

import "log/slog"

// PhotoStatus is the agent-side view of an uploaded file's state.
type PhotoStatus string

const (
	StatusCompleted PhotoStatus = "completed"
	StatusPending   PhotoStatus = "pending"
	StatusUploading PhotoStatus = "uploading"
	StatusError     PhotoStatus = "error"
)

// Photo is one photo in a session, derived from the backend file record.
type Photo struct {
	ID          int         `json:"id"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"content_type"`
	SizeBytes   int64       `json:"size_bytes"`
	ObjectKey   string      `json:"object_key"`
	Status      PhotoStatus `json:"status"`
	OrderIndex  int         `json:"order_index"`
	PreviewURL  string      `json:"preview_url"`
}

// mapStatus translates a backend file status. Unknown values degrade to
// pending so a new backend status never breaks the client.
func mapStatus(raw string, logger *slog.Logger) PhotoStatus {
	switch raw {
	case "uploaded":
		return StatusCompleted
	case "pending":
		return StatusPending
	case "uploading":
		return StatusUploading
	case "error", "failed":
		return StatusError
	default:
		if logger != nil {
			logger.Warn("unknown photo status from backend", "status", raw)
		}
		return StatusPending
	}
}
