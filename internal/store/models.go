// Package store persists local agent state: config key/value pairs and
// the history of video jobs created from this machine.
package store

import "time"

// Config keys
const (
	ConfigKeySessionCode = "session_code"
	ConfigKeyAuthToken   = "auth_token"
	ConfigKeyDeviceID    = "device_id"
	ConfigKeyWatchPaused = "watch_paused"
)

// VideoJob is a locally recorded video creation job. The backend owns the
// live status; rows here let status/download default to the latest job.
type VideoJob struct {
	JobID       string    `json:"job_id"`
	SessionCode string    `json:"session_code"`
	TemplateID  string    `json:"template_id"`
	PhotoCount  int       `json:"photo_count"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	OutputPath  string    `json:"output_path,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
