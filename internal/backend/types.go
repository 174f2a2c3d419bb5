package backend

// Job is the backend's view of an upload session.
type Job struct {
	Code      string `json:"code"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// JobInfo is a Job plus its uploaded files.
type JobInfo struct {
	Job
	Files []PhotoInfo `json:"files"`
}

// PhotoInfo is one uploaded file as the backend records it.
type PhotoInfo struct {
	ID          int    `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	ObjectKey   string `json:"object_key"`
	Status      string `json:"status"`
	OrderIndex  int    `json:"order_index"`
	CreatedAt   string `json:"created_at"`
}

// UploadURLRequest asks the backend for a destination URL for one file.
type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	JobCode     string `json:"job_code"`
}

// UploadURLResponse carries the destination for the file bytes.
type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
	PublicURL string `json:"public_url"`
}

// UploadResult is the backend's acknowledgement of a byte upload.
type UploadResult struct {
	Message string `json:"message"`
	Bytes   int64  `json:"bytes"`
}

// DeletePhotoResponse reports a successful photo deletion.
type DeletePhotoResponse struct {
	Message          string `json:"message"`
	DeletedFileID    int    `json:"deleted_file_id"`
	DeletedObjectKey string `json:"deleted_object_key"`
}

// ReorderResponse reports the outcome of a reorder request.
// Moved is false when the photo was already at the boundary.
type ReorderResponse struct {
	Message  string `json:"message"`
	Moved    bool   `json:"moved"`
	FileID   int    `json:"file_id"`
	NewOrder *int   `json:"new_order,omitempty"`
}

// Direction of a reorder request.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Template is a backend-owned video template.
type Template struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Thumbnail     string  `json:"thumbnail"`
	Scenes        []Scene `json:"scenes"`
	TotalDuration float64 `json:"totalDuration"`
	MaxPhotos     int     `json:"maxPhotos"`
}

// Scene is one segment of a template.
type Scene struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Duration  float64       `json:"duration"`
	MaxPhotos int           `json:"maxPhotos"`
	Effects   []SceneEffect `json:"effects"`
	Order     int           `json:"order"`
}

// SceneEffect is an effect applied within a scene.
type SceneEffect struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Duration   float64        `json:"duration"`
	Parameters map[string]any `json:"parameters"`
}

// TemplatesResponse wraps the template list endpoint.
type TemplatesResponse struct {
	Templates []Template `json:"templates"`
}

// PhotoConfig is one photo slot in a video creation request.
type PhotoConfig struct {
	ID       string `json:"id"`
	FilePath string `json:"filePath"`
	Order    int    `json:"order"`
}

// VideoCreateRequest configures a video rendering job.
type VideoCreateRequest struct {
	TemplateID   string        `json:"templateId"`
	Photos       []PhotoConfig `json:"photos"`
	OutputFormat string        `json:"outputFormat"`
	Resolution   string        `json:"resolution"`
	FPS          int           `json:"fps"`
}

// VideoCreateResponse acknowledges a created rendering job.
type VideoCreateResponse struct {
	JobID             string   `json:"job_id"`
	Status            string   `json:"status"`
	EstimatedDuration float64  `json:"estimated_duration"`
	Template          Template `json:"template"`
	Message           string   `json:"message"`
}

// VideoStatusResponse is the live status of a rendering job.
type VideoStatusResponse struct {
	JobID             string  `json:"jobId"`
	Status            string  `json:"status"`
	Progress          int     `json:"progress"`
	EstimatedDuration float64 `json:"estimated_duration"`
	OutputPath        string  `json:"outputPath,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// ProcessResponse acknowledges a start-processing request.
type ProcessResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
}

// HealthResponse is the backend health probe payload.
type HealthResponse struct {
	Status string `json:"status"`
}
