// Package backend is the HTTP client for the Reelforge rendering backend.
// All mutations and reads of session state go through here; the agent keeps
// no authoritative copy of anything the backend owns.
package backend

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client is the backend REST surface the agent depends on.
type Client interface {
	CreateJob(ctx context.Context, templateID string) (*Job, error)
	GetJob(ctx context.Context, code string) (*JobInfo, error)
	StartJob(ctx context.Context, code string) error

	GetUploadURL(ctx context.Context, req UploadURLRequest) (*UploadURLResponse, error)
	UploadFile(ctx context.Context, uploadURL, contentType string, data []byte) (*UploadResult, error)

	DeletePhoto(ctx context.Context, code string, fileID int) (*DeletePhotoResponse, error)
	ReorderPhoto(ctx context.Context, code string, fileID int, direction Direction) (*ReorderResponse, error)

	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, templateID string) (*Template, error)

	CreateVideo(ctx context.Context, req VideoCreateRequest) (*VideoCreateResponse, error)
	VideoStatus(ctx context.Context, jobID string) (*VideoStatusResponse, error)
	StartProcessing(ctx context.Context, jobID string) (*ProcessResponse, error)
	DownloadVideo(ctx context.Context, jobID string) (io.ReadCloser, string, error)

	Health(ctx context.Context) error
	FileURL(objectKey string) string
}

// HTTPClient talks to a real backend over HTTP.
type HTTPClient struct {
	baseURL    string
	deviceID   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// SetDeviceID attaches a device identifier to outgoing requests.
func (c *HTTPClient) SetDeviceID(id string) {
	c.deviceID = id
}

func (c *HTTPClient) CreateJob(ctx context.Context, templateID string) (*Job, error) {
	body := map[string]string{}
	if templateID != "" {
		body["template_id"] = templateID
	}
	var job Job
	if err := c.doJSON(ctx, http.MethodPost, "/api/jobs", body, &job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return &job, nil
}

func (c *HTTPClient) GetJob(ctx context.Context, code string) (*JobInfo, error) {
	var info JobInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs/"+code, nil, &info); err != nil {
		return nil, fmt.Errorf("get job %s: %w", code, err)
	}
	return &info, nil
}

func (c *HTTPClient) StartJob(ctx context.Context, code string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/jobs/"+code+"/start", nil, nil); err != nil {
		return fmt.Errorf("start job %s: %w", code, err)
	}
	return nil
}

func (c *HTTPClient) GetUploadURL(ctx context.Context, req UploadURLRequest) (*UploadURLResponse, error) {
	var resp UploadURLResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/jobs/upload-url", req, &resp); err != nil {
		return nil, fmt.Errorf("get upload url for %s: %w", req.Filename, err)
	}
	return &resp, nil
}

// UploadFile PUTs file bytes to the destination returned by GetUploadURL.
// Relative destinations are resolved against the backend base URL.
func (c *HTTPClient) UploadFile(ctx context.Context, uploadURL, contentType string, data []byte) (*UploadResult, error) {
	url := uploadURL
	if strings.HasPrefix(url, "/") {
		url = c.baseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.setCorrelationHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, respBody)
	}

	var result UploadResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		// Some storage backends respond with an empty body on success.
		result = UploadResult{Bytes: int64(len(data))}
	}

	c.logger.Debug("file uploaded", "url", url, "bytes", result.Bytes)
	return &result, nil
}

func (c *HTTPClient) DeletePhoto(ctx context.Context, code string, fileID int) (*DeletePhotoResponse, error) {
	var resp DeletePhotoResponse
	path := fmt.Sprintf("/api/jobs/%s/files/%d", code, fileID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("delete photo %d: %w", fileID, err)
	}
	return &resp, nil
}

func (c *HTTPClient) ReorderPhoto(ctx context.Context, code string, fileID int, direction Direction) (*ReorderResponse, error) {
	var resp ReorderResponse
	path := fmt.Sprintf("/api/jobs/%s/files/%d/reorder?direction=%s", code, fileID, direction)
	if err := c.doJSON(ctx, http.MethodPut, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("reorder photo %d: %w", fileID, err)
	}
	return &resp, nil
}

func (c *HTTPClient) ListTemplates(ctx context.Context) ([]Template, error) {
	var resp TemplatesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/templates", nil, &resp); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return resp.Templates, nil
}

func (c *HTTPClient) GetTemplate(ctx context.Context, templateID string) (*Template, error) {
	var tmpl Template
	if err := c.doJSON(ctx, http.MethodGet, "/api/templates/"+templateID, nil, &tmpl); err != nil {
		return nil, fmt.Errorf("get template %s: %w", templateID, err)
	}
	return &tmpl, nil
}

func (c *HTTPClient) CreateVideo(ctx context.Context, req VideoCreateRequest) (*VideoCreateResponse, error) {
	var resp VideoCreateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/videos/create", req, &resp); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	return &resp, nil
}

func (c *HTTPClient) VideoStatus(ctx context.Context, jobID string) (*VideoStatusResponse, error) {
	var resp VideoStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/videos/"+jobID+"/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("video status %s: %w", jobID, err)
	}
	return &resp, nil
}

func (c *HTTPClient) StartProcessing(ctx context.Context, jobID string) (*ProcessResponse, error) {
	var resp ProcessResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/videos/"+jobID+"/process", nil, &resp); err != nil {
		return nil, fmt.Errorf("start processing %s: %w", jobID, err)
	}
	return &resp, nil
}

// DownloadVideo streams the rendered video. The caller must close the
// returned reader. The second return value is the response content type.
func (c *HTTPClient) DownloadVideo(ctx context.Context, jobID string) (io.ReadCloser, string, error) {
	url := c.baseURL + "/api/videos/" + jobID + "/download"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	c.setCorrelationHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, "", fmt.Errorf("download video %s: %w", jobID, newAPIError(resp.StatusCode, body))
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *HTTPClient) Health(ctx context.Context) error {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// FileURL returns the preview URL for an uploaded object.
func (c *HTTPClient) FileURL(objectKey string) string {
	return c.baseURL + "/api/files/" + objectKey
}

// doJSON performs a JSON request against the backend. A nil out discards
// the response body; non-2xx responses become *APIError.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCorrelationHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) setCorrelationHeaders(req *http.Request) {
	req.Header.Set("X-Reelforge-Request-Id", generateRequestID())
	if c.deviceID != "" {
		req.Header.Set("X-Reelforge-Device-Id", c.deviceID)
	}
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
