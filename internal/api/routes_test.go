package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/reelforge/reelforge-agent/internal/backend"
	"github.com/reelforge/reelforge-agent/internal/gallery"
	"github.com/reelforge/reelforge-agent/internal/media"
	"github.com/reelforge/reelforge-agent/internal/session"
	"github.com/reelforge/reelforge-agent/internal/store"
	"github.com/reelforge/reelforge-agent/internal/template"
	"github.com/reelforge/reelforge-agent/internal/uploader"
	"github.com/reelforge/reelforge-agent/internal/video"
)

const testToken = "test-token"

type fakeBackend struct {
	mu sync.Mutex

	jobCode      string
	createJobErr error
	jobCreates   int

	files     []backend.PhotoInfo
	getJobErr error

	uploads int

	templates []backend.Template

	createVideoResp *backend.VideoCreateResponse
	createVideoErr  error

	status      *backend.VideoStatusResponse
	statusErr   error
	statusCalls int

	processCalls int

	downloadData string
}

func (f *fakeBackend) CreateJob(ctx context.Context, templateID string) (*backend.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobCreates++
	if f.createJobErr != nil {
		return nil, f.createJobErr
	}
	return &backend.Job{Code: f.jobCode, Status: "created"}, nil
}

func (f *fakeBackend) StartJob(ctx context.Context, code string) error {
	return nil
}

func (f *fakeBackend) GetJob(ctx context.Context, code string) (*backend.JobInfo, error) {
	if f.getJobErr != nil {
		return nil, f.getJobErr
	}
	return &backend.JobInfo{Job: backend.Job{Code: code}, Files: f.files}, nil
}

func (f *fakeBackend) DeletePhoto(ctx context.Context, code string, fileID int) (*backend.DeletePhotoResponse, error) {
	return &backend.DeletePhotoResponse{Message: "deleted", DeletedFileID: fileID}, nil
}

func (f *fakeBackend) ReorderPhoto(ctx context.Context, code string, fileID int, direction backend.Direction) (*backend.ReorderResponse, error) {
	return &backend.ReorderResponse{Message: "already at boundary", Moved: false, FileID: fileID}, nil
}

func (f *fakeBackend) FileURL(objectKey string) string {
	return "http://backend.test/api/files/" + objectKey
}

func (f *fakeBackend) GetUploadURL(ctx context.Context, req backend.UploadURLRequest) (*backend.UploadURLResponse, error) {
	return &backend.UploadURLResponse{UploadURL: "http://backend.test/put", ObjectKey: "uploads/" + req.Filename}, nil
}

func (f *fakeBackend) UploadFile(ctx context.Context, uploadURL, contentType string, data []byte) (*backend.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return &backend.UploadResult{Message: "ok", Bytes: int64(len(data))}, nil
}

func (f *fakeBackend) ListTemplates(ctx context.Context) ([]backend.Template, error) {
	return f.templates, nil
}

func (f *fakeBackend) GetTemplate(ctx context.Context, templateID string) (*backend.Template, error) {
	for i := range f.templates {
		if f.templates[i].ID == templateID {
			return &f.templates[i], nil
		}
	}
	return nil, &backend.APIError{StatusCode: http.StatusNotFound, Detail: "template not found"}
}

func (f *fakeBackend) CreateVideo(ctx context.Context, req backend.VideoCreateRequest) (*backend.VideoCreateResponse, error) {
	if f.createVideoErr != nil {
		return nil, f.createVideoErr
	}
	return f.createVideoResp, nil
}

func (f *fakeBackend) VideoStatus(ctx context.Context, jobID string) (*backend.VideoStatusResponse, error) {
	f.mu.Lock()
	f.statusCalls++
	f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if f.status == nil {
		return &backend.VideoStatusResponse{JobID: jobID, Status: "completed", Progress: 100}, nil
	}
	return f.status, nil
}

func (f *fakeBackend) statusCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *fakeBackend) StartProcessing(ctx context.Context, jobID string) (*backend.ProcessResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processCalls++
	return &backend.ProcessResponse{Message: "started", JobID: jobID, Status: "processing"}, nil
}

func (f *fakeBackend) DownloadVideo(ctx context.Context, jobID string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader(f.downloadData)), "video/mp4", nil
}

type fakeRepo struct {
	mu     sync.Mutex
	config map[string]string
	jobs   map[string]*store.VideoJob
	order  []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		config: map[string]string{store.ConfigKeyAuthToken: testToken},
		jobs:   make(map[string]*store.VideoJob),
	}
}

func (r *fakeRepo) CreateVideoJob(ctx context.Context, j *store.VideoJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *j
	r.jobs[j.JobID] = &cp
	r.order = append(r.order, j.JobID)
	return nil
}

func (r *fakeRepo) GetVideoJob(ctx context.Context, jobID string) (*store.VideoJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (r *fakeRepo) LatestVideoJob(ctx context.Context) (*store.VideoJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return nil, nil
	}
	return r.jobs[r.order[len(r.order)-1]], nil
}

func (r *fakeRepo) ListVideoJobs(ctx context.Context, limit int) ([]*store.VideoJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*store.VideoJob, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.jobs[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) UpdateVideoJob(ctx context.Context, jobID, status string, progress int, outputPath, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok {
		j.Status = status
		j.Progress = progress
		j.OutputPath = outputPath
		j.Error = errorMsg
	}
	return nil
}

func (r *fakeRepo) GetConfig(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config[key], nil
}

func (r *fakeRepo) SetConfig(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config[key] = value
	return nil
}

func (r *fakeRepo) DeleteConfig(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.config, key)
	return nil
}

func testTemplates() []backend.Template {
	return []backend.Template{{
		ID:            "classic",
		Name:          "Classic",
		TotalDuration: 12,
		MaxPhotos:     10,
		Scenes: []backend.Scene{
			{ID: "s1", Type: "grid", Duration: 8, Order: 0},
			{ID: "s2", Type: "zoom", Duration: 4, MaxPhotos: 6, Order: 1},
		},
	}}
}

func newTestConfig(t *testing.T, be *fakeBackend) (ServerConfig, *fakeRepo) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newFakeRepo()
	sessions := session.NewStore(repo, be, logger)
	gal := gallery.NewService(be, logger)
	queue := uploader.NewQueue(sessions, be, gal, logger)
	templates := template.NewCatalog(be, logger)
	orch := video.NewOrchestrator(be, gal, templates, repo, logger)
	poller := video.NewPoller(be, repo, time.Millisecond, 0, logger)
	lib := media.NewLibrary(t.TempDir(), be, logger)

	return ServerConfig{
		Port:         0,
		Repository:   repo,
		Sessions:     sessions,
		Gallery:      gal,
		Queue:        queue,
		Templates:    templates,
		Orchestrator: orch,
		Poller:       poller,
		Media:        lib,
		Logger:       logger,
		StartTime:    time.Now(),
		DeviceID:     "dev-test",
	}, repo
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestHealthHandler(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{})

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["device_id"] != "dev-test" {
		t.Errorf("device_id = %v", body["device_id"])
	}
}

func TestAuth_MissingToken(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{})

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestStatusHandler(t *testing.T) {
	cfg, repo := newTestConfig(t, &fakeBackend{})
	repo.SetConfig(context.Background(), store.ConfigKeySessionCode, "RV1234")

	rr := httptest.NewRecorder()
	statusHandler(cfg).ServeHTTP(rr, authedRequest(http.MethodGet, "/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["session_code"] != "RV1234" {
		t.Errorf("session_code = %v", body["session_code"])
	}
	if enabled, _ := body["watch_enabled"].(bool); enabled {
		t.Error("watch_enabled = true, want false without a scanner")
	}
}

func TestStartSession_CreatesOnce(t *testing.T) {
	be := &fakeBackend{jobCode: "RV1234"}
	cfg, _ := newTestConfig(t, be)
	router := NewRouter(cfg)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, authedRequest(http.MethodPost, "/session", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		body := decodeJSONBody(t, rr)
		if body["session_code"] != "RV1234" {
			t.Errorf("session_code = %v", body["session_code"])
		}
	}

	if be.jobCreates != 1 {
		t.Errorf("backend job creates = %d, want 1", be.jobCreates)
	}
}

func TestResetSession(t *testing.T) {
	cfg, repo := newTestConfig(t, &fakeBackend{jobCode: "RV1234"})
	repo.SetConfig(context.Background(), store.ConfigKeySessionCode, "RV1234")

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodDelete, "/session", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if code, _ := repo.GetConfig(context.Background(), store.ConfigKeySessionCode); code != "" {
		t.Errorf("session code still stored: %q", code)
	}
}

func TestListPhotos_NoSession(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{})

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodGet, "/photos", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestListPhotos_RefreshMapsFiles(t *testing.T) {
	be := &fakeBackend{files: []backend.PhotoInfo{
		{ID: 2, Filename: "b.jpg", Status: "uploaded", OrderIndex: 1, ObjectKey: "uploads/b.jpg"},
		{ID: 1, Filename: "a.jpg", Status: "uploaded", OrderIndex: 0, ObjectKey: "uploads/a.jpg"},
	}}
	cfg, repo := newTestConfig(t, be)
	repo.SetConfig(context.Background(), store.ConfigKeySessionCode, "RV1234")

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodGet, "/photos?refresh=true", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp PhotosResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Photos) != 2 {
		t.Fatalf("photos = %d, want 2", len(resp.Photos))
	}
	if resp.Photos[0].ID != 1 || resp.Photos[1].ID != 2 {
		t.Errorf("photos not sorted by order: %+v", resp.Photos)
	}
}

func multipartBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, name := range names {
		part, err := mw.CreateFormFile("photos", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte("image-bytes"))
	}
	mw.Close()
	return buf, mw.FormDataContentType()
}

func TestUploadPhotos(t *testing.T) {
	be := &fakeBackend{jobCode: "RV1234"}
	cfg, _ := newTestConfig(t, be)

	body, contentType := multipartBody(t, "a.jpg", "b.png")
	req := httptest.NewRequest(http.MethodPost, "/photos", body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp UploadResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result.Succeeded != 2 || resp.Result.Failed != 0 {
		t.Errorf("result = %+v", resp.Result)
	}
	if be.uploads != 2 {
		t.Errorf("backend uploads = %d, want 2", be.uploads)
	}
}

func TestUploadPhotos_Empty(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{})

	body, contentType := multipartBody(t)
	req := httptest.NewRequest(http.MethodPost, "/photos", body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestDeletePhoto_NoSession(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{})

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodDelete, "/photos/3", nil))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestReorderPhoto_BadDirection(t *testing.T) {
	cfg, repo := newTestConfig(t, &fakeBackend{})
	repo.SetConfig(context.Background(), store.ConfigKeySessionCode, "RV1234")

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodPut, "/photos/3/reorder", strings.NewReader(`{"direction":"sideways"}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestReorderPhoto_BoundaryNoop(t *testing.T) {
	cfg, repo := newTestConfig(t, &fakeBackend{})
	repo.SetConfig(context.Background(), store.ConfigKeySessionCode, "RV1234")

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodPut, "/photos/3/reorder", strings.NewReader(`{"direction":"up"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if moved, _ := body["moved"].(bool); moved {
		t.Error("moved = true, want false at boundary")
	}
}

func TestListTemplates(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{templates: testTemplates()})

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodGet, "/templates", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	templates, ok := body["templates"].([]interface{})
	if !ok || len(templates) != 1 {
		t.Fatalf("templates = %v", body["templates"])
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{templates: testTemplates()})

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodGet, "/templates/nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCreateVideo(t *testing.T) {
	be := &fakeBackend{
		jobCode:   "RV1234",
		templates: testTemplates(),
		files: []backend.PhotoInfo{
			{ID: 1, Filename: "a.jpg", Status: "uploaded", OrderIndex: 0, ObjectKey: "uploads/a.jpg"},
			{ID: 2, Filename: "b.jpg", Status: "uploaded", OrderIndex: 1, ObjectKey: "uploads/b.jpg"},
		},
		createVideoResp: &backend.VideoCreateResponse{JobID: "VID99", Status: "processing", EstimatedDuration: 16},
	}
	cfg, repo := newTestConfig(t, be)
	repo.SetConfig(context.Background(), store.ConfigKeySessionCode, "RV1234")

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodPost, "/videos", strings.NewReader(`{"template_id":"classic"}`)))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if body["job_id"] != "VID99" {
		t.Errorf("job_id = %v", body["job_id"])
	}

	job, _ := repo.GetVideoJob(context.Background(), "VID99")
	if job == nil {
		t.Fatal("video job not recorded locally")
	}
	if job.PhotoCount != 2 {
		t.Errorf("photo count = %d, want 2", job.PhotoCount)
	}
}

func TestCreateVideo_UploadsIncomplete(t *testing.T) {
	be := &fakeBackend{
		templates: testTemplates(),
		files: []backend.PhotoInfo{
			{ID: 1, Filename: "a.jpg", Status: "uploaded", OrderIndex: 0},
			{ID: 2, Filename: "b.jpg", Status: "pending", OrderIndex: 1},
		},
	}
	cfg, repo := newTestConfig(t, be)
	repo.SetConfig(context.Background(), store.ConfigKeySessionCode, "RV1234")

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodPost, "/videos", strings.NewReader(`{"template_id":"classic"}`)))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "NOT_READY" {
		t.Errorf("code = %v, want NOT_READY", body["code"])
	}
}

func TestCreateVideo_BackgroundPollStopsWithServer(t *testing.T) {
	be := &fakeBackend{
		jobCode:   "RV1234",
		templates: testTemplates(),
		files: []backend.PhotoInfo{
			{ID: 1, Filename: "a.jpg", Status: "uploaded", OrderIndex: 0, ObjectKey: "uploads/a.jpg"},
		},
		createVideoResp: &backend.VideoCreateResponse{JobID: "VID99", Status: "processing"},
		status:          &backend.VideoStatusResponse{JobID: "VID99", Status: "processing", Progress: 10},
	}
	cfg, repo := newTestConfig(t, be)
	repo.SetConfig(context.Background(), store.ConfigKeySessionCode, "RV1234")

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg.BaseContext = baseCtx

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodPost, "/videos", strings.NewReader(`{"template_id":"classic"}`)))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	// The job never reaches a terminal state, so only cancellation can
	// stop the background poll.
	cancel()
	time.Sleep(10 * time.Millisecond)

	before := be.statusCallCount()
	time.Sleep(20 * time.Millisecond)
	if after := be.statusCallCount(); after != before {
		t.Errorf("status polls continued after shutdown: %d then %d", before, after)
	}
}

func TestCreateVideo_MissingTemplateID(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{})

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodPost, "/videos", strings.NewReader(`{}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestVideoStatus(t *testing.T) {
	be := &fakeBackend{status: &backend.VideoStatusResponse{JobID: "VID99", Status: "processing", Progress: 40}}
	cfg, _ := newTestConfig(t, be)

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodGet, "/videos/VID99", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["state"] != "processing" {
		t.Errorf("state = %v", body["state"])
	}
}

func TestVideoStatus_NotFound(t *testing.T) {
	be := &fakeBackend{statusErr: &backend.APIError{StatusCode: http.StatusNotFound, Detail: "no such job"}}
	cfg, _ := newTestConfig(t, be)

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodGet, "/videos/NOPE", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestRetryVideo(t *testing.T) {
	be := &fakeBackend{}
	cfg, _ := newTestConfig(t, be)

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodPost, "/videos/VID99/retry", nil))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusAccepted)
	}
	if be.processCalls != 1 {
		t.Errorf("process calls = %d, want 1", be.processCalls)
	}
}

func TestDownloadVideo(t *testing.T) {
	be := &fakeBackend{downloadData: "video-bytes"}
	cfg, _ := newTestConfig(t, be)

	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, authedRequest(http.MethodPost, "/videos/VID99/download", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if body["path"] == "" {
		t.Error("path missing from response")
	}
}

func TestStreamVideo_RangeRequest(t *testing.T) {
	be := &fakeBackend{downloadData: "0123456789"}
	cfg, _ := newTestConfig(t, be)
	if _, err := cfg.Media.Fetch(context.Background(), "VID99"); err != nil {
		t.Fatalf("prefetch: %v", err)
	}

	req := authedRequest(http.MethodGet, "/videos/VID99/stream", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	req.Header.Set("Range", "bytes=2-5")
	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusPartialContent)
	}
	if rr.Body.String() != "2345" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestStreamVideo_NonLoopbackRejected(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{})

	req := authedRequest(http.MethodGet, "/videos/VID99/stream", nil)
	req.RemoteAddr = "8.8.8.8:54321"
	rr := httptest.NewRecorder()
	NewRouter(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestWatchHandlers_Disabled(t *testing.T) {
	cfg, _ := newTestConfig(t, &fakeBackend{})
	router := NewRouter(cfg)

	for _, path := range []string{"/watch/pause", "/watch/resume"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, authedRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusConflict {
			t.Errorf("%s: status = %d, want %d", path, rr.Code, http.StatusConflict)
		}
	}
}
