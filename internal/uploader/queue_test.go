package uploader

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/reelforge/reelforge-agent/internal/backend"
	"github.com/reelforge/reelforge-agent/internal/gallery"
)

type fakeSessions struct {
	code  string
	calls int
	err   error
}

func (f *fakeSessions) Ensure(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.code, nil
}

type fakeUploadClient struct {
	urlErrFor   map[string]error
	putErrFor   map[string]error
	putFailOnce map[string]error

	urlCalls int
	putCalls int

	onGetUploadURL func()
	onUploadFile   func()
}

func (f *fakeUploadClient) GetUploadURL(ctx context.Context, req backend.UploadURLRequest) (*backend.UploadURLResponse, error) {
	f.urlCalls++
	if f.onGetUploadURL != nil {
		f.onGetUploadURL()
	}
	if err := f.urlErrFor[req.Filename]; err != nil {
		return nil, err
	}
	return &backend.UploadURLResponse{
		UploadURL: "/api/upload/jobs/" + req.JobCode + "/" + req.Filename,
		ObjectKey: "jobs/" + req.JobCode + "/" + req.Filename,
	}, nil
}

func (f *fakeUploadClient) UploadFile(ctx context.Context, uploadURL, contentType string, data []byte) (*backend.UploadResult, error) {
	f.putCalls++
	if f.onUploadFile != nil {
		f.onUploadFile()
	}
	if err := f.putFailOnce[uploadURL]; err != nil {
		delete(f.putFailOnce, uploadURL)
		return nil, err
	}
	if err := f.putErrFor[uploadURL]; err != nil {
		return nil, err
	}
	return &backend.UploadResult{Message: "ok", Bytes: int64(len(data))}, nil
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, code string) ([]gallery.Photo, error) {
	f.calls++
	return nil, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testQueue(client *fakeUploadClient, refresher *fakeRefresher, sessions *fakeSessions) *Queue {
	q := NewQueue(sessions, client, refresher, testLogger())
	q.backoff = time.Millisecond
	return q
}

func TestProcess_BatchContinuesPastFailure(t *testing.T) {
	client := &fakeUploadClient{
		urlErrFor: map[string]error{
			"b.jpg": &backend.APIError{StatusCode: 400, Detail: "unsupported file"},
		},
	}
	refresher := &fakeRefresher{}
	q := testQueue(client, refresher, &fakeSessions{code: "A1B2C3D4"})

	q.Enqueue("a.jpg", "image/jpeg", []byte("aaa"))
	q.Enqueue("b.jpg", "image/jpeg", []byte("bbb"))
	q.Enqueue("c.jpg", "image/jpeg", []byte("ccc"))

	result, err := q.Process(context.Background())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if result.Total != 3 || result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("result = %+v, want total 3, succeeded 2, failed 1", result)
	}

	items := q.Items()
	if items[0].Status != StatusCompleted || items[0].Progress != 100 {
		t.Errorf("item a = %+v, want completed/100", items[0])
	}
	if items[1].Status != StatusError {
		t.Errorf("item b status = %q, want error", items[1].Status)
	}
	if items[1].Err == "" {
		t.Error("item b has no error message")
	}
	if items[2].Status != StatusCompleted || items[2].Progress != 100 {
		t.Errorf("item c = %+v, want completed/100", items[2])
	}

	// One refresh per completed file, none for the failure
	if refresher.calls != 2 {
		t.Errorf("refresh calls = %d, want 2", refresher.calls)
	}
}

func TestProcess_FailureAtPut(t *testing.T) {
	client := &fakeUploadClient{
		putErrFor: map[string]error{
			"/api/upload/jobs/A1B2C3D4/a.jpg": &backend.APIError{StatusCode: 413, Detail: "file too large"},
		},
	}
	refresher := &fakeRefresher{}
	q := testQueue(client, refresher, &fakeSessions{code: "A1B2C3D4"})

	q.Enqueue("a.jpg", "image/jpeg", []byte("aaa"))

	result, err := q.Process(context.Background())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Failed != 1 || result.Succeeded != 0 {
		t.Errorf("result = %+v", result)
	}

	item := q.Items()[0]
	if item.Status != StatusError {
		t.Errorf("status = %q, want error", item.Status)
	}
	if refresher.calls != 0 {
		t.Errorf("refresh calls = %d, want 0 after failed upload", refresher.calls)
	}
}

func TestProcess_NoSessionNoUploads(t *testing.T) {
	client := &fakeUploadClient{}
	q := testQueue(client, &fakeRefresher{}, &fakeSessions{err: errors.New("backend down")})

	q.Enqueue("a.jpg", "image/jpeg", []byte("aaa"))

	if _, err := q.Process(context.Background()); err == nil {
		t.Fatal("expected error when session cannot be ensured")
	}

	if client.urlCalls != 0 || client.putCalls != 0 {
		t.Errorf("client calls = %d/%d, want 0/0 without a session", client.urlCalls, client.putCalls)
	}
	if got := q.Items()[0].Status; got != StatusWaiting {
		t.Errorf("item status = %q, want waiting", got)
	}
}

func TestProcess_EmptyQueue(t *testing.T) {
	sessions := &fakeSessions{code: "A1B2C3D4"}
	q := testQueue(&fakeUploadClient{}, &fakeRefresher{}, sessions)

	result, err := q.Process(context.Background())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Total != 0 {
		t.Errorf("total = %d, want 0", result.Total)
	}
	if sessions.calls != 0 {
		t.Errorf("Ensure calls = %d, want 0 for empty queue", sessions.calls)
	}
}

func TestProcess_RetriesTransientPutFailure(t *testing.T) {
	client := &fakeUploadClient{
		putFailOnce: map[string]error{
			"/api/upload/jobs/A1B2C3D4/a.jpg": &backend.APIError{StatusCode: 503, Detail: "try again"},
		},
	}
	q := testQueue(client, &fakeRefresher{}, &fakeSessions{code: "A1B2C3D4"})

	q.Enqueue("a.jpg", "image/jpeg", []byte("aaa"))

	result, err := q.Process(context.Background())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1 after retry", result.Succeeded)
	}
	if client.putCalls != 2 {
		t.Errorf("put calls = %d, want 2", client.putCalls)
	}
}

func TestProcess_PermanentFailureNotRetried(t *testing.T) {
	client := &fakeUploadClient{
		putErrFor: map[string]error{
			"/api/upload/jobs/A1B2C3D4/a.jpg": &backend.APIError{StatusCode: 400, Detail: "bad request"},
		},
	}
	q := testQueue(client, &fakeRefresher{}, &fakeSessions{code: "A1B2C3D4"})

	q.Enqueue("a.jpg", "image/jpeg", []byte("aaa"))

	if _, err := q.Process(context.Background()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if client.putCalls != 1 {
		t.Errorf("put calls = %d, want 1 (4xx is permanent)", client.putCalls)
	}
}

func TestProcess_ProgressMilestones(t *testing.T) {
	q := testQueue(&fakeUploadClient{}, &fakeRefresher{}, &fakeSessions{code: "A1B2C3D4"})

	var duringURL, duringPut Item
	client := &fakeUploadClient{}
	client.onGetUploadURL = func() { duringURL = q.Items()[0] }
	client.onUploadFile = func() { duringPut = q.Items()[0] }
	q.client = client

	q.Enqueue("a.jpg", "image/jpeg", []byte("aaa"))
	if _, err := q.Process(context.Background()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if duringURL.Status != StatusUploading || duringURL.Progress != 10 {
		t.Errorf("during url request: %s/%d, want uploading/10", duringURL.Status, duringURL.Progress)
	}
	if duringPut.Status != StatusUploading || duringPut.Progress != 50 {
		t.Errorf("during put: %s/%d, want uploading/50", duringPut.Status, duringPut.Progress)
	}
}

func TestClear_KeepsUnfinished(t *testing.T) {
	client := &fakeUploadClient{
		urlErrFor: map[string]error{
			"b.jpg": &backend.APIError{StatusCode: 400, Detail: "nope"},
		},
	}
	q := testQueue(client, &fakeRefresher{}, &fakeSessions{code: "A1B2C3D4"})

	q.Enqueue("a.jpg", "image/jpeg", []byte("aaa"))
	q.Enqueue("b.jpg", "image/jpeg", []byte("bbb"))
	if _, err := q.Process(context.Background()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	q.Enqueue("c.jpg", "image/jpeg", []byte("ccc"))
	q.Clear()

	items := q.Items()
	if len(items) != 1 || items[0].FileName != "c.jpg" {
		t.Errorf("items after clear = %+v, want only waiting c.jpg", items)
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"a.jpg", "image/jpeg"},
		{"a.jpeg", "image/jpeg"},
		{"a.png", "image/png"},
		{"a.gif", "image/gif"},
		{"a.webp", "image/webp"},
		{"a.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := DetectContentType(tt.file); got != tt.want {
			t.Errorf("DetectContentType(%s) = %q, want %q", tt.file, got, tt.want)
		}
	}
}
