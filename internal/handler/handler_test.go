package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"clipforge/internal/config"
	"clipforge/internal/domain"
	"clipforge/internal/media"
	"clipforge/internal/service"
	"clipforge/internal/storage"
)

type fakeVideoRepo struct {
	videos    map[int64]*domain.Video
	nextID    int64
	createErr error
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: make(map[int64]*domain.Video)}
}

func (r *fakeVideoRepo) Create(ctx context.Context, video *domain.Video) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	video.ID = r.nextID
	video.CreatedAt = time.Now()
	copied := *video
	r.videos[video.ID] = &copied
	return nil
}

func (r *fakeVideoRepo) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	v, ok := r.videos[id]
	if !ok {
		return nil, domain.ErrVideoNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVideoRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Video, error) {
	seen := make(map[int64]struct{}, len(ids))
	var out []domain.Video
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if v, ok := r.videos[id]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

type fakeLinkRepo struct {
	links  map[string]*domain.SharedLink
	nextID int64
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]*domain.SharedLink)}
}

func (r *fakeLinkRepo) Create(ctx context.Context, link *domain.SharedLink) error {
	r.nextID++
	link.ID = r.nextID
	link.CreatedAt = time.Now()
	copied := *link
	r.links[link.ShareToken] = &copied
	return nil
}

func (r *fakeLinkRepo) GetByToken(ctx context.Context, token string) (*domain.SharedLink, error) {
	link, ok := r.links[token]
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (r *fakeLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type fakeProber struct {
	duration float64
	err      error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (media.ProbeResult, error) {
	if p.err != nil {
		return media.ProbeResult{}, p.err
	}
	return media.ProbeResult{Duration: p.duration}, nil
}

type fakeTransformer struct {
	err error
}

func (t *fakeTransformer) Trim(ctx context.Context, inputPath string, start, duration float64, outputPath string) error {
	if t.err != nil {
		return t.err
	}
	return os.WriteFile(outputPath, []byte("trimmed"), 0644)
}

func (t *fakeTransformer) ConcatNormalized(ctx context.Context, inputPaths []string, width, height int, outputPath string) error {
	if t.err != nil {
		return t.err
	}
	return os.WriteFile(outputPath, []byte("merged"), 0644)
}

type testEnv struct {
	router      chi.Router
	videoRepo   *fakeVideoRepo
	linkRepo    *fakeLinkRepo
	prober      *fakeProber
	transformer *fakeTransformer
	store       *storage.ArtifactStore
}

const testBaseURL = "http://localhost:3000"

func newTestEnv(t *testing.T, maxUploadSize int64) *testEnv {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewArtifactStore(filepath.Join(dir, "uploads"), filepath.Join(dir, "processed"))
	if err != nil {
		t.Fatalf("NewArtifactStore: %v", err)
	}

	videoRepo := newFakeVideoRepo()
	linkRepo := newFakeLinkRepo()
	prober := &fakeProber{duration: 10}
	transformer := &fakeTransformer{}

	videoService := service.NewVideoService(videoRepo, prober, transformer, store, nil,
		config.VideoConfig{MinDuration: 1, MaxDuration: 300},
		config.MediaConfig{CanvasWidth: 1280, CanvasHeight: 720},
	)
	shareService := service.NewShareService(linkRepo, videoRepo, store)

	videoHandler := NewVideoHandler(videoService, store, maxUploadSize)
	shareHandler := NewShareHandler(shareService, testBaseURL)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/videos", func(r chi.Router) {
			r.Post("/upload", videoHandler.UploadVideo)
			r.Post("/{id}/trim", videoHandler.TrimVideo)
			r.Post("/merge", videoHandler.MergeVideos)
		})
		r.Route("/share", func(r chi.Router) {
			r.Post("/{videoId}", shareHandler.CreateShareLink)
			r.Get("/{shareToken}", shareHandler.AccessSharedVideo)
		})
	})

	return &testEnv{
		router:      r,
		videoRepo:   videoRepo,
		linkRepo:    linkRepo,
		prober:      prober,
		transformer: transformer,
		store:       store,
	}
}

func (e *testEnv) addVideo(t *testing.T, duration float64) *domain.Video {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.mp4")
	if err := os.WriteFile(path, []byte("source bytes"), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	video := &domain.Video{
		FileName: filepath.Base(path),
		FilePath: path,
		Size:     12,
		Duration: duration,
	}
	if err := e.videoRepo.Create(context.Background(), video); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return video
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
}

func doJSON(t *testing.T, router chi.Router, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadVideoSuccess(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	body, contentType := multipartUpload(t, "video", "clip.mp4", []byte("video payload"))

	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("envelope statusCode = %d, want 201", resp.StatusCode)
	}
	if resp.Message != "Video uploaded successfully!" {
		t.Errorf("message = %q", resp.Message)
	}

	var video domain.Video
	if err := json.Unmarshal(resp.Data, &video); err != nil {
		t.Fatalf("decode video data: %v", err)
	}
	if video.ID == 0 || video.Duration != 10 {
		t.Errorf("video = %+v, want assigned id and duration 10", video)
	}
}

func TestUploadVideoMissingFile(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	body, contentType := multipartUpload(t, "wrongfield", "clip.mp4", []byte("video payload"))

	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp envelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "Video file is required" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestUploadVideoSizeLimit(t *testing.T) {
	env := newTestEnv(t, 64)
	body, contentType := multipartUpload(t, "video", "clip.mp4", bytes.Repeat([]byte("x"), 4096))

	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp envelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "File size exceeds limit" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestUploadVideoDurationOutOfBounds(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	env.prober.duration = 0.5
	body, contentType := multipartUpload(t, "video", "clip.mp4", []byte("video payload"))

	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp envelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Message != "Video duration out of bounds" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestTrimVideoInvalidID(t *testing.T) {
	env := newTestEnv(t, 100<<20)

	rec, resp := doJSON(t, env.router, http.MethodPost, "/api/videos/abc/trim", `{"startTime":0,"endTime":5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Message != "Invalid video ID format" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestTrimVideoMissingFields(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	env.addVideo(t, 20)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing endTime", `{"startTime":0}`},
		{"malformed json", `{"startTime":`},
		{"wrong types", `{"startTime":"a","endTime":"b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doJSON(t, env.router, http.MethodPost, "/api/videos/1/trim", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp.Message != "Invalid startTime or endTime" {
				t.Errorf("message = %q", resp.Message)
			}
		})
	}
}

func TestTrimVideoNotFound(t *testing.T) {
	env := newTestEnv(t, 100<<20)

	rec, resp := doJSON(t, env.router, http.MethodPost, "/api/videos/42/trim", `{"startTime":0,"endTime":5}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp.Message != "Video not found" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestTrimVideoSuccess(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	env.addVideo(t, 20)
	env.prober.duration = 5

	rec, resp := doJSON(t, env.router, http.MethodPost, "/api/videos/1/trim", `{"startTime":2,"endTime":7}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if resp.Message != "Video trimmed successfully!" {
		t.Errorf("message = %q", resp.Message)
	}

	var video domain.Video
	if err := json.Unmarshal(resp.Data, &video); err != nil {
		t.Fatalf("decode video data: %v", err)
	}
	if video.ID != 2 {
		t.Errorf("new video id = %d, want 2", video.ID)
	}
}

func TestMergeVideosBadBody(t *testing.T) {
	env := newTestEnv(t, 100<<20)

	rec, resp := doJSON(t, env.router, http.MethodPost, "/api/videos/merge", `{"videoIds":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Message != "videoIds must be a non-empty array of video IDs" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestMergeVideosNotFound(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	env.addVideo(t, 20)

	rec, resp := doJSON(t, env.router, http.MethodPost, "/api/videos/merge", `{"videoIds":[1,99]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp.Message != "One or more videos not found" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestMergeVideosSuccess(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	env.addVideo(t, 20)
	env.addVideo(t, 15)
	env.prober.duration = 35

	rec, resp := doJSON(t, env.router, http.MethodPost, "/api/videos/merge", `{"videoIds":[2,1]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if resp.Message != "Videos merged successfully!" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestCreateShareLinkSuccess(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	env.addVideo(t, 20)

	rec, resp := doJSON(t, env.router, http.MethodPost, "/api/share/1", `{"expiryTime":60}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if resp.Message != "Share link created successfully!" {
		t.Errorf("message = %q", resp.Message)
	}

	var data struct {
		Link      string    `json:"link"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !strings.HasPrefix(data.Link, testBaseURL+"/api/share/") {
		t.Errorf("link = %q, want prefix %s/api/share/", data.Link, testBaseURL)
	}
	if !data.ExpiresAt.After(time.Now()) {
		t.Errorf("expiresAt = %v, want future", data.ExpiresAt)
	}
}

func TestCreateShareLinkInvalidExpiry(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	env.addVideo(t, 20)

	tests := []struct {
		name string
		body string
	}{
		{"missing expiry", `{}`},
		{"zero expiry", `{"expiryTime":0}`},
		{"negative expiry", `{"expiryTime":-10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doJSON(t, env.router, http.MethodPost, "/api/share/1", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp.Message != "Invalid expiry time" {
				t.Errorf("message = %q", resp.Message)
			}
		})
	}
}

func TestCreateShareLinkVideoNotFound(t *testing.T) {
	env := newTestEnv(t, 100<<20)

	rec, resp := doJSON(t, env.router, http.MethodPost, "/api/share/42", `{"expiryTime":60}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp.Message != "Video not found" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestAccessSharedVideoSuccess(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	video := env.addVideo(t, 20)
	env.linkRepo.links["tok"] = &domain.SharedLink{
		ID: 1, VideoID: video.ID, ShareToken: "tok",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/share/tok", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("content type = %q, want video/mp4", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), video.FileName) {
		t.Errorf("content disposition = %q, want file name", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "source bytes" {
		t.Errorf("body = %q, want file content", rec.Body.String())
	}
}

func TestAccessSharedVideoExpired(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	video := env.addVideo(t, 20)
	env.linkRepo.links["tok"] = &domain.SharedLink{
		ID: 1, VideoID: video.ID, ShareToken: "tok",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	rec, resp := doJSON(t, env.router, http.MethodGet, "/api/share/tok", "")
	if rec.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", rec.Code)
	}
	if resp.Message != "Link expired" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestAccessSharedVideoUnknownToken(t *testing.T) {
	env := newTestEnv(t, 100<<20)

	rec, resp := doJSON(t, env.router, http.MethodGet, "/api/share/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp.Message != "Link not found" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestAccessSharedVideoMissingFile(t *testing.T) {
	env := newTestEnv(t, 100<<20)
	video := env.addVideo(t, 20)
	os.Remove(video.FilePath)
	env.linkRepo.links["tok"] = &domain.SharedLink{
		ID: 1, VideoID: video.ID, ShareToken: "tok",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	rec, resp := doJSON(t, env.router, http.MethodGet, "/api/share/tok", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp.Message != "Video file path is missing" {
		t.Errorf("message = %q", resp.Message)
	}
}
