package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/subgen/internal/api/session"
	"github.com/jon4hz/subgen/internal/auth"
	"github.com/jon4hz/subgen/internal/bundle"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/database/mock"
	"github.com/jon4hz/subgen/internal/pipeline"
	"github.com/jon4hz/subgen/internal/policy"
	"github.com/jon4hz/subgen/internal/scheduler"
	"github.com/jon4hz/subgen/internal/transcribe"
	"github.com/jon4hz/subgen/web"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type fakeRunner struct {
	mu   sync.Mutex
	jobs []*pipeline.Job
	err  error
}

func (r *fakeRunner) Run(_ context.Context, job *pipeline.Job, emit pipeline.EventFunc) error {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()

	send := func(e pipeline.Event) {
		if emit != nil {
			e.JobID = job.ID
			e.Time = time.Now()
			emit(e)
		}
	}

	send(pipeline.Event{Stage: pipeline.StageUploaded, Progress: 10, Message: "File uploaded"})
	if r.err != nil {
		send(pipeline.Event{Stage: pipeline.StageFailed, Message: "Processing failed", Error: r.err.Error()})
		return r.err
	}
	send(pipeline.Event{Stage: pipeline.StageTranscribing, Progress: 70, Message: "Transcribing audio..."})

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(job.OutputPath, []byte("1\n00:00:00,000 --> 00:00:05,000\nhola\n\n"), 0o644); err != nil {
		return err
	}
	send(pipeline.Event{Stage: pipeline.StageComplete, Progress: 100, Message: "Complete!", Filename: filepath.Base(job.OutputPath)})
	return nil
}

func (r *fakeRunner) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

type fakeTracker map[string]pipeline.Event

func (t fakeTracker) Latest(_ context.Context, id string) (pipeline.Event, error) {
	e, ok := t[id]
	if !ok {
		return pipeline.Event{}, pipeline.ErrJobNotFound
	}
	return e, nil
}

type HandlerTestSuite struct {
	suite.Suite
	dir     string
	cfg     *config.Config
	db      *mock.MockDB
	runner  *fakeRunner
	tracker fakeTracker
	handler *Handler
	router  *gin.Engine
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.dir = s.T().TempDir()
	s.cfg = &config.Config{
		UploadDir: filepath.Join(s.dir, "uploads"),
		OutputDir: filepath.Join(s.dir, "output"),
		Upload: &config.UploadConfig{
			Mode:              config.UploadModeDownload,
			RequireAuth:       true,
			MaxSize:           1 << 20,
			AllowedExtensions: []string{"mp4", "avi", "mov", "mp3", "wav", "mkv"},
			ExposeErrors:      true,
		},
	}
	s.db = mock.NewMockDB()
	s.runner = &fakeRunner{}
	s.tracker = fakeTracker{}

	manager := auth.NewManager(s.db, auth.WithEmailTracking(true), auth.WithCost(bcrypt.MinCost))
	s.handler = New(s.cfg, manager, s.runner, s.tracker)
	s.handler.disk = func(_ context.Context, path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Free: 2 << 30, UsedPercent: 42.5}, nil
	}

	s.router = gin.New()
	s.router.Use(sessions.Sessions("test", cookie.NewStore([]byte("test-secret"))))
	s.router.SetHTMLTemplate(web.Templates())

	s.router.GET("/", s.handler.Landing)
	s.router.GET("/signup", s.handler.SignupPage)
	s.router.POST("/signup", s.handler.Signup)
	s.router.GET("/login", s.handler.LoginPage)
	s.router.POST("/login", s.handler.Login)
	s.router.GET("/logout", s.handler.Logout)
	s.router.GET("/index", session.RequireAuth(), s.handler.Index)
	s.router.POST("/upload", session.RequireAuth(), s.handler.Upload)
	s.router.GET("/download/:filename", s.handler.Download)
	s.router.GET("/jobs/:id", s.handler.Job)
	s.router.GET("/healthz", s.handler.Healthz)
	s.router.GET("/test/session", func(c *gin.Context) {
		if err := session.Login(c, "alice", ""); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
}

func (s *HandlerTestSuite) serve(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) postForm(path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.serve(req, cookies)
}

func (s *HandlerTestSuite) loggedIn() []*http.Cookie {
	w := s.serve(httptest.NewRequest(http.MethodGet, "/test/session", nil), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	return w.Result().Cookies()
}

type uploadForm struct {
	field    string
	filename string
	content  []byte
	lang     string
	size     string
}

func (s *HandlerTestSuite) upload(f uploadForm, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if f.field != "" {
		part, err := mw.CreateFormFile(f.field, f.filename)
		s.Require().NoError(err)
		_, err = part.Write(f.content)
		s.Require().NoError(err)
	}
	if f.lang != "" {
		s.Require().NoError(mw.WriteField("lang", f.lang))
	}
	if f.size != "" {
		s.Require().NoError(mw.WriteField("model_size", f.size))
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.serve(req, cookies)
}

func (s *HandlerTestSuite) TestLanding() {
	w := s.serve(httptest.NewRequest(http.MethodGet, "/", nil), nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Get started")

	w = s.serve(httptest.NewRequest(http.MethodGet, "/", nil), s.loggedIn())
	s.Contains(w.Body.String(), "alice")
}

func (s *HandlerTestSuite) TestSignup() {
	w := s.postForm("/signup", url.Values{
		"username": {"bob"},
		"email":    {"bob@example.com"},
		"password": {"hunter2"},
	}, nil)

	s.Equal(http.StatusFound, w.Code)
	s.Equal("/login", w.Header().Get("Location"))
	s.NotEmpty(w.Result().Cookies())
	s.Equal(1, s.db.UserCount())

	// the new session is already valid
	index := s.serve(httptest.NewRequest(http.MethodGet, "/index", nil), w.Result().Cookies())
	s.Equal(http.StatusOK, index.Code)
}

func (s *HandlerTestSuite) TestSignup_Duplicates() {
	s.postForm("/signup", url.Values{"username": {"bob"}, "email": {"bob@example.com"}, "password": {"x"}}, nil)

	w := s.postForm("/signup", url.Values{"username": {"bob"}, "email": {"other@example.com"}, "password": {"y"}}, nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Contains(w.Body.String(), "Username already exists")

	w = s.postForm("/signup", url.Values{"username": {"carol"}, "email": {"bob@example.com"}, "password": {"y"}}, nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Contains(w.Body.String(), "Email already registered")

	s.Equal(1, s.db.UserCount())
}

func (s *HandlerTestSuite) TestSignup_MissingFields() {
	w := s.postForm("/signup", url.Values{"username": {"bob"}}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "Username and password are required")
	s.Zero(s.db.UserCount())
}

func (s *HandlerTestSuite) TestSignup_StoreFailure() {
	s.db.CreateUserError = errors.New("disk full")

	w := s.postForm("/signup", url.Values{"username": {"bob"}, "password": {"x"}}, nil)
	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "disk full")
}

func (s *HandlerTestSuite) TestLogin() {
	s.postForm("/signup", url.Values{"username": {"bob"}, "password": {"hunter2"}}, nil)

	w := s.postForm("/login", url.Values{"username": {"bob"}, "password": {"wrong"}}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(w.Body.String(), "Invalid Credentials")

	w = s.postForm("/login", url.Values{"username": {"nobody"}, "password": {"hunter2"}}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.postForm("/login", url.Values{"username": {"bob"}, "password": {"hunter2"}}, nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/index", w.Header().Get("Location"))

	index := s.serve(httptest.NewRequest(http.MethodGet, "/index", nil), w.Result().Cookies())
	s.Equal(http.StatusOK, index.Code)
	s.Contains(index.Body.String(), "bob")
	s.Contains(index.Body.String(), "spanish")
}

func (s *HandlerTestSuite) TestLogin_Gravatar() {
	s.cfg.Gravatar = &config.GravatarConfig{Enabled: true, DefaultImage: "identicon"}
	s.postForm("/signup", url.Values{"username": {"bob"}, "email": {"bob@example.com"}, "password": {"hunter2"}}, nil)

	w := s.postForm("/login", url.Values{"username": {"bob"}, "password": {"hunter2"}}, nil)
	s.Require().Equal(http.StatusFound, w.Code)

	index := s.serve(httptest.NewRequest(http.MethodGet, "/index", nil), w.Result().Cookies())
	s.Contains(index.Body.String(), "https://www.gravatar.com/avatar/")
}

func (s *HandlerTestSuite) TestLoginPage_RedirectsLoggedIn() {
	w := s.serve(httptest.NewRequest(http.MethodGet, "/login", nil), s.loggedIn())
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/index", w.Header().Get("Location"))

	w = s.serve(httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestLogout() {
	w := s.serve(httptest.NewRequest(http.MethodGet, "/logout", nil), s.loggedIn())
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/", w.Header().Get("Location"))

	index := s.serve(httptest.NewRequest(http.MethodGet, "/index", nil), w.Result().Cookies())
	s.Equal(http.StatusFound, index.Code)
	s.Equal("/login", index.Header().Get("Location"))

	// without a session
	w = s.serve(httptest.NewRequest(http.MethodGet, "/logout", nil), nil)
	s.Equal(http.StatusFound, w.Code)
}

func (s *HandlerTestSuite) TestUpload_RequiresLogin() {
	w := s.upload(uploadForm{field: "file", filename: "clip.mp4", content: []byte("x")}, nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/login", w.Header().Get("Location"))
	s.Zero(s.runner.calls())
}

func (s *HandlerTestSuite) TestUpload_Download() {
	w := s.upload(uploadForm{field: "file", filename: "clip.mp4", content: []byte("video"), lang: "spanish", size: "medium"}, s.loggedIn())

	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("application/x-subrip", w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), "clip.srt")
	s.Contains(w.Body.String(), "hola")

	s.Require().Equal(1, s.runner.calls())
	job := s.runner.jobs[0]
	s.Equal("spanish", job.Language)
	s.Equal("medium", job.ModelSize)
	s.Equal(filepath.Join(s.cfg.UploadDir, "clip.mp4"), job.SourcePath)
	s.Equal(filepath.Join(s.cfg.OutputDir, "clip.srt"), job.OutputPath)
	s.FileExists(job.SourcePath)
}

func (s *HandlerTestSuite) TestUpload_Defaults() {
	w := s.upload(uploadForm{field: "file", filename: "talk.wav", content: []byte("audio")}, s.loggedIn())
	s.Require().Equal(http.StatusOK, w.Code)

	job := s.runner.jobs[0]
	s.Equal("english", job.Language)
	s.Equal("medium", job.ModelSize)
}

func (s *HandlerTestSuite) TestUpload_Validation() {
	cookies := s.loggedIn()

	w := s.upload(uploadForm{lang: "english"}, cookies)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "No file part")

	w = s.upload(uploadForm{field: "file", filename: ""}, cookies)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "No selected file")

	s.Zero(s.runner.calls())
}

func (s *HandlerTestSuite) TestUpload_TooLarge() {
	s.cfg.Upload.MaxSize = 512

	w := s.upload(uploadForm{field: "file", filename: "clip.mp4", content: bytes.Repeat([]byte("x"), 4096)}, s.loggedIn())
	s.Equal(http.StatusRequestEntityTooLarge, w.Code)
	s.Zero(s.runner.calls())
}

func (s *HandlerTestSuite) TestUpload_ProcessingFailure() {
	s.runner.err = &pipeline.ProcessingError{Stage: pipeline.StageTranscribing, Err: errors.New("engine down")}

	w := s.upload(uploadForm{field: "file", filename: "clip.mp4", content: []byte("x")}, s.loggedIn())
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Contains(w.Body.String(), "An error occurred: engine down")

	s.cfg.Upload.ExposeErrors = false
	w = s.upload(uploadForm{field: "file", filename: "clip.mp4", content: []byte("x")}, s.loggedIn())
	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "engine down")
}

func (s *HandlerTestSuite) TestUpload_UnknownModelSize() {
	s.runner.err = fmt.Errorf("%w: %q", transcribe.ErrUnknownModelSize, "giant")

	w := s.upload(uploadForm{field: "file", filename: "clip.mp4", content: []byte("x"), size: "giant"}, s.loggedIn())
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "unknown model size")
}

func (s *HandlerTestSuite) TestUpload_UnsupportedMedia() {
	s.runner.err = &pipeline.ProcessingError{
		Stage: pipeline.StageUploaded,
		Err:   fmt.Errorf("%w: .txt", bundle.ErrUnsupportedMedia),
	}

	w := s.upload(uploadForm{field: "file", filename: "notes.txt", content: []byte("x")}, s.loggedIn())
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "Unsupported file format")
}

func decodeEvents(s *HandlerTestSuite, body string) []pipeline.Event {
	var events []pipeline.Event
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e pipeline.Event
		s.Require().NoError(json.Unmarshal([]byte(line), &e), line)
		events = append(events, e)
	}
	return events
}

func (s *HandlerTestSuite) TestUploadStream() {
	s.cfg.Upload.Mode = config.UploadModeStream

	w := s.upload(uploadForm{field: "file", filename: "clip.mp4", content: []byte("x"), lang: "spanish"}, s.loggedIn())
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("text/event-stream", w.Header().Get("Content-Type"))
	s.NotEmpty(w.Header().Get("X-Job-ID"))

	events := decodeEvents(s, w.Body.String())
	s.Require().NotEmpty(events)
	prev := 0
	for _, e := range events {
		s.GreaterOrEqual(e.Progress, prev)
		prev = e.Progress
	}
	last := events[len(events)-1]
	s.Equal(100, last.Progress)
	s.Equal("clip.srt", last.Filename)
	s.Equal(w.Header().Get("X-Job-ID"), last.JobID)
}

func (s *HandlerTestSuite) TestUploadStream_Failure() {
	s.cfg.Upload.Mode = config.UploadModeStream
	s.runner.err = &pipeline.ProcessingError{Stage: pipeline.StageExtracting, Err: errors.New("ffmpeg exited 1")}

	w := s.upload(uploadForm{field: "file", filename: "clip.mp4", content: []byte("x")}, s.loggedIn())
	s.Require().Equal(http.StatusOK, w.Code)

	events := decodeEvents(s, w.Body.String())
	failed := 0
	for _, e := range events {
		if e.Error != "" {
			failed++
		}
	}
	s.Equal(1, failed)
	s.Equal("ffmpeg exited 1", events[len(events)-1].Error)
}

func (s *HandlerTestSuite) TestUploadStream_Validation() {
	s.cfg.Upload.Mode = config.UploadModeStream
	cookies := s.loggedIn()

	tests := []struct {
		form     uploadForm
		expected string
	}{
		{uploadForm{lang: "english"}, "No file part"},
		{uploadForm{field: "file", filename: ""}, "No selected file"},
		{uploadForm{field: "file", filename: "notes.txt", content: []byte("x")}, "Unsupported file format"},
		{uploadForm{field: "file", filename: "noext", content: []byte("x")}, "Unsupported file format"},
	}

	for _, tt := range tests {
		w := s.upload(tt.form, cookies)
		s.Equal(http.StatusOK, w.Code)
		events := decodeEvents(s, w.Body.String())
		s.Require().Len(events, 1)
		s.Equal(tt.expected, events[0].Error)
	}
	s.Zero(s.runner.calls())
}

func (s *HandlerTestSuite) TestUploadStream_SanitizesName() {
	s.cfg.Upload.Mode = config.UploadModeStream

	tests := []struct {
		filename string
		expected string
	}{
		{"my clip (1).MKV", "my_clip_1.MKV"},
		{"видео.mp4", "upload.mp4"},
		{"字幕.wav", "upload.wav"},
		{`C:\Users\me\Видео.MOV`, "upload.MOV"},
	}

	for i, tt := range tests {
		w := s.upload(uploadForm{field: "file", filename: tt.filename, content: []byte("x")}, s.loggedIn())
		s.Require().Equal(http.StatusOK, w.Code, tt.filename)
		s.NotContains(w.Body.String(), "Unsupported file format", tt.filename)

		s.Require().Equal(i+1, s.runner.calls(), tt.filename)
		s.Equal(filepath.Join(s.cfg.UploadDir, tt.expected), s.runner.jobs[i].SourcePath, tt.filename)
	}
}

func (s *HandlerTestSuite) TestDownload() {
	s.Require().NoError(os.MkdirAll(s.cfg.OutputDir, 0o755))
	s.Require().NoError(os.WriteFile(filepath.Join(s.cfg.OutputDir, "clip.srt"), []byte("1\n"), 0o644))

	w := s.serve(httptest.NewRequest(http.MethodGet, "/download/clip.srt", nil), nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("application/x-subrip", w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), "attachment")
	s.Equal("1\n", w.Body.String())

	w = s.serve(httptest.NewRequest(http.MethodGet, "/download/missing.srt", nil), nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.serve(httptest.NewRequest(http.MethodGet, "/download/..", nil), nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestJob() {
	s.tracker["abc"] = pipeline.Event{JobID: "abc", Stage: pipeline.StageTranscribing, Progress: 75}

	w := s.serve(httptest.NewRequest(http.MethodGet, "/jobs/abc", nil), nil)
	s.Equal(http.StatusOK, w.Code)

	var e pipeline.Event
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &e))
	s.Equal(75, e.Progress)

	w = s.serve(httptest.NewRequest(http.MethodGet, "/jobs/unknown", nil), nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestUpload_DiskFull() {
	s.handler.guard = policy.NewDiskUsage(40, s.handler.disk)

	w := s.upload(uploadForm{field: "file", filename: "clip.mp4", content: []byte("data")}, s.loggedIn())
	s.Equal(http.StatusInsufficientStorage, w.Code)
	s.Contains(w.Body.String(), "Not enough disk space")
	s.Zero(s.runner.calls())
}

func (s *HandlerTestSuite) TestHealthz() {
	w := s.serve(httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	s.Equal(http.StatusOK, w.Code)

	var body struct {
		Status string      `json:"status"`
		Dirs   []dirStatus `json:"dirs"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("ok", body.Status)
	s.Require().Len(body.Dirs, 2)
	s.Equal("2.1 GB", body.Dirs[0].Free)
	s.InDelta(42.5, body.Dirs[0].UsedPercent, 0.001)
}

type fakeJobs []scheduler.JobInfo

func (f fakeJobs) Jobs() []scheduler.JobInfo { return f }

func (s *HandlerTestSuite) TestHealthz_Jobs() {
	WithJobs(fakeJobs{{ID: "cleanup", Name: "Delete old files", Status: scheduler.JobStatusFailed, LastError: "disk gone"}})(s.handler)

	w := s.serve(httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	s.Equal(http.StatusOK, w.Code)

	var body struct {
		Jobs []scheduler.JobInfo `json:"jobs"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Require().Len(body.Jobs, 1)
	s.Equal("cleanup", body.Jobs[0].ID)
	s.Equal(scheduler.JobStatusFailed, body.Jobs[0].Status)
	s.Equal("disk gone", body.Jobs[0].LastError)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func TestStoredFilename(t *testing.T) {
	tests := map[string]string{
		"clip.mp4":   "clip.mp4",
		"видео.mp4":  "upload.mp4",
		".mp3":       "upload.mp3",
		"Видео":      "upload",
		"über.wav":   "ber.wav",
		"a/b/c.mkv":  "c.mkv",
		"notes":      "notes",
		"фильм.мп4":  "upload",
	}

	for in, expected := range tests {
		assert.Equal(t, expected, storedFilename(in), in)
	}
}

func TestSecureFilename(t *testing.T) {
	tests := map[string]string{
		"clip.mp4":            "clip.mp4",
		"My Clip.mp4":         "My_Clip.mp4",
		"../../etc/passwd":    "passwd",
		`C:\videos\trip.mov`:  "trip.mov",
		"über straße.wav":     "ber_strae.wav",
		".hidden.mp3":         "hidden.mp3",
		"/":                   "",
		"":                    "",
		"a b\tc.mkv":          "a_b_c.mkv",
		"weird;$(rm -rf).mp4": "weirdrm_-rf.mp4",
	}

	for in, expected := range tests {
		assert.Equal(t, expected, secureFilename(in), in)
	}
}
