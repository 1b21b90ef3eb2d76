// Package handler implements the HTTP endpoints of subgen.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/subgen/internal/api/session"
	"github.com/jon4hz/subgen/internal/auth"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/database"
	"github.com/jon4hz/subgen/internal/gravatar"
	"github.com/jon4hz/subgen/internal/pipeline"
	"github.com/jon4hz/subgen/internal/policy"
	"github.com/jon4hz/subgen/internal/scheduler"
	"github.com/jon4hz/subgen/internal/transcribe"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/disk"
)

// Runner processes a single upload.
type Runner interface {
	Run(ctx context.Context, job *pipeline.Job, emit pipeline.EventFunc) error
}

// JobTracker looks up the last known state of a job.
type JobTracker interface {
	Latest(ctx context.Context, id string) (pipeline.Event, error)
}

// JobLister reports the maintenance jobs of the server.
type JobLister interface {
	Jobs() []scheduler.JobInfo
}

var modelSizes = []string{"tiny", "small", "medium", "large"}

// Handler holds the dependencies shared by the HTTP endpoints.
type Handler struct {
	cfg     *config.Config
	auth    auth.Authenticator
	runner  Runner
	tracker JobTracker
	jobs    JobLister
	disk    policy.UsageFunc
	guard   *policy.DiskUsage
}

// Option configures optional parts of the Handler.
type Option func(*Handler)

// WithJobs reports the status of the scheduled jobs on /healthz.
func WithJobs(jobs JobLister) Option {
	return func(h *Handler) {
		h.jobs = jobs
	}
}

// New creates a new Handler. tracker may be nil.
func New(cfg *config.Config, authenticator auth.Authenticator, runner Runner, tracker JobTracker, opts ...Option) *Handler {
	h := &Handler{
		cfg:     cfg,
		auth:    authenticator,
		runner:  runner,
		tracker: tracker,
		disk:    diskUsage,
	}
	h.guard = policy.NewDiskUsage(cfg.Upload.MaxDiskUsage, func(ctx context.Context, path string) (*disk.UsageStat, error) {
		return h.disk(ctx, path)
	})
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// page is the data passed to every template.
type page struct {
	Title    string
	Username string
	Avatar   string
	Error    string
	Form     struct {
		Username string
		Email    string
	}

	Mode       config.UploadMode
	Accept     string
	MaxSize    int64
	Languages  []string
	ModelSizes []string
}

func (h *Handler) render(c *gin.Context, status int, name string, p *page) {
	if p.Username == "" {
		p.Username = session.Username(c)
	}
	if p.Avatar == "" {
		p.Avatar = session.Avatar(c)
	}
	c.HTML(status, name, p)
}

// Landing renders the public start page.
func (h *Handler) Landing(c *gin.Context) {
	h.render(c, http.StatusOK, "landing.html", &page{})
}

// Index renders the upload form.
func (h *Handler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, "index.html", &page{
		Title:    "Generate",
		Username: c.GetString(session.UsernameKey),
		Mode:     h.cfg.Upload.Mode,
		Accept: strings.Join(lo.Map(h.cfg.Upload.AllowedExtensions, func(ext string, _ int) string {
			return "." + ext
		}), ","),
		MaxSize:    h.cfg.Upload.MaxSize,
		Languages:  transcribe.Languages(),
		ModelSizes: modelSizes,
	})
}

// SignupPage renders the signup form.
func (h *Handler) SignupPage(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.html", &page{Title: "Sign up"})
}

// Signup creates an account, logs the user in and sends them to the login page.
func (h *Handler) Signup(c *gin.Context) {
	p := &page{Title: "Sign up"}
	p.Form.Username = c.PostForm("username")
	p.Form.Email = c.PostForm("email")

	user, err := h.auth.Signup(c.Request.Context(), p.Form.Username, p.Form.Email, c.PostForm("password"))
	if err != nil {
		status, msg := signupError(err)
		if status == http.StatusInternalServerError {
			log.Error("Failed to create user", "error", err)
		}
		p.Error = msg
		h.render(c, status, "signup.html", p)
		return
	}

	if err := h.startSession(c, user); err != nil {
		log.Error("Failed to save session", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func signupError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return http.StatusBadRequest, "Username and password are required"
	case errors.Is(err, auth.ErrUsernameTaken):
		return http.StatusConflict, "Username already exists"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, auth.ErrDuplicateUser):
		return http.StatusConflict, "Username or email already exists"
	default:
		return http.StatusInternalServerError, "Could not create account, please try again"
	}
}

// LoginPage renders the login form or forwards users that are already logged in.
func (h *Handler) LoginPage(c *gin.Context) {
	if session.Username(c) != "" {
		c.Redirect(http.StatusFound, "/index")
		return
	}
	h.render(c, http.StatusOK, "login.html", &page{Title: "Login"})
}

// Login checks the credentials and starts a session.
func (h *Handler) Login(c *gin.Context) {
	p := &page{Title: "Login"}
	p.Form.Username = c.PostForm("username")

	user, err := h.auth.Login(c.Request.Context(), p.Form.Username, c.PostForm("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.Error("Failed to authenticate user", "error", err)
		}
		p.Error = "Invalid Credentials"
		h.render(c, http.StatusUnauthorized, "login.html", p)
		return
	}

	if err := h.startSession(c, user); err != nil {
		log.Error("Failed to save session", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusFound, "/index")
}

func (h *Handler) startSession(c *gin.Context, user *database.User) error {
	return session.Login(c, user.Username, gravatar.URL(lo.FromPtr(user.Email), h.cfg.Gravatar))
}

// Logout clears the session.
func (h *Handler) Logout(c *gin.Context) {
	if err := session.Logout(c); err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			log.Error("Failed to abort with error", "error", err)
		}
		return
	}
	c.Redirect(http.StatusFound, "/")
}
