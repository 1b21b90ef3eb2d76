package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/subgen/internal/api/handler"
	"github.com/jon4hz/subgen/internal/api/session"
	"github.com/jon4hz/subgen/internal/auth"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/web"
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	handler   *handler.Handler
	srv       *http.Server
}

// New creates the HTTP server. tracker may be nil to disable the job endpoint.
func New(cfg *config.Config, authenticator auth.Authenticator, runner handler.Runner, tracker handler.JobTracker, debug bool, opts ...handler.Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if authenticator == nil || runner == nil {
		return nil, fmt.Errorf("authenticator and runner are required")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		handler:   handler.New(cfg, authenticator, runner, tracker, opts...),
	}
	s.ginEngine.Use(gin.Recovery(), requestLogger())
	s.setupSession()
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(session.Name, store))
}

func (s *Server) setupRoutes() {
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/upload", "/download"}),
	))
	s.ginEngine.SetHTMLTemplate(web.Templates())
	s.ginEngine.StaticFS("/static", http.FS(web.Static()))

	h := s.handler
	s.ginEngine.GET("/", h.Landing)
	s.ginEngine.GET("/landing", h.Landing)
	s.ginEngine.GET("/signup", h.SignupPage)
	s.ginEngine.POST("/signup", h.Signup)
	s.ginEngine.GET("/login", h.LoginPage)
	s.ginEngine.POST("/login", h.Login)
	s.ginEngine.GET("/logout", h.Logout)
	s.ginEngine.GET("/healthz", h.Healthz)
	s.ginEngine.GET("/download/:filename", h.Download)
	s.ginEngine.GET("/jobs/:id", h.Job)

	s.ginEngine.GET("/index", session.RequireAuth(), h.Index)

	upload := []gin.HandlerFunc{h.Upload}
	if s.cfg.Upload.RequireAuth {
		upload = append([]gin.HandlerFunc{session.RequireAuth()}, upload...)
	}
	s.ginEngine.POST("/upload", upload...)
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	log.Info("starting API server", "listen", s.cfg.Listen, "upload_mode", s.cfg.Upload.Mode)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running uploads until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	logger := log.Default().WithPrefix("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
