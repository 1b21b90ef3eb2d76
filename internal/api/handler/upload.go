package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/subgen/internal/bundle"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/pipeline"
	"github.com/jon4hz/subgen/internal/transcribe"
	"github.com/samber/lo"
)

var (
	// ErrMissingFile is returned when the request carries no usable file.
	ErrMissingFile = errors.New("missing file")
	// ErrUnsupportedFormat is returned when the extension is not allowed.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrFileTooLarge is returned when the body exceeds upload.max_size.
	ErrFileTooLarge = errors.New("file too large")
)

// uploadError carries the message shown to the client.
type uploadError struct {
	err error
	msg string
}

func (e *uploadError) Error() string { return e.msg }
func (e *uploadError) Unwrap() error { return e.err }

var (
	errNoFilePart     = &uploadError{ErrMissingFile, "No file part"}
	errNoSelectedFile = &uploadError{ErrMissingFile, "No selected file"}
	errUnsupported    = &uploadError{ErrUnsupportedFormat, "Unsupported file format"}
	errTooLarge       = &uploadError{ErrFileTooLarge, "File too large"}
)

// Upload accepts a media file and generates its subtitles. Depending on
// upload.mode the subtitle file is returned directly or progress is streamed.
func (h *Handler) Upload(c *gin.Context) {
	if err := h.guard.Check(c.Request.Context(), h.cfg.UploadDir); err != nil {
		c.JSON(http.StatusInsufficientStorage, gin.H{"error": "Not enough disk space"})
		return
	}
	if h.cfg.Upload.MaxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxSize)
	}

	if h.cfg.Upload.Mode == config.UploadModeStream {
		h.uploadStream(c)
		return
	}
	h.uploadDownload(c)
}

func (h *Handler) uploadDownload(c *gin.Context) {
	header, err := formFile(c)
	if err != nil {
		log.Error("Rejected upload", "error", err)
		c.JSON(uploadStatus(err), gin.H{"error": err.Error()})
		return
	}

	job, err := h.save(c, header, filepath.Base(header.Filename))
	if err != nil {
		log.Error("Failed to save upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	if err := h.runner.Run(c.Request.Context(), job, nil); err != nil {
		if errors.Is(err, transcribe.ErrUnknownModelSize) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, bundle.ErrUnsupportedMedia) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errUnsupported.Error()})
			return
		}
		msg := "An error occurred while generating subtitles"
		if h.cfg.Upload.ExposeErrors {
			msg = fmt.Sprintf("An error occurred: %s", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
		return
	}

	c.Header("Content-Type", "application/x-subrip")
	c.FileAttachment(job.OutputPath, filepath.Base(job.OutputPath))
}

func (h *Handler) uploadStream(c *gin.Context) {
	header, err := formFile(c)
	if errors.Is(err, ErrFileTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	emit := func(e pipeline.Event) {
		if err := enc.Encode(e); err != nil {
			log.Debug("Failed to write progress event", "error", err)
			return
		}
		c.Writer.Flush()
	}
	reject := func(err error) {
		log.Error("Rejected upload", "error", err)
		emit(pipeline.Event{Stage: pipeline.StageFailed, Error: err.Error(), Time: time.Now()})
	}

	if err != nil {
		reject(err)
		return
	}

	if !h.allowed(header.Filename) {
		reject(errUnsupported)
		return
	}
	name := storedFilename(header.Filename)

	job, err := h.save(c, header, name)
	if err != nil {
		log.Error("Failed to save upload", "error", err)
		emit(pipeline.Event{Stage: pipeline.StageFailed, Message: "Processing failed", Error: "Failed to save file", Time: time.Now()})
		return
	}
	c.Header("X-Job-ID", job.ID)

	// the pipeline emits the terminal event itself
	_ = h.runner.Run(c.Request.Context(), job, emit)
}

func (h *Handler) save(c *gin.Context, header *multipart.FileHeader, name string) (*pipeline.Job, error) {
	dst := filepath.Join(h.cfg.UploadDir, name)
	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		return nil, err
	}
	if err := c.SaveUploadedFile(header, dst); err != nil {
		return nil, err
	}
	log.Info("File saved", "path", dst, "size", header.Size)

	return pipeline.NewJob(dst, h.cfg.OutputDir, c.PostForm("lang"), c.PostForm("model_size")), nil
}

// allowed checks the extension of the name sent by the client.
func (h *Handler) allowed(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.ReplaceAll(name, "\\", "/"))), ".")
	return ext != "" && lo.Contains(h.cfg.Upload.AllowedExtensions, ext)
}

// formFile returns the uploaded "file" part.
func formFile(c *gin.Context) (*multipart.FileHeader, error) {
	header, err := c.FormFile("file")
	if err == nil {
		if strings.TrimSpace(header.Filename) == "" {
			return nil, errNoSelectedFile
		}
		return header, nil
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return nil, errTooLarge
	}
	// browsers send an empty file input as a part without filename
	if form := c.Request.MultipartForm; form != nil {
		if _, ok := form.Value["file"]; ok {
			return nil, errNoSelectedFile
		}
	}
	return nil, errNoFilePart
}

func uploadStatus(err error) int {
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// storedFilename is secureFilename that keeps the extension when nothing of
// the stem survives, e.g. "видео.mp4" is stored as "upload.mp4".
func storedFilename(name string) string {
	safe := secureFilename(name)
	ext := secureFilename(filepath.Ext(strings.ReplaceAll(name, "\\", "/")))
	if ext == "" {
		if safe == "" {
			return "upload"
		}
		return safe
	}
	if stem := strings.TrimSuffix(safe, filepath.Ext(safe)); stem == "" || filepath.Ext(safe) == "" {
		return "upload." + ext
	}
	return safe
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// secureFilename strips directories and replaces everything but ASCII
// letters, digits, dots, dashes and underscores.
func secureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}
