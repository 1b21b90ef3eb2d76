package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/subgen/internal/pipeline"
	"github.com/shirou/gopsutil/v3/disk"
)

// Download serves a generated subtitle file by its base name.
func (h *Handler) Download(c *gin.Context) {
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == "/" || name == ".." {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	path := filepath.Join(h.cfg.OutputDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	c.Header("Content-Type", "application/x-subrip")
	c.FileAttachment(path, name)
}

// Job returns the last recorded event of a job.
func (h *Handler) Job(c *gin.Context) {
	if h.tracker == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job tracking is disabled"})
		return
	}

	event, err := h.tracker.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pipeline.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

func diskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

type dirStatus struct {
	Path        string  `json:"path"`
	Free        string  `json:"free,omitempty"`
	UsedPercent float64 `json:"used_percent,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Healthz reports liveness, the free space of the upload and output
// directories and the state of the scheduled jobs.
func (h *Handler) Healthz(c *gin.Context) {
	dirs := make([]dirStatus, 0, 2)
	for _, dir := range []string{h.cfg.UploadDir, h.cfg.OutputDir} {
		status := dirStatus{Path: dir}
		usage, err := h.disk(c.Request.Context(), dir)
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Free = humanize.Bytes(usage.Free)
			status.UsedPercent = usage.UsedPercent
		}
		dirs = append(dirs, status)
	}

	resp := gin.H{
		"status": "ok",
		"dirs":   dirs,
	}
	if h.jobs != nil {
		resp["jobs"] = h.jobs.Jobs()
	}
	c.JSON(http.StatusOK, resp)
}
