// Package server exposes facility conversion as background jobs over HTTP.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"facility-export/internal/convert"
)

type Config struct {
	UploadDir         string
	OutputDir         string
	Sheet             string
	StrictCoordinates bool
}

type Server struct {
	cfg    Config
	jobs   *JobStore
	logger *slog.Logger
	router *gin.Engine

	mu     sync.RWMutex
	latest string // output path of the most recent successful job

	wg sync.WaitGroup
}

func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.Sheet == "" {
		cfg.Sheet = convert.DefaultSheet
	}
	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		jobs:   NewJobStore(),
		logger: logger,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Wait blocks until all started jobs have returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) routes() {
	r := s.router

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.POST("/run", func(c *gin.Context) {
		file, err := c.FormFile("input_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "input_file is required"})
			return
		}

		sheet := c.PostForm("sheet")
		if sheet == "" {
			sheet = s.cfg.Sheet
		}

		inputPath := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(file.Filename)))
		if err := c.SaveUploadedFile(file, inputPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not save upload"})
			return
		}

		job := NewJob()
		s.jobs.Add(job)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.processJob(job, inputPath, sheet)
		}()

		c.JSON(http.StatusAccepted, gin.H{"ok": true, "job_id": job.ID})
	})

	r.GET("/logs", func(c *gin.Context) {
		job := s.jobs.Get(c.Query("job_id"))
		if job == nil {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Job not found"})
			return
		}

		job.Mutex.RLock()
		logs := make([]string, len(job.Logs))
		copy(logs, job.Logs)
		status := job.Status
		progress := job.Progress
		job.Mutex.RUnlock()

		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"logs":     logs,
			"status":   status,
			"progress": progress,
		})
	})

	r.GET("/status", func(c *gin.Context) {
		job := s.jobs.Get(c.Query("job_id"))
		if job == nil {
			c.JSON(http.StatusNotFound, gin.H{"ok": false})
			return
		}
		job.Mutex.RLock()
		defer job.Mutex.RUnlock()

		res := gin.H{
			"ok":     true,
			"status": job.Status,
			"error":  job.Error,
		}
		if job.Result != nil {
			res["result"] = job.Result
		}
		c.JSON(http.StatusOK, res)
	})

	r.GET("/download-result/:filename", func(c *gin.Context) {
		filename := c.Param("filename")
		if filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) || filename == ".." {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid filename"})
			return
		}
		target := filepath.Join(s.cfg.OutputDir, filename)
		if _, err := os.Stat(target); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "result not found"})
			return
		}
		c.File(target)
	})

	r.GET("/"+convert.DefaultOutput, func(c *gin.Context) {
		s.mu.RLock()
		latest := s.latest
		s.mu.RUnlock()
		if latest == "" {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no conversion has completed yet"})
			return
		}
		c.File(latest)
	})
}

func (s *Server) processJob(job *Job, inputPath, sheet string) {
	defer func() {
		if r := recover(); r != nil {
			job.Fail(fmt.Sprintf("Panic: %v", r))
			s.logger.Error("job panicked", "job", job.ID, "panic", r)
		}
	}()

	job.Log(fmt.Sprintf("Processing file: %s", filepath.Base(inputPath)))

	name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + ".json"
	outputPath := filepath.Join(s.cfg.OutputDir, name)

	summary, err := convert.Run(convert.Config{
		Input:             inputPath,
		Sheet:             sheet,
		Output:            outputPath,
		StrictCoordinates: s.cfg.StrictCoordinates,
	}, job.SetProgress, job.Log)
	if err != nil {
		job.Fail(fmt.Sprintf("Conversion error: %v", err))
		s.logger.Warn("job failed", "job", job.ID, "err", err)
		return
	}

	s.mu.Lock()
	s.latest = outputPath
	s.mu.Unlock()

	job.Finish(&JobResult{
		Rows:          summary.Converted,
		Dropped:       summary.Dropped,
		Sheet:         sheet,
		FacilityTypes: summary.FacilityTypes,
		Output:        outputPath,
		Filename:      name,
	})

	s.logger.Info("job done", "job", job.ID, "rows", summary.Converted)
}
