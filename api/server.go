// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/engine"
	"github.com/poiesic/refinery/extract"
	"github.com/poiesic/refinery/fetch"
	"github.com/poiesic/refinery/ingestion"
	"github.com/poiesic/refinery/tempfile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Processor runs batches and uploads. *ingestion.Pipeline satisfies it.
type Processor interface {
	ProcessBatch(ctx context.Context, reqs []core.BatchItemRequest) *ingestion.Outcome
	ProcessUpload(ctx context.Context, res *tempfile.Resource, filename string) core.BatchItemResult
}

// Uploader stores a multipart upload. *fetch.Fetcher satisfies it.
type Uploader interface {
	FromMultipart(r *multipart.Reader) (*tempfile.Resource, string, error)
}

// Info describes the running service.
type Info struct {
	Name          string              `json:"name"`
	Version       string              `json:"version"`
	SpeechBackend string              `json:"speech_backend"`
	OCRBackend    string              `json:"ocr_backend"`
	Vision        bool                `json:"vision"`
	Extensions    map[string][]string `json:"extensions"`
}

// NewInfo fills in the compiled backends and the supported extensions.
func NewInfo(name, version string, vision bool) Info {
	exts := make(map[string][]string)
	for _, c := range []core.Capability{
		core.CapabilityAudio, core.CapabilityImage, core.CapabilityPdf, core.CapabilityText,
	} {
		exts[c.String()] = extract.Extensions(c)
	}
	return Info{
		Name:          name,
		Version:       version,
		SpeechBackend: engine.Backend,
		OCRBackend:    extract.OCRBackend,
		Vision:        vision,
		Extensions:    exts,
	}
}

// Server routes HTTP requests to the pipeline.
type Server struct {
	processor Processor
	uploader  Uploader
	gatherer  prometheus.Gatherer
	info      Info
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer sets the registry served on /metrics.
// Default is prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithInfo sets the document served on /info.
func WithInfo(info Info) Option {
	return func(s *Server) {
		s.info = info
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server.
func NewServer(processor Processor, uploader Uploader, opts ...Option) (*Server, error) {
	if processor == nil {
		return nil, errors.New("api: processor is required")
	}
	if uploader == nil {
		return nil, errors.New("api: uploader is required")
	}
	s := &Server{
		processor: processor,
		uploader:  uploader,
		gatherer:  prometheus.DefaultGatherer,
		logger:    slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler builds the gin engine with every route installed.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(s.requestLogger(), gin.CustomRecovery(s.recovered))

	r.GET("/health", s.health)
	r.GET("/info", s.describe)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	g := r.Group("/api")
	g.POST("/process/batch", s.processBatch)
	g.POST("/process", s.processUpload)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (s *Server) describe(c *gin.Context) {
	c.JSON(http.StatusOK, s.info)
}

func (s *Server) processBatch(c *gin.Context) {
	var req core.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, http.StatusBadRequest, "Invalid request body", map[string]string{"body": err.Error()})
		return
	}
	if len(req.Requests) == 0 {
		s.reject(c, http.StatusBadRequest, "Invalid request", map[string]string{"requests": core.ErrNoRequests.Error()})
		return
	}

	out := s.processor.ProcessBatch(c.Request.Context(), req.Requests)
	c.JSON(out.Status(), out.Response())
}

func (s *Server) processUpload(c *gin.Context) {
	mr, err := c.Request.MultipartReader()
	if err != nil {
		s.reject(c, http.StatusBadRequest, "Expected a multipart/form-data body", map[string]string{"file": err.Error()})
		return
	}

	res, filename, err := s.uploader.FromMultipart(mr)
	switch {
	case errors.Is(err, fetch.ErrTooLarge):
		s.reject(c, http.StatusRequestEntityTooLarge, "Upload too large", map[string]string{"file": err.Error()})
		return
	case errors.Is(err, fetch.ErrNoContent):
		s.reject(c, http.StatusBadRequest, "No file uploaded", map[string]string{"file": "a non-empty file part is required"})
		return
	case err != nil:
		s.logger.Warn("reading upload failed", "err", err)
		s.reject(c, http.StatusBadRequest, "Could not read upload", map[string]string{"file": err.Error()})
		return
	}

	result := s.processor.ProcessUpload(c.Request.Context(), res, filename)
	out := ingestion.NewOutcome([]core.BatchItemResult{result})
	c.JSON(out.Status(), out.Response())
}

func (s *Server) reject(c *gin.Context, status int, message string, problems map[string]string) {
	c.JSON(status, core.BatchResponse{
		Success: false,
		Data:    []core.BatchItemResult{},
		Message: message,
		Errors:  problems,
	})
}

func (s *Server) recovered(c *gin.Context, err any) {
	s.logger.Error("handler panicked", "path", c.Request.URL.Path, "panic", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, core.BatchResponse{
		Success: false,
		Data:    []core.BatchItemResult{},
		Message: "Internal server error",
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down, giving
// in-flight requests up to shutdownTimeout to finish.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
