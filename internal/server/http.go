package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
	"github.com/nguyentantai21042004/lecture-notes/internal/metrics"
	"github.com/nguyentantai21042004/lecture-notes/internal/processor"
)

// HTTPServer exposes the notes pipeline over HTTP.
type HTTPServer struct {
	engine    *gin.Engine
	server    *http.Server
	processor processor.Processor
	metrics   *metrics.Metrics
	logger    logger.Logger
	tempDir   string
	maxUpload int64
}

// New builds the server and its routes. m may be nil, in which case
// /metrics is not served.
func New(cfg config.ServerConfig, tempDir string, proc processor.Processor, m *metrics.Metrics, log logger.Logger) *HTTPServer {
	h := &HTTPServer{
		engine:    gin.New(),
		processor: proc,
		metrics:   m,
		logger:    log,
		tempDir:   tempDir,
		maxUpload: cfg.MaxUploadMB << 20,
	}
	h.engine.MaxMultipartMemory = 32 << 20
	h.engine.Use(gin.Recovery(), h.requestLogger())
	h.setupRoutes()

	// No write timeout: transcribing a long lecture takes minutes.
	h.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           h.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return h
}

func (h *HTTPServer) setupRoutes() {
	h.engine.GET("/healthz", h.handleHealth)
	if h.metrics != nil {
		h.engine.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := h.engine.Group("/api/v1")
	api.POST("/notes", h.handleNotes)
}

// Handler returns the router, mainly for tests.
func (h *HTTPServer) Handler() http.Handler {
	return h.engine
}

// Start serves until Shutdown is called.
func (h *HTTPServer) Start() error {
	h.logger.Info(context.Background(), "HTTP API listening on %s", h.server.Addr)
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests to finish or ctx to end.
func (h *HTTPServer) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func (h *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug(c.Request.Context(), "%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
