// ABOUTME: HTTP status and control API for a running session
// ABOUTME: Serves JSON status, BFI and volume controls, and Prometheus metrics
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Resonate-Protocol/avsync/internal/version"
	"github.com/Resonate-Protocol/avsync/pkg/audio/buffer"
	"github.com/Resonate-Protocol/avsync/pkg/pacer"
	"github.com/Resonate-Protocol/avsync/pkg/video/relay"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Status is the JSON body of GET /api/v1/status
type Status struct {
	SessionID   string       `json:"session_id"`
	Version     string       `json:"version"`
	Engine      string       `json:"engine"`
	Uptime      string       `json:"uptime"`
	PixelFormat string       `json:"pixel_format"`
	BFIEnabled  bool         `json:"bfi_enabled"`
	Volume      int          `json:"volume"`
	Muted       bool         `json:"muted"`
	State       pacer.State  `json:"state"`
	Pacer       pacer.Stats  `json:"pacer"`
	Buffer      buffer.Stats `json:"buffer"`
	Relay       relay.Stats  `json:"relay"`
}

// Provider is the session surface the API reads and controls
type Provider interface {
	Status() Status
	SetBFIEnabled(enabled bool)
	SetVolume(volume int)
	SetMuted(muted bool)
}

// VolumeRequest is the body of POST /api/v1/volume
type VolumeRequest struct {
	Volume *int  `json:"volume"`
	Muted  *bool `json:"muted"`
}

// BFIRequest is the body of POST /api/v1/bfi
type BFIRequest struct {
	Enabled bool `json:"enabled"`
}

// Server wraps the HTTP server with its dependencies
type Server struct {
	router   *gin.Engine
	provider Provider
	metrics  http.Handler
}

// New creates a server; metrics may be nil
func New(provider Provider, metrics http.Handler) *Server {
	s := &Server{
		provider: provider,
		metrics:  metrics,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api")
	{
		api.GET("/ping", s.handlePing)
		api.GET("/v1/status", s.handleStatus)
		api.POST("/v1/bfi", s.handleBFI)
		api.POST("/v1/volume", s.handleVolume)
	}

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}

	s.router = router
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP API shutdown")
		return err
	}
	return nil
}

// Handler implementations

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"time":    time.Now().Unix(),
		"version": version.Version,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(http.StatusOK, s.provider.Status())
}

func (s *Server) handleBFI(c *gin.Context) {
	var req BFIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.provider.SetBFIEnabled(req.Enabled)
	st := s.provider.Status()

	c.JSON(http.StatusOK, gin.H{
		"bfi_enabled": st.BFIEnabled,
		"bfi_factor":  st.State.BFIFactor,
	})
}

func (s *Server) handleVolume(c *gin.Context) {
	var req VolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Volume == nil && req.Muted == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "volume or muted required"})
		return
	}
	if req.Volume != nil && (*req.Volume < 0 || *req.Volume > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "volume must be between 0 and 100"})
		return
	}

	if req.Volume != nil {
		s.provider.SetVolume(*req.Volume)
	}
	if req.Muted != nil {
		s.provider.SetMuted(*req.Muted)
	}

	st := s.provider.Status()
	c.JSON(http.StatusOK, gin.H{
		"volume": st.Volume,
		"muted":  st.Muted,
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("HTTP request")
	}
}
