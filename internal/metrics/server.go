package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/feral-file/ff-starknet-indexer/internal/checkpoint"
	"github.com/feral-file/ff-starknet-indexer/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration
type Config struct {
	Debug bool
	Addr  string
}

// Server exposes /metrics and /healthz
type Server struct {
	config     Config
	tracker    checkpoint.Tracker
	httpServer *http.Server
}

// NewServer creates the metrics server. Health is reported from the checkpoint tracker.
func NewServer(cfg Config, tracker checkpoint.Tracker) *Server {
	return &Server{
		config:  cfg,
		tracker: tracker,
	}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recovery())
	router.Use(requestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", s.health)

	return router
}

func (s *Server) health(c *gin.Context) {
	lastSync, err := s.tracker.LastSync(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"last_sync": lastSync,
	})
}

// Run serves until ctx is cancelled, then shuts the server down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting metrics server", zap.String("address", s.config.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start metrics server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down metrics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown metrics server: %w", err)
	}
	return nil
}
