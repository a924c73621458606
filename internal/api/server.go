// Package api exposes the ingestor's health, Prometheus and ingestion
// statistics endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	shutdownTimeout     = 30 * time.Second
)

// StatsSource reads the durable ingestion counters.
type StatsSource interface {
	Stats(ctx context.Context) (metrics.Stats, error)
}

// Options configures a Server.
type Options struct {
	ServiceName string
	Version     string
	Port        int
	Debug       bool
	Checks      map[string]HealthCheck
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
}

// Server is the ingestor HTTP surface.
type Server struct {
	opts    Options
	stats   StatsSource
	log     logger.Logger
	engine  *gin.Engine
	http    *http.Server
	started time.Time
}

// NewServer builds the routes.
func NewServer(opts Options, stats StatsSource, log logger.Logger) *Server {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		opts:    opts,
		stats:   stats,
		log:     log,
		engine:  gin.New(),
		started: time.Now(),
	}

	s.engine.Use(gin.Recovery(), requestLogger(log))
	s.engine.GET("/health", s.health)
	s.engine.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	if opts.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	v1 := s.engine.Group("/api/v1")
	v1.GET("/stats", s.getStats)

	s.http = &http.Server{
		Addr:              ":" + strconv.Itoa(opts.Port),
		Handler:           s.engine,
		ReadTimeout:       defaultReadTimeout,
		ReadHeaderTimeout: defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	return s
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logger.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("HTTP server stopped")
	return <-errCh
}

// getStats handles GET /api/v1/stats.
func (s *Server) getStats(c *gin.Context) {
	stats, err := s.stats.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// requestLogger logs one line per request. Health probes log at debug.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}

		switch {
		case len(c.Errors) > 0:
			fields = append(fields, logger.Strings("errors", c.Errors.Errors()))
			log.Error("HTTP request with errors", fields...)
		case c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics":
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
