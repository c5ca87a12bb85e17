// Package health exposes the runner's liveness and readiness surface.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"heartbeat/internal/logging"
	"heartbeat/internal/runner"
)

// StatusFunc returns the loop's current state. The health server polls it;
// it never writes runner state.
type StatusFunc func() runner.StatusSnapshot

// Config configures the health server.
type Config struct {
	Port    int
	Status  StatusFunc
	Metrics http.Handler // optional /metrics handler
	Logger  *logging.Logger
}

// Server serves /healthz, /readyz, and optionally /metrics.
type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

// NewServer builds the health server. It does not start listening.
func NewServer(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	// Liveness: healthy once the process is up.
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Readiness: reflects the scheduler loop's eventual-consistent state.
	engine.GET("/readyz", func(c *gin.Context) {
		snap := cfg.Status()
		status := http.StatusOK
		if !snap.Ready {
			status = http.StatusServiceUnavailable
		}
		body := gin.H{"ok": snap.Ready}
		if snap.LastError != "" {
			body["lastError"] = snap.LastError
		} else {
			body["lastError"] = nil
		}
		c.JSON(status, body)
	})

	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logging.OrNop(cfg.Logger).Component("health"),
	}
}

// Run listens until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("health server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
