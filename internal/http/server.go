// Package http serves the operational endpoints: liveness, readiness and
// runtime counters.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	applog "catat/internal/log"
	"catat/internal/middleware/ratelimit"
	"catat/internal/middleware/trace"
	"catat/internal/wizard"
)

const shutdownTimeout = 10 * time.Second

// Deps are the runtime components the endpoints report on. Any may be nil.
type Deps struct {
	Backend  string
	Ready    func() bool
	Tracer   *trace.Tracer
	Sessions *wizard.Sessions
	Limiter  *ratelimit.Limiter
}

type Server struct {
	*http.Server
	echo    *echo.Echo
	deps    Deps
	logger  *applog.Logger
	started time.Time
}

func NewServer(addr string, deps Deps, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	s := &Server{
		echo:    e,
		deps:    deps,
		logger:  logger,
		started: time.Now(),
	}
	e.GET("/healthz", s.handleHealth)
	e.GET("/readyz", s.handleReady)
	e.GET("/stats", s.handleStats)

	s.Server = &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Ops server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Ops server shutdown failed", applog.FieldError, err)
		return err
	}
	s.logger.Info("Ops server stopped")
	return nil
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

type readyResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
}

func (s *Server) handleReady(c echo.Context) error {
	resp := readyResponse{Status: "ready", Backend: s.deps.Backend}
	if s.deps.Ready != nil && !s.deps.Ready() {
		resp.Status = "not_ready"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

type statsResponse struct {
	Turns         int64 `json:"turns"`
	FailedTurns   int64 `json:"failed_turns"`
	AvgResponseUS int64 `json:"avg_response_us"`
	KnownChats    int   `json:"known_chats"`
	TrackedChats  int   `json:"tracked_chats"`
}

func (s *Server) handleStats(c echo.Context) error {
	var resp statsResponse
	if s.deps.Tracer != nil {
		m := s.deps.Tracer.Snapshot()
		resp.Turns, resp.FailedTurns, resp.AvgResponseUS = m.TotalTurns, m.FailedTurns, m.AverageResponseTime
	}
	if s.deps.Sessions != nil {
		resp.KnownChats = s.deps.Sessions.Len()
	}
	if s.deps.Limiter != nil {
		resp.TrackedChats = s.deps.Limiter.ActiveClients()
	}
	return c.JSON(http.StatusOK, resp)
}

func requestLogger(logger *applog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
				applog.FieldDuration, v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				args = append(args, applog.FieldError, v.Error)
			}
			level := slog.LevelDebug
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(c.Request().Context(), level, "Request completed", args...)
			return nil
		},
	})
}
