// Package http exposes the update orchestrator, pull sessions and
// network reconciler over a small JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/wrtpod/wrtpod/internal/boundaries/in"
	"github.com/wrtpod/wrtpod/internal/boundaries/out"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

// Server hosts the JSON API.
type Server struct {
	echo    *echo.Echo
	handler *Handler
	log     *logger.Logger
}

// NewServer wires the API routes onto a fresh echo instance.
func NewServer(updates in.UpdateOrchestrator, networks in.NetworkIntegrator, podman out.PodmanClient) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	log := logger.GetLogger()
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))

	handler := NewHandler(updates, networks, podman)
	handler.Register(e)

	return &Server{echo: e, handler: handler, log: log}
}

// Start blocks serving on addr until the server is shut down.
func (s *Server) Start(addr string) error {
	s.log.Info("http api listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestLogger logs one line per request through the shared logger.
func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				"remote_ip", c.RealIP(),
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.Round(time.Millisecond).String(),
			)
			return nil
		},
	})
}
