// Package server exposes the book identifier and the library over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lepinkainen/bookscan/internal/identify"
	"github.com/lepinkainen/bookscan/internal/library"
)

const (
	shutdownTimeout = 10 * time.Second
	readyTimeout    = 5 * time.Second
)

// BookIdentifier is the part of identify.Identifier the API needs.
type BookIdentifier interface {
	Identify(ctx context.Context, ocrText string) identify.Outcome
	Search(ctx context.Context, query string, limit int) ([]identify.Record, error)
}

// CatalogPinger reports whether the upstream catalog is reachable.
type CatalogPinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
}

// Server is the echo application. A nil library disables the shelf routes
// and scan saving.
type Server struct {
	echo       *echo.Echo
	identifier BookIdentifier
	library    *library.Library
	catalog    CatalogPinger
}

// Option configures a Server.
type Option func(*Server)

// WithCatalog enables /readyz, which pings the catalog on every call.
func WithCatalog(p CatalogPinger) Option {
	return func(s *Server) {
		s.catalog = p
	}
}

// New builds the server and registers its routes.
func New(identifier BookIdentifier, lib *library.Library, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, identifier: identifier, library: lib}
	for _, opt := range opts {
		opt(s)
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:     true,
		LogURI:        true,
		LogError:      true,
		LogMethod:     true,
		LogLatency:    true,
		LogRequestID:  true,
		HandleError:   true,
		LogValuesFunc: logRequest,
	}))
	e.Use(middleware.Recover())

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if s.catalog != nil {
		s.echo.GET("/readyz", s.handleReady)
	}

	api := s.echo.Group("/api")
	api.POST("/identify", s.handleIdentify)
	api.GET("/search", s.handleSearch)

	if s.library != nil {
		api.GET("/shelves/:shelf", s.handleListShelf)
		api.POST("/shelves/:shelf", s.handleAddToShelf)
		api.DELETE("/shelves/:shelf", s.handleRemoveFromShelf)
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "address", address)
		if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	ctx := c.Request().Context()
	if v.Error == nil {
		slog.InfoContext(ctx, "Request completed",
			"request_id", v.RequestID,
			"method", v.Method,
			"uri", v.URI,
			"status", v.Status,
			"latency_ms", v.Latency.Milliseconds())
		return nil
	}
	slog.ErrorContext(ctx, "Request failed",
		"request_id", v.RequestID,
		"method", v.Method,
		"uri", v.URI,
		"status", v.Status,
		"latency_ms", v.Latency.Milliseconds(),
		"error", v.Error.Error())
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()

	if err := s.catalog.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "Catalog not reachable", "catalog", s.catalog.BaseURL(), "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "unavailable",
			"catalog": s.catalog.BaseURL(),
			"error":   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready", "catalog": s.catalog.BaseURL()})
}
