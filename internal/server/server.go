// Package server exposes a prepared pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness and the pipeline hash
//	GET  /inputs       input descriptors
//	GET  /outputs      output descriptors
//	POST /compute      run the pipeline on a JSON object of inputs
//	GET  /runs/:id     a persisted run (when a store is configured)
//	GET  /metrics      Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
	"github.com/roach88/taxflow/internal/store"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
}

// ComputeResponse is the body of a successful POST /compute.
type ComputeResponse struct {
	RunID   string         `json:"run_id"`
	Outputs map[string]any `json:"outputs"`
}

// Server serves one pipeline.
type Server struct {
	e            *echo.Echo
	pipeline     *engine.Pipeline
	pipelineHash string
	store        *store.Store
	ids          engine.RunIDGenerator
	metrics      *Metrics
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStore persists every computed run.
func WithStore(s *store.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithRunIDs replaces the UUIDv7 run ID generator.
func WithRunIDs(g engine.RunIDGenerator) Option {
	return func(srv *Server) { srv.ids = g }
}

// WithMetrics replaces the metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) { srv.logger = logger }
}

// New creates a server for p. pipelineHash identifies the pipeline
// document in health output and run history.
func New(p *engine.Pipeline, pipelineHash string, opts ...Option) *Server {
	srv := &Server{
		pipeline:     p,
		pipelineHash: pipelineHash,
		ids:          engine.UUIDv7Generator{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.metrics == nil {
		srv.metrics = NewMetrics()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = srv.handleError

	e.GET("/healthz", srv.health)
	e.GET("/inputs", srv.inputs)
	e.GET("/outputs", srv.outputs)
	e.POST("/compute", srv.compute)
	e.GET("/runs/:id", srv.run)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(srv.metrics.Registry(), promhttp.HandlerOpts{})))

	srv.e = e
	return srv
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("serving pipeline", "addr", addr, "pipeline", s.pipelineHash)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"pipeline": s.pipelineHash,
		"engine":   ir.EngineVersion,
	})
}

func (s *Server) inputs(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(s.pipeline.Inputs()))
}

func (s *Server) outputs(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(s.pipeline.Outputs()))
}

func (s *Server) compute(c echo.Context) error {
	var inputs map[string]any
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(&inputs); err != nil || inputs == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "BAD_REQUEST",
			Message: "request body must be a JSON object of inputs",
		})
	}

	ctx := c.Request().Context()
	start := time.Now()
	rec, err := s.pipeline.Run(ctx, inputs)
	var outputs map[string]any
	if err == nil {
		outputs, err = s.pipeline.Results(rec)
	}
	s.observe(err, time.Since(start))

	runID := s.ids.Generate()
	s.persist(ctx, runID, inputs, rec, outputs, err)

	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ComputeResponse{RunID: runID, Outputs: outputs})
}

func (s *Server) run(c echo.Context) error {
	if s.store == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: "run history is not enabled"})
	}
	run, err := s.store.ReadRun(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

func (s *Server) observe(err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = string(engine.CodeOf(err))
		if status == "" {
			status = store.ErrCodeInternal
		}
	}
	s.metrics.RunsTotal.WithLabelValues(status).Inc()
	s.metrics.RunDuration.Observe(d.Seconds())
}

// persist records the run. Failures are logged, never returned: history is
// secondary to answering the request.
func (s *Server) persist(ctx context.Context, id string, inputs map[string]any, rec *engine.Record, outputs map[string]any, runErr error) {
	if s.store == nil {
		return
	}
	run, err := store.NewRun(id, s.pipelineHash, inputs, rec, outputs, runErr)
	if err == nil {
		_, err = s.store.WriteRun(ctx, run)
	}
	if err != nil {
		s.logger.Warn("failed to record run", "run_id", id, "error", err)
	}
}

// handleError maps engine errors to 422 and everything else to echo's
// status or 500.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := ErrorResponse{Code: "INTERNAL", Message: "internal error"}

	var engErr *engine.Error
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &engErr):
		status = http.StatusUnprocessableEntity
		body = ErrorResponse{Code: string(engErr.Code), Message: engErr.Error(), Key: engErr.Key}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body = ErrorResponse{Code: http.StatusText(status), Message: http.StatusText(status)}
	default:
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}

	if err := c.JSON(status, body); err != nil {
		s.logger.Error("failed to write error response", "error", err)
	}
}

func nonNil(ds []ir.IODescriptor) []ir.IODescriptor {
	if ds == nil {
		return []ir.IODescriptor{}
	}
	return ds
}
