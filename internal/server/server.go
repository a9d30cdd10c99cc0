// Package server serves the chart over HTTP.
//
// The dataset is fetched on the first request and kept in memory; every
// request draws a fresh surface from it. Append ?refresh=1 to any chart
// route to re-fetch the dataset.
//
//	GET /            HTML page embedding the chart
//	GET /chart.svg   the chart
//	GET /chart.json  chart layout (scales, ticks, marks)
//	GET /data.json   the race records
//	GET /healthz     liveness and dataset status
//	GET /metrics     Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/metrics"
	"github.com/matzehuels/dopingplot/pkg/pipeline"
)

// RenderIDHeader carries the id of the render that produced a response.
const RenderIDHeader = "X-Render-ID"

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatHTML: "text/html; charset=utf-8",
	pipeline.FormatJSON: "application/json",
}

// Server renders charts for HTTP clients.
type Server struct {
	runner  *pipeline.Runner
	opts    pipeline.Options
	logger  *log.Logger
	metrics *metrics.Recorder

	readTimeout time.Duration

	// fetches collapses concurrent upstream fetches into one; mu only
	// guards the snapshot below and is never held across a fetch.
	fetches   singleflight.Group
	mu        sync.RWMutex
	records   []dataset.Record
	fetchedAt time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves rec on /metrics and records request metrics.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = rec }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithReadTimeout bounds how long reading a request may take.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

// New creates a server that renders with runner. opts supplies the source
// and chart configuration; its formats are ignored.
func New(runner *pipeline.Runner, opts pipeline.Options, options ...Option) *Server {
	s := &Server{runner: runner, opts: opts, logger: runner.Logger, readTimeout: 10 * time.Second}
	for _, o := range options {
		o(s)
	}
	s.opts.Logger = s.logger
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/", s.chart(pipeline.FormatHTML))
	r.Get("/chart.svg", s.chart(pipeline.FormatSVG))
	r.Get("/chart.json", s.chart(pipeline.FormatJSON))
	r.Get("/data.json", s.handleData)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.readTimeout,
		ReadTimeout:       s.readTimeout,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving chart", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// dataset returns the cached records, fetching them on first use or when
// refresh is set. Concurrent callers share one fetch. A failed refresh keeps
// the previous records.
func (s *Server) dataset(ctx context.Context, refresh bool) ([]dataset.Record, error) {
	if !refresh {
		if records, _ := s.snapshot(); records != nil {
			return records, nil
		}
	}

	key := "load"
	if refresh {
		key = "refresh"
	}
	// Every caller waiting on key shares this fetch, so it is not tied to
	// the request that started it.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.fetches.Do(key, func() (any, error) {
		if !refresh {
			if records, _ := s.snapshot(); records != nil {
				return records, nil
			}
		}
		opts := s.opts
		opts.Refresh = refresh
		records, _, err := s.runner.Fetch(fetchCtx, opts)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.records = records
		s.fetchedAt = time.Now()
		s.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dataset.Record), nil
}

func (s *Server) snapshot() ([]dataset.Record, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.fetchedAt
}

func (s *Server) chart(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RenderIDHeader, id)
		logger := s.logger.With("render", id)

		opts := s.opts
		opts.Formats = []string{format}
		opts.Logger = logger
		opts.Refresh = refreshRequested(r)

		records, err := s.dataset(r.Context(), opts.Refresh)
		if err != nil {
			logger.Error("fetch failed", "err", err)
			artifacts := s.runner.RenderError(r.Context(), err, opts)
			writeArtifact(w, http.StatusBadGateway, format, artifacts[format])
			return
		}

		artifacts, _, _, err := s.runner.Render(r.Context(), records, opts)
		if err != nil && !errors.Is(err, errors.ErrCodeEmptyDataset) {
			logger.Error("render failed", "err", err)
			writeError(w, statusFor(err), err)
			return
		}
		writeArtifact(w, http.StatusOK, format, artifacts[format])
	}
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	records, err := s.dataset(r.Context(), refreshRequested(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatJSON])
	_ = dataset.Encode(w, records)
}

type healthResponse struct {
	Status    string     `json:"status"`
	Records   int        `json:"records"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	records, fetchedAt := s.snapshot()
	resp := healthResponse{Status: "ok", Records: len(records)}
	if !fetchedAt.IsZero() {
		resp.FetchedAt = &fetchedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// observe logs each request and records it in the metrics, if any.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d)
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, r.Method, status, d)
		}
	})
}

func refreshRequested(r *http.Request) bool {
	switch r.URL.Query().Get("refresh") {
	case "1", "true", "yes":
		return true
	}
	return false
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Code: string(errors.GetCode(err)), Message: errors.UserMessage(err)})
}

func writeArtifact(w http.ResponseWriter, status int, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeFetchFailed, errors.ErrCodeNetwork, errors.ErrCodeTimeout:
		return http.StatusBadGateway
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidTime, errors.ErrCodeInvalidRecord, errors.ErrCodeInvalidInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
