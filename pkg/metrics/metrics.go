// Package metrics implements the observability hooks with Prometheus.
//
// A [Recorder] registers its collectors on its own registry and exposes
// them through [Recorder.Handler]:
//
//	m := metrics.New()
//	observability.SetPipelineHooks(m)
//	observability.SetCacheHooks(m)
//	observability.SetHTTPHooks(m)
//	router.Handle("/metrics", m.Handler())
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/observability"
)

const defaultNamespace = "dopingplot"

// Option configures a [Recorder].
type Option func(*Recorder)

// WithNamespace sets the metric namespace (default "dopingplot").
func WithNamespace(ns string) Option {
	return func(r *Recorder) {
		if ns != "" {
			r.namespace = ns
		}
	}
}

// WithRegistry registers collectors on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Recorder) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithBuckets sets the latency histogram buckets, in seconds.
func WithBuckets(b []float64) Option {
	return func(r *Recorder) {
		if len(b) > 0 {
			r.buckets = b
		}
	}
}

// WithProcessCollectors adds the Go runtime and process collectors.
func WithProcessCollectors() Option {
	return func(r *Recorder) { r.process = true }
}

// Recorder records pipeline, cache and HTTP client events.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry
	buckets   []float64
	process   bool

	fetches        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	records        prometheus.Gauge
	draws          *prometheus.CounterVec
	drawDuration   prometheus.Histogram
	marks          prometheus.Gauge
	exports        *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
	httpRetries  *prometheus.CounterVec

	serverRequests *prometheus.CounterVec
	serverDuration *prometheus.HistogramVec
}

// New creates a recorder and registers its collectors.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: defaultNamespace,
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}
	if r.process {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	r.init()
	return r
}

func (r *Recorder) init() {
	auto := promauto.With(r.registry)

	r.fetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: "pipeline", Name: "fetches_total",
		Help: "Dataset fetches by outcome.",
	}, []string{"outcome"})
	r.fetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: "pipeline", Name: "fetch_duration_seconds",
		Help: "Dataset fetch latency.", Buckets: r.buckets,
	})
	r.records = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace, Subsystem: "pipeline", Name: "dataset_records",
		Help: "Number of records in the last fetched dataset.",
	})
	r.draws = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: "pipeline", Name: "draws_total",
		Help: "Chart draws by outcome.",
	}, []string{"outcome"})
	r.drawDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: "pipeline", Name: "draw_duration_seconds",
		Help: "Chart draw latency.", Buckets: r.buckets,
	})
	r.marks = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace, Subsystem: "pipeline", Name: "marks",
		Help: "Number of marks in the last drawn chart.",
	})
	r.exports = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: "pipeline", Name: "exports_total",
		Help: "Artifact exports by format and outcome.",
	}, []string{"format", "outcome"})
	r.exportDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: "pipeline", Name: "export_duration_seconds",
		Help: "Export latency per format.", Buckets: r.buckets,
	}, []string{"format"})

	r.cacheOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: "cache", Name: "operations_total",
		Help: "Cache lookups and writes by key type and result.",
	}, []string{"key_type", "result"})
	r.cacheBytes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: "cache", Name: "written_bytes_total",
		Help: "Bytes written to the cache by key type.",
	}, []string{"key_type"})

	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: "http_client", Name: "requests_total",
		Help: "Outgoing HTTP requests by host and status code.",
	}, []string{"method", "host", "status_code"})
	r.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: "http_client", Name: "request_duration_seconds",
		Help: "Outgoing HTTP request latency.", Buckets: r.buckets,
	}, []string{"method", "host"})
	r.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: "http_client", Name: "errors_total",
		Help: "Outgoing HTTP requests that failed without a response.",
	}, []string{"method", "host", "code"})
	r.httpRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: "http_client", Name: "retries_total",
		Help: "Dataset request retries by host and the error code that triggered them.",
	}, []string{"host", "code"})

	r.serverRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: "http_server", Name: "requests_total",
		Help: "Served HTTP requests by route and status code.",
	}, []string{"route", "method", "status_code"})
	r.serverDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: "http_server", Name: "request_duration_seconds",
		Help: "Served HTTP request latency.", Buckets: r.buckets,
	}, []string{"route", "method"})
}

// ObserveRequest records one served HTTP request.
func (r *Recorder) ObserveRequest(route, method string, status int, d time.Duration) {
	r.serverRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.serverDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Registry returns the registry the collectors are registered on.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install registers r as the pipeline, cache and HTTP hooks.
func (r *Recorder) Install() {
	observability.SetPipelineHooks(r)
	observability.SetCacheHooks(r)
	observability.SetHTTPHooks(r)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return "error"
}

// =============================================================================
// Pipeline hooks
// =============================================================================

func (r *Recorder) OnFetchStart(context.Context, string) {}

func (r *Recorder) OnFetchComplete(_ context.Context, _ string, records int, d time.Duration, err error) {
	r.fetches.WithLabelValues(outcome(err)).Inc()
	r.fetchDuration.Observe(d.Seconds())
	if err == nil {
		r.records.Set(float64(records))
	}
}

func (r *Recorder) OnDrawStart(context.Context, int) {}

func (r *Recorder) OnDrawComplete(_ context.Context, marks int, d time.Duration, err error) {
	r.draws.WithLabelValues(outcome(err)).Inc()
	r.drawDuration.Observe(d.Seconds())
	if err == nil {
		r.marks.Set(float64(marks))
	}
}

func (r *Recorder) OnExportStart(context.Context, []string) {}

func (r *Recorder) OnExportComplete(_ context.Context, formats []string, d time.Duration, err error) {
	for _, f := range formats {
		r.exports.WithLabelValues(f, outcome(err)).Inc()
		r.exportDuration.WithLabelValues(f).Observe(d.Seconds())
	}
}

// =============================================================================
// Cache hooks
// =============================================================================

func (r *Recorder) OnCacheHit(_ context.Context, keyType string) {
	r.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (r *Recorder) OnCacheMiss(_ context.Context, keyType string) {
	r.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (r *Recorder) OnCacheSet(_ context.Context, keyType string, size int) {
	r.cacheOps.WithLabelValues(keyType, "set").Inc()
	r.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// HTTP hooks
// =============================================================================

func (r *Recorder) OnRequest(context.Context, string, string, string) {}

func (r *Recorder) OnResponse(_ context.Context, method, host, _ string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, host, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (r *Recorder) OnError(_ context.Context, method, host, _ string, err error) {
	r.httpErrors.WithLabelValues(method, host, outcome(err)).Inc()
}

func (r *Recorder) OnRetry(_ context.Context, host string, _ int, err error) {
	r.httpRetries.WithLabelValues(host, outcome(err)).Inc()
}

var (
	_ observability.PipelineHooks = (*Recorder)(nil)
	_ observability.CacheHooks    = (*Recorder)(nil)
	_ observability.HTTPHooks     = (*Recorder)(nil)
)
