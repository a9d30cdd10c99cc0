// Package observability lets instrumentation observe the chart pipeline
// without the pipeline importing a metrics backend.
//
// Three hook sets exist: [PipelineHooks] for fetch, draw and export,
// [CacheHooks] for dataset and artifact cache traffic, and [HTTPHooks] for
// requests to the dataset host. Each defaults to a no-op. A binary installs
// real hooks once at startup, before the pipeline runs:
//
//	rec := metrics.New()
//	rec.Install() // SetPipelineHooks, SetCacheHooks, SetHTTPHooks
//
// Library code fetches the current hooks at the call site:
//
//	observability.Pipeline().OnFetchStart(ctx, url)
//	// ... fetch ...
//	observability.Pipeline().OnFetchComplete(ctx, url, len(records), time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks receives events from the chart pipeline.
type PipelineHooks interface {
	OnFetchStart(ctx context.Context, source string)
	OnFetchComplete(ctx context.Context, source string, records int, duration time.Duration, err error)

	OnDrawStart(ctx context.Context, records int)
	OnDrawComplete(ctx context.Context, marks int, duration time.Duration, err error)

	OnExportStart(ctx context.Context, formats []string)
	OnExportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives cache events. keyType is "dataset" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from dataset requests.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError reports a request that got no response (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
	// OnRetry reports that attempt (2 or later) is about to start after
	// the previous one failed with err.
	OnRetry(ctx context.Context, host string, attempt int, err error)
}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnFetchStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnFetchComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnDrawStart(context.Context, int)                                   {}
func (NoopPipelineHooks) OnDrawComplete(context.Context, int, time.Duration, error)          {}
func (NoopPipelineHooks) OnExportStart(context.Context, []string)                            {}
func (NoopPipelineHooks) OnExportComplete(context.Context, []string, time.Duration, error)   {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every HTTP event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}
func (NoopHTTPHooks) OnRetry(context.Context, string, int, error)                            {}

// slot holds one registered hook set. Loads are lock-free so hooks can be
// read on every request.
type slot[T any] struct {
	p   atomic.Pointer[T]
	def T
}

func (s *slot[T]) get() T {
	if h := s.p.Load(); h != nil {
		return *h
	}
	return s.def
}

func (s *slot[T]) set(h T) {
	if any(h) != nil {
		s.p.Store(&h)
	}
}

func (s *slot[T]) reset() { s.p.Store(nil) }

var (
	pipelineSlot = slot[PipelineHooks]{def: NoopPipelineHooks{}}
	cacheSlot    = slot[CacheHooks]{def: NoopCacheHooks{}}
	httpSlot     = slot[HTTPHooks]{def: NoopHTTPHooks{}}
)

// SetPipelineHooks installs h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) { pipelineSlot.set(h) }

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) { cacheSlot.set(h) }

// SetHTTPHooks installs h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) { httpSlot.set(h) }

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.get() }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return httpSlot.get() }

// Reset restores the no-op hooks. Tests call it to undo Set*.
func Reset() {
	pipelineSlot.reset()
	cacheSlot.reset()
	httpSlot.reset()
}
