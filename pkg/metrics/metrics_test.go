package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/observability"
)

func TestPipelineMetrics(t *testing.T) {
	ctx := context.Background()
	r := New()

	r.OnFetchComplete(ctx, "u", 35, time.Second, nil)
	r.OnFetchComplete(ctx, "u", 0, time.Second, errors.New(errors.ErrCodeFetchFailed, "boom"))
	r.OnDrawComplete(ctx, 34, time.Millisecond, nil)
	r.OnExportComplete(ctx, []string{"svg", "json"}, time.Millisecond, nil)

	if got := testutil.ToFloat64(r.fetches.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok fetches = %v", got)
	}
	if got := testutil.ToFloat64(r.fetches.WithLabelValues("FETCH_FAILED")); got != 1 {
		t.Errorf("failed fetches = %v", got)
	}
	if got := testutil.ToFloat64(r.records); got != 35 {
		t.Errorf("records gauge = %v, want the last successful fetch", got)
	}
	if got := testutil.ToFloat64(r.marks); got != 34 {
		t.Errorf("marks gauge = %v", got)
	}
	if got := testutil.ToFloat64(r.exports.WithLabelValues("json", "ok")); got != 1 {
		t.Errorf("json exports = %v", got)
	}
}

func TestCacheAndHTTPMetrics(t *testing.T) {
	ctx := context.Background()
	r := New(WithNamespace("test"))

	r.OnCacheHit(ctx, "dataset")
	r.OnCacheMiss(ctx, "artifact")
	r.OnCacheSet(ctx, "artifact", 512)
	r.OnResponse(ctx, "GET", "example.com", "/data.json", 200, time.Second)
	r.OnError(ctx, "GET", "example.com", "/data.json", context.DeadlineExceeded)
	r.OnRetry(ctx, "example.com", 2, errors.New(errors.ErrCodeNetwork, "502 Bad Gateway"))

	if got := testutil.ToFloat64(r.cacheOps.WithLabelValues("dataset", "hit")); got != 1 {
		t.Errorf("hits = %v", got)
	}
	if got := testutil.ToFloat64(r.cacheBytes.WithLabelValues("artifact")); got != 512 {
		t.Errorf("bytes = %v", got)
	}
	if got := testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "example.com", "200")); got != 1 {
		t.Errorf("requests = %v", got)
	}
	if got := testutil.ToFloat64(r.httpErrors.WithLabelValues("GET", "example.com", "error")); got != 1 {
		t.Errorf("errors = %v", got)
	}
	if got := testutil.ToFloat64(r.httpRetries.WithLabelValues("example.com", string(errors.ErrCodeNetwork))); got != 1 {
		t.Errorf("retries = %v", got)
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.OnCacheHit(context.Background(), "dataset")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `dopingplot_cache_operations_total{key_type="dataset",result="hit"} 1`) {
		t.Errorf("exposition missing cache counter:\n%s", body)
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()
	r := New()
	r.Install()
	if observability.Pipeline() != r || observability.Cache() != r || observability.HTTP() != r {
		t.Error("Install() should register the recorder for every hook category")
	}
}

func TestObserveRequest(t *testing.T) {
	r := New()
	r.ObserveRequest("/chart.svg", "GET", 200, 30*time.Millisecond)
	r.ObserveRequest("/chart.svg", "GET", 200, 10*time.Millisecond)

	if got := testutil.ToFloat64(r.serverRequests.WithLabelValues("/chart.svg", "GET", "200")); got != 2 {
		t.Errorf("server requests = %v", got)
	}
}
