package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/metrics"
	"github.com/matzehuels/dopingplot/pkg/pipeline"
)

var records = []dataset.Record{
	{Time: "36:50", Place: 1, Seconds: 2210, Name: "Marco Pantani", Year: 1995, Nationality: "ITA", Doping: "Alleged drug use during 1995 due to high hematocrit levels"},
	{Time: "38:14", Place: 14, Seconds: 2294, Name: "Nairo Quintana", Year: 2015, Nationality: "COL"},
}

// countingSource serves records or fails, counting fetches. If release is
// set, each fetch signals started and then blocks until release is closed.
type countingSource struct {
	calls   atomic.Int32
	fail    bool
	started chan struct{}
	release chan struct{}
}

func (c *countingSource) Fetch(ctx context.Context) ([]dataset.Record, error) {
	c.calls.Add(1)
	if c.release != nil {
		select {
		case c.started <- struct{}{}:
		default:
		}
		<-c.release
	}
	if c.fail {
		return nil, errors.New(errors.ErrCodeFetchFailed, "upstream unavailable")
	}
	return append([]dataset.Record(nil), records...), nil
}

func (c *countingSource) Location() string { return "test" }

func newTestServer(t *testing.T, src *countingSource, opts ...Option) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	s := New(runner, pipeline.Options{DataSource: src}, append([]Option{WithLogger(logger)}, opts...)...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, &countingSource{})

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html", "<svg"},
		{"/chart.svg", "image/svg+xml", `id="x-axis"`},
		{"/chart.json", "application/json", `"marks"`},
		{"/data.json", "application/json", "Marco Pantani"},
		{"/healthz", "application/json", `"status":"ok"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !bytes.Contains(body, []byte(tt.contains)) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}

func TestRenderIDHeader(t *testing.T) {
	srv := newTestServer(t, &countingSource{})
	a, _ := get(t, srv.URL+"/chart.svg")
	b, _ := get(t, srv.URL+"/chart.svg")
	if a.Header.Get(RenderIDHeader) == "" || a.Header.Get(RenderIDHeader) == b.Header.Get(RenderIDHeader) {
		t.Errorf("render ids %q and %q should be set and differ", a.Header.Get(RenderIDHeader), b.Header.Get(RenderIDHeader))
	}
}

func TestDatasetCachedUntilRefresh(t *testing.T) {
	src := &countingSource{}
	srv := newTestServer(t, src)

	get(t, srv.URL+"/chart.svg")
	get(t, srv.URL+"/chart.json")
	if n := src.calls.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
	get(t, srv.URL+"/chart.svg?refresh=1")
	if n := src.calls.Load(); n != 2 {
		t.Errorf("fetches after refresh = %d, want 2", n)
	}

	_, body := get(t, srv.URL+"/healthz")
	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatal(err)
	}
	if health.Records != 2 || health.FetchedAt == nil {
		t.Errorf("health = %+v", health)
	}
}

func TestHealthDuringFetch(t *testing.T) {
	src := &countingSource{started: make(chan struct{}, 1), release: make(chan struct{})}
	srv := newTestServer(t, src)
	release := sync.OnceFunc(func() { close(src.release) })
	t.Cleanup(release)

	const waiters = 3
	done := make(chan int, waiters)
	for range waiters {
		go func() {
			resp, err := http.Get(srv.URL + "/chart.svg")
			if err != nil {
				done <- 0
				return
			}
			resp.Body.Close()
			done <- resp.StatusCode
		}()
	}

	select {
	case <-src.started:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch never started")
	}

	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz blocked by fetch: %v", err)
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if health.Records != 0 || health.FetchedAt != nil {
		t.Errorf("health during first fetch = %+v, want no records", health)
	}

	// Let the remaining requests queue on the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	release()
	for range waiters {
		if status := <-done; status != http.StatusOK {
			t.Errorf("chart status = %d, want 200", status)
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}

	_, body := get(t, srv.URL+"/healthz")
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatal(err)
	}
	if health.Records != len(records) || health.FetchedAt == nil {
		t.Errorf("health after fetch = %+v, want %d records", health, len(records))
	}
}

func TestFetchFailureShowsErrorState(t *testing.T) {
	srv := newTestServer(t, &countingSource{fail: true})

	resp, body := get(t, srv.URL+"/chart.svg")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte(`id="error-state"`)) || !bytes.Contains(body, []byte("upstream unavailable")) {
		t.Errorf("error state missing from %s", body)
	}

	resp, body = get(t, srv.URL+"/data.json")
	if resp.StatusCode != http.StatusBadGateway || !bytes.Contains(body, []byte("FETCH_FAILED")) {
		t.Errorf("data.json = %d %s", resp.StatusCode, body)
	}
}

func TestMetricsRoute(t *testing.T) {
	srv := newTestServer(t, &countingSource{})
	if resp, _ := get(t, srv.URL+"/metrics"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("/metrics without recorder = %d, want 404", resp.StatusCode)
	}

	rec := metrics.New()
	srv = newTestServer(t, &countingSource{}, WithMetrics(rec))
	get(t, srv.URL+"/chart.svg")
	_, body := get(t, srv.URL+"/metrics")
	if !bytes.Contains(body, []byte(`dopingplot_http_server_requests_total{method="GET",route="/chart.svg",status_code="200"} 1`)) {
		t.Errorf("metrics missing request counter:\n%s", body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeFetchFailed, http.StatusBadGateway},
		{errors.ErrCodeTimeout, http.StatusBadGateway},
		{errors.ErrCodeNotFound, http.StatusNotFound},
		{errors.ErrCodeInvalidTime, http.StatusUnprocessableEntity},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(errors.New(tt.code, "x")); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
