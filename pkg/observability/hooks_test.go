package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNoopHooks(t *testing.T) {
	ctx := context.Background()
	url := "https://example.com/cyclist-data.json"

	p := NoopPipelineHooks{}
	p.OnFetchStart(ctx, url)
	p.OnFetchComplete(ctx, url, 35, time.Second, nil)
	p.OnDrawStart(ctx, 35)
	p.OnDrawComplete(ctx, 35, time.Millisecond, nil)
	p.OnExportStart(ctx, []string{"svg"})
	p.OnExportComplete(ctx, []string{"svg"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "dataset")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "example.com", "/cyclist-data.json")
	h.OnResponse(ctx, "GET", "example.com", "/cyclist-data.json", 200, time.Second)
	h.OnError(ctx, "GET", "example.com", "/cyclist-data.json", nil)
	h.OnRetry(ctx, "example.com", 2, errors.New("502"))
}

type countingHTTP struct {
	NoopHTTPHooks
	mu      sync.Mutex
	retries []int
}

func (c *countingHTTP) OnRetry(_ context.Context, _ string, attempt int, _ error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries = append(c.retries, attempt)
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should default to NoopPipelineHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should default to NoopCacheHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should default to NoopHTTPHooks")
	}

	p, c, h := &testPipelineHooks{}, &testCacheHooks{}, &countingHTTP{}
	SetPipelineHooks(p)
	SetCacheHooks(c)
	SetHTTPHooks(h)
	if Pipeline() != p || Cache() != c || HTTP() != h {
		t.Fatal("Set* should install the given hooks")
	}

	HTTP().OnRetry(context.Background(), "example.com", 2, nil)
	if len(h.retries) != 1 || h.retries[0] != 2 {
		t.Errorf("retries = %v", h.retries)
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestSetNilIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)
	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}
}

func TestConcurrentAccess(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				SetCacheHooks(&testCacheHooks{})
			}
			Cache().OnCacheHit(context.Background(), "dataset")
		}()
	}
	wg.Wait()
}
