package source

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/dopingplot/pkg/buildinfo"
	"github.com/matzehuels/dopingplot/pkg/cache"
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/httputil"
	"github.com/matzehuels/dopingplot/pkg/observability"
)

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 10 * time.Second

// maxBody caps the response size; the real dataset is a few kilobytes.
const maxBody = 8 << 20

// HTTPOption configures an [HTTPSource].
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.http = c
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p httputil.Policy) HTTPOption {
	return func(s *HTTPSource) { s.retry = p }
}

// WithCache caches raw response bodies in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.cache = c
			s.ttl = ttl
		}
	}
}

// WithKeyer sets the keyer used for cache keys.
func WithKeyer(k cache.Keyer) HTTPOption {
	return func(s *HTTPSource) {
		if k != nil {
			s.keyer = k
		}
	}
}

// WithRefresh bypasses cached responses. Fresh responses are still stored.
func WithRefresh(refresh bool) HTTPOption {
	return func(s *HTTPSource) { s.refresh = refresh }
}

// WithHeaders adds headers to every request.
func WithHeaders(h map[string]string) HTTPOption {
	return func(s *HTTPSource) { s.headers = h }
}

// HTTPSource fetches the dataset from a URL.
type HTTPSource struct {
	url     string
	http    *http.Client
	timeout time.Duration
	retry   httputil.Policy
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
	headers map[string]string
}

// NewHTTP creates a source for rawURL.
func NewHTTP(rawURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:     rawURL,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		retry:   httputil.DefaultPolicy,
		cache:   cache.NewNullCache(),
		keyer:   cache.NewDefaultKeyer(),
		ttl:     cache.TTLDataset,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location implements [DataSource].
func (s *HTTPSource) Location() string { return s.url }

// Fetch implements [DataSource].
func (s *HTTPSource) Fetch(ctx context.Context) ([]dataset.Record, error) {
	records, _, err := s.FetchWithCacheInfo(ctx)
	return records, err
}

// FetchWithCacheInfo fetches the dataset and reports whether it came from
// the cache.
//
// Network failures, timeouts and 5xx responses are retried under the
// source's policy. Every failure is returned as FETCH_FAILED wrapping the
// specific cause (NOT_FOUND, NETWORK_ERROR, TIMEOUT or INVALID_INPUT).
func (s *HTTPSource) FetchWithCacheInfo(ctx context.Context) ([]dataset.Record, bool, error) {
	key := s.keyer.DatasetKey(s.url)

	if !s.refresh {
		if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
			if records, err := dataset.Decode(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "dataset")
				return records, true, nil
			}
			_ = s.cache.Delete(ctx, key)
		}
		observability.Cache().OnCacheMiss(ctx, "dataset")
	}

	var (
		body    []byte
		lastErr error
		attempt int
	)
	err := s.retry.Do(ctx, func() error {
		if attempt++; attempt > 1 {
			observability.HTTP().OnRetry(ctx, s.host(), attempt, lastErr)
		}
		body, lastErr = s.get(ctx)
		return lastErr
	})
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeFetchFailed, unwrapRetry(err), "fetch %s", s.url)
	}

	records, err := dataset.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch %s", s.url)
	}

	if err := s.cache.Set(ctx, key, body, s.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "dataset", len(body))
	}
	return records, false, nil
}

func (s *HTTPSource) host() string {
	if u, err := url.Parse(s.url); err == nil {
		return u.Host
	}
	return ""
}

func (s *HTTPSource) get(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := s.http.Do(req)
	if err != nil {
		err = classify(ctx, err)
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, err
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, classify(ctx, err)
	}
	return data, nil
}

// classify turns a transport error into a retryable coded error.
func classify(ctx context.Context, err error) error {
	var ne net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &ne) && ne.Timeout()) {
		return httputil.Retryable(errors.Wrap(errors.ErrCodeTimeout, err, "request timed out"))
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err), "request failed"))
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeNotFound, ErrNotFound, "status %d", code)
	case code >= 500:
		return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, ErrNetwork, "status %d", code))
	default:
		return errors.Wrap(errors.ErrCodeNetwork, ErrNetwork, "status %d", code)
	}
}

func unwrapRetry(err error) error {
	var re *httputil.RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}

var (
	_ DataSource    = (*HTTPSource)(nil)
	_ CacheReporter = (*HTTPSource)(nil)
	_ DataSource    = (*FileSource)(nil)
	_ DataSource    = Static(nil)
)
