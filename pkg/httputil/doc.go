// Package httputil provides HTTP helpers used by the dataset sources.
//
// # Retry
//
// [Retry] re-runs an operation on transient failures with exponential
// backoff. Only errors wrapped in [RetryableError] are retried:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// Network errors and 5xx responses are transient; 4xx responses and decode
// failures are not.
//
// # Policy
//
// [Policy] bundles the attempt count and the initial delay so callers can
// carry one value from configuration to the fetch site. The zero Policy
// behaves like [DefaultPolicy].
package httputil
