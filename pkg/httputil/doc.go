// Package httputil provides HTTP helpers shared by planning-service clients.
//
// # Retry
//
// [Retry] wraps a request with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Callers mark an error as transient by wrapping it in [RetryableError];
// anything else is returned immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// # Configuration
//
// [RetryWithBackoff] uses 3 attempts with a 1 second initial delay that
// doubles after each failure. Use [Retry] for other budgets. A server that
// answers 429 or 503 with Retry-After sets the next wait instead: parse it
// with [RetryAfter] into [RetryableError.After]. Every wait is capped at
// [MaxDelay].
package httputil
