package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	gogithub "github.com/google/go-github/v62/github"
)

// backoff is the retry schedule for idempotent forge calls: up to 3
// retries at 250ms, 1s, 4s.
var backoff = []time.Duration{
	250 * time.Millisecond,
	1 * time.Second,
	4 * time.Second,
}

// withRetry runs fn, retrying on transient transport and rate-limit
// errors per the backoff schedule. Non-retriable errors (4xx other than
// 429) are returned immediately.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetriable(lastErr) || attempt >= len(backoff) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff[attempt]):
		}
	}
}

func isRetriable(err error) bool {
	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}

	var respErr *gogithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		code := respErr.Response.StatusCode
		return code == http.StatusTooManyRequests || code >= 500
	}

	// Network-level failures (timeouts, connection resets) surface as
	// plain *url.Error wrapping, not *github.ErrorResponse; retry those
	// too.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, http.ErrHandlerTimeout)
}
