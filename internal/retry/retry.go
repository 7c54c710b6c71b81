// Package retry runs an operation with exponential backoff.
package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// Policy controls how many attempts are made and how long to wait between
// them. The wait doubles after every failed attempt.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	// OnRetry, when set, is called before each sleep.
	OnRetry func(attempt int, backoff time.Duration, err error)
}

// Do executes fn until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx is cancelled.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var lastErr error
	backoff := p.InitialBackoff

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		// Don't retry non-retryable errors
		if !IsRetryable(lastErr) && !IsRateLimited(lastErr) {
			return lastErr
		}

		// Don't sleep after the last attempt
		if attempt == p.MaxAttempts {
			break
		}
		wait := backoff
		if IsRateLimited(lastErr) {
			wait *= 2
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, lastErr)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
		backoff *= 2
	}

	return lastErr
}

// IsRetryable returns true for transient failures: timeouts, refused or
// reset connections and 5xx responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	for _, marker := range []string{"status 500", "status 502", "status 503", "status 504"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	for _, marker := range []string{"connection reset", "connection refused", "no such host", "i/o timeout", "temporary failure"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// IsRateLimited returns true if the error indicates HTTP 429.
func IsRateLimited(err error) bool {
	return err != nil && strings.Contains(err.Error(), "status 429")
}
