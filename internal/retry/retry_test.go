package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	var retried []int
	err := Do(context.Background(), Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		OnRetry:        func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) },
	}, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("ntfy returned status 503")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(retried) != 2 {
		t.Errorf("OnRetry called %d times, want 2", len(retried))
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	permanent := errors.New("ntfy returned status 403")
	err := Do(context.Background(), Policy{MaxAttempts: 5, InitialBackoff: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{MaxAttempts: 2, InitialBackoff: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		return errors.New("connection refused")
	})
	if err == nil || attempts != 2 {
		t.Fatalf("err = %v, attempts = %d", err, attempts)
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, Policy{MaxAttempts: 10, InitialBackoff: time.Hour}, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("i/o timeout")
	})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	testCases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("status 502"), true},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("status 404"), false},
		{context.Canceled, false},
	}
	for _, tc := range testCases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
	if !IsRateLimited(errors.New("status 429")) {
		t.Error("expected 429 to be rate limited")
	}
}
