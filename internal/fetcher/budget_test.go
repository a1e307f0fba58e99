package fetcher

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"
)

func newTestBudget(now time.Time) (*RequestBudget, *[]time.Duration) {
	var slept []time.Duration
	b := NewRequestBudget()
	b.now = func() time.Time { return now }
	b.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return b, &slept
}

func formatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func rateLimitResponse(headers map[string]string) *http.Response {
	resp := &http.Response{Header: make(http.Header)}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func TestRequestBudget(t *testing.T) {
	fixedNow := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("unknown budget does not wait", func(t *testing.T) {
		b, slept := newTestBudget(fixedNow)
		waited, err := b.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if waited != 0 || len(*slept) != 0 {
			t.Fatalf("expected no wait, got %s (%v)", waited, *slept)
		}
		if got := b.Remaining(); got != -1 {
			t.Fatalf("expected unknown remaining (-1), got %d", got)
		}
	})

	t.Run("UpdateFromResponse sets remaining and Acquire consumes", func(t *testing.T) {
		b, _ := newTestBudget(fixedNow)
		b.UpdateFromResponse(rateLimitResponse(map[string]string{
			"X-RateLimit-Remaining": "10",
			"X-RateLimit-Reset":     "1700000000",
		}))
		if got := b.Remaining(); got != 10 {
			t.Fatalf("expected 10 remaining, got %d", got)
		}
		if _, err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if got := b.Remaining(); got != 9 {
			t.Fatalf("expected 9 remaining, got %d", got)
		}
	})

	t.Run("exhausted budget waits until reset", func(t *testing.T) {
		b, slept := newTestBudget(fixedNow)
		reset := fixedNow.Add(42 * time.Second)
		b.UpdateFromResponse(rateLimitResponse(map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     formatUnix(reset),
		}))

		waited, err := b.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if waited != 42*time.Second {
			t.Fatalf("expected 42s wait, got %s", waited)
		}
		if len(*slept) != 1 {
			t.Fatalf("expected one sleep, got %v", *slept)
		}
	})

	t.Run("exhausted budget past reset does not wait", func(t *testing.T) {
		b, slept := newTestBudget(fixedNow)
		b.UpdateFromResponse(rateLimitResponse(map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     formatUnix(fixedNow.Add(-time.Second)),
		}))
		if _, err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if len(*slept) != 0 {
			t.Fatalf("expected no sleep, got %v", *slept)
		}
	})

	t.Run("Retry-After sets cooldown", func(t *testing.T) {
		b, _ := newTestBudget(fixedNow)
		b.UpdateFromResponse(rateLimitResponse(map[string]string{"Retry-After": "5"}))

		waited, err := b.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if waited != 5*time.Second {
			t.Fatalf("expected 5s wait, got %s", waited)
		}
	})

	t.Run("canceled context aborts wait", func(t *testing.T) {
		b, _ := newTestBudget(fixedNow)
		b.UpdateFromResponse(rateLimitResponse(map[string]string{"Retry-After": "60"}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("malformed headers are ignored", func(t *testing.T) {
		b, _ := newTestBudget(fixedNow)
		b.UpdateFromResponse(rateLimitResponse(map[string]string{
			"X-RateLimit-Remaining": "lots",
			"X-RateLimit-Reset":     "-1",
			"Retry-After":           "soon",
		}))
		if got := b.Remaining(); got != -1 {
			t.Fatalf("expected unknown remaining, got %d", got)
		}
	})

	t.Run("nil budget", func(t *testing.T) {
		var b *RequestBudget
		if _, err := b.Acquire(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		b.UpdateFromResponse(rateLimitResponse(nil))
	})
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
