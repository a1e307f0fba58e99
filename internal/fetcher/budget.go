package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RequestBudget paces code search requests against the rate-limit headers of
// earlier responses. It never retries: Acquire only delays the next request
// until the API has said it will accept one.
//
// Until the first response is observed the budget is unknown and Acquire
// returns immediately.
type RequestBudget struct {
	mu        sync.Mutex
	known     bool
	remaining int
	reset     time.Time
	cooldown  time.Time
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewRequestBudget() *RequestBudget {
	return &RequestBudget{
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Remaining returns the last observed remaining request count, or -1 if no
// response has been observed yet.
func (b *RequestBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.known {
		return -1
	}
	return b.remaining
}

// Acquire blocks until one request may be sent and reports how long it waited.
func (b *RequestBudget) Acquire(ctx context.Context) (time.Duration, error) {
	if ctx == nil {
		return 0, fmt.Errorf("Acquire: nil context")
	}
	if b == nil {
		return 0, fmt.Errorf("Acquire: nil RequestBudget")
	}
	if b.now == nil || b.sleep == nil {
		return 0, fmt.Errorf("Acquire: RequestBudget not initialized (use NewRequestBudget)")
	}

	b.mu.Lock()
	now := b.now()
	var until time.Time
	if now.Before(b.cooldown) {
		until = b.cooldown
	}
	if b.known && b.remaining <= 0 && now.Before(b.reset) && b.reset.After(until) {
		until = b.reset
	}
	b.mu.Unlock()

	var waited time.Duration
	if !until.IsZero() {
		waited = until.Sub(now)
		if err := b.sleep(ctx, waited); err != nil {
			return 0, err
		}
	}

	b.mu.Lock()
	if b.known && b.remaining > 0 {
		b.remaining--
	}
	b.mu.Unlock()
	return waited, nil
}

// UpdateFromResponse records Retry-After and X-RateLimit-* headers.
func (b *RequestBudget) UpdateFromResponse(resp *http.Response) {
	if b == nil || resp == nil || b.now == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			until := b.now().Add(time.Duration(seconds) * time.Second)
			if until.After(b.cooldown) {
				b.cooldown = until
			}
		}
	}

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil && val >= 0 {
			b.remaining = val
			b.known = true
		}
	}

	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil && val > 0 {
			b.reset = time.Unix(val, 0)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
