package httpclient

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Reddit reports its per-client budget on every response.
const (
	headerRateLimitRemaining = "X-Ratelimit-Remaining"
	headerRateLimitReset     = "X-Ratelimit-Reset"

	// maxRateLimitWait caps a single pause; Reddit windows are ten minutes.
	maxRateLimitWait = 10 * time.Minute
)

// RateLimitTransport holds requests back while the upstream's rate-limit
// window is exhausted. The window is learned from response headers, so the
// first request is never delayed.
type RateLimitTransport struct {
	base http.RoundTripper

	mu       sync.Mutex
	resumeAt time.Time
	now      func() time.Time
}

// NewRateLimitTransport wraps base; a nil base uses http.DefaultTransport.
func NewRateLimitTransport(base http.RoundTripper) *RateLimitTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitTransport{base: base, now: time.Now}
}

// RoundTrip implements http.RoundTripper.
func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.observe(resp.Header)
	return resp, nil
}

func (t *RateLimitTransport) wait(ctx context.Context) error {
	t.mu.Lock()
	d := t.resumeAt.Sub(t.now())
	t.mu.Unlock()

	if d <= 0 {
		return nil
	}
	slog.Warn("upstream rate limit exhausted, pausing requests", "wait", d)

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *RateLimitTransport) observe(h http.Header) {
	remaining, err := strconv.ParseFloat(h.Get(headerRateLimitRemaining), 64)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if remaining >= 1 {
		t.resumeAt = time.Time{}
		return
	}
	reset, err := strconv.ParseFloat(h.Get(headerRateLimitReset), 64)
	if err != nil || reset <= 0 {
		return
	}
	d := min(time.Duration(reset*float64(time.Second)), maxRateLimitWait)
	t.resumeAt = t.now().Add(d)
}
