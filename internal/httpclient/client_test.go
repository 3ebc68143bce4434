package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(5 * time.Second)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Second, cfg.ResponseHeaderTimeout)
	assert.True(t, cfg.RespectRateLimit)

	cfg = DefaultConfig(0)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(DefaultConfig(7 * time.Second))
	assert.Equal(t, 7*time.Second, client.Timeout)

	limited, ok := client.Transport.(*RateLimitTransport)
	require.True(t, ok)
	transport, ok := limited.base.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.DisableCompression)
	assert.Equal(t, 10, transport.MaxIdleConnsPerHost)

	cfg := DefaultConfig(time.Second)
	cfg.RespectRateLimit = false
	_, ok = NewHTTPClient(cfg).Transport.(*http.Transport)
	assert.True(t, ok)
}

func rateLimitServer(t *testing.T, remaining, reset string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", remaining)
		w.Header().Set("X-Ratelimit-Reset", reset)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRateLimitTransport(t *testing.T) {
	get := func(t *testing.T, rt *RateLimitTransport, ctx context.Context, url string) error {
		t.Helper()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		require.NoError(t, err)
		resp, err := rt.RoundTrip(req)
		if err == nil {
			resp.Body.Close()
		}
		return err
	}

	t.Run("BudgetLeftNeverWaits", func(t *testing.T) {
		server := rateLimitServer(t, "598.0", "300")
		rt := NewRateLimitTransport(nil)

		require.NoError(t, get(t, rt, context.Background(), server.URL))
		assert.True(t, rt.resumeAt.IsZero())
	})

	t.Run("ExhaustedBudgetPausesUntilReset", func(t *testing.T) {
		server := rateLimitServer(t, "0.0", "120")
		rt := NewRateLimitTransport(nil)
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		rt.now = func() time.Time { return base }

		require.NoError(t, get(t, rt, context.Background(), server.URL), "the first request learns the window")
		assert.Equal(t, base.Add(2*time.Minute), rt.resumeAt)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := get(t, rt, ctx, server.URL)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("WaitIsCapped", func(t *testing.T) {
		server := rateLimitServer(t, "0", "86400")
		rt := NewRateLimitTransport(nil)
		base := time.Now()
		rt.now = func() time.Time { return base }

		require.NoError(t, get(t, rt, context.Background(), server.URL))
		assert.Equal(t, base.Add(maxRateLimitWait), rt.resumeAt)
	})

	t.Run("MissingHeadersIgnored", func(t *testing.T) {
		server := rateLimitServer(t, "", "")
		rt := NewRateLimitTransport(nil)

		require.NoError(t, get(t, rt, context.Background(), server.URL))
		require.NoError(t, get(t, rt, context.Background(), server.URL))
		assert.True(t, rt.resumeAt.IsZero())
	})
}
