package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/door-leads/internal/infra/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/track-lead", nil)
	req.RemoteAddr = addr
	return req
}

// TestRateLimitPerIP - the budget is tracked separately for every client
func TestRateLimitPerIP(t *testing.T) {
	h := PerMinute(2, logger.Nop()).Limit(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1:5001"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too many requests. Please try again later.", body["error"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.2:5000"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "192.168.1.9", clientIP(requestFrom("192.168.1.9:443")))
	assert.Equal(t, "192.168.1.9", clientIP(requestFrom("192.168.1.9")))
}

// TestRateLimiterEvictsIdleVisitors - memory stays bounded by active clients
func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	l := PerMinute(10, logger.Nop())
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for n := 0; n < 1000; n++ {
		l.Allow(fmt.Sprintf("10.0.%d.%d", n/256, n%256))
	}
	require.Equal(t, 1000, l.Len())

	now = now.Add(15 * time.Minute)
	l.Allow("10.0.0.1") // still active

	now = now.Add(10 * time.Minute)
	removed := l.Evict(idleTTL)

	assert.Equal(t, 999, removed)
	assert.Equal(t, 1, l.Len())
}

func TestRateLimiterRunStopsOnCancel(t *testing.T) {
	l := PerMinute(10, logger.Nop())
	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("10.0.0.1")
	now = now.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.run(ctx, time.Millisecond, time.Minute)
		close(done)
	}()

	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
