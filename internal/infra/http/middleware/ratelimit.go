package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/xavierca1/door-leads/internal/infra/logger"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 10 * time.Minute
	idleTTL         = 20 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (v *visitor) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *visitor) idleSince(cutoff time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen.Before(cutoff)
}

// IPRateLimiter keeps one token bucket per client IP. Buckets not used for
// idleTTL are dropped by Run.
type IPRateLimiter struct {
	visitors sync.Map // ip -> *visitor
	rate     rate.Limit
	burst    int
	log      *logger.Logger
	now      func() time.Time
}

func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		log:   log.Component("ratelimit"),
		now:   time.Now,
	}
}

// PerMinute allows n requests per minute per IP with a burst of n.
func PerMinute(n int, log *logger.Logger) *IPRateLimiter {
	return NewIPRateLimiter(rate.Every(time.Minute/time.Duration(n)), n, log)
}

func (i *IPRateLimiter) getVisitor(ip string) *visitor {
	if v, ok := i.visitors.Load(ip); ok {
		return v.(*visitor)
	}
	v, _ := i.visitors.LoadOrStore(ip, &visitor{limiter: rate.NewLimiter(i.rate, i.burst)})
	return v.(*visitor)
}

// Allow reports whether ip may make another request now.
func (i *IPRateLimiter) Allow(ip string) bool {
	v := i.getVisitor(ip)
	v.touch(i.now())
	return v.limiter.Allow()
}

// Len returns the number of tracked IPs.
func (i *IPRateLimiter) Len() int {
	n := 0
	i.visitors.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Evict drops every visitor not seen within ttl and returns how many went.
func (i *IPRateLimiter) Evict(ttl time.Duration) int {
	cutoff := i.now().Add(-ttl)
	removed := 0
	i.visitors.Range(func(key, value any) bool {
		if value.(*visitor).idleSince(cutoff) {
			i.visitors.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Run evicts idle visitors every cleanupInterval until ctx is cancelled.
func (i *IPRateLimiter) Run(ctx context.Context) {
	i.run(ctx, cleanupInterval, idleTTL)
}

func (i *IPRateLimiter) run(ctx context.Context, every, ttl time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := i.Evict(ttl); n > 0 {
				i.log.Debug().Int("evicted", n).Int("tracked", i.Len()).Msg("rate limiter cleanup")
			}
		}
	}
}

// Limit rejects requests over the per-IP budget with 429 and the intake
// endpoint's error envelope.
func (i *IPRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !i.Allow(ip) {
			i.log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "Too many requests. Please try again later.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP expects chi's RealIP middleware to have already rewritten
// RemoteAddr from the proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
