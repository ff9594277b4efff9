package relay

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles relay calls per origin.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	origins map[string]*originLimiter
}

type originLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requestsPerMinute calls per origin. A non-positive
// budget disables throttling and returns nil, which is a valid limiter.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		window:  5 * time.Minute,
		now:     time.Now,
		origins: make(map[string]*originLimiter),
	}
}

// Allow reports whether one more call from origin fits the budget.
func (r *RateLimiter) Allow(origin string) bool {
	if r == nil {
		return true
	}
	return r.get(origin).Allow()
}

// Middleware rejects over-budget HTTP callers with 429. Callers are keyed by
// the Origin header, falling back to the remote host.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.Allow(originOf(req)) {
			WriteJSON(w, http.StatusTooManyRequests, map[string]string{"err": "rate limited"})
			return
		}
		next.ServeHTTP(w, req)
	})
}

func originOf(req *http.Request) string {
	if o := req.Header.Get("Origin"); o != "" {
		return o
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func (r *RateLimiter) get(key string) *rate.Limiter {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.origins[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(r.limit, r.burst)
	r.origins[key] = &originLimiter{limiter: limiter, lastSeen: now}
	r.cleanupLocked(now)
	return limiter
}

func (r *RateLimiter) cleanupLocked(now time.Time) {
	for key, entry := range r.origins {
		if now.Sub(entry.lastSeen) > r.window {
			delete(r.origins, key)
		}
	}
}
