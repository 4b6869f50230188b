package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/crucial707/ammotrack/internal/metrics"
	"golang.org/x/time/rate"
)

// idleAfter is how long a client's bucket is kept without requests.
const idleAfter = 10 * time.Minute

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a token bucket per client IP. Buckets idle for longer
// than idleAfter are swept on a later request.
type IPRateLimiter struct {
	name  string
	limit rate.Limit
	burst int

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter creates a per-IP limiter. name labels the rejected-request
// metric; limit is events per second, so N per minute is rate.Limit(N/60.0).
func NewIPRateLimiter(name string, limit rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		name:     name,
		limit:    limit,
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleAfter {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleAfter {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.lim.AllowN(now, 1)
}

// retryAfter is the whole number of seconds until one token refills.
func (l *IPRateLimiter) retryAfter() string {
	if l.limit <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1/float64(l.limit) - 1e-9)))
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if i := strings.LastIndexByte(r.RemoteAddr, ':'); i > 0 {
		return r.RemoteAddr[:i]
	}
	return r.RemoteAddr
}

// Middleware answers 429 with Retry-After once a client exhausts its bucket.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			metrics.IncRateLimited(l.name)
			w.Header().Set("Retry-After", l.retryAfter())
			writeError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthRateLimiter guards login and register: 10 per minute per IP, burst 5.
func AuthRateLimiter() *IPRateLimiter {
	return NewIPRateLimiter("auth", rate.Limit(10.0/60.0), 5)
}

// AIRateLimiter guards the AI flows, which call a paid model: 6 per minute per IP, burst 2.
func AIRateLimiter() *IPRateLimiter {
	return NewIPRateLimiter("ai", rate.Limit(6.0/60.0), 2)
}
