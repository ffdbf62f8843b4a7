package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Buckets idle longer than bucketIdleMax are pruned, at most once per
// pruneEvery, during allow calls. No background goroutine.
const (
	pruneEvery    = 5 * time.Minute
	bucketIdleMax = 10 * time.Minute
)

// ipLimiter throttles requests per client address. Each address owns a
// token bucket refilling at a fixed rate.
type ipLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	refill    rate.Limit
	burst     int
	lastPrune time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// newIPLimiter creates a limiter granting each address burst initial
// tokens, refilled at refillPerSec.
func newIPLimiter(refillPerSec float64, burst int) *ipLimiter {
	return &ipLimiter{
		buckets:   make(map[string]*bucket),
		refill:    rate.Limit(refillPerSec),
		burst:     burst,
		lastPrune: time.Now(),
	}
}

// allow reports whether a request from ip may proceed, consuming one
// token if so.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.pruneLocked(now)

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.refill, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.lim.Allow()
}

// pruneLocked drops long-idle buckets. Caller holds l.mu.
func (l *ipLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < pruneEvery {
		return
	}
	for ip, b := range l.buckets {
		if now.Sub(b.seen) > bucketIdleMax {
			delete(l.buckets, ip)
		}
	}
	l.lastPrune = now
}

// rateLimitMiddleware rejects requests from addresses that have
// exhausted their tokens with 429 and a Retry-After hint.
func rateLimitMiddleware(l *ipLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !l.allow(ip) {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the address a request should be throttled under.
//
// Proxy headers are honored only when trustProxy is set, and their
// values must parse as IPs; anything else falls through to RemoteAddr
// so clients cannot choose their own limiter key.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// X-Real-IP carries one address; X-Forwarded-For lists the
		// client first.
		for _, header := range []string{"X-Real-IP", "X-Forwarded-For"} {
			v := r.Header.Get(header)
			if v == "" {
				continue
			}
			if first, _, ok := strings.Cut(v, ","); ok {
				v = first
			}
			if ip := net.ParseIP(strings.TrimSpace(v)); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
