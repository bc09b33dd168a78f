package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for the rate limiter middleware.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit (tokens added per second).
	RequestsPerSecond float64
	// Burst is the maximum number of requests allowed in a burst.
	Burst int
}

// callerLimiter tracks a per-caller rate limiter and when it was last seen.
// lastSeen holds unix nanoseconds; request goroutines write it while the
// sweep goroutine reads it.
type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter returns an HTTP middleware enforcing a per-caller token-bucket
// rate limit. Limiting state is partitioned by the authenticated subject when
// one is present in the context, else by client IP, else a single shared
// "anonymous" bucket. The limiter never depends on authentication success to
// operate. When a bucket is empty the request is rejected with 429 and no
// further processing occurs; there is no queue.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	var callers sync.Map // map[string]*callerLimiter

	// Background cleanup: remove stale entries every 5 minutes.
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			cutoff := time.Now().Add(-10 * time.Minute).UnixNano()
			callers.Range(func(key, value any) bool {
				cl := value.(*callerLimiter)
				if cl.lastSeen.Load() < cutoff {
					callers.Delete(key)
				}
				return true
			})
		}
	}()

	getLimiter := func(key string) *rate.Limiter {
		if v, ok := callers.Load(key); ok {
			cl := v.(*callerLimiter)
			cl.lastSeen.Store(time.Now().UnixNano())
			return cl.limiter
		}
		cl := &callerLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
		cl.lastSeen.Store(time.Now().UnixNano())
		callers.Store(key, cl)
		return cl.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := getLimiter(partitionKey(r))

			reservation := limiter.Reserve()
			if !reservation.OK() {
				// Limiter cannot grant the request even with infinite wait.
				writeTooManyRequests(w, 0)
				return
			}

			delay := reservation.Delay()
			if delay > 0 {
				// Request would exceed the rate: cancel the reservation and reject.
				reservation.Cancel()
				retryAfter := int(delay.Seconds()) + 1
				writeTooManyRequests(w, retryAfter)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

// partitionKey selects the bucket for a request: authenticated subject,
// else network origin, else a shared anonymous bucket.
func partitionKey(r *http.Request) string {
	if p, ok := domain.PrincipalFromContext(r.Context()); ok && p.IsAuthenticated() {
		return "sub:" + p.Subject
	}
	if ip := clientIP(r); ip != "" {
		return "ip:" + ip
	}
	return "anonymous"
}

// clientIP extracts the client IP address from the request, stripping the port.
// Only uses RemoteAddr; X-Forwarded-For is untrusted and ignored to prevent
// rate-limit bypass via header spoofing.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusTooManyRequests,
		"message": "rate limit exceeded",
	})
}
