package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/metrics"
)

// RateLimitConfig is a token bucket per caller: Burst requests at once,
// refilled at RefillPerMin.
type RateLimitConfig struct {
	Burst         int
	RefillPerMin  int
	MaxEntries    int           // sweep idle buckets early once this many exist
	SweepInterval time.Duration // default 1m
	IdleTTL       time.Duration // default 15m
	TrustProxy    bool          // resolve IP from proxy headers when true
	Now           func() time.Time
}

type bucket struct {
	tokens   float64
	updated  time.Time
	lastSeen time.Time
}

type limiter struct {
	cfg       RateLimitConfig
	perSecond float64

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerMin = max(cfg.RefillPerMin, 1)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &limiter{
		cfg:       cfg,
		perSecond: float64(cfg.RefillPerMin) / 60,
		buckets:   make(map[string]*bucket, 256),
		lastSweep: cfg.Now(),
	}
}

// take spends one token for key. It returns the tokens left, or on refusal
// the whole seconds until one is available.
func (l *limiter) take(key string) (ok bool, left int, retryAfter int) {
	now := l.cfg.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries) {
		l.sweep(now)
	}

	b, found := l.buckets[key]
	if !found {
		b = &bucket{tokens: float64(l.cfg.Burst), updated: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(float64(l.cfg.Burst), b.tokens+now.Sub(b.updated).Seconds()*l.perSecond)
	b.updated = now
	b.lastSeen = now

	if b.tokens < 1 {
		return false, 0, max(1, int(math.Ceil((1-b.tokens)/l.perSecond)))
	}
	b.tokens--
	return true, int(b.tokens), 0
}

func (l *limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit answers 429 with Retry-After once a caller's bucket is empty.
// Mount it after Authenticate so signed-in users get their own bucket.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, left, retryAfter := l.take(rateKey(r, l.cfg.TrustProxy))

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(left))
			if !ok {
				metrics.RateLimited.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateKey buckets authenticated callers by user and everyone else by IP.
func rateKey(r *http.Request, trustProxy bool) string {
	if uid := UserID(r.Context()); uid != "" {
		return "user:" + uid
	}
	return "ip:" + ClientIP(r, trustProxy)
}
