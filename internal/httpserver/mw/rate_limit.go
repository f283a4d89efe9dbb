package mw

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/utils"
)

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	Burst             int              // bucket capacity
	RefillPerIPPerMin int              // tokens added per minute
	MaxEntries        int              // forget idle clients past this many buckets (0 = unbounded)
	IdleTTL           time.Duration    // a bucket unused this long is dropped (default: 15m)
	TrustProxy        bool             // resolve the client from proxy headers
	Now               func() time.Time // defaults to time.Now
}

type tokenBucket struct {
	tokens float64
	at     time.Time // last refill, also last use
}

// buckets is small and only guards the link-check route, so a single mutex
// is enough.
type buckets struct {
	mu       sync.Mutex
	cfg      RateLimitConfig
	perSec   float64
	clients  map[string]*tokenBucket
	nextTrim time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerIPPerMin = max(cfg.RefillPerIPPerMin, 1)
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &buckets{
		cfg:     cfg,
		perSec:  float64(cfg.RefillPerIPPerMin) / 60,
		clients: make(map[string]*tokenBucket),
	}
}

// take spends one token of client. When the bucket is empty it reports how
// many whole seconds until the next token.
func (b *buckets) take(client string) (ok bool, left int, wait int) {
	now := b.cfg.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.trim(now)

	tb, found := b.clients[client]
	if !found {
		tb = &tokenBucket{tokens: float64(b.cfg.Burst), at: now}
		b.clients[client] = tb
	}
	if dt := now.Sub(tb.at).Seconds(); dt > 0 {
		tb.tokens = math.Min(float64(b.cfg.Burst), tb.tokens+dt*b.perSec)
		tb.at = now
	}

	if tb.tokens < 1 {
		return false, 0, max(1, int(math.Ceil((1-tb.tokens)/b.perSec)))
	}
	tb.tokens--
	return true, int(tb.tokens), 0
}

// trim drops idle buckets once a minute, or right away when the table is
// full.
func (b *buckets) trim(now time.Time) {
	full := b.cfg.MaxEntries > 0 && len(b.clients) >= b.cfg.MaxEntries
	if !full && now.Before(b.nextTrim) {
		return
	}
	for client, tb := range b.clients {
		if now.Sub(tb.at) > b.cfg.IdleTTL {
			delete(b.clients, client)
		}
	}
	b.nextTrim = now.Add(time.Minute)
}

// RateLimit rejects clients that exhausted their bucket with 429 and a
// Retry-After header.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	b := newBuckets(cfg)
	limit := strconv.Itoa(b.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, left, wait := b.take(utils.ClientIP(r, b.cfg.TrustProxy).String())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(left))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Retry-After", strconv.Itoa(wait))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": fmt.Sprintf("rate limit exceeded, retry in %ds", wait),
			})
		})
	}
}
