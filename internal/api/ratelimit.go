package api

import (
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RouteClass selects which per-client budget a request draws from.
type RouteClass string

const (
	// ClassRead covers every route: league, outcomes, frames, health.
	ClassRead RouteClass = "read"
	// ClassAdmin covers roster writes such as POST /api/participants. It is
	// charged on top of ClassRead.
	ClassAdmin RouteClass = "admin"
)

// RateLimitConfig sets the per-client budgets.
type RateLimitConfig struct {
	RequestsPerSecond float64 // read budget
	Burst             int
	AdminPerMinute    float64 // admin budget, 0 = default
	AdminBurst        int
	IdleTTL           time.Duration // buckets idle this long are forgotten
}

// DefaultRateLimitConfig suits a single arena behind one proxy.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 20,
	Burst:             40,
	AdminPerMinute:    6,
	AdminBurst:        3,
	IdleTTL:           10 * time.Minute,
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	d := DefaultRateLimitConfig
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond, c.Burst = d.RequestsPerSecond, d.Burst
	}
	if c.Burst <= 0 {
		c.Burst = int(math.Ceil(c.RequestsPerSecond))
	}
	if c.AdminPerMinute <= 0 {
		c.AdminPerMinute, c.AdminBurst = d.AdminPerMinute, d.AdminBurst
	}
	if c.AdminBurst <= 0 {
		c.AdminBurst = 1
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = d.IdleTTL
	}
	return c
}

type bucketKey struct {
	class  RouteClass
	client string
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type classCounts struct {
	allowed, rejected uint64
}

// ClientLimiter keeps one token bucket per client and route class. Idle
// buckets are swept lazily from Allow, so it needs no goroutine.
type ClientLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	buckets   map[bucketKey]*bucket
	counts    map[RouteClass]*classCounts
	lastSweep time.Time
}

// NewClientLimiter creates a limiter. Zero fields of cfg take defaults.
func NewClientLimiter(cfg RateLimitConfig) *ClientLimiter {
	return &ClientLimiter{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		buckets: make(map[bucketKey]*bucket),
		counts: map[RouteClass]*classCounts{
			ClassRead:  {},
			ClassAdmin: {},
		},
	}
}

func (cl *ClientLimiter) newLimiter(class RouteClass) *rate.Limiter {
	if class == ClassAdmin {
		return rate.NewLimiter(rate.Limit(cl.cfg.AdminPerMinute/60), cl.cfg.AdminBurst)
	}
	return rate.NewLimiter(rate.Limit(cl.cfg.RequestsPerSecond), cl.cfg.Burst)
}

// Allow spends one token of client's class budget. When the bucket is empty
// it returns how long until the next token.
func (cl *ClientLimiter) Allow(class RouteClass, client string) (bool, time.Duration) {
	now := cl.now()

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if now.Sub(cl.lastSweep) >= cl.cfg.IdleTTL {
		cl.sweep(now)
	}

	key := bucketKey{class, client}
	b, ok := cl.buckets[key]
	if !ok {
		b = &bucket{limiter: cl.newLimiter(class)}
		cl.buckets[key] = b
	}
	b.lastSeen = now

	c := cl.counts[class]
	if c == nil {
		c = &classCounts{}
		cl.counts[class] = c
	}
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		c.rejected++
		return false, time.Second
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		c.rejected++
		return false, wait
	}
	c.allowed++
	return true, 0
}

// sweep drops idle buckets. Caller holds cl.mu.
func (cl *ClientLimiter) sweep(now time.Time) {
	for k, b := range cl.buckets {
		if now.Sub(b.lastSeen) >= cl.cfg.IdleTTL {
			delete(cl.buckets, k)
		}
	}
	cl.lastSweep = now
}

// Limit returns middleware charging class for each request. Rejected
// requests get 429 with Retry-After in whole seconds.
func (cl *ClientLimiter) Limit(class RouteClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := cl.Allow(class, ClientIP(r))
			if !ok {
				RecordConnectionRejected("rate_limit_" + string(class))
				secs := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Stats returns totals plus per-class counters and the live bucket count.
func (cl *ClientLimiter) Stats() map[string]uint64 {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	out := map[string]uint64{"clients": uint64(len(cl.buckets))}
	for class, c := range cl.counts {
		out["allowed"] += c.allowed
		out["rejected"] += c.rejected
		out[string(class)+"_allowed"] = c.allowed
		out[string(class)+"_rejected"] = c.rejected
	}
	return out
}

// ClientIP identifies the caller: the first X-Forwarded-For hop, then
// X-Real-IP, then the socket peer. Headers that do not parse as an IP are
// ignored. Forwarded headers are only trustworthy behind a proxy that
// overwrites them.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ViewerSlots caps concurrent live viewers per client.
type ViewerSlots struct {
	max int

	mu       sync.Mutex
	open     map[string]int
	rejected uint64
}

// NewViewerSlots allows up to perClient open viewers per client.
func NewViewerSlots(perClient int) *ViewerSlots {
	return &ViewerSlots{max: perClient, open: make(map[string]int)}
}

// Acquire takes a slot for client, or reports false when all are taken.
func (v *ViewerSlots) Acquire(client string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.open[client] >= v.max {
		v.rejected++
		return false
	}
	v.open[client]++
	return true
}

// Release returns a slot taken by Acquire.
func (v *ViewerSlots) Release(client string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n := v.open[client]; n > 1 {
		v.open[client] = n - 1
	} else {
		delete(v.open, client)
	}
}

// Count returns the open slots of client.
func (v *ViewerSlots) Count(client string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open[client]
}

// AllowedOrigins lists extra exact origins accepted for live viewers.
var AllowedOrigins []string

// IsAllowedOrigin accepts http(s) origins on the loopback host at any port
// and any exact entry of AllowedOrigins.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
