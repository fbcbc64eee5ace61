package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"roomrenting/internal/config"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64
}

// rateLimiter holds one token bucket per client key. Keys are either a
// remote host or a verified user id, never raw header values.
type rateLimiter struct {
	limiters  sync.Map
	cfg       config.RateLimitConfig
	idleTTL   time.Duration
	lastSweep atomic.Int64
	now       func() time.Time
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	l := &rateLimiter{
		cfg:     cfg,
		idleTTL: limiterIdleTTL,
		now:     time.Now,
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

// allow reports whether key may proceed. A zero rps disables limiting.
func (l *rateLimiter) allow(key string) bool {
	if l.cfg.RPS <= 0 {
		return true
	}
	now := l.now()
	l.sweep(now)

	cl := l.getLimiter(key)
	cl.lastSeen.Store(now.UnixNano())
	return cl.lim.AllowN(now, 1)
}

func (l *rateLimiter) getLimiter(key string) *clientLimiter {
	if v, ok := l.limiters.Load(key); ok {
		if cl, ok := v.(*clientLimiter); ok {
			return cl
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	cl := &clientLimiter{lim: rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)}
	actual, loaded := l.limiters.LoadOrStore(key, cl)
	if loaded {
		if actualCl, ok := actual.(*clientLimiter); ok {
			return actualCl
		}
	}
	return cl
}

// sweep drops limiters idle for longer than idleTTL. It runs at most once per
// idleTTL.
func (l *rateLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.idleTTL) {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-l.idleTTL).UnixNano()
	l.limiters.Range(func(key, v any) bool {
		if cl, ok := v.(*clientLimiter); ok && cl.lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
		}
		return true
	})
}

func hostKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		host = "unknown"
	}
	return "host:" + host
}

func userKey(c *Claims) string {
	return "user:" + strconv.FormatInt(c.UserID, 10)
}
