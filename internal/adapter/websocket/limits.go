package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	defaultMaxPerIP        = 20
	defaultUpgradesPerSec  = 5.0
	defaultUpgradeBurst    = 10
	rateLimiterIdleCleanup = 10 * time.Minute
)

// LimitReason describes why an upgrade was refused.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// Limits bounds subscriber connections per process and per client IP, and the
// rate at which one IP may open new ones.
type Limits struct {
	clock  clockwork.Clock
	max    int64
	maxPer int
	rate   rate.Limit
	burst  int

	current atomic.Int64

	mu        sync.Mutex
	perIP     map[string]int
	limiters  map[string]*ipLimiter
	cleanupAt time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimits allows up to max concurrent connections in total.
func NewLimits(clock clockwork.Clock, max int64) *Limits {
	return &Limits{
		clock:     clock,
		max:       max,
		maxPer:    defaultMaxPerIP,
		rate:      rate.Limit(defaultUpgradesPerSec),
		burst:     defaultUpgradeBurst,
		perIP:     make(map[string]int),
		limiters:  make(map[string]*ipLimiter),
		cleanupAt: clock.Now().Add(rateLimiterIdleCleanup),
	}
}

// Acquire reserves a slot for ip. On success the caller must Release it.
func (l *Limits) Acquire(ip string) (bool, LimitReason) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.After(l.cleanupAt) {
		l.cleanupLocked(now)
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	if !entry.limiter.AllowN(now, 1) {
		return false, LimitReasonRate
	}

	if l.current.Load() >= l.max {
		return false, LimitReasonGlobal
	}
	if l.perIP[ip] >= l.maxPer {
		return false, LimitReasonPerIP
	}

	l.current.Add(1)
	l.perIP[ip]++
	return true, ""
}

func (l *Limits) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n := l.perIP[ip]; n > 0 {
		if n == 1 {
			delete(l.perIP, ip)
		} else {
			l.perIP[ip] = n - 1
		}
		l.current.Add(-1)
	}
}

// Current returns the number of held slots.
func (l *Limits) Current() int64 {
	return l.current.Load()
}

func (l *Limits) cleanupLocked(now time.Time) {
	cutoff := now.Add(-rateLimiterIdleCleanup)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
	l.cleanupAt = now.Add(rateLimiterIdleCleanup)
}
