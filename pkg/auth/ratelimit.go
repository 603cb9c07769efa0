package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter checks whether a request should be allowed based on
// the identity's service tier.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds rate limit settings for a service tier.
type TierConfig struct {
	RequestsPerMinute int
}

// InProcessLimiter is a fixed-window rate limiter that tracks request
// counts per subject and tier in memory. It is suitable for a single
// server process; multi-instance deployments need a shared limiter.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int
	now        func() time.Time

	mu       sync.Mutex
	counters map[string]*window
}

type window struct {
	count     int
	startedAt time.Time
}

// NewInProcessLimiter creates a rate limiter with per-tier configuration.
// Subjects whose tier is not configured fall back to defaultRPM.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		now:        time.Now,
		counters:   make(map[string]*window),
	}
}

// Allow checks if the request is within the rate limit. A tier with a
// non-positive RPM is unlimited.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.ServiceTier
	if tier == "" {
		tier = "default"
	}

	rpm := l.defaultRPM
	if tc, ok := l.tiers[tier]; ok {
		rpm = tc.RequestsPerMinute
	}
	if rpm <= 0 {
		return nil
	}

	key := identity.Subject + ":" + tier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.counters[key]
	if !ok || now.Sub(w.startedAt) >= time.Minute {
		l.counters[key] = &window{count: 1, startedAt: now}
		l.pruneLocked(now)
		return nil
	}

	w.count++
	if w.count > rpm {
		return ErrTooManyRequests
	}
	return nil
}

// pruneLocked drops windows that expired more than a minute ago so the
// counter map does not grow with every subject ever seen. Called with the
// mutex held, on window rollover only.
func (l *InProcessLimiter) pruneLocked(now time.Time) {
	if len(l.counters) < 1024 {
		return
	}
	for key, w := range l.counters {
		if now.Sub(w.startedAt) >= 2*time.Minute {
			delete(l.counters, key)
		}
	}
}
