package auth

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestLimiter(tiers map[string]TierConfig, defaultRPM int) (*InProcessLimiter, *time.Time) {
	l := NewInProcessLimiter(tiers, defaultRPM)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_WithinLimit(t *testing.T) {
	l, _ := newTestLimiter(nil, 3)
	id := &Identity{Subject: "alice"}

	for i := 0; i < 3; i++ {
		if err := l.Allow(context.Background(), id); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
	if err := l.Allow(context.Background(), id); err != ErrTooManyRequests {
		t.Errorf("request 4: err = %v, want ErrTooManyRequests", err)
	}
}

func TestLimiter_WindowRollover(t *testing.T) {
	l, now := newTestLimiter(nil, 1)
	id := &Identity{Subject: "alice"}

	if err := l.Allow(context.Background(), id); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := l.Allow(context.Background(), id); err != ErrTooManyRequests {
		t.Fatalf("second request: err = %v, want ErrTooManyRequests", err)
	}

	*now = now.Add(time.Minute)
	if err := l.Allow(context.Background(), id); err != nil {
		t.Errorf("request after rollover: %v", err)
	}
}

func TestLimiter_TierSelection(t *testing.T) {
	l, _ := newTestLimiter(map[string]TierConfig{
		"premium": {RequestsPerMinute: 2},
	}, 1)

	premium := &Identity{Subject: "alice", ServiceTier: "premium"}
	standard := &Identity{Subject: "bob"}

	// Premium gets its own budget.
	for i := 0; i < 2; i++ {
		if err := l.Allow(context.Background(), premium); err != nil {
			t.Fatalf("premium request %d: %v", i+1, err)
		}
	}
	if err := l.Allow(context.Background(), premium); err != ErrTooManyRequests {
		t.Errorf("premium over budget: err = %v, want ErrTooManyRequests", err)
	}

	// Unconfigured tier uses the default RPM.
	if err := l.Allow(context.Background(), standard); err != nil {
		t.Fatalf("standard request: %v", err)
	}
	if err := l.Allow(context.Background(), standard); err != ErrTooManyRequests {
		t.Errorf("standard over budget: err = %v, want ErrTooManyRequests", err)
	}
}

func TestLimiter_UnlimitedTier(t *testing.T) {
	l, _ := newTestLimiter(map[string]TierConfig{
		"internal": {RequestsPerMinute: 0},
	}, 1)
	id := &Identity{Subject: "svc", ServiceTier: "internal"}

	for i := 0; i < 100; i++ {
		if err := l.Allow(context.Background(), id); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
}

func TestLimiter_PrunesExpiredWindows(t *testing.T) {
	l, now := newTestLimiter(nil, 10)

	for i := 0; i < 1500; i++ {
		id := &Identity{Subject: fmt.Sprintf("user-%d", i)}
		if err := l.Allow(context.Background(), id); err != nil {
			t.Fatalf("seeding subject %d: %v", i, err)
		}
	}

	*now = now.Add(3 * time.Minute)
	if err := l.Allow(context.Background(), &Identity{Subject: "fresh"}); err != nil {
		t.Fatalf("fresh subject: %v", err)
	}

	l.mu.Lock()
	size := len(l.counters)
	l.mu.Unlock()
	if size > 2 {
		t.Errorf("counters after prune = %d, want stale windows evicted", size)
	}
}
