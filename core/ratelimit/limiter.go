package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultMaxEvents = 20
	DefaultWindow    = 10 * time.Second
	DefaultCooldown  = 30 * time.Second

	pruneThreshold = 10000
)

// ErrThrottled is returned while a user is cooling down.
var ErrThrottled = errors.New("throttled")

type record struct {
	events   []time.Time
	lockedAt time.Time
}

// Limiter tracks inbound events per user and throttles users who send more
// than max events within window. A throttled user is refused until cooldown
// has passed.
type Limiter struct {
	max      int
	window   time.Duration
	cooldown time.Duration

	mu      sync.Mutex
	records map[int64]*record
	now     func() time.Time
}

// New creates a limiter. Non-positive arguments select the defaults.
func New(max int, window, cooldown time.Duration) *Limiter {
	if max <= 0 {
		max = DefaultMaxEvents
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Limiter{
		max:      max,
		window:   window,
		cooldown: cooldown,
		records:  make(map[int64]*record),
		now:      time.Now,
	}
}

// WithClock overrides the time source (for testing).
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow records an event for userID and reports whether it may proceed.
func (l *Limiter) Allow(userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	r := l.records[userID]
	if r == nil {
		if len(l.records) >= pruneThreshold {
			l.prune(now)
		}
		r = &record{}
		l.records[userID] = r
	}

	if !r.lockedAt.IsZero() {
		if elapsed := now.Sub(r.lockedAt); elapsed < l.cooldown {
			return fmt.Errorf("%w for %s", ErrThrottled, (l.cooldown - elapsed).Truncate(time.Second))
		}
		// Cooldown over.
		r.lockedAt = time.Time{}
		r.events = r.events[:0]
	}

	cutoff := now.Add(-l.window)
	fresh := r.events[:0]
	for _, t := range r.events {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	r.events = append(fresh, now)

	if len(r.events) > l.max {
		r.lockedAt = now
		return fmt.Errorf("%w for %s", ErrThrottled, l.cooldown)
	}
	return nil
}

// prune drops users with no recent activity. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	for id, r := range l.records {
		if !r.lockedAt.IsZero() && now.Sub(r.lockedAt) < l.cooldown {
			continue
		}
		if len(r.events) > 0 && now.Sub(r.events[len(r.events)-1]) < l.window {
			continue
		}
		delete(l.records, id)
	}
}
