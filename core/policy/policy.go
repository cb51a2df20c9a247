package policy

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultFreshnessWindow = 5 * time.Minute
	maxSeenIDs             = 10000
	pruneCount             = 1000
)

var (
	ErrStale     = errors.New("stale update")
	ErrDuplicate = errors.New("duplicate update")
)

// Policy filters inbound updates: redelivered update IDs are dropped and
// timestamped updates older than the freshness window are rejected.
// It is best effort; IDs are forgotten once the seen set is pruned.
type Policy struct {
	mu        sync.Mutex
	freshness time.Duration
	seen      map[int64]bool
	seenOrder []int64
	now       func() time.Time
}

// New creates a Policy. A non-positive freshness disables the stale check.
func New(freshness time.Duration) *Policy {
	return &Policy{
		freshness: freshness,
		seen:      make(map[int64]bool),
		now:       time.Now,
	}
}

// WithClock overrides the time source (for testing).
func (p *Policy) WithClock(now func() time.Time) *Policy {
	if now != nil {
		p.now = now
	}
	return p
}

// Authorize checks whether an update should be processed. A zero timestamp
// skips the freshness check (callback queries carry no send time).
func (p *Policy) Authorize(updateID int64, timestamp time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.freshness > 0 && !timestamp.IsZero() {
		if age := p.now().Sub(timestamp); age > p.freshness {
			return fmt.Errorf("%w: %v old", ErrStale, age.Truncate(time.Second))
		}
	}

	if p.seen[updateID] {
		return fmt.Errorf("%w: %d", ErrDuplicate, updateID)
	}

	// Prune oldest entries if at capacity.
	if len(p.seen) >= maxSeenIDs {
		for i := 0; i < pruneCount && i < len(p.seenOrder); i++ {
			delete(p.seen, p.seenOrder[i])
		}
		p.seenOrder = p.seenOrder[pruneCount:]
	}

	p.seen[updateID] = true
	p.seenOrder = append(p.seenOrder, updateID)

	return nil
}
