package memory

import (
	"context"
	"sync"
	"time"
)

// Dedup remembers webhook event ids in process. Entries expire after ttl so
// the map does not grow without bound.
type Dedup struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (d *Dedup) IsDuplicate(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.seen[eventID]
	if !ok {
		return false, nil
	}
	if d.now().After(exp) {
		delete(d.seen, eventID)
		return false, nil
	}
	return true, nil
}

func (d *Dedup) Mark(_ context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for id, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, id)
		}
	}
	d.seen[eventID] = now.Add(d.ttl)
	return nil
}
