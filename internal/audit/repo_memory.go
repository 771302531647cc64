package audit

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds MemoryRepo; the oldest events are dropped first.
const DefaultMemoryCapacity = 10000

// MemoryRepo keeps the most recent events in process memory.
type MemoryRepo struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
}

func NewMemoryRepo() *MemoryRepo { return NewBoundedMemoryRepo(DefaultMemoryCapacity) }

func NewBoundedMemoryRepo(capacity int) *MemoryRepo {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryRepo{capacity: capacity}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == r.capacity {
		r.events = append(r.events[:0], r.events[1:]...)
	}
	r.events = append(r.events, e)
	return nil
}

// Query returns matching events, newest first.
func (r *MemoryRepo) Query(ctx context.Context, q Query) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Event{}
	for i := len(r.events) - 1; i >= 0 && len(out) < q.Limit; i-- {
		if q.matches(r.events[i]) {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

// Events returns every stored event in append order.
func (r *MemoryRepo) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events...)
}
