package admission

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Slots bounds concurrent holders. Waiters are granted slots in FIFO order
// and a released slot passes directly to the head of the queue.
type Slots struct {
	sem     *semaphore.Weighted
	size    int64
	inUse   atomic.Int64
	waiting atomic.Int64
}

// NewSlots creates an allocator with size slots.
func NewSlots(size int64) *Slots {
	return &Slots{
		sem:  semaphore.NewWeighted(size),
		size: size,
	}
}

// Acquire takes a slot, waiting until one is released or ctx is done.
// Without a deadline on ctx the wait is unbounded.
func (s *Slots) Acquire(ctx context.Context) error {
	if s.sem.TryAcquire(1) {
		s.inUse.Add(1)
		return nil
	}

	s.waiting.Add(1)
	err := s.sem.Acquire(ctx, 1)
	s.waiting.Add(-1)
	if err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	s.inUse.Add(1)
	return nil
}

// Release returns a slot taken by Acquire.
func (s *Slots) Release() {
	s.inUse.Add(-1)
	s.sem.Release(1)
}

// Size is the configured slot count.
func (s *Slots) Size() int64 { return s.size }

// InUse is the number of slots currently held.
func (s *Slots) InUse() int64 { return s.inUse.Load() }

// Waiting is the number of callers blocked in Acquire.
func (s *Slots) Waiting() int64 { return s.waiting.Load() }
