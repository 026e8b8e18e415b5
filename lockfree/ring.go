// Package lockfree contains the two structures connecting the control
// goroutines to the audio goroutine: a bounded single-producer/single-consumer
// ring for commands, and a multi-slot publisher for snapshots. Neither
// allocates nor locks after construction.
package lockfree

import (
	"fmt"
	"sync/atomic"
)

// cacheLine pads the producer and consumer indices apart to avoid false
// sharing.
const cacheLine = 64

// Ring is a bounded single-producer/single-consumer queue. Push may be called
// from one goroutine and Drain from another, concurrently. When the ring is
// full, Push drops the value and counts it.
type Ring[T any] struct {
	head atomic.Uint64 // next slot to read, written by the consumer
	_    [cacheLine - 8]byte
	tail atomic.Uint64 // next slot to write, written by the producer
	_    [cacheLine - 8]byte

	dropped atomic.Uint64
	mask    uint64
	slots   []T
}

// NewRing creates a ring holding up to capacity values. Capacity must be a
// power of two.
func NewRing[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("ring capacity %d is not a positive power of two", capacity)
	}
	return &Ring[T]{mask: uint64(capacity - 1), slots: make([]T, capacity)}, nil
}

// Push appends v to the ring. It never blocks: if the ring is full, v is
// dropped, the drop counter is incremented and false is returned.
func (r *Ring[T]) Push(v T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() > r.mask {
		r.dropped.Add(1)
		return false
	}
	r.slots[tail&r.mask] = v
	r.tail.Store(tail + 1)
	return true
}

// Drain calls f for every value that was in the ring when Drain was called,
// in the order they were pushed, and removes them. Values pushed while Drain
// is running are left for the next call. It returns the number of values
// consumed.
func (r *Ring[T]) Drain(f func(T)) int {
	head := r.head.Load()
	tail := r.tail.Load()
	var zero T
	for i := head; i != tail; i++ {
		v := r.slots[i&r.mask]
		r.slots[i&r.mask] = zero // release references held by v
		f(v)
	}
	r.head.Store(tail)
	return int(tail - head)
}

// Len returns the number of values currently queued. It is only a hint when
// called concurrently with Push or Drain.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

func (r *Ring[T]) Cap() int {
	return len(r.slots)
}

// Dropped returns the number of values Push has dropped since the ring was
// created.
func (r *Ring[T]) Dropped() uint64 {
	return r.dropped.Load()
}
