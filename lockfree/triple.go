package lockfree

import "sync/atomic"

const numSlots = 3

// TripleBuffer publishes values from a single writer to any number of
// readers. The writer copies a value into a slot that is neither the latest
// one nor held by a reader, and then marks it latest with an atomic store.
// Readers pin the latest slot while copying it, so they always get a complete
// value, possibly an older one than the writer has most recently published.
//
// The writer never waits. If readers hold every slot it could write into,
// the publish is skipped and counted.
type TripleBuffer[T any] struct {
	latest  atomic.Int32
	skipped atomic.Uint64
	slots   [numSlots]tripleSlot[T]
}

type tripleSlot[T any] struct {
	readers atomic.Int32
	_       [cacheLine - 4]byte
	value   T
}

func NewTripleBuffer[T any](initial T) *TripleBuffer[T] {
	b := &TripleBuffer[T]{}
	for i := range b.slots {
		b.slots[i].value = initial
	}
	return b
}

// Publish makes a copy of *v the latest value. It must only be called from
// one goroutine at a time. It returns false if the value could not be
// published because all other slots were being read.
func (b *TripleBuffer[T]) Publish(v *T) bool {
	latest := b.latest.Load()
	for i := int32(1); i < numSlots; i++ {
		idx := (latest + i) % numSlots
		s := &b.slots[idx]
		if s.readers.Load() != 0 {
			continue
		}
		// A reader that pins s from now on finds it is not the latest slot
		// and retries, so nobody reads s while it is written.
		s.value = *v
		b.latest.Store(idx)
		return true
	}
	b.skipped.Add(1)
	return false
}

// Read copies the latest published value into dst. It is safe to call from
// any number of goroutines concurrently with Publish.
func (b *TripleBuffer[T]) Read(dst *T) {
	for {
		idx := b.latest.Load()
		s := &b.slots[idx]
		s.readers.Add(1)
		if b.latest.Load() == idx {
			*dst = s.value
			s.readers.Add(-1)
			return
		}
		s.readers.Add(-1)
	}
}

// Load returns a copy of the latest published value.
func (b *TripleBuffer[T]) Load() T {
	var ret T
	b.Read(&ret)
	return ret
}

// Skipped returns the number of publishes that were skipped because readers
// held all free slots.
func (b *TripleBuffer[T]) Skipped() uint64 {
	return b.skipped.Load()
}
