package lockfree_test

import (
	"runtime"
	"sync"
	"testing"

	"github.com/opsix/opsix/lockfree"
)

func TestRingCapacityMustBePowerOfTwo(t *testing.T) {
	for _, c := range []int{0, -1, 3, 1000} {
		if _, err := lockfree.NewRing[int](c); err == nil {
			t.Errorf("NewRing(%d) did not fail", c)
		}
	}
	r, err := lockfree.NewRing[int](1024)
	if err != nil {
		t.Fatalf("NewRing(1024) failed: %v", err)
	}
	if r.Cap() != 1024 {
		t.Fatalf("expected capacity 1024, got %d", r.Cap())
	}
}

func TestRingKeepsOrder(t *testing.T) {
	r, _ := lockfree.NewRing[int](8)
	for i := 0; i < 5; i++ {
		r.Push(i)
	}
	var got []int
	if n := r.Drain(func(v int) { got = append(got, v) }); n != 5 {
		t.Fatalf("expected to drain 5 values, drained %d", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("value %d: expected %d, got %d", i, i, v)
		}
	}
	if r.Len() != 0 {
		t.Fatalf("ring not empty after drain: %d", r.Len())
	}
}

func TestRingDropsWhenFull(t *testing.T) {
	r, _ := lockfree.NewRing[int](4)
	for i := 0; i < 4; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d failed on a non-full ring", i)
		}
	}
	if r.Push(4) {
		t.Fatal("push succeeded on a full ring")
	}
	if r.Push(5) {
		t.Fatal("push succeeded on a full ring")
	}
	if r.Dropped() != 2 {
		t.Fatalf("expected 2 dropped, got %d", r.Dropped())
	}
	var got []int
	r.Drain(func(v int) { got = append(got, v) })
	if len(got) != 4 || got[3] != 3 {
		t.Fatalf("expected the oldest values to survive, got %v", got)
	}
	if !r.Push(6) {
		t.Fatal("push failed after drain")
	}
}

func TestRingDefersValuesPushedDuringDrain(t *testing.T) {
	r, _ := lockfree.NewRing[int](8)
	r.Push(1)
	r.Push(2)
	var first []int
	r.Drain(func(v int) {
		first = append(first, v)
		r.Push(v * 10)
	})
	if len(first) != 2 {
		t.Fatalf("first drain should see only 2 values, saw %v", first)
	}
	var second []int
	r.Drain(func(v int) { second = append(second, v) })
	if len(second) != 2 || second[0] != 10 || second[1] != 20 {
		t.Fatalf("second drain: expected [10 20], got %v", second)
	}
}

func TestRingConcurrentProducerConsumer(t *testing.T) {
	const n = 100000
	r, _ := lockfree.NewRing[int](64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if r.Push(i) {
				i++
			} else {
				runtime.Gosched()
			}
		}
	}()
	next := 0
	for next < n {
		r.Drain(func(v int) {
			if v != next {
				t.Errorf("out of order: expected %d, got %d", next, v)
			}
			next = v + 1
		})
		runtime.Gosched()
	}
	wg.Wait()
}
