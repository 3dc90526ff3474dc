package engine

import (
	"sync/atomic"
	"testing"

	"github.com/kolkov/epochgc/internal/gc/bin"
)

// runOn runs f to completion on a fresh goroutine, giving it its own
// registry entry.
func runOn(f func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	<-done
}

// TestNoDoubleDestruction verifies that every deferred item's destructor
// runs exactly once across repeated collection.
func TestNoDoubleDestruction(t *testing.T) {
	const items = 100

	e := New()
	counters := make([]atomic.Int32, items)

	e.Pin(func(s *Scope) {
		for i := 0; i < items; i++ {
			i := i
			class := bin.SizeClass(i % bin.NumClasses)
			s.Defer(i, func(any) { counters[i].Add(1) }, class)
		}
	})

	for i := 0; i < 300 && e.Stats().Destroyed < items; i++ {
		e.Collect(1000)
	}

	if got := e.Stats().Destroyed; got != items {
		t.Fatalf("destroyed %d items, want %d", got, items)
	}
	for i := range counters {
		if got := counters[i].Load(); got != 1 {
			t.Errorf("item %d destructor ran %d times, want 1", i, got)
		}
	}
}

// TestNoPrematureDestruction verifies the two-advance rule: an item retired
// while another goroutine is pinned is not destroyed until that goroutine
// unpins and the epoch advances twice past the tag.
func TestNoPrematureDestruction(t *testing.T) {
	e := New()
	e.deferBudget = 0

	var destroyed atomic.Int32
	pinned := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		e.Pin(func(*Scope) {
			close(pinned)
			<-release
		})
	}()
	<-pinned

	// Retire an item and try hard to collect it while the reader is pinned.
	e.Pin(func(s *Scope) {
		s.Defer("node", func(any) { destroyed.Add(1) }, bin.Small)
	})
	for i := 0; i < 10; i++ {
		e.Collect(100)
	}
	if destroyed.Load() != 0 {
		t.Fatal("item destroyed while a goroutine pinned at the tag epoch was still pinned")
	}

	close(release)
	<-done

	for i := 0; i < 5 && destroyed.Load() == 0; i++ {
		e.Collect(100)
	}
	if destroyed.Load() != 1 {
		t.Fatalf("item destroyed %d times after unpin, want 1", destroyed.Load())
	}
}

// TestEndToEndScenario replays the canonical three-goroutine flow: the first
// goroutine retires three items, two other pinned regions advance the epoch
// twice, and a subsequent collect on the first goroutine destroys exactly
// those three items.
func TestEndToEndScenario(t *testing.T) {
	e := New()
	e.deferBudget = 0

	var counters [3]atomic.Int32

	// Keep the retiring goroutine alive for the whole scenario: its bins
	// hold the items until it collects them itself.
	tasks := make(chan func())
	stepped := make(chan struct{})
	go func() {
		for f := range tasks {
			f()
			stepped <- struct{}{}
		}
	}()
	defer close(tasks)
	onRetirer := func(f func()) {
		tasks <- f
		<-stepped
	}

	onRetirer(func() {
		e.Pin(func(s *Scope) {
			for i := range counters {
				i := i
				s.Defer(i, func(any) { counters[i].Add(1) }, bin.Small)
			}
		})
	})

	// Second goroutine: pin, collect with budget 10; one advance has
	// happened, so nothing may be destroyed yet.
	runOn(func() {
		e.Pin(func(s *Scope) {
			if n := s.Collect(10); n != 0 {
				t.Errorf("collect after one advance drained %d items, want 0", n)
			}
		})
	})

	// Third pinned region produces the second advance.
	runOn(func() {
		e.Pin(func(s *Scope) {
			s.Collect(0)
		})
	})

	var drained int
	onRetirer(func() {
		drained = e.Collect(10)
	})

	if drained != 3 {
		t.Fatalf("final collect drained %d items, want 3", drained)
	}
	if got := e.Stats().Destroyed; got != 3 {
		t.Fatalf("destroyed %d items, want exactly 3", got)
	}
	for i := range counters {
		if got := counters[i].Load(); got != 1 {
			t.Errorf("item %d destructor ran %d times, want 1", i, got)
		}
	}
}

// TestDelayGCOrdering verifies that garbage collected inside DelayGC is
// destroyed only after the body returns, never during.
func TestDelayGCOrdering(t *testing.T) {
	e := New()
	e.deferBudget = 0

	var destroyed atomic.Int32
	e.Pin(func(s *Scope) {
		s.Defer("x", func(any) { destroyed.Add(1) }, bin.Small)
	})
	e.Collect(0) // advance
	e.Collect(0) // advance: item now eligible but undrained

	e.DelayGC(func() {
		if n := e.Collect(10); n != 1 {
			t.Errorf("Collect inside DelayGC drained %d, want 1", n)
		}
		if destroyed.Load() != 0 {
			t.Error("destructor ran inside DelayGC body")
		}
	})

	if destroyed.Load() != 1 {
		t.Fatalf("destructor ran %d times after DelayGC exit, want 1", destroyed.Load())
	}
}

// TestDestructorPanicIsolation verifies that one panicking destructor does
// not stall collection of the items behind it.
func TestDestructorPanicIsolation(t *testing.T) {
	e := New()
	e.deferBudget = 0

	var second atomic.Int32
	e.Pin(func(s *Scope) {
		s.Defer("bad", func(any) { panic("destructor misbehaved") }, bin.Small)
		s.Defer("good", func(any) { second.Add(1) }, bin.Small)
	})
	e.Collect(0)
	e.Collect(0)

	if n := e.Collect(10); n != 2 {
		t.Fatalf("Collect = %d, want 2", n)
	}
	if got := second.Load(); got != 1 {
		t.Errorf("item behind the panicking destructor ran %d times, want 1", got)
	}
	st := e.Stats()
	if st.DtorPanics != 1 {
		t.Errorf("DtorPanics = %d, want 1", st.DtorPanics)
	}
	if st.Destroyed != 2 {
		t.Errorf("Destroyed = %d, want 2", st.Destroyed)
	}

	// The engine must remain usable after the panic.
	e.Pin(func(*Scope) {})
}

// TestLargeBypass verifies that large items never touch thread-local bins:
// they are observable in the global pool from the moment of Defer.
func TestLargeBypass(t *testing.T) {
	e := New()
	e.deferBudget = 0

	e.Pin(func(s *Scope) {
		s.Defer("big", nil, bin.Large)

		if got := e.PoolLen(bin.Large); got != 1 {
			t.Errorf("pool large length = %d, want 1 immediately after Defer", got)
		}
		for _, class := range []bin.SizeClass{bin.Small, bin.Medium} {
			if n := s.ent.bins[class].Len(); n != 0 {
				t.Errorf("%v bin holds %d items, want 0", class, n)
			}
		}
	})
}

// TestBinSpill verifies that exceeding a bin's soft capacity spills the
// oldest half to the global pool and conserves the total item count.
func TestBinSpill(t *testing.T) {
	e := New()
	e.deferBudget = 0

	pushed := bin.SmallSoftCap + 1
	e.Pin(func(s *Scope) {
		for i := 0; i < pushed; i++ {
			s.Defer(i, nil, bin.Small)
		}
	})

	ent := e.currentEntry()
	local := ent.bins[bin.Small].Len()
	global := e.PoolLen(bin.Small)

	if local+global != pushed {
		t.Fatalf("local %d + global %d = %d items, want %d", local, global, local+global, pushed)
	}
	wantSpilled := pushed / 2
	if global != wantSpilled {
		t.Errorf("global pool holds %d items, want the oldest %d", global, wantSpilled)
	}
	if got := e.Stats().Spilled; got != uint64(wantSpilled) {
		t.Errorf("Spilled = %d, want %d", got, wantSpilled)
	}

	// The spilled items are the oldest ones, in retirement order.
	it, ok := e.pool[bin.Small].Dequeue()
	if !ok || it.Payload.(int) != 0 {
		t.Errorf("pool head = %v, want the first retired item", it)
	}
}

// recorderPool captures payloads handed back for recycling.
type recorderPool struct {
	got []any
}

func (p *recorderPool) PutAny(v any) { p.got = append(p.got, v) }

// TestReclaimablePool verifies that destructor-less payloads are handed to
// the installed pool, and destructor-owning payloads are not.
func TestReclaimablePool(t *testing.T) {
	e := New()
	e.deferBudget = 0

	rec := &recorderPool{}
	e.SetReclaimablePool(rec)

	e.Pin(func(s *Scope) {
		s.Defer("pooled", nil, bin.Small)
		s.Defer("destructed", func(any) {}, bin.Small)
	})
	e.Collect(0)
	e.Collect(0)
	if n := e.Collect(10); n != 2 {
		t.Fatalf("Collect = %d, want 2", n)
	}

	if len(rec.got) != 1 || rec.got[0] != "pooled" {
		t.Errorf("pool received %v, want exactly the destructor-less payload", rec.got)
	}
}

// TestCollectBudget verifies that collection never exceeds its budget.
func TestCollectBudget(t *testing.T) {
	e := New()
	e.deferBudget = 0

	e.Pin(func(s *Scope) {
		for i := 0; i < 10; i++ {
			s.Defer(i, nil, bin.Small)
		}
	})
	e.Collect(0)
	e.Collect(0)

	if n := e.Collect(3); n != 3 {
		t.Fatalf("Collect(3) = %d, want 3", n)
	}
	if n := e.Collect(100); n != 7 {
		t.Fatalf("Collect(100) = %d, want the remaining 7", n)
	}
}

// BenchmarkDeferCollect measures the steady-state retire/reclaim cycle.
func BenchmarkDeferCollect(b *testing.B) {
	e := New()
	b.ResetTimer()
	e.Pin(func(s *Scope) {
		for i := 0; i < b.N; i++ {
			s.Defer(i, nil, bin.Small)
		}
	})
}
