package engine

import (
	"github.com/kolkov/epochgc/internal/gc/bin"
	"github.com/kolkov/epochgc/internal/gc/epoch"
)

// Drain orders. Within the caller's own bins only small and medium exist;
// the pool is drained large-first so big allocations are reclaimed fastest.
var (
	localDrainOrder = [...]bin.SizeClass{bin.Medium, bin.Small}
	poolDrainOrder  = [...]bin.SizeClass{bin.Large, bin.Medium, bin.Small}
)

// Collect drains up to budget eligible items into destruction on the calling
// goroutine and returns how many were drained.
//
// Safe to call outside any pin (idle maintenance); drained items are then
// destroyed immediately instead of staged. Skipping or shrinking a
// collection is always safe - budget is advisory throttling, not a
// correctness knob.
func (e *Engine) Collect(budget int) int {
	return e.collectInto(e.currentEntry(), budget)
}

// Collect drains up to budget eligible items through this Scope. Items pass
// through the Scope's staging list and are destroyed when the outermost
// region ends.
func (s *Scope) Collect(budget int) int {
	return s.eng.collectInto(s.ent, budget)
}

// collectInto is the incremental collection algorithm.
//
// It first gives the epoch one chance to advance, then drains eligible items
// oldest-first: the caller's own bins before the global pool, larger classes
// before smaller within each tier. Every drained item is removed from its
// source sequence before being staged or destroyed, so an item is never
// handed to the collector twice.
func (e *Engine) collectInto(ent *Entry, budget int) int {
	g := e.tryAdvance()
	n := 0

	for _, class := range localDrainOrder {
		r := ent.bins[class]
		for n < budget {
			it := r.Peek()
			if it == nil || !epoch.Eligible(g, it.Epoch) {
				// FIFO: nothing younger can be eligible either.
				break
			}
			r.Pop()
			e.dispose(ent, it)
			n++
		}
	}

	eligible := func(it *bin.Item) bool { return epoch.Eligible(g, it.Epoch) }
	for _, class := range poolDrainOrder {
		q := e.pool[class]
		for n < budget {
			it, ok := q.DequeueIf(eligible)
			if !ok {
				break
			}
			e.stats.Stolen.Add(1)
			e.dispose(ent, it)
			n++
		}
	}

	return n
}

// dispose routes a drained item: staged while the owner is inside a pin or
// DelayGC region, destroyed immediately otherwise.
func (e *Engine) dispose(ent *Entry, it *bin.Item) {
	if ent.regionDepth > 0 {
		ent.staging = append(ent.staging, it)
		return
	}
	e.destroy(it)
}

// destroy runs the item's destructor (if any) and releases the payload.
// Exactly-once is guaranteed by the single-removal discipline upstream.
//
// Destructor-less payloads are offered to the host's ReclaimablePool when
// one is installed; payloads with a destructor are considered fully disposed
// of by it.
func (e *Engine) destroy(it *bin.Item) {
	if it.Dtor != nil {
		e.runDtor(it)
	} else if p := e.reclaimPool(); p != nil {
		p.PutAny(it.Payload)
	}
	it.Payload = nil
	it.Dtor = nil
	e.stats.Destroyed.Add(1)
}

// runDtor isolates one destructor invocation. A panicking destructor is
// outside the engine's control; it must not corrupt the bins or stall
// reclamation of anyone else's garbage, so the panic is swallowed and
// counted.
func (e *Engine) runDtor(it *bin.Item) {
	defer func() {
		if r := recover(); r != nil {
			e.stats.DtorPanics.Add(1)
		}
	}()
	it.Dtor(it.Payload)
}
