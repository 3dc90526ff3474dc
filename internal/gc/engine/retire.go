package engine

import (
	"github.com/kolkov/epochgc/internal/gc/bin"
	"github.com/kolkov/epochgc/internal/gc/epoch"
)

// Defer hands an unlinked item to the engine for later destruction.
//
// The payload is owned by the engine from this point on: submitting it twice
// or touching it afterwards is a fatal precondition violation, documented
// rather than detected. dtor may be nil ("deallocate only"); when non-nil it
// runs exactly once ("destroy and deallocate"), no earlier than two epoch
// advances after this call.
//
// Small and medium items stage in the calling goroutine's bin for their
// class; when the bin exceeds its soft capacity the oldest half spills to
// the global pool, keeping the amortized cost O(1). Large items go straight
// to the global pool so whichever goroutine next has capacity reclaims them.
//
// Defer finishes with an opportunistic bounded collection, so steady-state
// reclamation keeps pace with retirement.
func (s *Scope) Defer(payload any, dtor func(any), class bin.SizeClass) {
	if class > bin.Large {
		panic("epochgc: invalid size class")
	}

	e, ent := s.eng, s.ent
	it := &bin.Item{
		Payload: payload,
		Dtor:    dtor,
		Epoch:   epoch.Epoch(e.global.Load()),
		Class:   class,
	}
	e.stats.Deferred.Add(1)

	if class == bin.Large {
		e.pool[bin.Large].Enqueue(it)
	} else {
		r := ent.bins[class]
		if !r.Push(it) {
			// The spill policy keeps rings half-empty, so a full ring means
			// the policy was bypassed; spill now and retry.
			e.spill(ent, class)
			if !r.Push(it) {
				panic("epochgc: bin overflow after spill")
			}
		}
		if r.Len() > bin.SoftCap(class) {
			e.spill(ent, class)
		}
	}

	if e.deferBudget > 0 {
		e.collectInto(ent, e.deferBudget)
	}
}

// spill moves the oldest half of the entry's bin for class into the global
// pool sequence of the same class. Owner-only.
func (e *Engine) spill(ent *Entry, class bin.SizeClass) {
	r := ent.bins[class]
	half := r.Len() / 2
	for i := 0; i < half; i++ {
		it := r.Pop()
		if it == nil {
			break
		}
		e.pool[class].Enqueue(it)
		e.stats.Spilled.Add(1)
	}
}
