package engine

import "github.com/kolkov/epochgc/internal/gc/epoch"

// pinAnnounce publishes "pinned at the current global epoch" into the
// calling goroutine's entry.
//
// The protocol is one load + one store, no CAS. The store must be visible to
// tryAdvance before the goroutine performs any protected atomic access; Go
// exposes no standalone fence, so the announce re-loads the global epoch
// after publishing. Under the memory model's sequentially consistent
// atomics, an advancer that moved the epoch past our observed value is
// detected by the re-load and we re-publish at the newer epoch. This runs
// once per outermost pin only.
func (e *Engine) pinAnnounce(ent *Entry) {
	g := e.global.Load()
	for {
		ent.local.Store(g)
		g2 := e.global.Load()
		if g2 == g {
			return
		}
		g = g2
	}
}

// unpinAnnounce publishes the unpinned sentinel. A plain store: only the
// owner writes its own slot.
func (e *Engine) unpinAnnounce(ent *Entry) {
	ent.local.Store(uint64(epoch.Unpinned))
}

// tryAdvance attempts one global epoch advance and returns the epoch the
// collector should use for eligibility checks.
//
// The advance succeeds only if every pinned entry has observed the current
// epoch. There is no retry and no blocking: failing to advance is a missed
// opportunity, not an error, and the pinned laggard delays reclamation
// without delaying anyone's progress.
//
// Entries retired mid-scan are treated as always caught up: retirement
// publishes the sentinel, and the explicit retired check covers the window
// where cleanup has claimed an entry but not yet stored it.
func (e *Engine) tryAdvance() epoch.Epoch {
	g := e.global.Load()

	for ent := e.head.Load(); ent != nil; ent = ent.next.Load() {
		if ent.retired.Load() {
			continue
		}
		l := ent.local.Load()
		if l != uint64(epoch.Unpinned) && l != g {
			return epoch.Epoch(g) // a pinned goroutine has not caught up
		}
	}

	if e.global.CompareAndSwap(g, g+1) {
		e.stats.Advances.Add(1)
		return epoch.Epoch(g + 1)
	}
	// Lost the CAS to a concurrent advance; the current epoch is at least
	// as fresh as g, which is all eligibility needs.
	return epoch.Epoch(g)
}
