// Package gc public API. See doc.go for detailed documentation and examples.
package gc

import (
	"github.com/kolkov/epochgc/internal/gc/bin"
	"github.com/kolkov/epochgc/internal/gc/engine"
)

// Scope is the token representing an active pinned region. It is handed to
// the body of [Pin] and must not escape it.
type Scope = engine.Scope

// SizeClass categorizes a retired item by the cost of holding onto it.
// Small and medium items stage in the retiring goroutine's bins; large items
// go straight to the global pool.
type SizeClass = bin.SizeClass

// Size classes for [Scope.Defer].
const (
	Small  = bin.Small
	Medium = bin.Medium
	Large  = bin.Large
)

// ReclaimablePool receives the payloads of destructor-less items once they
// are reclaimed, so hosts can recycle the memory. See [SetReclaimablePool].
type ReclaimablePool = engine.ReclaimablePool

// Snapshot is a point-in-time copy of the engine's counters.
type Snapshot = engine.Snapshot

// defaultEngine is the process-wide reclamation domain. All package-level
// functions operate on it.
var defaultEngine = engine.New()

// Pin runs body with the calling goroutine pinned.
//
// While pinned, the goroutine may safely access shared reclaimable memory:
// nothing retired during the pinned interval is destroyed before the
// outermost unpin. Pin is reentrant - nested calls share the outer Scope and
// do not re-announce - and releases on every exit path, including panics.
func Pin(body func(*Scope)) {
	defaultEngine.Pin(body)
}

// DelayGC suppresses destruction of garbage gathered during body without
// blocking collection itself; the gathered items are destroyed when body
// returns. Inside a Pin this is a strict refinement of the pin's own
// staging.
func DelayGC(body func()) {
	defaultEngine.DelayGC(body)
}

// Collect drains up to budget eligible retired items into destruction and
// returns how many were drained. Safe to call from idle goroutines outside
// any pin; skipping collection is always safe, never incorrect.
func Collect(budget int) int {
	return defaultEngine.Collect(budget)
}

// Deregister flushes the calling goroutine's staged garbage into the global
// pool and retires its registry entry. Optional: exited goroutines are also
// detected by a periodic scan. Must not be called inside a pinned region.
func Deregister() {
	defaultEngine.Deregister()
}

// SetReclaimablePool installs a recycling pool that receives payloads of
// destructor-less items after reclamation. Passing nil removes it.
func SetReclaimablePool(p ReclaimablePool) {
	defaultEngine.SetReclaimablePool(p)
}

// Stats returns a snapshot of the engine's counters.
func Stats() Snapshot {
	return defaultEngine.Stats()
}
