package engine

import "sync/atomic"

// Stats holds the engine's monotonic counters. All fields are updated with
// atomics; nothing here sits on the pin fast path except the outermost-pin
// count.
type Stats struct {
	// Pins counts outermost pins (announce/fence executions). Nested pins
	// are deliberately excluded: the count doubles as an observable check
	// that reentrant pinning never re-announces.
	Pins atomic.Uint64

	// Advances counts successful global epoch advances.
	Advances atomic.Uint64

	// Deferred counts items submitted via Defer.
	Deferred atomic.Uint64

	// Destroyed counts items whose destruction completed (destructor run
	// and payload released).
	Destroyed atomic.Uint64

	// Spilled counts items moved from thread-local bins to the global pool.
	Spilled atomic.Uint64

	// Stolen counts items drained from the global pool.
	Stolen atomic.Uint64

	// DtorPanics counts destructors that panicked and were isolated.
	DtorPanics atomic.Uint64

	// Registered and Retired count registry entries over the engine's
	// lifetime.
	Registered atomic.Uint64
	Retired    atomic.Uint64
}

// Snapshot is a point-in-time copy of the engine counters.
type Snapshot struct {
	Pins       uint64
	Advances   uint64
	Deferred   uint64
	Destroyed  uint64
	Spilled    uint64
	Stolen     uint64
	DtorPanics uint64
	Registered uint64
	Retired    uint64
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Snapshot {
	return Snapshot{
		Pins:       e.stats.Pins.Load(),
		Advances:   e.stats.Advances.Load(),
		Deferred:   e.stats.Deferred.Load(),
		Destroyed:  e.stats.Destroyed.Load(),
		Spilled:    e.stats.Spilled.Load(),
		Stolen:     e.stats.Stolen.Load(),
		DtorPanics: e.stats.DtorPanics.Load(),
		Registered: e.stats.Registered.Load(),
		Retired:    e.stats.Retired.Load(),
	}
}
