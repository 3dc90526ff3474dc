// Package bin implements the garbage staging primitives of the reclamation
// engine: retired items, their size classes, and the bounded per-goroutine
// FIFO rings that hold them until they become eligible for destruction.
package bin

import "github.com/kolkov/epochgc/internal/gc/epoch"

// SizeClass categorizes a retired item by the cost of holding onto it.
//
// Small and Medium items stage in the retiring goroutine's own bins; Large
// items bypass the local bins entirely and go straight to the global pool,
// so whichever goroutine next has collection capacity reclaims them first.
type SizeClass uint8

const (
	// Small is the class for node-sized allocations (list/queue/stack nodes).
	Small SizeClass = iota

	// Medium is the class for multi-node or buffer-carrying allocations.
	Medium

	// Large is the class for allocations costly enough that they must not
	// linger in thread-local storage.
	Large

	// NumClasses is the number of size classes.
	NumClasses = 3

	// NumLocalClasses is the number of classes staged in thread-local bins.
	// Large is pool-only.
	NumLocalClasses = 2
)

// String returns the class name for diagnostics.
func (c SizeClass) String() string {
	switch c {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	default:
		return "invalid"
	}
}

// Item is one retired allocation awaiting destruction.
//
// The payload is owned by the engine from the moment of submission: no other
// code may touch it again. An Item is destroyed at most once, and never
// before the global epoch has advanced ReclaimDistance past Epoch.
type Item struct {
	// Payload is the opaque handle given to Defer.
	Payload any

	// Dtor, when non-nil, runs exactly once before the payload is released.
	// A nil Dtor means "deallocate only".
	Dtor func(any)

	// Epoch is the global epoch observed at retirement time.
	Epoch epoch.Epoch

	// Class selects the staging tier.
	Class SizeClass
}
