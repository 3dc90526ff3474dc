// Package epoch implements the logical timestamps used by the reclamation engine.
//
// The engine keeps one global epoch and, per registered goroutine, a published
// "last observed epoch or unpinned" value. An Epoch is a plain 64-bit counter:
// only relative distance matters, never the absolute value, so wrapping
// arithmetic is acceptable.
//
// The soundness rule built on top of these values is the two-advance rule:
// a retired item tagged at epoch E may be destroyed once the global epoch has
// advanced twice past E. One advance may be concurrent with a pinned goroutine
// that read the old epoch just before unpinning; the second advance guarantees
// no such goroutine can still be executing inside its pinned region.
package epoch

// Epoch is a monotonically increasing 64-bit logical timestamp.
//
// The value Unpinned is reserved as the "not pinned" sentinel in each
// registered goroutine's published slot. The global counter starts at 0, so a
// collision with the sentinel would require 2^64-1 advances.
type Epoch uint64

// Unpinned is the published value of a goroutine that is not inside any
// pinned region. It compares greater than every reachable epoch.
const Unpinned = Epoch(^uint64(0))

// ReclaimDistance is the number of global epoch advances that must separate
// an item's retirement tag from the current epoch before the item may be
// destroyed.
const ReclaimDistance = 2

// Next returns the successor epoch.
//
//go:nosplit
func (e Epoch) Next() Epoch {
	return e + 1
}

// Distance returns how many advances separate tag from e, assuming tag was
// read from the global epoch no later than e. The subtraction wraps, which is
// correct for monotonic counters.
//
//go:nosplit
func (e Epoch) Distance(tag Epoch) int64 {
	//nolint:gosec // G115: wrapping difference of monotonic counters.
	return int64(uint64(e) - uint64(tag))
}

// Eligible reports whether an item tagged at tag may be destroyed when the
// global epoch is e.
//
// The comparison is signed: a tag published after e was read (a concurrent
// advance between the collector's epoch load and the producer's Defer) yields
// a negative distance and is never eligible, rather than wrapping to a huge
// positive one.
//
//go:nosplit
func Eligible(e, tag Epoch) bool {
	return e.Distance(tag) >= ReclaimDistance
}
