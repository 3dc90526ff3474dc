package bin

import "sync/atomic"

// Per-class staging limits. A ring's physical capacity is twice its soft
// capacity: the owner spills the oldest half to the global pool whenever the
// soft capacity is exceeded, so the ring itself never fills.
const (
	// SmallSoftCap is the soft capacity of a goroutine's small bin.
	SmallSoftCap = 64

	// MediumSoftCap is the soft capacity of a goroutine's medium bin.
	MediumSoftCap = 32
)

// SoftCap returns the soft capacity for a locally staged class.
func SoftCap(c SizeClass) int {
	if c == Medium {
		return MediumSoftCap
	}
	return SmallSoftCap
}

// Ring is a fixed-size FIFO of retired items.
//
// It is single-writer: only the owning goroutine pushes and pops. The indices
// are still atomic because a dead owner's ring is flushed into the global
// pool by whichever goroutine runs deregistration cleanup, and the atomic
// head store publishes the buffered items to that goroutine.
//
// head and tail sit on separate cache lines so the producer index does not
// false-share with the consumer index.
type Ring struct {
	head  atomic.Uint64
	_pad1 [56]byte
	tail  atomic.Uint64
	_pad2 [56]byte

	buf  []*Item
	mask uint64
}

// NewRing allocates a ring with the given power-of-2 capacity.
func NewRing(pow2 uint64) *Ring {
	if pow2 == 0 || pow2&(pow2-1) != 0 {
		panic("bin: ring capacity must be a power of 2")
	}
	return &Ring{buf: make([]*Item, pow2), mask: pow2 - 1}
}

// NewLocal allocates the ring for a locally staged class, sized at twice the
// class's soft capacity.
func NewLocal(c SizeClass) *Ring {
	//nolint:gosec // G115: soft caps are small positive constants.
	return NewRing(uint64(2 * SoftCap(c)))
}

// Push appends an item at the young end of the ring.
// Returns false if the ring is full.
func (r *Ring) Push(it *Item) bool {
	h := r.head.Load()
	t := r.tail.Load()
	if h-t == uint64(len(r.buf)) {
		return false // full
	}
	r.buf[h&r.mask] = it
	r.head.Store(h + 1)
	return true
}

// Pop removes and returns the oldest item, or nil if the ring is empty.
func (r *Ring) Pop() *Item {
	t := r.tail.Load()
	h := r.head.Load()
	if t == h {
		return nil
	}
	it := r.buf[t&r.mask]
	r.buf[t&r.mask] = nil
	r.tail.Store(t + 1)
	return it
}

// Peek returns the oldest item without removing it, or nil if empty.
//
// Items are pushed with monotonically non-decreasing epoch tags, so if the
// oldest item is not yet eligible for destruction, none behind it are either.
func (r *Ring) Peek() *Item {
	t := r.tail.Load()
	h := r.head.Load()
	if t == h {
		return nil
	}
	return r.buf[t&r.mask]
}

// Len returns the number of items currently stored.
func (r *Ring) Len() int {
	h := r.head.Load()
	t := r.tail.Load()
	return int(h - t)
}

// Cap returns the physical capacity of the ring.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// IsEmpty reports whether the ring holds no items.
func (r *Ring) IsEmpty() bool {
	return r.head.Load() == r.tail.Load()
}
