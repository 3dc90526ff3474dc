package engine

import (
	"sync/atomic"

	"github.com/kolkov/epochgc/internal/gc/bin"
	"github.com/kolkov/epochgc/internal/gc/epoch"
)

// Entry is one goroutine's registration record: its published pin state and
// its local garbage bins.
//
// The local field is the goroutine's sole externally visible pin state:
// epoch.Unpinned means "not pinned", any other value means "pinned, and I
// have observed global epoch = this value". Only the owning goroutine writes
// it; the epoch tracker and cleanup read it.
//
// pinDepth, regionDepth, scope and staging are owner-only and therefore
// unsynchronized. The bins are owner-written; another goroutine touches them
// only after the owner is known dead (deregistration flush).
//
// Entries form an intrusive singly-linked list. An entry's memory is never
// reclaimed while another goroutine might still be traversing the list:
// retirement routes the entry through the engine's own garbage path, and the
// unlink destructor runs only after two epoch advances.
type Entry struct {
	// local is the published "last observed epoch or unpinned" value.
	local atomic.Uint64

	// Pad the published slot away from the rest of the entry so tracker
	// scans do not false-share with the owner's bin traffic.
	_ [56]byte

	next    atomic.Pointer[Entry]
	retired atomic.Bool
	gid     int64

	bins [bin.NumLocalClasses]*bin.Ring

	// Owner-only pin state.
	pinDepth    int
	regionDepth int
	scope       *Scope
	staging     []*bin.Item
}

// newEntry allocates an unpinned entry for gid.
func newEntry(gid int64) *Entry {
	ent := &Entry{gid: gid}
	ent.local.Store(uint64(epoch.Unpinned))
	ent.bins[bin.Small] = bin.NewLocal(bin.Small)
	ent.bins[bin.Medium] = bin.NewLocal(bin.Medium)
	return ent
}

// currentEntry returns the calling goroutine's entry, registering it on
// first use.
func (e *Engine) currentEntry() *Entry {
	gid := getGoroutineID()

	// Fast path: already registered.
	if v, ok := e.byGID.Load(gid); ok {
		return v.(*Entry)
	}
	return e.register(gid)
}

// register creates and links an entry for gid. Called once per goroutine, on
// its first pin; contention on the list head is therefore rare and the CAS
// retry is bounded in practice.
func (e *Engine) register(gid int64) *Entry {
	ent := newEntry(gid)

	for {
		head := e.head.Load()
		ent.next.Store(head)
		if e.head.CompareAndSwap(head, ent) {
			break
		}
	}

	e.byGID.Store(gid, ent)
	e.stats.Registered.Add(1)
	e.maybeCleanup()
	return ent
}

// entryCount walks the registry and counts live (non-retired) entries.
// Diagnostic only.
func (e *Engine) entryCount() int {
	n := 0
	for ent := e.head.Load(); ent != nil; ent = ent.next.Load() {
		if !ent.retired.Load() {
			n++
		}
	}
	return n
}

// unlink physically removes a retired entry from the registry list. It runs
// as the entry's garbage destructor, two epoch advances after retirement, so
// no scan started before retirement can still hold a reference.
//
// Removal is serialized by unlinkMu (teardown is cold); concurrent lock-free
// traversals observe either the old or the new link, and a traverser parked
// on the dead entry still reads a valid next pointer.
func (e *Engine) unlink(dead *Entry) {
	e.unlinkMu.Lock()
	defer e.unlinkMu.Unlock()

	for {
		var prev *Entry
		cur := e.head.Load()
		for cur != nil && cur != dead {
			prev = cur
			cur = cur.next.Load()
		}
		if cur == nil {
			return // already gone
		}
		next := cur.next.Load()
		if prev != nil {
			// Interior links are mutated only under unlinkMu.
			prev.next.Store(next)
			return
		}
		// Removing the head races with register's CAS; retry on failure.
		if e.head.CompareAndSwap(cur, next) {
			return
		}
	}
}
