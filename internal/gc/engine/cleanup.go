package engine

import (
	"runtime"

	"github.com/kolkov/epochgc/internal/gc/bin"
	"github.com/kolkov/epochgc/internal/gc/epoch"
)

// Deregister retires the calling goroutine's entry: its bins flush into the
// global pool and the entry itself is submitted as large garbage whose
// destructor unlinks it from the registry.
//
// Go offers no goroutine-exit hook, so hosts that own a teardown point call
// this explicitly; everyone else is covered by the periodic dead-goroutine
// scan. Must be called outside any Pin or DelayGC region. Calling it for an
// unregistered goroutine is a no-op.
func (e *Engine) Deregister() {
	gid := getGoroutineID()
	v, ok := e.byGID.LoadAndDelete(gid)
	if !ok {
		return
	}
	e.retireEntry(v.(*Entry))
}

// retireEntry marks an entry retired and routes its remaining garbage, and
// the entry itself, into the global pool.
//
// The retired CAS makes retirement idempotent: the explicit Deregister and
// the dead-goroutine scan can race without double-flushing. The bins are
// safe to drain here because the owner is either the caller or dead, and the
// rings' atomic indices publish the buffered items across goroutines.
//
// The entry cannot be freed synchronously - a concurrent tracker scan may
// be parked on it - so it is tagged with the current epoch and pushed to the
// pool's large sequence like any other retired allocation. This also breaks
// the bootstrap cycle: the very first registration has no prior garbage, and
// the pool is process-lifetime storage that needs no entry of its own.
func (e *Engine) retireEntry(ent *Entry) {
	if !ent.retired.CompareAndSwap(false, true) {
		return
	}
	ent.local.Store(uint64(epoch.Unpinned))

	for _, r := range ent.bins {
		for {
			it := r.Pop()
			if it == nil {
				break
			}
			e.pool[it.Class].Enqueue(it)
		}
	}

	e.pool[bin.Large].Enqueue(&bin.Item{
		Payload: ent,
		Dtor:    func(p any) { e.unlink(p.(*Entry)) },
		Epoch:   epoch.Epoch(e.global.Load()),
		Class:   bin.Large,
	})
	e.stats.Retired.Add(1)
}

// maybeCleanup runs the dead-goroutine scan every cleanupEvery
// registrations.
func (e *Engine) maybeCleanup() {
	if e.regCount.Add(1)%cleanupEvery == 0 {
		e.cleanupDeadGoroutines()
	}
}

// cleanupDeadGoroutines retires entries whose owning goroutine no longer
// exists.
//
// Candidates are snapshotted before the liveness dump: a goroutine that
// registers between the snapshot and the dump appears in the dump and is
// kept, and one that dies right after the dump is caught by the next scan.
// A goroutine can never die while pinned (Pin releases via defer on every
// exit path, including runtime.Goexit), so a dead owner's entry is always
// quiescent.
func (e *Engine) cleanupDeadGoroutines() {
	if !e.cleanupBusy.CompareAndSwap(false, true) {
		return // another goroutine is already scanning
	}
	defer e.cleanupBusy.Store(false)

	type candidate struct {
		gid int64
		ent *Entry
	}
	var candidates []candidate
	e.byGID.Range(func(k, v any) bool {
		candidates = append(candidates, candidate{gid: k.(int64), ent: v.(*Entry)})
		return true
	})
	if len(candidates) == 0 {
		return
	}

	live := liveGoroutineIDs()
	for _, c := range candidates {
		if _, ok := live[c.gid]; ok {
			continue
		}
		e.byGID.Delete(c.gid)
		e.retireEntry(c.ent)
	}
}

// liveGoroutineIDs returns the set of goroutine IDs currently known to the
// runtime, parsed from a full stack dump.
//
// The dump costs roughly a millisecond per thousand goroutines, which is why
// the scan runs on a registration cadence rather than per operation.
func liveGoroutineIDs() map[int64]struct{} {
	buf := make([]byte, 1<<16)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, 2*len(buf))
	}

	live := make(map[int64]struct{})
	lineStart := true
	for i := 0; i < len(buf); i++ {
		if lineStart {
			if gid := parseGID(buf[i:]); gid > 0 {
				live[gid] = struct{}{}
			}
			lineStart = false
		}
		if buf[i] == '\n' {
			lineStart = true
		}
	}
	return live
}
