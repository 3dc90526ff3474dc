// Package engine implements the core of the epoch-based reclamation runtime:
// the goroutine registry, the global/local epoch tracking protocol, the
// pin/unpin scopes, garbage submission, and the incremental collector.
//
// The engine lets lock-free data structures unlink nodes with a single atomic
// operation and hand them over for deferred destruction. Destruction happens
// only after the global epoch has advanced twice past the retirement tag,
// which guarantees that no goroutine pinned at or before retirement can still
// observe the node.
//
// Hot path budget: an outermost pin costs one goroutine-ID read, one map
// load, one epoch load and one store (plus a re-validating load that stands
// in for a full fence). Nested pins touch a depth counter only. There is no
// CAS on the pin path; the only CAS loops are registry insertion and the
// global pool queues.
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/kolkov/epochgc/internal/gc/bin"
	"github.com/kolkov/epochgc/internal/gc/epoch"
	"github.com/kolkov/epochgc/internal/gc/queue"
)

// defaultDeferBudget is the opportunistic collection budget spent by every
// Defer call. Each Defer produces one item and attempts to reclaim up to this
// many, so collection throughput exceeds production throughput in steady
// state and garbage cannot pile up unboundedly in thread-local storage.
const defaultDeferBudget = 4

// cleanupEvery is the registration-count cadence of the dead-goroutine scan.
// Registration is rare (once per goroutine), so the scan amortizes to noise.
const cleanupEvery = 64

// ReclaimablePool receives payloads of destructor-less items after they
// become reclaimable, so hosts can recycle the memory (typically a sync.Pool
// wrapper). It is intentionally type-erased.
//
// Items submitted with a destructor never reach the pool: their destructor
// owns final disposition.
type ReclaimablePool interface {
	PutAny(any)
}

// Engine is one reclamation domain: a global epoch, a registry of
// per-goroutine entries, and a tiered garbage store.
//
// All methods are safe for concurrent use. The zero value is not usable;
// construct with New.
type Engine struct {
	// global is the shared epoch counter. Mutated only by the single-CAS
	// path in tryAdvance.
	global atomic.Uint64

	// head is the registry: an intrusive lock-free singly-linked list of
	// entries. Insertion CASes the head; entries are never removed eagerly,
	// only unlinked once their retirement passed through the garbage path.
	head atomic.Pointer[Entry]

	// byGID maps goroutine ID to that goroutine's Entry for the pin fast
	// path. Reads are lock-free; writes happen once per goroutine.
	byGID sync.Map // int64 -> *Entry

	// pool holds the global overflow sequences, one unbounded MPMC queue per
	// size class. Large items live only here.
	pool [bin.NumClasses]*queue.Queue[*bin.Item]

	// reclaim optionally holds a reclaimHolder wrapping the host's pool.
	reclaim atomic.Value

	// unlinkMu serializes physical removal of retired entries from the
	// registry list. Unlinking is cold teardown work; traversals stay
	// lock-free and tolerate concurrent unlinks.
	unlinkMu sync.Mutex

	// cleanupBusy gates the dead-goroutine scan to one runner at a time.
	cleanupBusy atomic.Bool

	// regCount counts registrations to pace the cleanup scan.
	regCount atomic.Uint32

	// deferBudget is the opportunistic collection budget per Defer.
	deferBudget int

	stats Stats
}

type reclaimHolder struct {
	p ReclaimablePool
}

// New creates an empty reclamation engine.
func New() *Engine {
	e := &Engine{deferBudget: defaultDeferBudget}
	for i := range e.pool {
		e.pool[i] = queue.New[*bin.Item]()
	}
	return e
}

// SetReclaimablePool installs the host's recycling pool. Passing nil removes
// a previously installed pool. Safe to call at any time.
func (e *Engine) SetReclaimablePool(p ReclaimablePool) {
	e.reclaim.Store(reclaimHolder{p: p})
}

func (e *Engine) reclaimPool() ReclaimablePool {
	if h, ok := e.reclaim.Load().(reclaimHolder); ok {
		return h.p
	}
	return nil
}

// Epoch returns the current global epoch. Diagnostic only.
func (e *Engine) Epoch() epoch.Epoch {
	return epoch.Epoch(e.global.Load())
}

// PoolLen returns the number of items staged in the global pool sequence for
// the given class. Diagnostic only; the value is immediately stale.
func (e *Engine) PoolLen(c bin.SizeClass) int {
	return e.pool[c].Len()
}
