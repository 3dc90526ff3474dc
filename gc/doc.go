// Package gc provides the public API for the epochgc reclamation runtime.
//
// epochgc is an epoch-based memory reclamation engine for lock-free data
// structures: queues, stacks, deques, skiplists and maps that unlink nodes
// with a single atomic operation and must free them safely later. The engine
// guarantees that a retired node is destroyed only after no goroutine can
// still hold a reference to it, without ever blocking.
//
// # Quick Start
//
// Bracket every access to shared reclaimable memory with Pin, and hand
// unlinked nodes to Defer:
//
//	package main
//
//	import "github.com/kolkov/epochgc/gc"
//
//	func (s *Stack) Pop() (v any) {
//		gc.Pin(func(scope *gc.Scope) {
//			for {
//				top := s.top.Load()
//				if top == nil {
//					return
//				}
//				if s.top.CompareAndSwap(top, top.next.Load()) {
//					v = top.value
//					scope.Defer(top, nil, gc.Small)
//					return
//				}
//			}
//		})
//		return v
//	}
//
// # API Overview
//
// The package provides functions for:
//   - Pinned regions: [Pin], [DelayGC]
//   - Garbage submission: [Scope.Defer]
//   - Collection: [Collect], [Scope.Collect]
//   - Teardown and tuning: [Deregister], [SetReclaimablePool]
//   - Introspection: [Stats], [GetInfo]
//
// # How It Works
//
// The engine keeps one global epoch. Each goroutine, while pinned, publishes
// the epoch it observed; unpinned goroutines publish a sentinel. The epoch
// advances only when every pinned goroutine has observed the current value,
// and a retired item becomes eligible for destruction once the epoch has
// advanced twice past its retirement tag: one advance may be concurrent with
// a goroutine that read the old epoch just before unpinning, so the second
// advance is required for soundness.
//
// Retired items stage in the retiring goroutine's own bins (small/medium) or
// go straight to a global pool (large). Collection is incremental and
// opportunistic: every Defer reclaims a bounded number of eligible items, so
// steady-state reclamation keeps pace with retirement and pause times stay
// bounded.
//
// Pinning costs one epoch load, one store and one re-validating load; there
// is no CAS on the hot path. A goroutine that stalls while pinned delays
// reclamation of garbage retired during its pin, but never blocks other
// goroutines' progress.
//
// # Ownership Rules
//
// A payload passed to [Scope.Defer] is owned by the engine from that moment
// on. Submitting the same payload twice, or touching it after submission, is
// a fatal precondition violation that the engine does not detect at runtime.
// Whether element types must be safe to destroy late is the caller's policy:
// pass a destructor for "destroy and deallocate", or nil for "deallocate
// only".
//
// # Goroutine Lifecycle
//
// Registration is implicit: a goroutine joins the registry on its first Pin.
// Deregistration is implicit too - the engine periodically scans for exited
// goroutines and flushes their remaining garbage to the global pool - but
// hosts that own a teardown point should call [Deregister] for prompt
// reclamation.
package gc
