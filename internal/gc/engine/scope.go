package engine

// Scope is the token representing an active pinned region. It carries the
// identity of the pinned goroutine's entry so Defer and Collect need no
// repeated lookups.
//
// Scopes are stack-disciplined: only the outermost Pin on a goroutine
// announces and fences; nested Pins share the outer Scope. A Scope must not
// escape the body it was handed to.
type Scope struct {
	eng *Engine
	ent *Entry
}

// Pin runs body with the calling goroutine pinned.
//
// While pinned, the goroutine may access shared reclaimable memory: nothing
// retired during the pinned interval is destroyed until after the outermost
// unpin. Pin is reentrant; inner calls only bump a depth counter and reuse
// the outer Scope.
//
// Release is guaranteed on all exit paths. If body panics, the unpin
// announce and the staging flush still run before the panic propagates.
func (e *Engine) Pin(body func(*Scope)) {
	ent := e.currentEntry()

	if ent.pinDepth > 0 {
		// Reentrant no-op for the announce step.
		ent.pinDepth++
		defer func() { ent.pinDepth-- }()
		body(ent.scope)
		return
	}

	e.pinAnnounce(ent)
	e.stats.Pins.Add(1)

	s := &Scope{eng: e, ent: ent}
	ent.scope = s
	ent.pinDepth = 1
	ent.regionDepth++

	defer func() {
		ent.regionDepth--
		ent.pinDepth = 0
		ent.scope = nil
		e.unpinAnnounce(ent)
		// Garbage gathered while this region was active already passed
		// eligibility; destroy it unconditionally once the region ends.
		// Inside an enclosing DelayGC the flush belongs to that region.
		if ent.regionDepth == 0 {
			e.flushStaging(ent)
		}
	}()

	body(s)
}

// DelayGC suppresses destruction for the duration of body without blocking
// collection: anything the collector gathers while inside is staged and
// destroyed once body returns.
//
// Pin implies these semantics for its own duration, so nesting DelayGC
// inside Pin is a strict refinement - the staged items simply follow the
// outermost region's flush.
func (e *Engine) DelayGC(body func()) {
	ent := e.currentEntry()
	ent.regionDepth++

	defer func() {
		ent.regionDepth--
		if ent.regionDepth == 0 {
			e.flushStaging(ent)
		}
	}()

	body()
}

// flushStaging destroys every item gathered into the entry's staging list.
// Runs only at the exit of the outermost region on the owning goroutine.
func (e *Engine) flushStaging(ent *Entry) {
	items := ent.staging
	ent.staging = nil
	for _, it := range items {
		e.destroy(it)
	}
}
