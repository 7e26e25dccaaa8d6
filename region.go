package asupersync

// regionRecord is the arena payload for a Region (spec §3). Region is
// the unit of structured concurrency: it owns a cleanup stack, a
// capture arena, and counts of its live children, and it only reaches
// Closed once the five-condition quiescence predicate restricted to its
// own subtree holds.
type regionRecord struct {
	handle Handle
	state  RegionState
	parent Handle // zero Handle for the root region

	childTasks   []Handle
	childRegions []Handle

	reservedObligations int      // count of Obligations in Reserved state owned by this region
	obligationHandles   []Handle // every Obligation ever reserved under this region, for leak detection at finalize time

	cleanup *cleanupStack
	capture *captureArena

	poisoned bool
	outcome  Outcome

	insertionSeq uint64 // for deterministic depth-first child ordering
}

func newRegionRecord(h, parent Handle, cleanupCapacity int, captureBuf []byte, seq uint64) *regionRecord {
	return &regionRecord{
		handle:       h,
		state:        RegionOpen,
		parent:       parent,
		cleanup:      newCleanupStack(cleanupCapacity),
		capture:      newCaptureArena(captureBuf),
		insertionSeq: seq,
	}
}

// admitSpawnTask reports whether a task may be spawned into this
// region right now, per the admission-gate table of spec §4.4.
func (r *regionRecord) admitSpawnTask() error {
	if r.poisoned {
		return newError("task_spawn", StatusRegionPoisoned, "region %s is poisoned", r.handle)
	}
	switch r.state {
	case RegionOpen, RegionFinalizing:
		return nil
	default:
		return newError("task_spawn", StatusRegionNotOpen, "region %s is %s, not Open/Finalizing", r.handle, r.state)
	}
}

// admitOpenSubRegion reports whether a sub-region may be opened.
func (r *regionRecord) admitOpenSubRegion() error {
	if r.state != RegionOpen {
		return newError("region_open", StatusRegionNotOpen, "region %s is %s, not Open", r.handle, r.state)
	}
	return nil
}

// admitReserveObligation reports whether an obligation may be reserved.
func (r *regionRecord) admitReserveObligation() error {
	if r.state != RegionOpen {
		return newError("obligation_reserve", StatusRegionNotOpen, "region %s is %s, not Open", r.handle, r.state)
	}
	return nil
}

// admitResolveObligation reports whether an obligation may be resolved
// (commit/abort); this is allowed in every state except Closed.
func (r *regionRecord) admitResolveObligation() error {
	if r.state == RegionClosed {
		return newError("obligation_resolve", StatusRegionClosed, "region %s is Closed", r.handle)
	}
	return nil
}

// admitAccessArena reports whether the capture arena may still be used.
func (r *regionRecord) admitAccessArena() error {
	if r.state == RegionClosed {
		return newError("arena_access", StatusRegionClosed, "region %s is Closed", r.handle)
	}
	return nil
}

// canReachClosed reports whether the region's children have fully
// drained: no live tasks, no live sub-regions. Outstanding Reserved
// obligations deliberately do NOT block this — a region is allowed to
// close with leaked obligations; finalization reclassifies each one
// Leaked and surfaces it in the region's terminal Outcome rather than
// stalling the region forever (spec §4.4/§4.6, and spec §8's
// "region_close_surfaces_leak" scenario). The runtime-wide
// QuiescenceReport (quiescence.go) is the check that DOES treat open
// obligations as blocking, for callers that want to wait for a fully
// clean shutdown rather than force one.
func (r *regionRecord) canReachClosed() bool {
	return len(r.childTasks) == 0 &&
		len(r.childRegions) == 0
}

// fastPathEligible reports whether Closing may transition directly to
// Finalizing: the region currently has no child tasks and no child
// sub-regions. It looks only at the current child lists, so a region
// whose children all completed (tasks) or closed (sub-regions) and were
// detached is eligible as well; whether children ever existed is not
// recorded.
func (r *regionRecord) fastPathEligible() bool {
	return len(r.childTasks) == 0 && len(r.childRegions) == 0
}

// captureArena is a per-region byte-granular bump allocator used to
// host task user-state without per-task heap churn. Grounded on
// spec §3's "capture arena (byte-granular bump allocator)". The
// backing buf is obtained through the Runtime's Allocator host hook
// (§6) rather than a bare make([]byte, n), so a platform supplying a
// static-pool or sealed-allocator implementation governs every capture
// arena a region ever gets, not just its own direct callers.
type captureArena struct {
	buf    []byte
	offset int
}

func newCaptureArena(buf []byte) *captureArena {
	return &captureArena{buf: buf}
}

// Alloc reserves n bytes, 8-byte aligned, returning a slice view into
// the arena or StatusResourceExhausted if the arena is full.
func (a *captureArena) Alloc(n int) ([]byte, error) {
	aligned := (a.offset + 7) &^ 7
	if aligned+n > len(a.buf) {
		return nil, newError("arena_alloc", StatusResourceExhausted, "capture arena exhausted (capacity %d)", len(a.buf))
	}
	out := a.buf[aligned : aligned+n]
	a.offset = aligned + n
	return out, nil
}

// Reset rewinds the arena to empty; called when a region is finalized
// on its way to Closed.
func (a *captureArena) Reset() { a.offset = 0 }

// Used reports the number of bytes currently allocated.
func (a *captureArena) Used() int { return a.offset }
