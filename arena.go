package asupersync

// arenaSlot is one row of a fixed-capacity arena: a generation counter,
// a liveness flag, and the entity payload. Grounded on
// eventloop/registry.go's id-keyed table-with-liveness-check shape,
// replacing its weak-pointer GC scavenging (promises are reclaimed when
// collected or settled) with the kernel's deterministic reclaim-on-
// drain discipline: a slot is freed explicitly by the owning state
// machine, never by a garbage collector.
type arenaSlot[T any] struct {
	generation uint16
	epoch      uint64 // monotonic stamp set on Free, never transmitted; not read by quarantine, which uses the flag below
	live       bool
	quarantine bool // Debug profile only: slot permanently retired after first reclaim
	value      T
}

// arena is a fixed-capacity, generation-safe slot table for one entity
// kind. Allocation and lookup are O(1): a free list tracks vacant
// slots, and lookup validates the full (kind, bounds, generation)
// tuple before returning a pointer to the payload.
type arena[T any] struct {
	kind       EntityKind
	slots      []arenaSlot[T]
	freeList   []uint16
	nextEpoch  uint64
	quarantine bool // Debug profile: never reuse a reclaimed slot
	capacity   int
}

// newArena constructs an arena with a fixed capacity. quarantine
// enables the Debug-profile slot-retirement policy of spec §6 ("optional
// slot quarantine that prevents slot reuse to amplify stale-handle
// detection").
func newArena[T any](kind EntityKind, capacity int, quarantine bool) *arena[T] {
	if capacity <= 0 || capacity > 1<<16 {
		panic("asupersync: arena capacity must be in (0, 65536]")
	}
	a := &arena[T]{
		kind:       kind,
		slots:      make([]arenaSlot[T], capacity),
		freeList:   make([]uint16, capacity),
		quarantine: quarantine,
		capacity:   capacity,
	}
	for i := 0; i < capacity; i++ {
		a.freeList[i] = uint16(capacity - 1 - i) // pop from end == ascending slot order
	}
	return a
}

// Alloc reserves a free slot, returning its Handle and a pointer to the
// zero-valued payload for the caller to initialize. Returns
// StatusResourceExhausted (failure-atomic: no state changes) when the
// arena is at capacity.
func (a *arena[T]) Alloc(op string) (Handle, *T, error) {
	n := len(a.freeList)
	if n == 0 {
		return 0, nil, newError(op, StatusResourceExhausted, "%s arena exhausted (capacity %d)", a.kind, a.capacity)
	}
	idx := a.freeList[n-1]
	a.freeList = a.freeList[:n-1]

	slot := &a.slots[idx]
	var zero T
	slot.value = zero
	slot.live = true
	slot.quarantine = false

	h := NewHandle(a.kind, 0, slot.generation, idx)
	return h, &slot.value, nil
}

// Lookup validates h against the arena and, if valid, returns a pointer
// to the live payload. A mismatched kind yields StatusInvalidArgument,
// an out-of-bounds slot yields StatusNotFound, and a stale generation
// or a dead (freed or never-allocated) slot yields StatusStaleHandle.
func (a *arena[T]) Lookup(op string, h Handle) (*T, error) {
	if h.Kind() != a.kind {
		return nil, newError(op, StatusInvalidArgument, "handle kind %s does not match arena kind %s", h.Kind(), a.kind)
	}
	idx := h.Slot()
	if int(idx) >= len(a.slots) {
		return nil, newError(op, StatusNotFound, "slot %d out of bounds (capacity %d)", idx, a.capacity)
	}
	slot := &a.slots[idx]
	if !slot.live || slot.generation != h.Generation() {
		return nil, newError(op, StatusStaleHandle, "stale handle %s (current generation %d, live=%v)", h, slot.generation, slot.live)
	}
	return &slot.value, nil
}

// Free reclaims idx's slot, bumping its generation (wrapping) so any
// outstanding Handle referencing the old generation is rejected on next
// Lookup. Under Debug-profile quarantine the slot is never returned to
// the free list, trading capacity for amplified stale-handle detection.
func (a *arena[T]) Free(op string, h Handle) error {
	if h.Kind() != a.kind {
		return newError(op, StatusInvalidArgument, "handle kind %s does not match arena kind %s", h.Kind(), a.kind)
	}
	idx := h.Slot()
	if int(idx) >= len(a.slots) {
		return newError(op, StatusNotFound, "slot %d out of bounds", idx)
	}
	slot := &a.slots[idx]
	if !slot.live || slot.generation != h.Generation() {
		return newError(op, StatusStaleHandle, "stale handle %s on free", h)
	}
	slot.live = false
	slot.generation++ // wrapping add on uint16 overflow
	a.nextEpoch++
	slot.epoch = a.nextEpoch

	if a.quarantine {
		slot.quarantine = true
		return nil
	}
	a.freeList = append(a.freeList, idx)
	return nil
}

// Len reports the number of currently-live slots.
func (a *arena[T]) Len() int {
	n := 0
	for i := range a.slots {
		if a.slots[i].live {
			n++
		}
	}
	return n
}

// Cap reports the arena's fixed capacity.
func (a *arena[T]) Cap() int { return a.capacity }
