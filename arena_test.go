package asupersync

import "testing"

func TestArenaAllocLookupFree(t *testing.T) {
	a := newArena[int](KindTask, 4, false)
	h, v, err := a.Alloc("test_alloc")
	if err != nil {
		t.Fatalf("Alloc error: %v", err)
	}
	*v = 42

	got, err := a.Lookup("test_lookup", h)
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if *got != 42 {
		t.Errorf("Lookup value = %d, want 42", *got)
	}

	if err := a.Free("test_free", h); err != nil {
		t.Fatalf("Free error: %v", err)
	}
	if _, err := a.Lookup("test_lookup_after_free", h); StatusOf(err) != StatusStaleHandle {
		t.Errorf("Lookup after Free status = %s, want %s", StatusOf(err), StatusStaleHandle)
	}
}

func TestArenaExhaustion(t *testing.T) {
	a := newArena[int](KindRegion, 2, false)
	if _, _, err := a.Alloc("a"); err != nil {
		t.Fatalf("first Alloc: %v", err)
	}
	if _, _, err := a.Alloc("b"); err != nil {
		t.Fatalf("second Alloc: %v", err)
	}
	if _, _, err := a.Alloc("c"); StatusOf(err) != StatusResourceExhausted {
		t.Errorf("Alloc past capacity status = %s, want %s", StatusOf(err), StatusResourceExhausted)
	}
}

func TestArenaReclaimReuseBumpsGeneration(t *testing.T) {
	a := newArena[int](KindObligation, 1, false)
	h1, _, err := a.Alloc("alloc1")
	if err != nil {
		t.Fatalf("alloc1: %v", err)
	}
	if err := a.Free("free1", h1); err != nil {
		t.Fatalf("free1: %v", err)
	}
	h2, _, err := a.Alloc("alloc2")
	if err != nil {
		t.Fatalf("alloc2: %v", err)
	}
	if h1.Slot() != h2.Slot() {
		t.Fatalf("expected the single free slot to be reused: %v vs %v", h1, h2)
	}
	if h1.Generation() == h2.Generation() {
		t.Errorf("reclaimed slot should bump generation: both are %d", h1.Generation())
	}
	if _, err := a.Lookup("stale_check", h1); StatusOf(err) != StatusStaleHandle {
		t.Errorf("old handle after reuse should be stale, got %s", StatusOf(err))
	}
}

func TestArenaQuarantineNeverReusesSlot(t *testing.T) {
	a := newArena[int](KindObligation, 1, true)
	h1, _, err := a.Alloc("alloc1")
	if err != nil {
		t.Fatalf("alloc1: %v", err)
	}
	if err := a.Free("free1", h1); err != nil {
		t.Fatalf("free1: %v", err)
	}
	if _, _, err := a.Alloc("alloc2"); StatusOf(err) != StatusResourceExhausted {
		t.Errorf("quarantined arena should never reuse a freed slot, got status %s", StatusOf(err))
	}
}

func TestArenaLookupWrongKind(t *testing.T) {
	a := newArena[int](KindTask, 2, false)
	h, _, _ := a.Alloc("alloc")
	wrongKind := NewHandle(KindRegion, h.StateMask(), h.Generation(), h.Slot())
	if _, err := a.Lookup("lookup", wrongKind); StatusOf(err) != StatusInvalidArgument {
		t.Errorf("mismatched-kind Lookup status = %s, want %s", StatusOf(err), StatusInvalidArgument)
	}
}

func TestArenaLookupOutOfBounds(t *testing.T) {
	a := newArena[int](KindTask, 2, false)
	oob := NewHandle(KindTask, 0, 0, 50)
	if _, err := a.Lookup("lookup", oob); StatusOf(err) != StatusNotFound {
		t.Errorf("out-of-bounds Lookup status = %s, want %s", StatusOf(err), StatusNotFound)
	}
}

func TestArenaLenAndCap(t *testing.T) {
	a := newArena[int](KindTask, 8, false)
	if got := a.Cap(); got != 8 {
		t.Errorf("Cap() = %d, want 8", got)
	}
	h1, _, _ := a.Alloc("a")
	_, _, _ = a.Alloc("b")
	if got := a.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	_ = a.Free("free", h1)
	if got := a.Len(); got != 1 {
		t.Errorf("Len() after free = %d, want 1", got)
	}
}

func TestNewArenaPanicsOnInvalidCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero capacity")
		}
	}()
	newArena[int](KindTask, 0, false)
}
