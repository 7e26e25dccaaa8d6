package asupersync

import "testing"

func TestCleanupStackDrainsLIFO(t *testing.T) {
	c := newCleanupStack(4)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		if _, err := c.Push(func(ctx any) { order = append(order, ctx.(int)) }, i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	c.Drain()
	want := []int{2, 1, 0}
	if len(order) != len(want) {
		t.Fatalf("Drain order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Drain order[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}

func TestCleanupStackDrainIsIdempotent(t *testing.T) {
	c := newCleanupStack(2)
	calls := 0
	_, _ = c.Push(func(ctx any) { calls++ }, nil)
	c.Drain()
	c.Drain()
	if calls != 1 {
		t.Errorf("Drain invoked entry %d times, want 1", calls)
	}
	if !c.Drained() {
		t.Error("Drained() should report true after Drain")
	}
}

func TestCleanupStackPopSkipsInvocation(t *testing.T) {
	c := newCleanupStack(2)
	called := false
	h, _ := c.Push(func(ctx any) { called = true }, nil)
	if err := c.Pop(h); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	c.Drain()
	if called {
		t.Error("a popped entry must not be invoked by Drain")
	}
}

func TestCleanupStackPopUnknownHandle(t *testing.T) {
	c := newCleanupStack(2)
	if err := c.Pop(cleanupHandle(5)); StatusOf(err) != StatusNotFound {
		t.Errorf("Pop out-of-range handle status = %s, want %s", StatusOf(err), StatusNotFound)
	}
	h, _ := c.Push(func(ctx any) {}, nil)
	_ = c.Pop(h)
	if err := c.Pop(h); StatusOf(err) != StatusNotFound {
		t.Errorf("double Pop status = %s, want %s", StatusOf(err), StatusNotFound)
	}
}

func TestCleanupStackPushAtCapacity(t *testing.T) {
	c := newCleanupStack(1)
	if _, err := c.Push(func(ctx any) {}, nil); err != nil {
		t.Fatalf("first Push: %v", err)
	}
	if _, err := c.Push(func(ctx any) {}, nil); StatusOf(err) != StatusResourceExhausted {
		t.Errorf("Push past capacity status = %s, want %s", StatusOf(err), StatusResourceExhausted)
	}
}

func TestCleanupStackLenCountsDeadEntries(t *testing.T) {
	c := newCleanupStack(4)
	h, _ := c.Push(func(ctx any) {}, nil)
	_, _ = c.Push(func(ctx any) {}, nil)
	_ = c.Pop(h)
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2 (dead entries still count)", got)
	}
}

func TestCaptureArenaAllocAlignsAndExhausts(t *testing.T) {
	a := newCaptureArena(make([]byte, 16))
	b1, err := a.Alloc(3)
	if err != nil {
		t.Fatalf("first Alloc: %v", err)
	}
	if len(b1) != 3 {
		t.Errorf("len(b1) = %d, want 3", len(b1))
	}
	if a.Used() != 3 {
		t.Errorf("Used() after first alloc = %d, want 3 (only the start of an allocation is aligned)", a.Used())
	}
	if _, err := a.Alloc(9); StatusOf(err) != StatusResourceExhausted {
		t.Errorf("over-capacity Alloc status = %s, want %s", StatusOf(err), StatusResourceExhausted)
	}
	a.Reset()
	if a.Used() != 0 {
		t.Errorf("Used() after Reset = %d, want 0", a.Used())
	}
}
