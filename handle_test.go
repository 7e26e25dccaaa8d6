package asupersync

import "testing"

func TestHandlePackUnpack(t *testing.T) {
	h := NewHandle(KindTask, 0xBEEF, 0x1234, 0x5678)
	if got := h.Kind(); got != KindTask {
		t.Errorf("Kind() = %s, want %s", got, KindTask)
	}
	if got := h.StateMask(); got != 0xBEEF {
		t.Errorf("StateMask() = %x, want %x", got, 0xBEEF)
	}
	if got := h.Generation(); got != 0x1234 {
		t.Errorf("Generation() = %x, want %x", got, 0x1234)
	}
	if got := h.Slot(); got != 0x5678 {
		t.Errorf("Slot() = %x, want %x", got, 0x5678)
	}
}

func TestHandleIsNil(t *testing.T) {
	var zero Handle
	if !zero.IsNil() {
		t.Error("zero Handle should be IsNil")
	}
	h := NewHandle(KindRegion, 0, 0, 0)
	if h.IsNil() {
		t.Error("a Handle with a valid Kind should not be IsNil")
	}
}

func TestHandleWithStateMask(t *testing.T) {
	h := NewHandle(KindChannel, 1, 2, 3)
	h2 := h.withStateMask(9)
	if h2.StateMask() != 9 {
		t.Errorf("withStateMask(9).StateMask() = %d, want 9", h2.StateMask())
	}
	if h2.Kind() != h.Kind() || h2.Generation() != h.Generation() || h2.Slot() != h.Slot() {
		t.Errorf("withStateMask must only change the state mask: got %v from %v", h2, h)
	}
}

func TestEntityKindString(t *testing.T) {
	tests := map[EntityKind]string{
		KindRegion:        "Region",
		KindTask:          "Task",
		KindObligation:    "Obligation",
		KindCancelWitness: "CancelWitness",
		KindTimer:         "Timer",
		KindChannel:       "Channel",
		EntityKind(9999):  "Unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("EntityKind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestHandleString(t *testing.T) {
	h := NewHandle(KindRegion, 0, 2, 7)
	want := "Region#7.2"
	if got := h.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
