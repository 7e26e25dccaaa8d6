package asupersync

import (
	"errors"
	"testing"
)

func TestErrorLedgerRecordErrIgnoresNil(t *testing.T) {
	l := newErrorLedger()
	l.recordErr("op", "file.go", 1, nil)
	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", l.Len())
	}
}

func TestErrorLedgerRecordErrKernelError(t *testing.T) {
	l := newErrorLedger()
	l.recordErr("spawn_task", "runtime.go", 42, newError("spawn_task", StatusFull, "arena full"))
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	e := l.Entries()[0]
	if e.Operation != "spawn_task" || e.File != "runtime.go" || e.Line != 42 || e.Status != StatusFull {
		t.Errorf("recorded entry = %+v, unexpected field", e)
	}
	if e.Sequence != 1 {
		t.Errorf("Sequence = %d, want 1", e.Sequence)
	}
}

func TestErrorLedgerRecordErrNonKernelError(t *testing.T) {
	l := newErrorLedger()
	l.recordErr("op", "file.go", 1, errors.New("boom"))
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	if l.Entries()[0].Status != StatusInvalidState {
		t.Errorf("a non-KernelError should be recorded under StatusInvalidState, got %s", l.Entries()[0].Status)
	}
}

func TestErrorLedgerWraparoundOverwritesOldest(t *testing.T) {
	l := newErrorLedger()
	for i := 0; i < errorLedgerCapacity+3; i++ {
		l.record("op", "f.go", i, StatusFull, "msg")
	}
	if l.Len() != errorLedgerCapacity {
		t.Fatalf("Len() = %d, want %d", l.Len(), errorLedgerCapacity)
	}
	entries := l.Entries()
	if entries[0].Line != 3 {
		t.Errorf("oldest surviving entry Line = %d, want 3 (entries 0,1,2 should have been overwritten)", entries[0].Line)
	}
	if entries[len(entries)-1].Line != errorLedgerCapacity+2 {
		t.Errorf("newest entry Line = %d, want %d", entries[len(entries)-1].Line, errorLedgerCapacity+2)
	}
}

func TestErrorLedgerEntriesOrderBeforeWraparound(t *testing.T) {
	l := newErrorLedger()
	l.record("a", "f.go", 1, StatusFull, "m1")
	l.record("b", "f.go", 2, StatusEmpty, "m2")
	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("Len() = %d, want 2", len(entries))
	}
	if entries[0].Operation != "a" || entries[1].Operation != "b" {
		t.Errorf("entries out of order: %+v", entries)
	}
	if entries[0].Sequence >= entries[1].Sequence {
		t.Errorf("Sequence should be monotonically increasing: %d, %d", entries[0].Sequence, entries[1].Sequence)
	}
}
