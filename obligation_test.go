package asupersync

import "testing"

func TestObligationRecordCommit(t *testing.T) {
	o := newObligationRecord(NewHandle(KindObligation, 0, 0, 1), NewHandle(KindRegion, 0, 0, 1), "file_descriptor", 3, 1)
	if o.state != ObligationReserved {
		t.Fatalf("new obligation state = %s, want %s", o.state, ObligationReserved)
	}
	if err := o.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if o.state != ObligationCommitted {
		t.Errorf("state after Commit = %s, want %s", o.state, ObligationCommitted)
	}
}

func TestObligationRecordAbort(t *testing.T) {
	o := newObligationRecord(NewHandle(KindObligation, 0, 0, 1), NewHandle(KindRegion, 0, 0, 1), "lock_slot", 1, 1)
	if err := o.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if o.state != ObligationAborted {
		t.Errorf("state after Abort = %s, want %s", o.state, ObligationAborted)
	}
}

func TestObligationRecordLeak(t *testing.T) {
	o := newObligationRecord(NewHandle(KindObligation, 0, 0, 1), NewHandle(KindRegion, 0, 0, 1), "lock_slot", 1, 1)
	if err := o.Leak(); err != nil {
		t.Fatalf("Leak: %v", err)
	}
	if o.state != ObligationLeaked {
		t.Errorf("state after Leak = %s, want %s", o.state, ObligationLeaked)
	}
}

func TestObligationRecordResolveOnceOnly(t *testing.T) {
	o := newObligationRecord(NewHandle(KindObligation, 0, 0, 1), NewHandle(KindRegion, 0, 0, 1), "lock_slot", 1, 1)
	if err := o.Commit(); err != nil {
		t.Fatalf("first Commit: %v", err)
	}
	if err := o.Abort(); StatusOf(err) != StatusObligationAlreadyResolved {
		t.Errorf("second resolve status = %s, want %s", StatusOf(err), StatusObligationAlreadyResolved)
	}
	if o.state != ObligationCommitted {
		t.Errorf("state should remain Committed after rejected re-resolve, got %s", o.state)
	}
}
