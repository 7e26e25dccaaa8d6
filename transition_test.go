package asupersync

import "testing"

func TestRegionTransitionCheckLegalArcs(t *testing.T) {
	legal := [][2]RegionState{
		{RegionOpen, RegionClosing},
		{RegionClosing, RegionDraining},
		{RegionClosing, RegionFinalizing},
		{RegionDraining, RegionFinalizing},
		{RegionFinalizing, RegionClosed},
	}
	for _, arc := range legal {
		if err := regionTransitionCheck("test", arc[0], arc[1]); err != nil {
			t.Errorf("regionTransitionCheck(%s -> %s) = %v, want nil", arc[0], arc[1], err)
		}
	}
}

func TestRegionTransitionCheckIllegalArcs(t *testing.T) {
	illegal := [][2]RegionState{
		{RegionOpen, RegionDraining},
		{RegionOpen, RegionFinalizing},
		{RegionOpen, RegionClosed},
		{RegionClosed, RegionOpen},
		{RegionDraining, RegionClosing},
	}
	for _, arc := range illegal {
		if err := regionTransitionCheck("test", arc[0], arc[1]); StatusOf(err) != StatusInvalidTransition {
			t.Errorf("regionTransitionCheck(%s -> %s) status = %s, want %s", arc[0], arc[1], StatusOf(err), StatusInvalidTransition)
		}
	}
}

func TestRegionTransitionCheckSelfRejected(t *testing.T) {
	if err := regionTransitionCheck("test", RegionOpen, RegionOpen); err == nil {
		t.Error("region self-transition should be rejected")
	}
}

func TestTaskTransitionCheckSelfArcs(t *testing.T) {
	selfArcs := []TaskState{TaskCancelRequested, TaskCancelling, TaskFinalizing}
	for _, s := range selfArcs {
		isSelf, err := taskTransitionCheck("test", s, s)
		if err != nil {
			t.Errorf("taskTransitionCheck(%s -> %s) = %v, want legal", s, s, err)
		}
		if !isSelf {
			t.Errorf("taskTransitionCheck(%s -> %s) isSelfArc = false, want true", s, s)
		}
	}
}

func TestTaskTransitionCheckForwardArcs(t *testing.T) {
	tests := []struct {
		from, to TaskState
	}{
		{TaskCreated, TaskRunning},
		{TaskCreated, TaskCancelRequested},
		{TaskCreated, TaskCompleted},
		{TaskRunning, TaskCancelRequested},
		{TaskRunning, TaskCompleted},
		{TaskCancelRequested, TaskCancelling},
		{TaskCancelRequested, TaskCompleted},
		{TaskCancelling, TaskFinalizing},
		{TaskCancelling, TaskCompleted},
		{TaskFinalizing, TaskCompleted},
	}
	for _, tt := range tests {
		isSelf, err := taskTransitionCheck("test", tt.from, tt.to)
		if err != nil {
			t.Errorf("taskTransitionCheck(%s -> %s) = %v, want legal", tt.from, tt.to, err)
		}
		if isSelf {
			t.Errorf("taskTransitionCheck(%s -> %s) should not be a self-arc", tt.from, tt.to)
		}
	}
}

func TestTaskTransitionCheckIllegal(t *testing.T) {
	illegal := [][2]TaskState{
		{TaskCompleted, TaskRunning},
		{TaskRunning, TaskFinalizing},
		{TaskCreated, TaskFinalizing},
		{TaskFinalizing, TaskRunning},
	}
	for _, arc := range illegal {
		if _, err := taskTransitionCheck("test", arc[0], arc[1]); StatusOf(err) != StatusInvalidTransition {
			t.Errorf("taskTransitionCheck(%s -> %s) status = %s, want %s", arc[0], arc[1], StatusOf(err), StatusInvalidTransition)
		}
	}
}

func TestObligationTransitionCheck(t *testing.T) {
	if err := obligationTransitionCheck("test", ObligationReserved, ObligationCommitted); err != nil {
		t.Errorf("Reserved -> Committed should be legal: %v", err)
	}
	if err := obligationTransitionCheck("test", ObligationReserved, ObligationAborted); err != nil {
		t.Errorf("Reserved -> Aborted should be legal: %v", err)
	}
	if err := obligationTransitionCheck("test", ObligationReserved, ObligationLeaked); err != nil {
		t.Errorf("Reserved -> Leaked should be legal: %v", err)
	}
}

func TestObligationTransitionCheckAlreadyResolved(t *testing.T) {
	terminal := []ObligationState{ObligationCommitted, ObligationAborted, ObligationLeaked}
	for _, s := range terminal {
		if err := obligationTransitionCheck("test", s, ObligationCommitted); StatusOf(err) != StatusObligationAlreadyResolved {
			t.Errorf("re-resolving from %s status = %s, want %s", s, StatusOf(err), StatusObligationAlreadyResolved)
		}
	}
}

func TestWitnessPhaseCheck(t *testing.T) {
	if err := witnessPhaseCheck("test", PhaseRequested, PhaseCancelling); err != nil {
		t.Errorf("forward phase move should be legal: %v", err)
	}
	if err := witnessPhaseCheck("test", PhaseRequested, PhaseRequested); err != nil {
		t.Errorf("same-phase move should be legal: %v", err)
	}
	if err := witnessPhaseCheck("test", PhaseCancelling, PhaseRequested); StatusOf(err) != StatusWitnessPhaseRegression {
		t.Errorf("phase regression status = %s, want %s", StatusOf(err), StatusWitnessPhaseRegression)
	}
}

func TestStateStringers(t *testing.T) {
	if got := RegionOpen.String(); got != "Open" {
		t.Errorf("RegionOpen.String() = %q", got)
	}
	if got := TaskCompleted.String(); got != "Completed" {
		t.Errorf("TaskCompleted.String() = %q", got)
	}
	if got := ObligationLeaked.String(); got != "Leaked" {
		t.Errorf("ObligationLeaked.String() = %q", got)
	}
	if got := PhaseFinalizing.String(); got != "Finalizing" {
		t.Errorf("PhaseFinalizing.String() = %q", got)
	}
}

func TestObligationStateTerminal(t *testing.T) {
	if ObligationReserved.terminal() {
		t.Error("ObligationReserved should not be terminal")
	}
	for _, s := range []ObligationState{ObligationCommitted, ObligationAborted, ObligationLeaked} {
		if !s.terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
