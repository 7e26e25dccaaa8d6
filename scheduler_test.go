package asupersync

import "testing"

func TestSchedulerCancelLaneHasPriority(t *testing.T) {
	s := NewScheduler(NewDetRng(1))
	readyTask := NewHandle(KindTask, 0, 0, 1)
	cancelTask := NewHandle(KindTask, 0, 0, 2)
	s.Enqueue(laneReady, readyTask, PriorityNormal, 1)
	s.Enqueue(laneCancel, cancelTask, PriorityNormal, 2)

	task, sugg, ok := s.Next()
	if !ok || task != cancelTask {
		t.Fatalf("Next() = %v, want the Cancel-lane task to dispatch first", task)
	}
	if sugg.lane != laneCancel {
		t.Errorf("governorSuggestion.lane = %s, want %s", sugg.lane, laneCancel)
	}
}

func TestSchedulerLaneOrderWithinPriorityIsFIFO(t *testing.T) {
	s := NewScheduler(NewDetRng(1))
	first := NewHandle(KindTask, 0, 0, 1)
	second := NewHandle(KindTask, 0, 0, 2)
	s.Enqueue(laneReady, first, PriorityNormal, 1)
	s.Enqueue(laneReady, second, PriorityNormal, 2)

	task1, _, _ := s.Next()
	task2, _, _ := s.Next()
	if task1 != first || task2 != second {
		t.Errorf("equal-priority Ready tasks should dispatch in insertion order, got %v then %v", task1, task2)
	}
}

func TestSchedulerHigherPriorityJumpsQueue(t *testing.T) {
	s := NewScheduler(NewDetRng(1))
	low := NewHandle(KindTask, 0, 0, 1)
	high := NewHandle(KindTask, 0, 0, 2)
	s.Enqueue(laneReady, low, PriorityLow, 1)
	s.Enqueue(laneReady, high, PriorityCritical, 2)

	task, _, _ := s.Next()
	if task != high {
		t.Errorf("Next() = %v, want the higher-priority task despite later insertion", task)
	}
}

func TestSchedulerGovernorForcesFairnessAfterQuota(t *testing.T) {
	s := NewScheduler(NewDetRng(1))
	timedTask := NewHandle(KindTask, 0, 0, 99)
	s.Enqueue(laneTimed, timedTask, PriorityNormal, 0)
	for i := 0; i < cancelFairnessQuota+1; i++ {
		s.Enqueue(laneCancel, NewHandle(KindTask, 0, 0, uint16(i+1)), PriorityNormal, uint64(i+1))
	}

	var lastLane laneKind
	var forcedSeen bool
	for i := 0; i < cancelFairnessQuota; i++ {
		_, sugg, ok := s.Next()
		if !ok {
			t.Fatalf("Next() ran out of entries at iteration %d", i)
		}
		lastLane = sugg.lane
	}
	if lastLane != laneCancel {
		t.Fatalf("first %d dispatches should all be Cancel, last was %s", cancelFairnessQuota, lastLane)
	}

	task, sugg, ok := s.Next()
	if !ok {
		t.Fatal("Next() should still have the Timed task available")
	}
	if task != timedTask {
		t.Errorf("after the quota is exhausted, the governor should force a Timed dispatch, got %v", task)
	}
	if !sugg.forced {
		t.Error("governorSuggestion.forced should be true for the quota-forced dispatch")
	}
	forcedSeen = sugg.forced
	if !forcedSeen {
		t.Error("expected a forced dispatch")
	}
}

func TestSchedulerCancelStreakResetsAfterForcedDispatch(t *testing.T) {
	s := NewScheduler(NewDetRng(1))
	for i := 0; i < cancelFairnessQuota; i++ {
		s.Enqueue(laneCancel, NewHandle(KindTask, 0, 0, uint16(i+1)), PriorityNormal, uint64(i+1))
	}
	s.Enqueue(laneReady, NewHandle(KindTask, 0, 0, 100), PriorityNormal, 100)
	s.Enqueue(laneCancel, NewHandle(KindTask, 0, 0, 101), PriorityNormal, 101)

	for i := 0; i < cancelFairnessQuota; i++ {
		s.Next() // drain the quota's worth of Cancel dispatches, streak -> cancelFairnessQuota
	}
	_, sugg, _ := s.Next() // quota exhausted: governor forces the Ready dispatch
	if sugg.lane != laneReady {
		t.Fatalf("expected the Ready task to dispatch once the quota is exhausted, got lane %s", sugg.lane)
	}
	_, sugg2, _ := s.Next()
	if sugg2.lane != laneCancel || sugg2.cancelStreak != 1 {
		t.Errorf("cancelStreak should reset to 1 for a fresh Cancel dispatch after a forced non-Cancel one, got lane=%s streak=%d", sugg2.lane, sugg2.cancelStreak)
	}
}

func TestSchedulerRemove(t *testing.T) {
	s := NewScheduler(NewDetRng(1))
	task := NewHandle(KindTask, 0, 0, 1)
	s.Enqueue(laneReady, task, PriorityNormal, 1)
	if !s.Remove(laneReady, task) {
		t.Fatal("Remove should report true for a present task")
	}
	if s.Remove(laneReady, task) {
		t.Error("Remove should report false the second time")
	}
	if !s.Idle() {
		t.Error("scheduler should be Idle after removing its only entry")
	}
}

func TestSchedulerIdle(t *testing.T) {
	s := NewScheduler(NewDetRng(1))
	if !s.Idle() {
		t.Fatal("fresh scheduler should be Idle")
	}
	s.Enqueue(laneReady, NewHandle(KindTask, 0, 0, 1), PriorityNormal, 1)
	if s.Idle() {
		t.Error("scheduler with a queued task should not be Idle")
	}
}

func TestSchedulerNextOnEmptyReturnsFalse(t *testing.T) {
	s := NewScheduler(NewDetRng(1))
	if _, _, ok := s.Next(); ok {
		t.Error("Next() on an empty scheduler should return ok=false")
	}
}

func TestSchedulerStealVictimNeverSelfWithMultipleWorkers(t *testing.T) {
	s := NewScheduler(NewDetRng(5))
	for trial := 0; trial < 50; trial++ {
		v := s.stealVictim(laneReady, 4)
		if v == int(laneReady) {
			t.Fatalf("trial %d: stealVictim returned self (%d) with 4 workers available", trial, v)
		}
		if v < 0 || v >= 4 {
			t.Fatalf("trial %d: stealVictim returned out-of-range worker %d", trial, v)
		}
	}
}

func TestSchedulerStealVictimSingleWorkerReturnsSelf(t *testing.T) {
	s := NewScheduler(NewDetRng(5))
	if v := s.stealVictim(laneCancel, 1); v != int(laneCancel) {
		t.Errorf("stealVictim with 1 worker = %d, want self (%d)", v, int(laneCancel))
	}
}
