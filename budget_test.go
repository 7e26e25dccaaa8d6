package asupersync

import "testing"

func TestBudgetInfiniteIsMeetIdentity(t *testing.T) {
	b := Budget{Deadline: 100, PollQuota: 5, CostQuota: 3, Priority: PriorityHigh}
	got := b.Meet(Infinite())
	if got != b {
		t.Errorf("b.Meet(Infinite()) = %+v, want %+v", got, b)
	}
	got = Infinite().Meet(b)
	if got != b {
		t.Errorf("Infinite().Meet(b) = %+v, want %+v", got, b)
	}
}

func TestBudgetZeroIsMeetAbsorbing(t *testing.T) {
	b := Budget{Deadline: 100, PollQuota: 5, CostQuota: 3, Priority: PriorityLow}
	got := b.Meet(Zero())
	want := Zero()
	// Deadline: earlier of 100 and 1 is 1; quotas: min(5,0)=0, min(3,0)=0; priority: max.
	want.Priority = PriorityCritical
	if got.Deadline != want.Deadline || got.PollQuota != want.PollQuota || got.CostQuota != want.CostQuota || got.Priority != want.Priority {
		t.Errorf("b.Meet(Zero()) = %+v, want %+v", got, want)
	}
}

func TestBudgetMeetTightensDeadline(t *testing.T) {
	a := Budget{Deadline: 50, PollQuota: -1, CostQuota: -1}
	b := Budget{Deadline: 30, PollQuota: -1, CostQuota: -1}
	got := a.Meet(b)
	if got.Deadline != 30 {
		t.Errorf("Meet deadline = %d, want 30", got.Deadline)
	}

	// noDeadline on one side yields the other's finite deadline.
	c := Budget{Deadline: noDeadline, PollQuota: -1, CostQuota: -1}
	got = a.Meet(c)
	if got.Deadline != 50 {
		t.Errorf("Meet with noDeadline side = %d, want 50", got.Deadline)
	}
}

func TestBudgetMeetMinimizesQuotas(t *testing.T) {
	a := Budget{PollQuota: 10, CostQuota: -1}
	b := Budget{PollQuota: 4, CostQuota: 7}
	got := a.Meet(b)
	if got.PollQuota != 4 {
		t.Errorf("PollQuota = %d, want 4", got.PollQuota)
	}
	if got.CostQuota != 7 {
		t.Errorf("CostQuota = %d, want 7 (unlimited acts as identity)", got.CostQuota)
	}
}

func TestBudgetMeetIsAssociativeCommutativeIdempotent(t *testing.T) {
	a := Budget{Deadline: 40, PollQuota: 9, CostQuota: 3, Priority: PriorityNormal}
	b := Budget{Deadline: 20, PollQuota: 5, CostQuota: 8, Priority: PriorityHigh}
	c := Budget{Deadline: 60, PollQuota: 2, CostQuota: 1, Priority: PriorityLow}

	if got, want := a.Meet(b), b.Meet(a); got != want {
		t.Errorf("Meet not commutative: %+v vs %+v", got, want)
	}
	left := a.Meet(b).Meet(c)
	right := a.Meet(b.Meet(c))
	if left != right {
		t.Errorf("Meet not associative: %+v vs %+v", left, right)
	}
	if got := a.Meet(a); got != a {
		t.Errorf("Meet not idempotent: %+v vs %+v", got, a)
	}
}

func TestBudgetExhausted(t *testing.T) {
	tests := []struct {
		name string
		b    Budget
		now  int64
		want bool
	}{
		{"infinite never exhausted", Infinite(), 1 << 40, false},
		{"poll quota zero", Budget{PollQuota: 0, CostQuota: -1, Deadline: noDeadline}, 0, true},
		{"cost quota zero", Budget{PollQuota: -1, CostQuota: 0, Deadline: noDeadline}, 0, true},
		{"deadline elapsed", Budget{PollQuota: -1, CostQuota: -1, Deadline: 10}, 10, true},
		{"deadline not yet elapsed", Budget{PollQuota: -1, CostQuota: -1, Deadline: 10}, 9, false},
		{"unset deadline with remaining quotas", Budget{PollQuota: 3, CostQuota: 3, Deadline: noDeadline}, 1000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Exhausted(tt.now); got != tt.want {
				t.Errorf("Exhausted(%d) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestBudgetConsumePoll(t *testing.T) {
	b := Budget{PollQuota: 3}
	b, err := b.ConsumePoll(2)
	if err != nil {
		t.Fatalf("ConsumePoll(2) error: %v", err)
	}
	if b.PollQuota != 1 {
		t.Errorf("PollQuota = %d, want 1", b.PollQuota)
	}
	unchanged := b
	_, err = b.ConsumePoll(5)
	if err == nil {
		t.Fatal("ConsumePoll(5) with only 1 remaining should fail")
	}
	if StatusOf(err) != StatusPollBudgetExhausted {
		t.Errorf("ConsumePoll error status = %s, want %s", StatusOf(err), StatusPollBudgetExhausted)
	}
	if b != unchanged {
		t.Errorf("failed ConsumePoll must be failure-atomic: got %+v, want %+v", b, unchanged)
	}
}

func TestBudgetConsumeCostUnlimited(t *testing.T) {
	b := Budget{CostQuota: -1}
	b, err := b.ConsumeCost(1_000_000)
	if err != nil {
		t.Fatalf("unlimited cost quota should never exhaust: %v", err)
	}
	if b.CostQuota != -1 {
		t.Errorf("unlimited quota should remain -1, got %d", b.CostQuota)
	}
}

func TestBudgetConsumeCostExhausted(t *testing.T) {
	b := Budget{CostQuota: 2}
	_, err := b.ConsumeCost(3)
	if StatusOf(err) != StatusBudgetExhausted {
		t.Errorf("ConsumeCost overdraw status = %s, want %s", StatusOf(err), StatusBudgetExhausted)
	}
}
