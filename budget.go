package asupersync

// noDeadline is the sentinel for "no deadline configured" in a Budget.
// Deadline is an absolute logical tick from the same clock space as
// Clock.Now() and the timer wheel (spec §4.2/§4.7 share one clock), so
// zero unambiguously means "unset": tick 0 is the runtime's own epoch
// and a real deadline set at epoch is meaningless (there is no poll
// before the first tick for it to govern).
const noDeadline = int64(0)

// Priority is a small ordered enum; larger values win ties in the
// scheduler's tie-break key and budget-meet canonical tightening picks
// the higher of two priorities.
type Priority int32

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Budget bundles the four components spec §3/§4.2 describes: a
// deadline, a poll quota, a cost quota, and a priority. INFINITE is the
// meet identity; ZERO is the meet-absorbing element.
type Budget struct {
	Deadline  int64 // absolute logical tick; noDeadline (0) means "no deadline"
	PollQuota int64 // remaining checkpoint polls; negative means unlimited
	CostQuota int64 // remaining cost units; negative means unlimited
	Priority  Priority
}

// Infinite is the Budget meet identity: no deadline, unlimited quotas,
// lowest priority (so any other budget's priority dominates on meet).
func Infinite() Budget {
	return Budget{Deadline: noDeadline, PollQuota: -1, CostQuota: -1, Priority: PriorityLow}
}

// Zero is the Budget meet-absorbing element: an already-elapsed
// deadline (the earliest representable finite tick), zero quotas,
// highest priority.
func Zero() Budget {
	return Budget{Deadline: 1, PollQuota: 0, CostQuota: 0, Priority: PriorityCritical}
}

func earlierDeadline(a, b int64) int64 {
	switch {
	case a == noDeadline:
		return b
	case b == noDeadline:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

func minQuota(a, b int64) int64 {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

// Meet tightens each component of the budget: the earliest finite
// deadline, the minimum of the two quotas (negative == unlimited acts
// as identity), and the canonically "tighter" (i.e. higher) priority.
// Meet is associative, commutative, and idempotent; Infinite() is its
// identity and Zero() is absorbing.
func (b Budget) Meet(other Budget) Budget {
	p := b.Priority
	if other.Priority > p {
		p = other.Priority
	}
	return Budget{
		Deadline:  earlierDeadline(b.Deadline, other.Deadline),
		PollQuota: minQuota(b.PollQuota, other.PollQuota),
		CostQuota: minQuota(b.CostQuota, other.CostQuota),
		Priority:  p,
	}
}

// Exhausted reports whether the budget has no remaining poll quota, no
// remaining cost quota, or an elapsed deadline as of the logical tick
// now.
func (b Budget) Exhausted(now int64) bool {
	if b.PollQuota == 0 || b.CostQuota == 0 {
		return true
	}
	if b.Deadline != noDeadline && now >= b.Deadline {
		return true
	}
	return false
}

// ConsumePoll attempts to consume n poll-quota units. It is
// failure-atomic: if the budget lacks sufficient quota, the budget is
// returned unchanged alongside a StatusPollBudgetExhausted error.
func (b Budget) ConsumePoll(n int64) (Budget, error) {
	if b.PollQuota < 0 {
		return b, nil
	}
	if b.PollQuota < n {
		return b, newError("consume_poll", StatusPollBudgetExhausted, "poll quota exhausted: have %d, need %d", b.PollQuota, n)
	}
	b.PollQuota -= n
	return b, nil
}

// ConsumeCost attempts to consume n cost-quota units, with the same
// failure-atomic contract as ConsumePoll.
func (b Budget) ConsumeCost(n int64) (Budget, error) {
	if b.CostQuota < 0 {
		return b, nil
	}
	if b.CostQuota < n {
		return b, newError("consume_cost", StatusBudgetExhausted, "cost quota exhausted: have %d, need %d", b.CostQuota, n)
	}
	b.CostQuota -= n
	return b, nil
}
