package asupersync

import "time"

// CancelKind enumerates the eleven cancellation-reason kinds of spec
// §3, each with a fixed severity (the "User=0 … Shutdown=5" total
// order), a default strengthening priority, and a nominal cleanup-
// budget quota applied when the reason drives task cancellation.
type CancelKind uint8

const (
	CancelUser CancelKind = iota
	CancelParent
	CancelSibling
	CancelTimeout
	CancelRegionClose
	CancelDeadline
	CancelPollQuota
	CancelCostBudget
	CancelObligationLeak
	CancelResourceExhaustion
	CancelShutdown
)

type cancelKindMeta struct {
	severity int
	priority Priority
	quota    int64
	name     string
}

var cancelKindTable = [...]cancelKindMeta{
	CancelUser:               {severity: 0, priority: PriorityNormal, quota: 64, name: "User"},
	CancelParent:             {severity: 1, priority: PriorityNormal, quota: 64, name: "Parent"},
	CancelSibling:            {severity: 1, priority: PriorityNormal, quota: 64, name: "Sibling"},
	CancelTimeout:            {severity: 2, priority: PriorityHigh, quota: 32, name: "Timeout"},
	CancelRegionClose:        {severity: 2, priority: PriorityHigh, quota: 32, name: "RegionClose"},
	CancelDeadline:           {severity: 3, priority: PriorityHigh, quota: 16, name: "Deadline"},
	CancelPollQuota:          {severity: 3, priority: PriorityHigh, quota: 16, name: "PollQuota"},
	CancelCostBudget:         {severity: 3, priority: PriorityHigh, quota: 16, name: "CostBudget"},
	CancelObligationLeak:     {severity: 4, priority: PriorityCritical, quota: 8, name: "ObligationLeak"},
	CancelResourceExhaustion: {severity: 4, priority: PriorityCritical, quota: 8, name: "ResourceExhaustion"},
	CancelShutdown:           {severity: 5, priority: PriorityCritical, quota: 0, name: "Shutdown"},
}

func (k CancelKind) String() string {
	if int(k) < len(cancelKindTable) {
		return cancelKindTable[k].name
	}
	return "Unknown"
}

func (k CancelKind) severity() int     { return cancelKindTable[k].severity }
func (k CancelKind) priority() Priority { return cancelKindTable[k].priority }
func (k CancelKind) quota() int64      { return cancelKindTable[k].quota }

const (
	maxChainDepth  = 16
	maxChainMemory = 4096 // bytes, approximated by summed message length
)

// attributionLink is one hop of a CancelReason's attribution chain.
type attributionLink struct {
	region  Handle
	task    Handle // zero if the link did not originate from a task
	message string
}

// CancelReason carries the kind, attribution, and message of a cancel
// request, per spec §3.
type CancelReason struct {
	Kind         CancelKind
	OriginRegion Handle
	OriginTask   Handle // zero Handle if none
	Timestamp    int64  // logical or wall time, per clock hook
	Message      string
	Chain        []attributionLink
	Truncated    bool
}

// canonicalReason builds the first CancelReason for a given kind —
// spec §4.5's "reason=canonical(kind)".
func canonicalReason(kind CancelKind, originRegion, originTask Handle, ts int64, message string) *CancelReason {
	return &CancelReason{
		Kind:         kind,
		OriginRegion: originRegion,
		OriginTask:   originTask,
		Timestamp:    ts,
		Message:      message,
	}
}

// extend appends one attribution hop, honoring the bounded chain depth
// and approximate memory budget; overflow sets Truncated rather than
// erroring, per spec §3.
func (r *CancelReason) extend(region, task Handle, message string) {
	if len(r.Chain) >= maxChainDepth {
		r.Truncated = true
		return
	}
	used := 0
	for _, l := range r.Chain {
		used += len(l.message)
	}
	if used+len(message) > maxChainMemory {
		r.Truncated = true
		return
	}
	r.Chain = append(r.Chain, attributionLink{region: region, task: task, message: message})
}

// dominates reports whether r's severity strictly dominates, or ties
// with a tie-break that favors r, other — i.e. whether r may
// legitimately replace other under strengthening.
//
// Tie-break on equal severity: earlier timestamp wins; if still tied,
// the lexicographically smaller message wins (spec §4.5).
func (r *CancelReason) dominates(other *CancelReason) bool {
	if r.Kind.severity() != other.Kind.severity() {
		return r.Kind.severity() > other.Kind.severity()
	}
	if r.Timestamp != other.Timestamp {
		return r.Timestamp < other.Timestamp
	}
	return r.Message <= other.Message
}

// CancelWitness is the per-task cancellation record of spec §3,
// grounded on eventloop/abort.go's AbortSignal: instead of a flat
// aborted/not-aborted bool, it tracks a monotone phase and a
// monotonically-strengthening reason, proven by witnessPhaseCheck and
// CancelReason.dominates respectively.
type CancelWitness struct {
	Task     Handle
	Region   Handle
	Epoch    uint64
	Phase    WitnessPhase
	Reason   *CancelReason
	observed bool // whether checkpoint() has delivered this witness at least once
}

// newCancelWitness creates the first witness for a task's current cancel epoch
// (spec §4.5: "First cancel on a task increments cancel_epoch, sets
// phase=Requested, reason=canonical(kind)").
func newCancelWitness(task, region Handle, epoch uint64, kind CancelKind, ts int64, message string) *CancelWitness {
	return &CancelWitness{
		Task:   task,
		Region: region,
		Epoch:  epoch,
		Phase:  PhaseRequested,
		Reason: canonicalReason(kind, region, Handle(0), ts, message),
	}
}

// strengthen attempts to raise this witness's phase/reason toward the
// proposed values. It never weakens: a regression in phase or a weaker
// reason at equal phase is rejected with the specific witness error,
// and the witness is left unmutated on error (failure-atomic).
func (w *CancelWitness) strengthen(op string, phase WitnessPhase, reason *CancelReason) error {
	if err := witnessPhaseCheck(op, w.Phase, phase); err != nil {
		return err
	}
	if !reason.dominates(w.Reason) && reason.Kind.severity() < w.Reason.Kind.severity() {
		return newError(op, StatusWitnessReasonWeakened, "reason severity %d would weaken current severity %d", reason.Kind.severity(), w.Reason.Kind.severity())
	}
	if reason.dominates(w.Reason) {
		w.Reason = reason
	}
	w.Phase = phase
	return nil
}

// nowLogical returns the current logical time in nanoseconds from a
// Clock, defaulting to 0 if the clock is nil (used only in tests that
// don't care about timestamps).
func nowLogical(c Clock) int64 {
	if c == nil {
		return 0
	}
	return c.Now()
}

// Clock is the host hook of spec §6 for obtaining the current time.
// In deterministic mode the Runtime requires a LogicalClock
// implementation (monotone, host-driven); outside deterministic mode a
// wall-clock-backed implementation may be used, per spec §6/§7.
type Clock interface {
	Now() int64 // nanoseconds
}

// WallClock is a convenience Clock backed by time.Now(), explicitly not
// for use in deterministic mode (spec §1's non-goal: "any behavior that
// depends on wall-clock time in deterministic mode"). It exists for
// manual testing and non-replayed operation only — the platform-
// specific production equivalent is an external collaborator (§1).
type WallClock struct{}

func (WallClock) Now() int64 { return time.Now().UnixNano() }

// LogicalClock is a deterministic, host-driven clock: the host advances
// it explicitly (e.g. from a scenario's AdvanceTime op), and it never
// reads the wall clock.
type LogicalClock struct {
	nanos int64
}

func (c *LogicalClock) Now() int64 { return c.nanos }

// Advance moves the logical clock forward by d nanoseconds. Advancing
// by a negative or zero amount is a no-op; logical time never moves
// backward.
func (c *LogicalClock) Advance(d int64) {
	if d > 0 {
		c.nanos += d
	}
}
