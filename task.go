package asupersync

import "runtime"

// PollResult is the return value of a task's poll function: either it
// is still Pending (parked on some suspension point and will be woken
// later) or it has produced a terminal Outcome.
type PollResult struct {
	Pending bool
	Outcome Outcome
}

// Pending constructs a PollResult indicating the task yielded without
// completing.
func Pending() PollResult { return PollResult{Pending: true} }

// Done constructs a PollResult carrying a terminal Outcome.
func Done(o Outcome) PollResult { return PollResult{Outcome: o} }

// PollFunc is the user-supplied task body: given a Checkpoint view it
// either returns Pending (having registered itself with whatever
// suspension point it is waiting on) or Done with a terminal Outcome.
// Grounded on eventloop/promise.go's executor-closure shape, replacing
// callback-on-settle with the kernel's pull-based poll model (the
// scheduler decides when to call back in, rather than the task
// rescheduling itself).
type PollFunc func(cp *Checkpoint) PollResult

// taskRecord is the arena payload for a Task (spec §3).
type taskRecord struct {
	handle Handle
	region Handle
	state  TaskState

	poll PollFunc

	cancelEpoch uint64
	witness     *CancelWitness

	budget Budget

	priority Priority

	parked bool // true once the task has explicitly parked itself (Checkpoint.Park); suppresses the scheduler's default Pending->Ready auto-requeue

	insertionSeq uint64 // tie-break key for deterministic scheduling order

	outcome Outcome

	// lastLaneReason records why the scheduler most recently placed this
	// task on its current lane, for journal/debug rendering only.
	lastLaneReason string

	// ledger is the fixed-size per-task error ledger of spec §7,
	// recording every kernel operation this task's Checkpoint calls that
	// returned a non-nil error, for post-mortem diagnostics.
	ledger errorLedger
}

func newTaskRecord(h, region Handle, poll PollFunc, budget Budget, seq uint64) *taskRecord {
	return &taskRecord{
		handle:       h,
		region:       region,
		state:        TaskCreated,
		poll:         poll,
		budget:       budget,
		priority:     budget.Priority,
		insertionSeq: seq,
		ledger:       newErrorLedger(),
	}
}

// noteErr records err against this task's error ledger if non-nil,
// attributing it to the call site of noteErr's caller (the kernel
// operation that produced err), per spec §7's "(operation, file, line,
// sequence)" tuple.
func (t *taskRecord) noteErr(op string, err error) {
	if err == nil {
		return
	}
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "", 0
	}
	t.ledger.recordErr(op, file, line, err)
}

// transition moves the task to `to`, validating the arc via
// taskTransitionCheck. A self-arc (e.g. CancelRequested -> CancelRequested
// on re-strengthening) is legal but leaves `state` unchanged, matching
// spec §4.4's "returns false (not a transition)" note.
func (t *taskRecord) transition(op string, to TaskState) error {
	self, err := taskTransitionCheck(op, t.state, to)
	if err != nil {
		return err
	}
	if !self {
		t.state = to
	}
	return nil
}

// requestCancel installs or strengthens this task's CancelWitness. The
// first request on a cancel_epoch increments the epoch and creates a
// Requested-phase witness; subsequent requests at the same epoch must
// strengthen monotonically via CancelWitness.strengthen. chain carries
// the attribution hops accumulated while a RequestRegionCancel cascade
// descends through intermediate regions before reaching this task,
// empty for a direct RequestTaskCancel call.
func (t *taskRecord) requestCancel(kind CancelKind, originRegion Handle, ts int64, message string, chain []attributionLink) error {
	if t.witness == nil || t.state == TaskCompleted {
		if t.state == TaskCompleted {
			return newError("request_cancel", StatusInvalidState, "task %s already Completed", t.handle)
		}
		t.cancelEpoch++
		t.witness = newCancelWitness(t.handle, t.region, t.cancelEpoch, kind, ts, message)
		for _, link := range chain {
			t.witness.Reason.extend(link.region, link.task, link.message)
		}
		return t.transition("request_cancel", TaskCancelRequested)
	}
	reason := canonicalReason(kind, originRegion, t.handle, ts, message)
	if err := t.witness.strengthen("request_cancel", PhaseRequested, reason); err != nil {
		return err
	}
	// Re-requesting at the already-requested phase is the documented
	// self-arc; advancing further phases happens via ackCancel.
	_, err := taskTransitionCheck("request_cancel", t.state, TaskCancelRequested)
	return err
}

// ackCancel advances the witness phase in step with the task's own
// progression toward Completed, driven by the scheduler as the task's
// poll function observes and reacts to cancellation.
func (t *taskRecord) ackCancel(phase WitnessPhase) error {
	if t.witness == nil {
		return newError("ack_cancel", StatusInvalidState, "task %s has no cancel witness", t.handle)
	}
	return t.witness.strengthen("ack_cancel", phase, t.witness.Reason)
}

// cancelRequested reports whether a cancellation is outstanding against
// the task's current witness.
func (t *taskRecord) cancelRequested() bool {
	return t.witness != nil && t.witness.Phase < PhaseCompleted
}

// finalOutcome computes the task's terminal outcome by joining its
// poll-produced outcome with any outstanding cancellation, per spec
// §3's outcome-lattice join (Join is associative/commutative/idempotent
// with Panicked absorbing).
func (t *taskRecord) finalOutcome(polled Outcome) Outcome {
	if t.witness != nil && t.witness.Phase >= PhaseCancelling {
		return polled.Join(CancelledOutcome(t.witness.Reason))
	}
	return polled
}
