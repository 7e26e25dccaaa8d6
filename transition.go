package asupersync

// This file is the transition authority (C5): compile-time tables of
// legal (from, to) arcs per entity kind. Every state mutation in
// region.go/task.go/obligation.go routes through one of the
// transitionCheck functions below, which return StatusInvalidTransition
// rather than allow an illegal arc — generalizing eventloop/state.go's
// FastState, which trusts its caller (it documents "PERFORMANCE: no
// validation of transition validity") because the teacher's loop state
// machine has exactly one writer. Ours has many (region close,
// cancellation, scheduler dispatch, cleanup), so the legality table the
// teacher omits is exactly what a contract-violation-detecting kernel
// needs.

// RegionState is one of the five states in spec §3's monotone total
// order: Open < Closing < Draining < Finalizing < Closed.
type RegionState uint8

const (
	RegionOpen RegionState = iota
	RegionClosing
	RegionDraining
	RegionFinalizing
	RegionClosed
)

func (s RegionState) String() string {
	return [...]string{"Open", "Closing", "Draining", "Finalizing", "Closed"}[s]
}

// regionArcs encodes the region state machine: strictly forward along
// the total order, plus the Closing→Finalizing fast path (spec §4.4)
// taken when the region has no child tasks or sub-regions left.
var regionArcs = map[[2]RegionState]bool{
	{RegionOpen, RegionClosing}:         true,
	{RegionClosing, RegionDraining}:     true,
	{RegionClosing, RegionFinalizing}:   true, // fast path: no children left
	{RegionDraining, RegionFinalizing}:  true,
	{RegionFinalizing, RegionClosed}:    true,
}

func regionTransitionCheck(op string, from, to RegionState) error {
	if from == to {
		return newError(op, StatusInvalidTransition, "region %s is not a transition", from)
	}
	if !regionArcs[[2]RegionState{from, to}] {
		return newError(op, StatusInvalidTransition, "illegal region transition %s -> %s", from, to)
	}
	return nil
}

// TaskState is one of the six states of spec §3's 13-arc task DAG.
type TaskState uint8

const (
	TaskCreated TaskState = iota
	TaskRunning
	TaskCancelRequested
	TaskCancelling
	TaskFinalizing
	TaskCompleted
)

func (s TaskState) String() string {
	return [...]string{"Created", "Running", "CancelRequested", "Cancelling", "Finalizing", "Completed"}[s]
}

// taskArc is one arc of the 13-arc DAG; selfArc marks a "strengthening"
// arc that spec §4.4 says "returns false (not a transition)" even
// though it appears in the DAG's arc count.
type taskArc struct {
	legal   bool
	selfArc bool
}

var taskArcs = map[[2]TaskState]taskArc{
	{TaskCreated, TaskRunning}:                    {legal: true},
	{TaskCreated, TaskCancelRequested}:             {legal: true},
	{TaskCreated, TaskCompleted}:                   {legal: true},
	{TaskRunning, TaskCancelRequested}:             {legal: true},
	{TaskRunning, TaskCompleted}:                   {legal: true},
	{TaskCancelRequested, TaskCancelRequested}:      {legal: true, selfArc: true},
	{TaskCancelRequested, TaskCancelling}:           {legal: true},
	{TaskCancelRequested, TaskCompleted}:            {legal: true},
	{TaskCancelling, TaskCancelling}:                {legal: true, selfArc: true},
	{TaskCancelling, TaskFinalizing}:                {legal: true},
	{TaskCancelling, TaskCompleted}:                 {legal: true},
	{TaskFinalizing, TaskFinalizing}:                {legal: true, selfArc: true},
	{TaskFinalizing, TaskCompleted}:                 {legal: true},
}

// taskTransitionCheck validates a proposed arc. isSelfArc reports
// whether the arc is a strengthening arc (legal, but not a "real"
// state change — the caller should mutate monotone fields only).
func taskTransitionCheck(op string, from, to TaskState) (isSelfArc bool, err error) {
	arc, ok := taskArcs[[2]TaskState{from, to}]
	if !ok || !arc.legal {
		return false, newError(op, StatusInvalidTransition, "illegal task transition %s -> %s", from, to)
	}
	return arc.selfArc, nil
}

// ObligationState is one of the four states of spec §3: Reserved is the
// sole non-terminal state; the other three are absorbing.
type ObligationState uint8

const (
	ObligationReserved ObligationState = iota
	ObligationCommitted
	ObligationAborted
	ObligationLeaked
)

func (s ObligationState) String() string {
	return [...]string{"Reserved", "Committed", "Aborted", "Leaked"}[s]
}

func (s ObligationState) terminal() bool { return s != ObligationReserved }

var obligationArcs = map[[2]ObligationState]bool{
	{ObligationReserved, ObligationCommitted}: true,
	{ObligationReserved, ObligationAborted}:   true,
	{ObligationReserved, ObligationLeaked}:    true,
}

func obligationTransitionCheck(op string, from, to ObligationState) error {
	if from.terminal() {
		return newError(op, StatusObligationAlreadyResolved, "obligation already resolved as %s", from)
	}
	if !obligationArcs[[2]ObligationState{from, to}] {
		return newError(op, StatusInvalidTransition, "illegal obligation transition %s -> %s", from, to)
	}
	return nil
}

// WitnessPhase is the monotone non-decreasing phase rank of a
// CancelWitness: Requested < Cancelling < Finalizing < Completed.
type WitnessPhase uint8

const (
	PhaseRequested WitnessPhase = iota
	PhaseCancelling
	PhaseFinalizing
	PhaseCompleted
)

func (p WitnessPhase) String() string {
	return [...]string{"Requested", "Cancelling", "Finalizing", "Completed"}[p]
}

// witnessPhaseCheck enforces monotone non-decreasing phase rank,
// returning StatusWitnessPhaseRegression if newPhase would regress.
func witnessPhaseCheck(op string, current, next WitnessPhase) error {
	if next < current {
		return newError(op, StatusWitnessPhaseRegression, "witness phase regression %s -> %s", current, next)
	}
	return nil
}
