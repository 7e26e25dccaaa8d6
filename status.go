package asupersync

import (
	"errors"
	"fmt"
)

// Status is the stable error-taxonomy enum of the kernel's external
// interface. Every API call either succeeds or returns an error whose
// Status() identifies which of the fixed enum values applies; there is
// no hidden error channel.
type Status uint8

const (
	StatusOK Status = iota
	StatusInvalidTransition
	StatusRegionNotOpen
	StatusRegionClosed
	StatusRegionPoisoned
	StatusAdmissionClosed
	StatusObligationAlreadyResolved
	StatusObligationLeaked
	StatusUnresolvedObligations
	StatusIncompleteChildren
	StatusStaleHandle
	StatusNotFound
	StatusInvalidArgument
	StatusInvalidState
	StatusResourceExhausted
	StatusBudgetExhausted
	StatusPollBudgetExhausted
	StatusTasksStillActive
	StatusObligationsUnresolved
	StatusRegionsNotClosed
	StatusTimersPending
	StatusChannelNotDrained
	StatusWitnessTaskMismatch
	StatusWitnessRegionMismatch
	StatusWitnessEpochMismatch
	StatusWitnessPhaseRegression
	StatusWitnessReasonWeakened
	StatusTimerDurationExceeded
	StatusDisconnected
	StatusCancelled
	StatusFull
	StatusEmpty
	StatusPending
	StatusAllocatorSealed
	StatusDeterminismViolation
	StatusTaskNotCompleted
)

//nolint:govet // readability over field alignment; matches the enum order above.
var statusNames = [...]string{
	"Ok", "InvalidTransition", "RegionNotOpen", "RegionClosed", "RegionPoisoned",
	"AdmissionClosed", "ObligationAlreadyResolved", "ObligationLeaked",
	"UnresolvedObligations", "IncompleteChildren", "StaleHandle", "NotFound",
	"InvalidArgument", "InvalidState", "ResourceExhausted", "BudgetExhausted",
	"PollBudgetExhausted", "TasksStillActive", "ObligationsUnresolved",
	"RegionsNotClosed", "TimersPending", "ChannelNotDrained", "WitnessTaskMismatch",
	"WitnessRegionMismatch", "WitnessEpochMismatch", "WitnessPhaseRegression",
	"WitnessReasonWeakened", "TimerDurationExceeded", "Disconnected", "Cancelled",
	"Full", "Empty", "Pending", "AllocatorSealed", "DeterminismViolation",
	"TaskNotCompleted",
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", s)
}

// ErrorFamily classifies a Status into one of the three orthogonal
// error families of spec §7: contract violation, resource exhaustion,
// or lifecycle signal.
type ErrorFamily uint8

const (
	FamilyLifecycleSignal ErrorFamily = iota
	FamilyContractViolation
	FamilyResourceExhaustion
)

func (f ErrorFamily) String() string {
	switch f {
	case FamilyLifecycleSignal:
		return "LifecycleSignal"
	case FamilyContractViolation:
		return "ContractViolation"
	case FamilyResourceExhaustion:
		return "ResourceExhaustion"
	default:
		return "Unknown"
	}
}

// Family classifies s per spec §7's three orthogonal error families.
func (s Status) Family() ErrorFamily {
	switch s {
	case StatusDisconnected, StatusCancelled, StatusFull, StatusEmpty, StatusPending:
		return FamilyLifecycleSignal
	case StatusResourceExhausted, StatusBudgetExhausted, StatusTimerDurationExceeded,
		StatusPollBudgetExhausted:
		return FamilyResourceExhaustion
	default:
		return FamilyContractViolation
	}
}

// Family classifies e's Status per spec §7's three orthogonal error
// families, convenient for callers holding a *KernelError directly.
func (e *KernelError) Family() ErrorFamily { return e.Status.Family() }

// KernelError is the concrete error type returned by every fallible
// kernel operation. It carries a stable [Status] code for switch-style
// matching in addition to satisfying the standard error interface, and
// it is grounded on eventloop/errors.go's wrapped-cause discipline:
// Unwrap exposes the cause for errors.Is/errors.As, and equal-status
// errors compare equal under Is so callers can test against the
// package-level sentinels (e.g. errors.Is(err, ErrDisconnected)).
type KernelError struct {
	Status  Status
	Op      string // operation that produced the error, e.g. "task_spawn"
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *KernelError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Status.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause, if any.
func (e *KernelError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *KernelError with the same Status, or
// the wrapped sentinel for that status. This lets callers write
// errors.Is(err, ErrFull) without caring about Op/Message/Cause.
func (e *KernelError) Is(target error) bool {
	var ke *KernelError
	if errors.As(target, &ke) {
		return ke.Status == e.Status
	}
	return false
}

// newError constructs a *KernelError for the given status.
func newError(op string, status Status, format string, args ...any) *KernelError {
	return &KernelError{Op: op, Status: status, Message: fmt.Sprintf(format, args...)}
}

func wrapError(op string, status Status, cause error, format string, args ...any) *KernelError {
	return &KernelError{Op: op, Status: status, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Sentinels for the common lifecycle signals, so callers can match with
// errors.Is without constructing a *KernelError themselves.
var (
	ErrDisconnected = &KernelError{Status: StatusDisconnected}
	ErrCancelled    = &KernelError{Status: StatusCancelled}
	ErrFull         = &KernelError{Status: StatusFull}
	ErrEmpty        = &KernelError{Status: StatusEmpty}
	ErrPending      = &KernelError{Status: StatusPending}
)

// StatusOf extracts the Status from err, returning StatusOK if err is
// nil and StatusInvalidState if err is a non-nil error of another type
// (which should not happen for kernel-originated errors).
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var ke *KernelError
	if errors.As(err, &ke) {
		return ke.Status
	}
	return StatusInvalidState
}

// OutcomeKind is the tag of the Outcome sum type: {Ok, Err, Cancelled,
// Panicked}, with the total severity order 0 < 1 < 2 < 3.
type OutcomeKind uint8

const (
	OutcomeOk OutcomeKind = iota
	OutcomeErr
	OutcomeCancelled
	OutcomePanicked
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOk:
		return "Ok"
	case OutcomeErr:
		return "Err"
	case OutcomeCancelled:
		return "Cancelled"
	case OutcomePanicked:
		return "Panicked"
	default:
		return "Unknown"
	}
}

// severity returns the join-order rank of the outcome kind.
func (k OutcomeKind) severity() int { return int(k) }

// Outcome is the terminal result of a task or region: a tagged sum of
// {Ok, Err, Cancelled, Panicked} values. Join is associative and
// idempotent, commutative in the resulting Kind (the payload of an
// equal-severity join is left-biased), with Ok as identity and Panicked as the
// absorbing element (spec §3/§8).
type Outcome struct {
	Kind   OutcomeKind
	Value  any
	Err    error
	Reason *CancelReason // set only when Kind == OutcomeCancelled
}

// Ok constructs a successful Outcome.
func Ok(value any) Outcome { return Outcome{Kind: OutcomeOk, Value: value} }

// ErrOutcome constructs a failed Outcome.
func ErrOutcome(err error) Outcome { return Outcome{Kind: OutcomeErr, Err: err} }

// CancelledOutcome constructs a Cancelled Outcome carrying its reason.
func CancelledOutcome(reason *CancelReason) Outcome {
	return Outcome{Kind: OutcomeCancelled, Reason: reason}
}

// Panicked constructs a Panicked Outcome. Panicked is reserved for
// unrecoverable invariant breaches and is always fatal to the owning
// region.
func Panicked(value any) Outcome { return Outcome{Kind: OutcomePanicked, Value: value} }

// Join computes the severity-max of two outcomes. On equal severity the
// left-hand (receiver) payload wins, per spec §3's left-biased tie
// break. Join is associative and idempotent, and commutative in the
// resulting Kind; Ok is the identity, Panicked is absorbing.
func (o Outcome) Join(other Outcome) Outcome {
	if other.Kind.severity() > o.Kind.severity() {
		return other
	}
	return o
}

// String implements fmt.Stringer for debugging and journal rendering.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeOk:
		return fmt.Sprintf("Ok(%v)", o.Value)
	case OutcomeErr:
		return fmt.Sprintf("Err(%v)", o.Err)
	case OutcomeCancelled:
		return fmt.Sprintf("Cancelled(%v)", o.Reason)
	case OutcomePanicked:
		return fmt.Sprintf("Panicked(%v)", o.Value)
	default:
		return "Outcome(?)"
	}
}
