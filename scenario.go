package asupersync

import (
	"fmt"

	"github.com/google/uuid"
)

// Scenario is the declarative envelope spec §8's "concrete end-to-end
// scenarios" are expressed as: a seed, a safety profile, a codec choice,
// an ordered op sequence, and an optional expected-digest assertion.
// Grounded on eventloop's own test fixtures (e.g. priority_test.go's
// table-driven op sequences), generalized into a replayable, executable
// structure so the same scenario can be run twice (once to record,
// once to replay) and compared via CompareReplay — spec §8 S7's
// deterministic-replay-digest property.
type Scenario struct {
	ID          string
	Version     int
	Seed        uint64
	Profile     SafetyProfile
	Codec       Codec
	ForbiddenIDs []string // handles that must never be referenced by a later op (regression guard)
	Ops         []Op
}

// NewScenario constructs a Scenario with a generated scenario_id, per
// spec §8's envelope fields. Generating the id via google/uuid (rather
// than a deterministic counter) is deliberate: the id is metadata about
// the fixture itself, never an input the kernel's own digest depends
// on, so it is the one place in this codebase where a non-deterministic
// source is appropriate.
func NewScenario(seed uint64, profile SafetyProfile, codec Codec) *Scenario {
	return &Scenario{
		ID:      uuid.NewString(),
		Version: 1,
		Seed:    seed,
		Profile: profile,
		Codec:   codec,
	}
}

// Op is one step of a Scenario's op sequence. Exactly one field among
// the typed op structs should be non-nil; Kind names which.
type Op struct {
	Kind OpKind

	SpawnRegion      *OpSpawnRegion
	CloseRegion      *OpCloseRegion
	SpawnTask        *OpSpawnTask
	PollTask         *OpPollTask
	RequestCancel    *OpRequestCancel
	AckCancel        *OpAckCancel
	ReserveObligation *OpReserveObligation
	CommitObligation *OpCommitObligation
	AbortObligation  *OpAbortObligation
	TimerRegister    *OpTimerRegister
	TimerCancel      *OpTimerCancel
	AdvanceTime      *OpAdvanceTime
	Assert           *OpAssert
}

// OpKind discriminates the Op union, named after the grammar spec §8
// describes (channel ops are exercised directly against Channel[T] in
// Go test code, since their generic type parameter doesn't fit cleanly
// into a dynamically-typed scenario op — see scenarios_test.go).
type OpKind uint8

const (
	OpKindSpawnRegion OpKind = iota
	OpKindCloseRegion
	OpKindSpawnTask
	OpKindPollTask
	OpKindRequestCancel
	OpKindAckCancel
	OpKindReserveObligation
	OpKindCommitObligation
	OpKindAbortObligation
	OpKindTimerRegister
	OpKindTimerCancel
	OpKindAdvanceTime
	OpKindAssert
)

// OpSpawnRegion opens a sub-region under the region saved as ParentRef
// in the executor's ref table ("root" names the root region).
type OpSpawnRegion struct {
	ParentRef string
	SaveAs    string
}

// OpCloseRegion drives the named region to Closed: the executor calls
// CloseRegion repeatedly (Open→Closing takes one call, the rest of the
// progression the next) until the region reports Closed or a call
// fails (see ScenarioExecutor.apply's loop for this op).
type OpCloseRegion struct {
	RegionRef string
}

// OpSpawnTask spawns a task whose poll function is looked up by name
// from the executor's registered PollFunc table (scenarios cannot embed
// closures in a serializable op stream).
type OpSpawnTask struct {
	RegionRef string
	PollName  string
	Budget    Budget
	SaveAs    string
}

// OpPollTask forces one Dispatch cycle (the executor ignores which
// specific task the scheduler picks — TaskRef is recorded for
// documentation/assertion purposes only).
type OpPollTask struct {
	TaskRef string
}

// OpRequestCancel requests cancellation of the named task.
type OpRequestCancel struct {
	TaskRef string
	Kind    CancelKind
	Message string
}

// OpAckCancel advances the named task's witness phase directly (used by
// scenarios exercising the protocol without a full poll-function body).
type OpAckCancel struct {
	TaskRef string
	Phase   WitnessPhase
}

// OpReserveObligation reserves an obligation under the named region.
type OpReserveObligation struct {
	RegionRef string
	Kind      string
	Cost      int64
	SaveAs    string
}

type OpCommitObligation struct{ ObligationRef string }
type OpAbortObligation struct{ ObligationRef string }

// OpTimerRegister registers a timer waking the named task at an
// absolute deadline.
type OpTimerRegister struct {
	TaskRef  string
	Deadline int64
	Coalesce int64
	SaveAs   string
}

type OpTimerCancel struct{ TimerRef string }

// OpAdvanceTime moves the logical clock forward by Delta ticks.
type OpAdvanceTime struct{ Delta int64 }

// OpAssert evaluates a named predicate against the executor's Runtime,
// failing the scenario run if it returns a non-nil error.
type OpAssert struct {
	Name      string
	Predicate func(rt *Runtime, refs map[string]Handle) error
}

// ScenarioExecutor replays a Scenario's op sequence against a fresh
// Runtime, threading SaveAs/Ref names to Handles so later ops can refer
// to entities created by earlier ones — the same name-indirection
// eventloop's own scenario-style tests use for promise chains (see
// promise_combinator_test.go's named-promise maps), adapted here to the
// kernel's five entity kinds.
type ScenarioExecutor struct {
	rt   *Runtime
	refs map[string]Handle
	polls map[string]PollFunc
}

// NewScenarioExecutor constructs a Runtime from sc's seed/profile and an
// empty ref table. polls supplies the named PollFunc bodies OpSpawnTask
// may reference.
func NewScenarioExecutor(sc *Scenario, polls map[string]PollFunc) (*ScenarioExecutor, error) {
	rt, err := NewRuntime(WithSeed(sc.Seed), WithProfile(sc.Profile))
	if err != nil {
		return nil, err
	}
	return &ScenarioExecutor{
		rt:    rt,
		refs:  map[string]Handle{"root": rt.RootRegion()},
		polls: polls,
	}, nil
}

// Runtime exposes the underlying Runtime for post-run assertions.
func (ex *ScenarioExecutor) Runtime() *Runtime { return ex.rt }

// Ref resolves a saved name to its Handle.
func (ex *ScenarioExecutor) Ref(name string) (Handle, bool) {
	h, ok := ex.refs[name]
	return h, ok
}

// Run applies every op in sc.Ops in order, returning the first error
// encountered (wrapped with the op's index for diagnosability).
func (ex *ScenarioExecutor) Run(sc *Scenario) error {
	for i, op := range sc.Ops {
		if err := ex.apply(op); err != nil {
			return fmt.Errorf("scenario %s op[%d] (%v): %w", sc.ID, i, op.Kind, err)
		}
	}
	return nil
}

func (ex *ScenarioExecutor) apply(op Op) error {
	switch op.Kind {
	case OpKindSpawnRegion:
		o := op.SpawnRegion
		parent, ok := ex.refs[o.ParentRef]
		if !ok {
			return fmt.Errorf("unknown region ref %q", o.ParentRef)
		}
		h, err := ex.rt.OpenRegion(parent)
		if err != nil {
			return err
		}
		ex.refs[o.SaveAs] = h
		return nil

	case OpKindCloseRegion:
		o := op.CloseRegion
		h, ok := ex.refs[o.RegionRef]
		if !ok {
			return fmt.Errorf("unknown region ref %q", o.RegionRef)
		}
		// Drive the region to Closed by calling CloseRegion until the
		// region reports Closed, matching its driver-loop contract.
		for {
			err := ex.rt.CloseRegion(h)
			if err == nil {
				r, lookupErr := ex.rt.regionLookup("scenario_close_region", h)
				if lookupErr != nil {
					return lookupErr
				}
				if r.state == RegionClosed {
					return nil
				}
				continue
			}
			return err
		}

	case OpKindSpawnTask:
		o := op.SpawnTask
		region, ok := ex.refs[o.RegionRef]
		if !ok {
			return fmt.Errorf("unknown region ref %q", o.RegionRef)
		}
		poll, ok := ex.polls[o.PollName]
		if !ok {
			return fmt.Errorf("unknown poll function %q", o.PollName)
		}
		h, err := ex.rt.SpawnTask(region, poll, o.Budget)
		if err != nil {
			return err
		}
		ex.refs[o.SaveAs] = h
		return nil

	case OpKindPollTask:
		_, err := ex.rt.Dispatch()
		return err

	case OpKindRequestCancel:
		o := op.RequestCancel
		h, ok := ex.refs[o.TaskRef]
		if !ok {
			return fmt.Errorf("unknown task ref %q", o.TaskRef)
		}
		return ex.rt.RequestTaskCancel(h, o.Kind, o.Message)

	case OpKindAckCancel:
		o := op.AckCancel
		h, ok := ex.refs[o.TaskRef]
		if !ok {
			return fmt.Errorf("unknown task ref %q", o.TaskRef)
		}
		return ex.rt.ackCancel(h, o.Phase)

	case OpKindReserveObligation:
		o := op.ReserveObligation
		region, ok := ex.refs[o.RegionRef]
		if !ok {
			return fmt.Errorf("unknown region ref %q", o.RegionRef)
		}
		h, err := ex.rt.ReserveObligation(region, o.Kind, o.Cost)
		if err != nil {
			return err
		}
		ex.refs[o.SaveAs] = h
		return nil

	case OpKindCommitObligation:
		h, ok := ex.refs[op.CommitObligation.ObligationRef]
		if !ok {
			return fmt.Errorf("unknown obligation ref %q", op.CommitObligation.ObligationRef)
		}
		return ex.rt.CommitObligation(h)

	case OpKindAbortObligation:
		h, ok := ex.refs[op.AbortObligation.ObligationRef]
		if !ok {
			return fmt.Errorf("unknown obligation ref %q", op.AbortObligation.ObligationRef)
		}
		return ex.rt.AbortObligation(h)

	case OpKindTimerRegister:
		o := op.TimerRegister
		task, ok := ex.refs[o.TaskRef]
		if !ok {
			return fmt.Errorf("unknown task ref %q", o.TaskRef)
		}
		h, err := ex.rt.RegisterTimer(task, o.Deadline, o.Coalesce)
		if err != nil {
			return err
		}
		ex.refs[o.SaveAs] = h
		return nil

	case OpKindTimerCancel:
		h, ok := ex.refs[op.TimerCancel.TimerRef]
		if !ok {
			return fmt.Errorf("unknown timer ref %q", op.TimerCancel.TimerRef)
		}
		return ex.rt.CancelTimer(h)

	case OpKindAdvanceTime:
		ex.rt.AdvanceTime(op.AdvanceTime.Delta)
		return nil

	case OpKindAssert:
		return op.Assert.Predicate(ex.rt, ex.refs)

	default:
		return fmt.Errorf("unknown op kind %v", op.Kind)
	}
}
