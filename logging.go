package asupersync

import (
	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// logEvent is the logiface Event type this kernel logs through; it is
// simply an alias of izerolog's Event, since zerolog is the concrete
// backend this repo wires (spec's ambient stack carries a structured
// logging facade the way eventloop/logging.go does, but generalized
// from that file's bespoke Logger interface to the teacher's own
// sibling module, logiface, which is the facade eventloop's authors
// built for exactly this purpose in the rest of the monorepo).
type logEvent = izerolog.Event

// Log is the structured logger the Runtime writes region and task
// transition, dispatch, and failed-quiescence records through; journal
// appends are not logged. A nil Log is replaced
// by a discard logger at Runtime construction, so logging is always
// safe to call without a nil check at call sites.
type Log = logiface.Logger[*logEvent]

// NewZerologLog builds a Log backed by the given zerolog.Logger, via
// izerolog.WithZerolog. This is the expected production wiring; tests
// typically pass zerolog.Nop() or a zerolog.Logger writing to a
// zerolog.ConsoleWriter/bytes.Buffer for assertions.
func NewZerologLog(zl zerolog.Logger) *Log {
	return logiface.New[*logEvent](izerolog.WithZerolog(zl))
}

// discardLog is used whenever a Runtime is constructed without an
// explicit WithLog option.
func discardLog() *Log {
	return NewZerologLog(zerolog.Nop())
}

// logTransition emits a Debug-level structured record of a single
// entity state transition, used by the region and task transition call
// sites in runtime.go. Kept as a free function (rather than a method
// pattern repeated per entity) since the fields are the same shape for
// every entity kind. telemetry throttles emission per spec §6's
// diagnostic-logging component; a nil telemetry always allows.
func logTransition(log *Log, telemetry *DiagnosticTelemetry, kind EntityKind, handle Handle, from, to string) {
	if !telemetry.Allow("state_transition") {
		return
	}
	log.Debug().
		Str("kind", kind.String()).
		Str("handle", handle.String()).
		Str("from", from).
		Str("to", to).
		Log("state_transition")
}

// logDispatch emits a Debug-level record of a scheduler dispatch
// decision, including the governor's lane choice and fairness state —
// the structured-log analogue of the journal's DispatchDecided event,
// intended for human-facing diagnostics rather than replay. Throttled
// by telemetry's "dispatch" category, since a busy scheduler can emit
// one of these per poll.
func logDispatch(log *Log, telemetry *DiagnosticTelemetry, task Handle, g governorSuggestion) {
	if !telemetry.Allow("dispatch") {
		return
	}
	log.Debug().
		Str("task", task.String()).
		Str("lane", g.lane.String()).
		Int("cancel_streak", g.cancelStreak).
		Bool("forced", g.forced).
		Log("dispatch")
}

// logQuiescenceFailure emits a Warning-level record when shutdown
// cannot proceed, naming the first blocking condition. Throttled by
// telemetry's "quiescence_blocked" category, since a stalled shutdown
// loop can otherwise flood the logger with one record per poll.
func logQuiescenceFailure(log *Log, telemetry *DiagnosticTelemetry, r QuiescenceReport) {
	if !telemetry.Allow("quiescence_blocked") {
		return
	}
	log.Warning().
		Str("condition", r.First.String()).
		Int("tasks_active", r.TasksActive).
		Int("obligations_open", r.ObligationsOpen).
		Int("regions_open", r.RegionsOpen).
		Int("timers_pending", r.TimersPendingCount).
		Int("channels_undrained", r.ChannelsUndrained).
		Log("quiescence_blocked")
}
