package asupersync

import (
	"time"

	catrate "github.com/joeycumines/go-catrate"
)

// diagnosticRates is the fixed rate-limiting schedule for non-
// deterministic diagnostic logging: at most 5 in any 1s window and at
// most 60 in any 1m window, per category. Grounded on
// catrate.Limiter's multi-window token-bucket-by-category design.
var diagnosticRates = map[time.Duration]int{
	time.Second: 5,
	time.Minute: 60,
}

// DiagnosticTelemetry throttles wall-clock-timed diagnostic log
// emission — state transitions, dispatch decisions, and blocked-
// quiescence warnings — so a pathological scenario (a busy scheduler,
// a stalled shutdown loop) cannot flood the structured logger. It is
// explicitly NOT used anywhere in core kernel semantics: every decision
// that affects a replay digest uses only LogicalClock and DetRng (spec
// §1's determinism non-goal forbids wall-clock-dependent behavior in
// deterministic mode). DiagnosticTelemetry.Allow is consulted only by
// logging.go's log* free functions, immediately before they would emit
// a record — never by transition/scheduling logic, so throttling a
// category only silences its diagnostic output, never the kernel's own
// state.
type DiagnosticTelemetry struct {
	limiter *catrate.Limiter
}

// NewDiagnosticTelemetry constructs a telemetry throttle. Passing a nil
// *DiagnosticTelemetry (the zero value of the type via (*DiagnosticTelemetry)(nil))
// is valid and always allows — used when a Runtime is built without
// diagnostic logging enabled.
func NewDiagnosticTelemetry() *DiagnosticTelemetry {
	return &DiagnosticTelemetry{limiter: catrate.NewLimiter(diagnosticRates)}
}

// Allow reports whether a diagnostic log line in category should be
// emitted right now, per the configured rate windows.
func (t *DiagnosticTelemetry) Allow(category string) bool {
	if t == nil || t.limiter == nil {
		return true
	}
	_, ok := t.limiter.Allow(category)
	return ok
}
