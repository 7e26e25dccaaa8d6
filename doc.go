// Package asupersync implements the deterministic runtime kernel of a
// structured-concurrency system: region/task/obligation lifecycle
// management, cooperative cancellation, a bounded MPSC channel, a
// hierarchical timer wheel, and a three-lane deterministic scheduler,
// all emitting a canonical, replayable event journal.
//
// # Architecture
//
// A [Runtime] owns a set of fixed-capacity arenas (regions, tasks,
// obligations, timers, channels), a [Scheduler], a [TimerWheel], and an
// [EventJournal]. External callers interact exclusively through opaque
// [Handle] values; every mutation routes through the transition
// authority, so no observable state machine ever takes an illegal arc.
//
// The kernel is single-threaded and cooperative by design: tasks are
// poll functions driven by the scheduler, and the only suspension
// points are [Checkpoint], [Channel.Reserve], [Channel.Recv], and the
// scheduler's own park. Given identical (seed, scenario, profile)
// inputs, two runs of the same [Runtime] produce byte-identical event
// journals and digests ([EventJournal.Digest]).
//
// # Profiles
//
// [SafetyProfile] (Debug/Hardened/Release) and platform-tuning options
// never change observable semantics — only validation depth, telemetry,
// and wait policy. [NewRuntime] accepts [Option] values to configure
// both.
//
// # Determinism
//
// A [Runtime] always runs in deterministic mode: its default clock is a
// [LogicalClock], its [DetRng] is always seeded, and [WithClock] rejects
// a [WallClock]. There is no non-deterministic mode; [WallClock] exists
// for manual testing outside a Runtime.
package asupersync
