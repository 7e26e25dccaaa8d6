// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asupersync

// SafetyProfile selects one of the three fixed operating profiles of
// spec §6: Debug trades throughput for maximal contract-violation
// detection (slot quarantine, extra assertions), Hardened keeps
// detection on for the checks cheap enough to always run, and Release
// drops everything not required for correctness. Crucially, none of the
// three profiles change observable *semantics* — only which internal
// checks run and how aggressively slots are reclaimed.
type SafetyProfile uint8

const (
	ProfileRelease SafetyProfile = iota
	ProfileHardened
	ProfileDebug
)

func (p SafetyProfile) String() string {
	switch p {
	case ProfileRelease:
		return "Release"
	case ProfileHardened:
		return "Hardened"
	case ProfileDebug:
		return "Debug"
	default:
		return "Unknown"
	}
}

// runtimeOptions holds the resolved configuration for a new Runtime.
// Grounded on eventloop/options.go's loopOptions: an unexported config
// struct filled in by a slice of Option values, then validated once at
// construction.
type runtimeOptions struct {
	profile SafetyProfile
	clock   Clock
	rng     *DetRng
	seed    uint64
	log     *Log
	telemetry *DiagnosticTelemetry

	regionCapacity     int
	taskCapacity       int
	obligationCapacity int
	channelCapacity    int

	cleanupStackCapacity int
	captureArenaBytes    int

	allocator Allocator
	entropy   Entropy
}

// Option configures a Runtime at construction time, per
// eventloop/options.go's LoopOption/loopOptionImpl pattern: an
// interface with an unexported apply method, implemented by a closure
// wrapper so call sites never need to name the concrete type.
type Option interface {
	apply(*runtimeOptions) error
}

type optionFunc func(*runtimeOptions) error

func (f optionFunc) apply(o *runtimeOptions) error { return f(o) }

// WithProfile selects the SafetyProfile (default ProfileHardened).
func WithProfile(p SafetyProfile) Option {
	return optionFunc(func(o *runtimeOptions) error {
		o.profile = p
		return nil
	})
}

// WithSeed sets the DetRng seed (default 0). Two Runtimes constructed
// with the same seed and driven through the same op sequence produce
// identical journals and digests.
func WithSeed(seed uint64) Option {
	return optionFunc(func(o *runtimeOptions) error {
		o.seed = seed
		o.rng = NewDetRng(seed)
		return nil
	})
}

// WithClock overrides the default LogicalClock. Supplying a WallClock
// is rejected when the runtime is also configured deterministic (which
// is always, today — the kernel has no non-deterministic mode yet, so
// this hook exists for the host-driven clock variants spec §6 permits
// as future external collaborators).
func WithClock(c Clock) Option {
	return optionFunc(func(o *runtimeOptions) error {
		switch c.(type) {
		case WallClock, *WallClock:
			return newError("with_clock", StatusDeterminismViolation, "WallClock is not permitted for a deterministic Runtime")
		}
		o.clock = c
		return nil
	})
}

// WithLog installs a structured logger (default: discard).
func WithLog(l *Log) Option {
	return optionFunc(func(o *runtimeOptions) error {
		o.log = l
		return nil
	})
}

// WithDiagnosticTelemetry installs a wall-clock-rate-limited diagnostic
// logging throttle (default: unthrottled, i.e. nil/always-allow).
func WithDiagnosticTelemetry(t *DiagnosticTelemetry) Option {
	return optionFunc(func(o *runtimeOptions) error {
		o.telemetry = t
		return nil
	})
}

// WithCapacities sets the fixed arena capacities for regions, tasks,
// obligations, and channels. Each must be in (0, 65536] since slot
// indices are packed into 16 bits of a Handle.
func WithCapacities(regions, tasks, obligations, channels int) Option {
	return optionFunc(func(o *runtimeOptions) error {
		for _, n := range []int{regions, tasks, obligations, channels} {
			if n <= 0 || n > 1<<16 {
				return newError("with_capacities", StatusInvalidArgument, "capacity %d out of range (0, 65536]", n)
			}
		}
		o.regionCapacity, o.taskCapacity, o.obligationCapacity, o.channelCapacity = regions, tasks, obligations, channels
		return nil
	})
}

// WithCleanupStackCapacity sets the per-region cleanup-stack depth
// (default 64).
func WithCleanupStackCapacity(n int) Option {
	return optionFunc(func(o *runtimeOptions) error {
		if n <= 0 {
			return newError("with_cleanup_stack_capacity", StatusInvalidArgument, "capacity must be positive, got %d", n)
		}
		o.cleanupStackCapacity = n
		return nil
	})
}

// WithCaptureArenaBytes sets the per-region capture arena size in bytes
// (default 4096).
func WithCaptureArenaBytes(n int) Option {
	return optionFunc(func(o *runtimeOptions) error {
		if n <= 0 {
			return newError("with_capture_arena_bytes", StatusInvalidArgument, "size must be positive, got %d", n)
		}
		o.captureArenaBytes = n
		return nil
	})
}

// WithAllocator installs a host Allocator hook (spec §6). The default
// is a plain Go-heap-backed Allocator.
func WithAllocator(a Allocator) Option {
	return optionFunc(func(o *runtimeOptions) error {
		o.allocator = a
		return nil
	})
}

// WithEntropy installs a host Entropy hook used only to seed the
// DetRng when WithSeed is not supplied (spec §6). The default reads
// from a fixed, non-random constant — a Runtime constructed with
// neither WithSeed nor WithEntropy is still fully deterministic, just
// not operator-chosen.
func WithEntropy(e Entropy) Option {
	return optionFunc(func(o *runtimeOptions) error {
		o.entropy = e
		return nil
	})
}

// resolveOptions applies opts over a set of documented defaults,
// matching eventloop/options.go's resolveLoopOptions: defaults first,
// then each option in order, skipping nil entries.
func resolveOptions(opts []Option) (*runtimeOptions, error) {
	cfg := &runtimeOptions{
		profile:              ProfileHardened,
		clock:                &LogicalClock{},
		regionCapacity:       1024,
		taskCapacity:         4096,
		obligationCapacity:   4096,
		channelCapacity:      1024,
		cleanupStackCapacity: 64,
		captureArenaBytes:    4096,
		allocator:            defaultAllocator{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.rng == nil {
		seed := cfg.seed
		if cfg.entropy != nil {
			seed = cfg.entropy.Seed()
		}
		cfg.rng = NewDetRng(seed)
	}
	if cfg.log == nil {
		cfg.log = discardLog()
	}
	return cfg, nil
}

// Allocator is the host memory hook of spec §6: the Runtime's capture
// arenas are allocated through it, so an embedded target can supply a
// static-pool or platform-specific allocator instead of the Go heap.
type Allocator interface {
	Alloc(size int) ([]byte, error)
}

// defaultAllocator is a thin Go-heap-backed Allocator, the default used
// when WithAllocator is not supplied.
type defaultAllocator struct{}

func (defaultAllocator) Alloc(size int) ([]byte, error) { return make([]byte, size), nil }

// Entropy is the host hook of spec §6 for obtaining a seed value when
// the caller wants operator-controlled randomness sourced from outside
// the process (e.g. a hardware RNG on an embedded target) rather than
// an explicit WithSeed literal.
type Entropy interface {
	Seed() uint64
}

// sealedAllocator wraps an Allocator and rejects every call after Seal,
// implementing spec §6's "AllocatorSealed" hardening mode: once a
// Runtime finishes its startup allocations, further allocation attempts
// (which would indicate an unbounded-growth bug) fail fast instead of
// silently growing.
type sealedAllocator struct {
	inner  Allocator
	sealed bool
}

func (a *sealedAllocator) Alloc(size int) ([]byte, error) {
	if a.sealed {
		return nil, newError("alloc", StatusAllocatorSealed, "allocator sealed: requested %d bytes", size)
	}
	return a.inner.Alloc(size)
}

func (a *sealedAllocator) Seal() { a.sealed = true }
