package asupersync

// obligationRecord is the arena payload for an Obligation (spec §3): a
// linear resource reservation that must be resolved exactly once, by
// Commit or Abort, before its owning region can close. An obligation
// left Reserved when its region would otherwise reach Closed is
// reclassified Leaked rather than silently dropped — the region close
// surfaces this as StatusObligationLeaked.
type obligationRecord struct {
	handle Handle
	region Handle
	state  ObligationState

	kind string // caller-supplied label, e.g. "file_descriptor", "lock_slot"
	cost int64  // nominal cost-budget units charged against the owning region

	insertionSeq uint64
}

func newObligationRecord(h, region Handle, kind string, cost int64, seq uint64) *obligationRecord {
	return &obligationRecord{
		handle:       h,
		region:       region,
		state:        ObligationReserved,
		kind:         kind,
		cost:         cost,
		insertionSeq: seq,
	}
}

// resolve drives the obligation to a terminal state, validating the arc
// via obligationTransitionCheck. Re-resolving an already-terminal
// obligation returns StatusObligationAlreadyResolved without mutating
// state, so Commit/Abort/Leak are each individually idempotent-safe to
// call defensively (the caller still must not race two distinct resolvers).
func (o *obligationRecord) resolve(op string, to ObligationState) error {
	if err := obligationTransitionCheck(op, o.state, to); err != nil {
		return err
	}
	o.state = to
	return nil
}

// Commit resolves the obligation as fulfilled.
func (o *obligationRecord) Commit() error { return o.resolve("obligation_commit", ObligationCommitted) }

// Abort resolves the obligation as deliberately released without
// fulfillment (e.g. the reservation's purpose was cancelled).
func (o *obligationRecord) Abort() error { return o.resolve("obligation_abort", ObligationAborted) }

// Leak is invoked only by region-close quiescence checking: it marks a
// still-Reserved obligation Leaked so the region can proceed to Closed
// while the leak is surfaced in the region's terminal Outcome rather
// than silently discarded (spec §4.4).
func (o *obligationRecord) Leak() error { return o.resolve("obligation_leak", ObligationLeaked) }
