package asupersync

// Runtime is the kernel's central orchestrator: it owns every arena,
// the scheduler, the timer wheel, and the event journal, and is the
// sole entry point external callers use. All Handles returned by its
// methods are only ever valid against this Runtime instance.
//
// Runtime is not safe for concurrent use from multiple goroutines —
// like eventloop.Loop, it is a single-threaded cooperative engine;
// callers wanting concurrency must run multiple independent Runtimes
// and communicate across them through their own transport, which is
// explicitly out of scope here (spec §1).
type Runtime struct {
	opts *runtimeOptions

	profile SafetyProfile
	clock   Clock
	rng     *DetRng
	log     *Log
	telemetry *DiagnosticTelemetry

	regions     *arena[regionRecord]
	tasks       *arena[taskRecord]
	obligations *arena[obligationRecord]
	channels    *arena[channelRecord]
	witnesses   *arena[CancelWitness]
	timerSlots  *arena[struct{}]

	scheduler *Scheduler
	wheel     *TimerWheel
	journal   *EventJournal

	allocator *sealedAllocator

	insertionSeq uint64
	rootRegion   Handle

	timerTasks map[Handle]Handle // timer handle -> task handle to wake on fire
}

// NewRuntime constructs a Runtime from the given Options, opens the
// root region, and seals nothing yet (allocator sealing happens
// explicitly via SealAllocator once startup configuration is done).
func NewRuntime(opts ...Option) (*Runtime, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	quarantine := cfg.profile == ProfileDebug

	rt := &Runtime{
		opts:        cfg,
		profile:     cfg.profile,
		clock:       cfg.clock,
		rng:         cfg.rng,
		log:         cfg.log,
		telemetry:   cfg.telemetry,
		regions:     newArena[regionRecord](KindRegion, cfg.regionCapacity, quarantine),
		tasks:       newArena[taskRecord](KindTask, cfg.taskCapacity, quarantine),
		obligations: newArena[obligationRecord](KindObligation, cfg.obligationCapacity, quarantine),
		channels:    newArena[channelRecord](KindChannel, cfg.channelCapacity, quarantine),
		witnesses:   newArena[CancelWitness](KindCancelWitness, cfg.taskCapacity, quarantine),
		timerSlots:  newArena[struct{}](KindTimer, cfg.taskCapacity, quarantine),
		scheduler:   NewScheduler(cfg.rng),
		wheel:       NewTimerWheel(quarantine),
		journal:     NewEventJournal(),
		allocator:   &sealedAllocator{inner: cfg.allocator},
		timerTasks:  make(map[Handle]Handle),
	}

	h, rec, err := rt.regions.Alloc("open_region")
	if err != nil {
		return nil, err
	}
	buf, err := rt.allocator.Alloc(cfg.captureArenaBytes)
	if err != nil {
		return nil, err
	}
	rt.insertionSeq++
	*rec = *newRegionRecord(h, 0, cfg.cleanupStackCapacity, buf, rt.insertionSeq)
	rt.rootRegion = h
	rt.appendEvent(EventRegionOpened, map[string]any{"region": h.String(), "parent": ""})
	return rt, nil
}

// SealAllocator seals the runtime's Allocator hook so any further
// allocation attempt fails with StatusAllocatorSealed (spec §6), the
// hardening idiom for "startup is over; no more unbounded growth".
func (rt *Runtime) SealAllocator() { rt.allocator.Seal() }

// RootRegion returns the Handle of the implicitly-opened root region.
func (rt *Runtime) RootRegion() Handle { return rt.rootRegion }

func (rt *Runtime) nextSeq() uint64 {
	rt.insertionSeq++
	return rt.insertionSeq
}

func (rt *Runtime) now() int64 { return nowLogical(rt.clock) }

func (rt *Runtime) appendEvent(kind EventKind, fields map[string]any) Event {
	return rt.journal.Append(kind, rt.now(), fields)
}

// Journal exposes the event journal for scenario executors and tests.
func (rt *Runtime) Journal() *EventJournal { return rt.journal }

// --- Regions ---

// OpenRegion opens a new sub-region under parent, admission-gated by
// parent's current state (spec §4.4).
func (rt *Runtime) OpenRegion(parent Handle) (Handle, error) {
	prec, err := rt.regions.Lookup("open_region", parent)
	if err != nil {
		return 0, err
	}
	if err := prec.admitOpenSubRegion(); err != nil {
		return 0, err
	}
	h, rec, err := rt.regions.Alloc("open_region")
	if err != nil {
		return 0, err
	}
	buf, err := rt.allocator.Alloc(rt.opts.captureArenaBytes)
	if err != nil {
		_ = rt.regions.Free("open_region", h)
		return 0, err
	}
	seq := rt.nextSeq()
	*rec = *newRegionRecord(h, parent, rt.opts.cleanupStackCapacity, buf, seq)
	prec.childRegions = append(prec.childRegions, h)
	rt.appendEvent(EventRegionOpened, map[string]any{"region": h.String(), "parent": parent.String()})
	logTransition(rt.log, rt.telemetry, KindRegion, h, "", RegionOpen.String())
	return h, nil
}

// regionLookup is a small helper shared by every region operation.
func (rt *Runtime) regionLookup(op string, h Handle) (*regionRecord, error) {
	return rt.regions.Lookup(op, h)
}

// CloseRegion begins (or continues) a region's Open→Closing→Draining→
// Finalizing→Closed progression. It is safe to call repeatedly as a
// driver loop: a call on an Open region moves it to Closing only; a
// call on a Closing or Draining region whose children are gone runs
// straight through to Closed, taking the Closing→Finalizing fast path
// when the region has no child tasks or sub-regions left. On reaching
// Closed the region is detached from its parent's child list; its own
// arena slot is not reclaimed, so its Handle stays valid and a further
// call returns StatusRegionClosed.
func (rt *Runtime) CloseRegion(h Handle) error {
	r, err := rt.regionLookup("close_region", h)
	if err != nil {
		return err
	}
	switch r.state {
	case RegionOpen:
		if err := rt.setRegionState(r, RegionClosing); err != nil {
			return err
		}
	case RegionClosing:
		if !r.canReachClosed() {
			return newError("close_region", StatusIncompleteChildren, "region %s still has live children", h)
		}
		next := RegionDraining
		if r.fastPathEligible() {
			next = RegionFinalizing
		}
		if err := rt.setRegionState(r, next); err != nil {
			return err
		}
		fallthrough
	case RegionDraining:
		if r.state == RegionDraining {
			if !r.canReachClosed() {
				return newError("close_region", StatusIncompleteChildren, "region %s still draining", h)
			}
			if err := rt.setRegionState(r, RegionFinalizing); err != nil {
				return err
			}
		}
		fallthrough
	case RegionFinalizing:
		if r.state == RegionFinalizing {
			rt.finalizeRegion(r)
			if err := rt.setRegionState(r, RegionClosed); err != nil {
				return err
			}
			if p, err := rt.regionLookup("close_region", r.parent); err == nil {
				for i, c := range p.childRegions {
					if c == h {
						p.childRegions = append(p.childRegions[:i], p.childRegions[i+1:]...)
						break
					}
				}
			}
		}
	case RegionClosed:
		return newError("close_region", StatusRegionClosed, "region %s already Closed", h)
	}
	return nil
}

func (rt *Runtime) setRegionState(r *regionRecord, to RegionState) error {
	from := r.state
	if err := regionTransitionCheck("close_region", from, to); err != nil {
		return err
	}
	r.state = to
	rt.appendEvent(EventRegionTransitioned, map[string]any{"region": r.handle.String(), "from": from.String(), "to": to.String()})
	logTransition(rt.log, rt.telemetry, KindRegion, r.handle, from.String(), to.String())
	return nil
}

// finalizeRegion drains the cleanup stack, leaks any still-Reserved
// obligations (surfacing them in the region's Outcome rather than
// silently dropping them), and reclaims the capture arena.
func (rt *Runtime) finalizeRegion(r *regionRecord) {
	r.cleanup.Drain()
	var leaked int
	for _, oh := range r.obligationHandles {
		orec, err := rt.obligations.Lookup("finalize_region", oh)
		if err != nil {
			continue
		}
		if !orec.state.terminal() {
			_ = orec.Leak()
			r.reservedObligations--
			leaked++
			rt.appendEvent(EventObligationResolved, map[string]any{"obligation": oh.String(), "region": r.handle.String(), "state": ObligationLeaked.String()})
		}
	}
	if leaked > 0 {
		r.outcome = r.outcome.Join(ErrOutcome(newError("finalize_region", StatusObligationLeaked, "region %s leaked %d obligation(s)", r.handle, leaked)))
	}
	r.capture.Reset()
}

// --- Tasks ---

// SpawnTask creates a task in region, admission-gated, and enqueues it
// onto the Ready lane.
func (rt *Runtime) SpawnTask(region Handle, poll PollFunc, budget Budget) (Handle, error) {
	r, err := rt.regionLookup("task_spawn", region)
	if err != nil {
		return 0, err
	}
	if err := r.admitSpawnTask(); err != nil {
		return 0, err
	}
	h, rec, err := rt.tasks.Alloc("task_spawn")
	if err != nil {
		return 0, err
	}
	seq := rt.nextSeq()
	*rec = *newTaskRecord(h, region, poll, budget, seq)
	r.childTasks = append(r.childTasks, h)
	rt.scheduler.Enqueue(laneReady, h, budget.Priority, seq)
	rt.appendEvent(EventTaskSpawned, map[string]any{"task": h.String(), "region": region.String()})
	return h, nil
}

func (rt *Runtime) taskLookup(op string, h Handle) (*taskRecord, error) {
	return rt.tasks.Lookup(op, h)
}

// TaskErrorLedger returns a snapshot of task's recorded kernel-operation
// errors (spec §7's per-task error ledger), oldest surviving entry
// first. Valid for completed tasks as well as active ones, since task
// slots are never freed.
func (rt *Runtime) TaskErrorLedger(task Handle) ([]errorLedgerEntry, error) {
	t, err := rt.taskLookup("task_error_ledger", task)
	if err != nil {
		return nil, err
	}
	return t.ledger.Entries(), nil
}

// removeTaskFromRegion detaches h from its owning region's child list,
// called once a task reaches Completed.
func (rt *Runtime) removeTaskFromRegion(t *taskRecord) {
	r, err := rt.regionLookup("task_complete", t.region)
	if err != nil {
		return
	}
	for i, c := range r.childTasks {
		if c == t.handle {
			r.childTasks = append(r.childTasks[:i], r.childTasks[i+1:]...)
			break
		}
	}
}

// budgetExhaustionKind classifies why b is exhausted as of now, in the
// priority order poll-quota > cost-quota > deadline (the first
// exhausted component is the one attributed), so the cancellation
// reason's CancelKind matches the actual bound that expired rather than
// a generic catch-all (spec §3's three distinct quota/deadline cancel
// kinds).
func budgetExhaustionKind(b Budget, now int64) (kind CancelKind, exhausted bool, reason string) {
	switch {
	case b.PollQuota == 0:
		return CancelPollQuota, true, "poll quota exhausted"
	case b.CostQuota == 0:
		return CancelCostBudget, true, "cost budget exhausted"
	case b.Deadline != noDeadline && now >= b.Deadline:
		return CancelDeadline, true, "deadline elapsed"
	default:
		return 0, false, ""
	}
}

// Dispatch pops the next task the scheduler selects and polls it once.
// It returns false if every lane is empty (the caller should instead
// service timers/external events and retry). The task's poll function
// always runs with a Checkpoint bound to its own region/task identity.
func (rt *Runtime) Dispatch() (bool, error) {
	taskHandle, gov, ok := rt.scheduler.Next()
	if !ok {
		return false, nil
	}
	t, err := rt.taskLookup("dispatch", taskHandle)
	if err != nil {
		return true, err
	}
	logDispatch(rt.log, rt.telemetry, taskHandle, gov)
	rt.appendEvent(EventDispatchDecided, map[string]any{"task": taskHandle.String(), "lane": gov.lane.String(), "forced": gov.forced})

	if t.state == TaskCreated {
		if err := t.transition("dispatch", TaskRunning); err != nil {
			return true, err
		}
		logTransition(rt.log, rt.telemetry, KindTask, taskHandle, TaskCreated.String(), TaskRunning.String())
	}

	if kind, exhausted, reason := budgetExhaustionKind(t.budget, rt.now()); exhausted {
		_ = rt.requestTaskCancelChain(taskHandle, kind, reason, nil)
	}

	t.parked = false
	cp := &Checkpoint{rt: rt, task: t}
	result := t.poll(cp)

	if result.Pending {
		if !t.parked {
			rt.scheduler.Enqueue(laneReady, taskHandle, t.priority, rt.nextSeq())
		}
		return true, nil
	}
	return true, rt.completeTask(t, result.Outcome)
}

func (rt *Runtime) completeTask(t *taskRecord, polled Outcome) error {
	final := t.finalOutcome(polled)
	t.outcome = final
	from := t.state
	to := TaskCompleted
	if t.witness != nil && t.witness.Phase < PhaseCompleted {
		// A cancelled task must pass through Cancelling before Completed;
		// a poll function that returns Done immediately upon observing
		// cancellation still needs the witness phase advanced so the
		// monotone-phase invariant holds at the journal level.
		_ = t.witness.strengthen("task_complete", PhaseCompleted, t.witness.Reason)
	}
	if err := t.transition("task_complete", to); err != nil {
		return err
	}
	logTransition(rt.log, rt.telemetry, KindTask, t.handle, from.String(), to.String())
	rt.appendEvent(EventTaskTransitioned, map[string]any{"task": t.handle.String(), "from": from.String(), "to": to.String(), "outcome": final.String()})
	rt.removeTaskFromRegion(t)
	rt.scheduler.Remove(laneReady, t.handle)
	rt.scheduler.Remove(laneTimed, t.handle)
	rt.scheduler.Remove(laneCancel, t.handle)
	return nil
}

// wake re-enqueues task (previously parked) onto the Ready lane. lane
// selection beyond Ready is handled by the timer/cancel-specific wake
// paths (wakeTimed, wakeCancel) since a generic wake doesn't know why
// the task became runnable.
func (rt *Runtime) wake(task Handle, reason string) {
	t, err := rt.taskLookup("wake", task)
	if err != nil {
		return
	}
	if t.state == TaskCompleted {
		return
	}
	t.parked = false
	t.lastLaneReason = reason
	rt.scheduler.Enqueue(laneReady, task, t.priority, rt.nextSeq())
}

func (rt *Runtime) wakeTimed(task Handle) {
	t, err := rt.taskLookup("wake_timed", task)
	if err != nil {
		return
	}
	if t.state == TaskCompleted {
		return
	}
	t.parked = false
	rt.scheduler.Enqueue(laneTimed, task, t.priority, rt.nextSeq())
}

func (rt *Runtime) wakeCancel(task Handle) {
	t, err := rt.taskLookup("wake_cancel", task)
	if err != nil {
		return
	}
	if t.state == TaskCompleted {
		return
	}
	t.parked = false
	rt.scheduler.Enqueue(laneCancel, task, t.priority, rt.nextSeq())
}

// --- Cancellation ---

// RequestTaskCancel requests cancellation of a single task.
func (rt *Runtime) RequestTaskCancel(task Handle, kind CancelKind, message string) error {
	return rt.requestTaskCancelChain(task, kind, message, nil)
}

func (rt *Runtime) requestTaskCancelChain(task Handle, kind CancelKind, message string, chain []attributionLink) error {
	t, err := rt.taskLookup("request_cancel", task)
	if err != nil {
		return err
	}
	if err := t.requestCancel(kind, t.region, rt.now(), message, chain); err != nil {
		if StatusOf(err) == StatusWitnessReasonWeakened && t.witness != nil {
			rt.appendEvent(EventCancelStrengthenDeclined, map[string]any{
				"task":              task.String(),
				"attempted_kind":    kind.String(),
				"original_severity": int64(t.witness.Reason.Kind.severity()),
			})
		}
		return err
	}
	rt.appendEvent(EventCancelRequested, map[string]any{"task": task.String(), "kind": kind.String(), "message": message})
	if !t.parked {
		rt.wakeCancel(task)
	}
	return nil
}

// RequestRegionCancel cascades a cancellation request to every
// currently-live descendant task and sub-region of region (spec §4.5's
// parent→child cancellation propagation). Each intermediate region the
// cascade passes through before reaching a task adds one hop to that
// task's witness attribution chain, so a task cancelled by a distant
// ancestor's region close can be traced back through every region it
// passed through.
func (rt *Runtime) RequestRegionCancel(region Handle, kind CancelKind, message string) error {
	return rt.cascadeRegionCancel(region, kind, message, nil)
}

func (rt *Runtime) cascadeRegionCancel(region Handle, kind CancelKind, message string, chain []attributionLink) error {
	r, err := rt.regionLookup("request_region_cancel", region)
	if err != nil {
		return err
	}
	for _, th := range r.childTasks {
		_ = rt.requestTaskCancelChain(th, kind, message, chain)
	}
	for _, rh := range r.childRegions {
		nextChain := append(append([]attributionLink{}, chain...), attributionLink{region: region, message: message})
		_ = rt.cascadeRegionCancel(rh, kind, message, nextChain)
	}
	return nil
}

// ackCancel advances a task's witness phase, called by the task's own
// poll function (via Checkpoint.AckCancel) as it progresses through its
// own cancellation response.
func (rt *Runtime) ackCancel(task Handle, phase WitnessPhase) error {
	t, err := rt.taskLookup("ack_cancel", task)
	if err != nil {
		return err
	}
	if err := t.ackCancel(phase); err != nil {
		return err
	}
	rt.appendEvent(EventCancelAcked, map[string]any{"task": task.String(), "phase": phase.String()})
	switch phase {
	case PhaseCancelling:
		return t.transition("ack_cancel", TaskCancelling)
	case PhaseFinalizing:
		return t.transition("ack_cancel", TaskFinalizing)
	}
	return nil
}

// --- Obligations ---

// ReserveObligation reserves a linear obligation owned by region.
func (rt *Runtime) ReserveObligation(region Handle, kind string, cost int64) (Handle, error) {
	r, err := rt.regionLookup("obligation_reserve", region)
	if err != nil {
		return 0, err
	}
	if err := r.admitReserveObligation(); err != nil {
		return 0, err
	}
	h, rec, err := rt.obligations.Alloc("obligation_reserve")
	if err != nil {
		return 0, err
	}
	seq := rt.nextSeq()
	*rec = *newObligationRecord(h, region, kind, cost, seq)
	r.reservedObligations++
	r.obligationHandles = append(r.obligationHandles, h)
	rt.appendEvent(EventObligationReserved, map[string]any{"obligation": h.String(), "region": region.String(), "kind": kind})
	return h, nil
}

func (rt *Runtime) resolveObligation(op string, h Handle, to ObligationState) error {
	o, err := rt.obligations.Lookup(op, h)
	if err != nil {
		return err
	}
	r, err := rt.regionLookup(op, o.region)
	if err != nil {
		return err
	}
	if err := r.admitResolveObligation(); err != nil {
		return err
	}
	if err := o.resolve(op, to); err != nil {
		return err
	}
	r.reservedObligations--
	rt.appendEvent(EventObligationResolved, map[string]any{"obligation": h.String(), "state": to.String()})
	return nil
}

// CommitObligation resolves an obligation as fulfilled.
func (rt *Runtime) CommitObligation(h Handle) error {
	return rt.resolveObligation("obligation_commit", h, ObligationCommitted)
}

// AbortObligation resolves an obligation as deliberately released.
func (rt *Runtime) AbortObligation(h Handle) error {
	return rt.resolveObligation("obligation_abort", h, ObligationAborted)
}

// --- Channels ---

// OpenChannel allocates a new Channel[T] with the given buffer capacity
// and send policy. senderCount is the number of live producer handles
// expected to call ReleaseSender when they finish, after which the
// channel transitions to send-closed once drained.
func OpenChannel[T any](rt *Runtime, capacity int, evictOldest bool, senderCount int) (Channel[T], error) {
	h, rec, err := rt.channels.Alloc("open_channel")
	if err != nil {
		return Channel[T]{}, err
	}
	*rec = *newChannelRecord(h, capacity, evictOldest, senderCount)
	return Channel[T]{handle: h, runtime: rt}, nil
}

func (rt *Runtime) channelRecordFor(op string, h Handle) (*channelRecord, error) {
	return rt.channels.Lookup(op, h)
}

// --- Timers ---

// RegisterTimer schedules task to be woken on the Timed lane once
// logical time reaches deadline (absolute ticks). coalesce is recorded
// on the timer entry but does not affect firing: every timer fires at
// its exact deadline, and timers are not grouped.
func (rt *Runtime) RegisterTimer(task Handle, deadline int64, coalesce int64) (Handle, error) {
	slotHandle, _, err := rt.timerSlots.Alloc("timer_register")
	if err != nil {
		return 0, err
	}
	e := rt.wheel.Register(slotHandle.Slot(), slotHandle.Generation(), deadline, coalesce)
	rt.timerTasks[e.handle] = task
	rt.appendEvent(EventTimerRegistered, map[string]any{"timer": slotHandle.String(), "task": task.String(), "deadline": deadline})
	return slotHandle, nil
}

// CancelTimer cancels a previously registered timer.
func (rt *Runtime) CancelTimer(h Handle) error {
	if err := rt.wheel.Cancel("timer_cancel", h); err != nil {
		return err
	}
	delete(rt.timerTasks, h)
	_ = rt.timerSlots.Free("timer_cancel", h)
	rt.appendEvent(EventTimerCancelled, map[string]any{"timer": h.String()})
	return nil
}

// AdvanceTime moves the logical clock forward by delta and wakes every
// task whose timer fired, in canonical (deadline, insertion) order.
func (rt *Runtime) AdvanceTime(delta int64) {
	if lc, ok := rt.clock.(*LogicalClock); ok {
		lc.Advance(delta)
	}
	fired := rt.wheel.Advance(delta)
	for _, e := range fired {
		task, ok := rt.timerTasks[e.handle]
		delete(rt.timerTasks, e.handle)
		_ = rt.timerSlots.Free("timer_fire", e.handle)
		rt.appendEvent(EventTimerFired, map[string]any{"timer": e.handle.String(), "deadline": e.deadline})
		if ok && task != 0 {
			rt.wakeTimed(task)
		}
	}
	rt.checkBudgetDeadlines()
}

// checkBudgetDeadlines scans every live, non-completed task for an
// elapsed Budget deadline (a task can carry a deadline with no
// registered Timer at all — Budget and the timer wheel are independent
// mechanisms per spec §3/§4.2) and requests CancelDeadline for each one
// found, waking it onto the Cancel lane so it observes the
// cancellation on its next dispatch rather than waiting on some other
// suspension point indefinitely.
func (rt *Runtime) checkBudgetDeadlines() {
	now := rt.now()
	for i := range rt.tasks.slots {
		slot := &rt.tasks.slots[i]
		if !slot.live || slot.value.state == TaskCompleted {
			continue
		}
		if kind, exhausted, reason := budgetExhaustionKind(slot.value.budget, now); exhausted && kind == CancelDeadline {
			_ = rt.requestTaskCancelChain(slot.value.handle, kind, reason, nil)
		}
	}
}

// --- Quiescence & shutdown ---

// CheckQuiescence evaluates the five-condition conjunction across the
// whole runtime (every region, not just the root), in the fixed order
// of spec §4.9.
func (rt *Runtime) CheckQuiescence() QuiescenceReport {
	tasksActive := 0
	for i := range rt.tasks.slots {
		if rt.tasks.slots[i].live && rt.tasks.slots[i].value.state != TaskCompleted {
			tasksActive++
		}
	}
	obligationsOpen := 0
	for i := range rt.obligations.slots {
		if rt.obligations.slots[i].live && !rt.obligations.slots[i].value.state.terminal() {
			obligationsOpen++
		}
	}
	// The root region itself is deliberately excluded: it is still Open
	// (or Closing) at the moment Shutdown calls CheckQuiescence, since
	// closing it is the very last step that follows a satisfied report
	// (see Shutdown's doc comment). Counting it here would make quiescence
	// permanently unreachable for the whole-runtime check.
	regionsOpen := 0
	for i := range rt.regions.slots {
		isRoot := uint16(i) == rt.rootRegion.Slot() && rt.regions.slots[i].generation == rt.rootRegion.Generation()
		if rt.regions.slots[i].live && !isRoot && rt.regions.slots[i].value.state != RegionClosed {
			regionsOpen++
		}
	}
	timersPending := rt.wheel.Pending()
	channelsUndrained := 0
	for i := range rt.channels.slots {
		if rt.channels.slots[i].live && !rt.channels.slots[i].value.drained() {
			channelsUndrained++
		}
	}
	report := evaluateQuiescence(tasksActive, obligationsOpen, regionsOpen, timersPending, channelsUndrained)
	rt.appendEvent(EventQuiescenceChecked, map[string]any{"satisfied": report.Satisfied(), "first": report.First.String()})
	if !report.Satisfied() {
		logQuiescenceFailure(rt.log, rt.telemetry, report)
	}
	return report
}

// Shutdown requests cancellation of the root region's whole subtree and
// reports whether quiescence is reached; it does not itself loop
// Dispatch — the host drives Dispatch/AdvanceTime until CheckQuiescence
// reports satisfied, then calls CloseRegion on the root.
func (rt *Runtime) Shutdown() error {
	if err := rt.RequestRegionCancel(rt.rootRegion, CancelShutdown, "runtime shutdown"); err != nil {
		return err
	}
	report := rt.CheckQuiescence()
	if !report.Satisfied() {
		return newError("shutdown", report.First.status(), "quiescence not reached: %s", report.First)
	}
	return rt.CloseRegion(rt.rootRegion)
}

// Checkpoint is the per-poll view a task's PollFunc receives: it can
// observe cancellation, consume budget, and reach its region's capture
// arena, all scoped to the task currently being polled.
type Checkpoint struct {
	rt   *Runtime
	task *taskRecord
}

// Cancelled reports whether a cancellation is outstanding against this
// checkpoint's task, along with its current reason.
func (cp *Checkpoint) Cancelled() (bool, *CancelReason) {
	if cp.task.witness == nil {
		return false, nil
	}
	return cp.task.cancelRequested(), cp.task.witness.Reason
}

// AckCancel advances this task's cancellation witness phase.
func (cp *Checkpoint) AckCancel(phase WitnessPhase) error {
	err := cp.rt.ackCancel(cp.task.handle, phase)
	cp.task.noteErr("checkpoint_ack_cancel", err)
	return err
}

// Budget returns the task's current budget.
func (cp *Checkpoint) Budget() Budget { return cp.task.budget }

// ConsumeCost consumes n cost-budget units, failure-atomic.
func (cp *Checkpoint) ConsumeCost(n int64) error {
	b, err := cp.task.budget.ConsumeCost(n)
	if err != nil {
		cp.task.noteErr("checkpoint_consume_cost", err)
		return err
	}
	cp.task.budget = b
	return nil
}

// ConsumePoll consumes n poll-budget units, failure-atomic.
func (cp *Checkpoint) ConsumePoll(n int64) error {
	b, err := cp.task.budget.ConsumePoll(n)
	if err != nil {
		cp.task.noteErr("checkpoint_consume_poll", err)
		return err
	}
	cp.task.budget = b
	return nil
}

// Arena returns this task's owning region's capture arena, after
// validating the region is still accepting arena access.
func (cp *Checkpoint) Arena() (*captureArena, error) {
	r, err := cp.rt.regionLookup("checkpoint_arena", cp.task.region)
	if err != nil {
		cp.task.noteErr("checkpoint_arena", err)
		return nil, err
	}
	if err := r.admitAccessArena(); err != nil {
		cp.task.noteErr("checkpoint_arena", err)
		return nil, err
	}
	return r.capture, nil
}

// ErrorLedger returns a snapshot of this task's recorded kernel-
// operation errors (spec §7), oldest surviving entry first.
func (cp *Checkpoint) ErrorLedger() []errorLedgerEntry { return cp.task.ledger.Entries() }

// Park marks this checkpoint's task as not eligible for the scheduler's
// default Pending->Ready auto-requeue; some other wake source (a
// channel send/recv or a fired timer) must re-enqueue it.
func (cp *Checkpoint) Park() { cp.task.parked = true }

// Task returns the Handle of the task being polled.
func (cp *Checkpoint) Task() Handle { return cp.task.handle }

// Region returns the Handle of the task's owning region.
func (cp *Checkpoint) Region() Handle { return cp.task.region }
