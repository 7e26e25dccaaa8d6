package asupersync

// QuiescenceFailure names which of the five conjunctive conditions (spec
// §4.9) is currently false, blocking a full-runtime shutdown.
type QuiescenceFailure uint8

const (
	QuiescenceOK QuiescenceFailure = iota
	TasksStillActive
	ObligationsUnresolved
	RegionsNotClosed
	TimersPending
	ChannelNotDrained
)

func (f QuiescenceFailure) String() string {
	switch f {
	case QuiescenceOK:
		return "Ok"
	case TasksStillActive:
		return "TasksStillActive"
	case ObligationsUnresolved:
		return "ObligationsUnresolved"
	case RegionsNotClosed:
		return "RegionsNotClosed"
	case TimersPending:
		return "TimersPending"
	case ChannelNotDrained:
		return "ChannelNotDrained"
	default:
		return "Unknown"
	}
}

func (f QuiescenceFailure) status() Status {
	switch f {
	case TasksStillActive:
		return StatusTasksStillActive
	case ObligationsUnresolved:
		return StatusObligationsUnresolved
	case RegionsNotClosed:
		return StatusRegionsNotClosed
	case TimersPending:
		return StatusTimersPending
	case ChannelNotDrained:
		return StatusChannelNotDrained
	default:
		return StatusOK
	}
}

// QuiescenceReport is the verbose diagnostic Runtime.CheckQuiescence
// returns: one count per condition plus the first-encountered failure,
// in the fixed evaluation order of spec §4.9 (tasks, obligations,
// regions, timers, channels) so two runs against the same state always
// report the same first failure.
type QuiescenceReport struct {
	TasksActive        int
	ObligationsOpen    int
	RegionsOpen        int
	TimersPendingCount int
	ChannelsUndrained  int
	First              QuiescenceFailure
}

// Satisfied reports whether all five conditions hold.
func (r QuiescenceReport) Satisfied() bool { return r.First == QuiescenceOK }

// evaluateQuiescence computes the conjunction in the spec's fixed order
// and records the first failing condition.
func evaluateQuiescence(tasksActive, obligationsOpen, regionsOpen, timersPending, channelsUndrained int) QuiescenceReport {
	r := QuiescenceReport{
		TasksActive:        tasksActive,
		ObligationsOpen:    obligationsOpen,
		RegionsOpen:        regionsOpen,
		TimersPendingCount: timersPending,
		ChannelsUndrained:  channelsUndrained,
	}
	switch {
	case tasksActive > 0:
		r.First = TasksStillActive
	case obligationsOpen > 0:
		r.First = ObligationsUnresolved
	case regionsOpen > 0:
		r.First = RegionsNotClosed
	case timersPending > 0:
		r.First = TimersPending
	case channelsUndrained > 0:
		r.First = ChannelNotDrained
	default:
		r.First = QuiescenceOK
	}
	return r
}
