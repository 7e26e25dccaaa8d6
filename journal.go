package asupersync

import "sort"

// EventKind enumerates the canonical journal record kinds (spec §3/§10).
// Every externally observable state change the kernel makes is
// recorded as exactly one Event, in the order it was applied.
type EventKind uint8

const (
	EventRegionOpened EventKind = iota
	EventRegionTransitioned
	EventTaskSpawned
	EventTaskTransitioned
	EventObligationReserved
	EventObligationResolved
	EventChannelReserved
	EventChannelSent
	EventChannelAborted
	EventChannelReceived
	EventTimerRegistered
	EventTimerFired
	EventTimerCancelled
	EventCancelRequested
	EventCancelAcked
	EventCancelStrengthenDeclined
	EventDispatchDecided
	EventQuiescenceChecked
)

func (k EventKind) String() string {
	names := [...]string{
		"RegionOpened", "RegionTransitioned", "TaskSpawned", "TaskTransitioned",
		"ObligationReserved", "ObligationResolved", "ChannelReserved", "ChannelSent",
		"ChannelAborted", "ChannelReceived", "TimerRegistered", "TimerFired",
		"TimerCancelled", "CancelRequested", "CancelAcked", "CancelStrengthenDeclined",
		"DispatchDecided", "QuiescenceChecked",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Event is one append-only journal record. Fields is a flat string-keyed
// map of primitive values (string, int64, uint64, bool); canonicalization
// for hashing sorts keys lexicographically so map iteration order never
// leaks into the digest (spec §10's "canonicalized... event records").
type Event struct {
	Seq    uint64
	Kind   EventKind
	Tick   int64
	Fields map[string]any
}

// EventJournal is the C12 component: the append-only log of Events plus
// an incrementally-maintained digest accumulator. Grounded on
// eventloop/metrics.go's running-counter discipline (update on every
// relevant call rather than recomputing from scratch), generalized from
// scalar counters to a non-cryptographic rolling hash (xxhash).
type EventJournal struct {
	events []Event
	nextSeq uint64
	digest  *digestAccumulator
}

// NewEventJournal constructs an empty journal.
func NewEventJournal() *EventJournal {
	return &EventJournal{digest: newDigestAccumulator()}
}

// Append records a new Event with the next sequence number, folds its
// canonical encoding into the digest accumulator, and returns the
// stored Event (including its assigned Seq).
func (j *EventJournal) Append(kind EventKind, tick int64, fields map[string]any) Event {
	j.nextSeq++
	e := Event{Seq: j.nextSeq, Kind: kind, Tick: tick, Fields: fields}
	j.events = append(j.events, e)
	j.digest.fold(e)
	return e
}

// Events returns the full recorded sequence. Callers must not mutate
// the returned slice's Fields maps.
func (j *EventJournal) Events() []Event { return j.events }

// Digest returns the current replay digest: a single uint64 summarizing
// every Event appended so far, in order. Two journals fed the identical
// sequence of (kind, tick, fields) triples always produce the same
// Digest, regardless of process, machine, or Go version, since the
// accumulator never consults map iteration order, pointer identity, or
// wall-clock time (spec §10's "deterministic digest" testable property).
func (j *EventJournal) Digest() uint64 { return j.digest.sum() }

// Len reports the number of recorded events.
func (j *EventJournal) Len() int { return len(j.events) }

// sortedFieldKeys returns fields' keys in lexicographic order.
func sortedFieldKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
