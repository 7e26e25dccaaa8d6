package asupersync

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// digestAccumulator incrementally hashes canonicalized Event records
// with cespare/xxhash/v2, the fast non-cryptographic hash the wider
// example pack standardizes on for content-addressing and checksums.
// Chosen over a cryptographic hash because the digest's purpose is
// replay-mismatch detection within a trusted toolchain, not tamper
// resistance across an adversarial boundary (spec §10 never asks for
// collision resistance, only bit-exact reproducibility).
type digestAccumulator struct {
	h *xxhash.Digest
}

func newDigestAccumulator() *digestAccumulator {
	return &digestAccumulator{h: xxhash.New()}
}

// fold folds one Event's canonical byte encoding into the running hash.
func (d *digestAccumulator) fold(e Event) {
	buf := canonicalEventBytes(e)
	_, _ = d.h.Write(buf) // xxhash.Digest.Write never errors
}

func (d *digestAccumulator) sum() uint64 { return d.h.Sum64() }

// canonicalEventBytes renders e as a canonical, self-delimiting byte
// sequence: seq, kind, tick, then each field as (key length, key bytes,
// type tag, value bytes) in lexicographic key order. Self-delimiting
// framing (explicit lengths rather than separators) avoids ambiguity
// between e.g. a field value containing a separator byte and an actual
// field boundary.
func canonicalEventBytes(e Event) []byte {
	keys := sortedFieldKeys(e.Fields)
	buf := make([]byte, 0, 32+len(keys)*24)
	var tmp [8]byte

	binary.BigEndian.PutUint64(tmp[:], e.Seq)
	buf = append(buf, tmp[:]...)
	buf = append(buf, byte(e.Kind))
	binary.BigEndian.PutUint64(tmp[:], uint64(e.Tick))
	buf = append(buf, tmp[:]...)

	binary.BigEndian.PutUint32(tmp[:4], uint32(len(keys)))
	buf = append(buf, tmp[:4]...)

	for _, k := range keys {
		buf = appendLenPrefixed(buf, []byte(k))
		buf = appendCanonicalValue(buf, e.Fields[k])
	}
	return buf
}

func appendLenPrefixed(buf, b []byte) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(b)))
	buf = append(buf, tmp[:]...)
	return append(buf, b...)
}

// value type tags for canonical encoding.
const (
	tagString byte = iota
	tagInt64
	tagUint64
	tagBool
	tagOther
)

func appendCanonicalValue(buf []byte, v any) []byte {
	var tmp [8]byte
	switch x := v.(type) {
	case string:
		buf = append(buf, tagString)
		return appendLenPrefixed(buf, []byte(x))
	case int64:
		buf = append(buf, tagInt64)
		binary.BigEndian.PutUint64(tmp[:], uint64(x))
		return append(buf, tmp[:]...)
	case int:
		buf = append(buf, tagInt64)
		binary.BigEndian.PutUint64(tmp[:], uint64(int64(x)))
		return append(buf, tmp[:]...)
	case uint64:
		buf = append(buf, tagUint64)
		binary.BigEndian.PutUint64(tmp[:], x)
		return append(buf, tmp[:]...)
	case bool:
		buf = append(buf, tagBool)
		if x {
			return append(buf, 1)
		}
		return append(buf, 0)
	default:
		buf = append(buf, tagOther)
		return appendLenPrefixed(buf, []byte(fmt.Sprintf("%v", x)))
	}
}

// ReplayMismatchKind classifies why a replayed run's digest diverged
// from the recorded expected digest, for the scenario executor's
// assertion failures (spec §8's digest-parity testable property).
type ReplayMismatchKind uint8

const (
	ReplayMatch ReplayMismatchKind = iota
	ReplayLengthMismatch
	ReplayDigestMismatch
	ReplayEventOrderMismatch
)

func (k ReplayMismatchKind) String() string {
	switch k {
	case ReplayMatch:
		return "Match"
	case ReplayLengthMismatch:
		return "LengthMismatch"
	case ReplayDigestMismatch:
		return "DigestMismatch"
	case ReplayEventOrderMismatch:
		return "EventOrderMismatch"
	default:
		return "Unknown"
	}
}

// CompareReplay classifies the divergence (if any) between two journals
// produced from what should be identical scenario executions.
func CompareReplay(got, want *EventJournal) ReplayMismatchKind {
	if got.Len() != want.Len() {
		return ReplayLengthMismatch
	}
	ge, we := got.Events(), want.Events()
	for i := range ge {
		if ge[i].Kind != we[i].Kind || ge[i].Seq != we[i].Seq {
			return ReplayEventOrderMismatch
		}
	}
	if got.Digest() != want.Digest() {
		return ReplayDigestMismatch
	}
	return ReplayMatch
}
