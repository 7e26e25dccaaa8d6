package asupersync

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Codec is the narrow wire-format boundary between a journal's Events
// and bytes, used only to exercise the digest-parity testable property
// (encode, decode, re-digest, compare) — spec §1 places the production
// codec layer out of scope as an external collaborator, so this
// interface and its two reference implementations exist solely as test
// tooling, not as a shipped serialization surface.
type Codec interface {
	Encode(events []Event) ([]byte, error)
	Decode(data []byte) ([]Event, error)
}

// wireField is the JSON-friendly projection of one Event field value,
// carrying the same type tag canonicalEventBytes uses so a round trip
// through JSON preserves the original Go type rather than collapsing
// every number through float64 (which would silently diverge from the
// pre-encode digest for any int64/uint64 field — spec §8's codec
// round-trip/digest-parity property). Exactly one of S/I/U/B is
// meaningful, selected by Tag; the others are omitted from the wire
// form.
type wireField struct {
	Tag byte   `json:"tag"`
	S   string `json:"s,omitempty"`
	I   int64  `json:"i,omitempty"`
	U   uint64 `json:"u,omitempty"`
	B   bool   `json:"b,omitempty"`
}

func toWireField(v any) wireField {
	switch x := v.(type) {
	case string:
		return wireField{Tag: tagString, S: x}
	case int64:
		return wireField{Tag: tagInt64, I: x}
	case int:
		return wireField{Tag: tagInt64, I: int64(x)}
	case uint64:
		return wireField{Tag: tagUint64, U: x}
	case bool:
		return wireField{Tag: tagBool, B: x}
	default:
		return wireField{Tag: tagOther, S: fmt.Sprintf("%v", x)}
	}
}

func fromWireField(w wireField) any {
	switch w.Tag {
	case tagInt64:
		return w.I
	case tagUint64:
		return w.U
	case tagBool:
		return w.B
	default: // tagString, tagOther
		return w.S
	}
}

// wireEvent is the JSON-friendly projection of Event; Fields values are
// restricted to the same primitive set canonicalEventBytes supports.
type wireEvent struct {
	Seq    uint64               `json:"seq"`
	Kind   EventKind            `json:"kind"`
	Tick   int64                `json:"tick"`
	Fields map[string]wireField `json:"fields"`
}

// JSONCodec is the human-readable reference Codec, built on
// encoding/json the way eventloop's own debug tooling favors
// readability for scenario fixtures over wire efficiency. Fields are
// carried as tagged wireField values rather than bare `any` so the
// round trip preserves int64/uint64/bool/string exactly; a field whose
// original value was some other Go type is narrowed to its string
// rendering on decode, the same tagOther narrowing BinaryCodec.Decode
// documents.
type JSONCodec struct{}

func (JSONCodec) Encode(events []Event) ([]byte, error) {
	wire := make([]wireEvent, len(events))
	for i, e := range events {
		fields := make(map[string]wireField, len(e.Fields))
		for k, v := range e.Fields {
			fields[k] = toWireField(v)
		}
		wire[i] = wireEvent{Seq: e.Seq, Kind: e.Kind, Tick: e.Tick, Fields: fields}
	}
	return json.Marshal(wire)
}

func (JSONCodec) Decode(data []byte) ([]Event, error) {
	var wire []wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, wrapError("codec_decode", StatusInvalidArgument, err, "invalid JSON event stream")
	}
	events := make([]Event, len(wire))
	for i, w := range wire {
		fields := make(map[string]any, len(w.Fields))
		for k, v := range w.Fields {
			fields[k] = fromWireField(v)
		}
		events[i] = Event{Seq: w.Seq, Kind: w.Kind, Tick: w.Tick, Fields: fields}
	}
	return events, nil
}

// BinaryCodec is the compact reference Codec: an event count followed
// by each event as length-prefixed canonicalEventBytes (which already
// carry the field count/key/value table), reusing the same tagged-value encoding
// digest.go uses for hashing so the two representations never drift
// apart in what they consider "the same event".
type BinaryCodec struct{}

func (BinaryCodec) Encode(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(events)))
	buf.Write(tmp[:])
	for _, e := range events {
		rec := canonicalEventBytes(e)
		binary.BigEndian.PutUint32(tmp[:], uint32(len(rec)))
		buf.Write(tmp[:])
		buf.Write(rec)
	}
	return buf.Bytes(), nil
}

// Decode parses the length-prefixed framing back into Events. Because
// canonicalEventBytes is a one-way encoding (field value type tags do
// not round-trip to the original Go type when that type isn't one of
// string/int64/uint64/bool/other-stringified), BinaryCodec is suitable
// for digest verification (re-encode and compare bytes) but Decode
// returns Fields keyed by the same names with values narrowed to the
// tagged-value set, which is sufficient for scenario replay assertions.
func (BinaryCodec) Decode(data []byte) ([]Event, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, wrapError("codec_decode", StatusInvalidArgument, err, "truncated binary event stream header")
	}
	events := make([]Event, 0, count)
	for i := uint32(0); i < count; i++ {
		var recLen uint32
		if err := binary.Read(r, binary.BigEndian, &recLen); err != nil {
			return nil, wrapError("codec_decode", StatusInvalidArgument, err, "truncated binary event record %d length", i)
		}
		rec := make([]byte, recLen)
		if _, err := r.Read(rec); err != nil {
			return nil, wrapError("codec_decode", StatusInvalidArgument, err, "truncated binary event record %d body", i)
		}
		e, err := decodeCanonicalEventBytes(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func decodeCanonicalEventBytes(rec []byte) (Event, error) {
	if len(rec) < 21 {
		return Event{}, newError("codec_decode", StatusInvalidArgument, "event record too short (%d bytes)", len(rec))
	}
	seq := binary.BigEndian.Uint64(rec[0:8])
	kind := EventKind(rec[8])
	tick := int64(binary.BigEndian.Uint64(rec[9:17]))
	numFields := binary.BigEndian.Uint32(rec[17:21])
	pos := 21
	fields := make(map[string]any, numFields)
	for i := uint32(0); i < numFields; i++ {
		key, next, err := readLenPrefixed(rec, pos)
		if err != nil {
			return Event{}, err
		}
		pos = next
		val, next, err := readCanonicalValue(rec, pos)
		if err != nil {
			return Event{}, err
		}
		pos = next
		fields[string(key)] = val
	}
	return Event{Seq: seq, Kind: kind, Tick: tick, Fields: fields}, nil
}

func readLenPrefixed(rec []byte, pos int) ([]byte, int, error) {
	if pos+4 > len(rec) {
		return nil, 0, newError("codec_decode", StatusInvalidArgument, "truncated length prefix at offset %d", pos)
	}
	n := int(binary.BigEndian.Uint32(rec[pos : pos+4]))
	pos += 4
	if pos+n > len(rec) {
		return nil, 0, newError("codec_decode", StatusInvalidArgument, "truncated payload at offset %d (need %d bytes)", pos, n)
	}
	return rec[pos : pos+n], pos + n, nil
}

func readCanonicalValue(rec []byte, pos int) (any, int, error) {
	if pos >= len(rec) {
		return nil, 0, newError("codec_decode", StatusInvalidArgument, "truncated value tag at offset %d", pos)
	}
	tag := rec[pos]
	pos++
	switch tag {
	case tagString, tagOther:
		b, next, err := readLenPrefixed(rec, pos)
		if err != nil {
			return nil, 0, err
		}
		return string(b), next, nil
	case tagInt64:
		if pos+8 > len(rec) {
			return nil, 0, newError("codec_decode", StatusInvalidArgument, "truncated int64 at offset %d", pos)
		}
		return int64(binary.BigEndian.Uint64(rec[pos : pos+8])), pos + 8, nil
	case tagUint64:
		if pos+8 > len(rec) {
			return nil, 0, newError("codec_decode", StatusInvalidArgument, "truncated uint64 at offset %d", pos)
		}
		return binary.BigEndian.Uint64(rec[pos : pos+8]), pos + 8, nil
	case tagBool:
		if pos >= len(rec) {
			return nil, 0, newError("codec_decode", StatusInvalidArgument, "truncated bool at offset %d", pos)
		}
		return rec[pos] != 0, pos + 1, nil
	default:
		return nil, 0, fmt.Errorf("asupersync: unknown value tag %d at offset %d", tag, pos)
	}
}
