package codec

import (
	"fmt"

	"nullspace.io/casino-chain/internal/games/serialization"
)

// OutputTag enumerates the three Output variants a block's output stream is
// built from, per spec §6.5.
type OutputTag uint8

const (
	OutputTagEvent OutputTag = iota
	OutputTagTransaction
	OutputTagCommit
)

// Event is a strongly typed, named event emitted by a domain handler —
// never a freeform log line, per spec §4.E's "Events are strongly typed
// variants" rule. Attrs are encoded in the order supplied; callers that
// need deterministic attribute order must sort before constructing Event,
// matching the teacher's own okEvent sorted-attribute convention.
type Event struct {
	Name  string
	Attrs []EventAttr
}

type EventAttr struct {
	Key   string
	Value string
}

// Output is one entry of a block's output log.
type Output struct {
	Tag OutputTag

	Event       *Event
	Transaction *Transaction
	CommitHeight uint64
	CommitStart  uint64
}

func lenPrefixed(w *serialization.Writer, s string) {
	b := []byte(s)
	w.PushU16BE(uint16(len(b)))
	w.PushBytes(b)
}

func readLenPrefixed(r *serialization.Reader) (string, bool) {
	n, ok := r.ReadU16BE()
	if !ok {
		return "", false
	}
	b, ok := r.ReadBytes(int(n))
	if !ok {
		return "", false
	}
	return string(b), true
}

// EncodeOutput serializes a single Output entry.
func EncodeOutput(o *Output) []byte {
	switch o.Tag {
	case OutputTagEvent:
		w := serialization.NewWriter(64)
		w.PushU8(uint8(OutputTagEvent))
		lenPrefixed(w, o.Event.Name)
		w.PushU16BE(uint16(len(o.Event.Attrs)))
		for _, a := range o.Event.Attrs {
			lenPrefixed(w, a.Key)
			lenPrefixed(w, a.Value)
		}
		return w.Bytes()
	case OutputTagTransaction:
		txBytes := EncodeTransaction(o.Transaction)
		w := serialization.NewWriter(1 + 4 + len(txBytes))
		w.PushU8(uint8(OutputTagTransaction))
		// u32 length split as two big-endian u16 halves (high, low): a
		// CasinoGameMove payload can make the encoded transaction exceed
		// a plain u16's range.
		w.PushU16BE(uint16(uint32(len(txBytes)) >> 16))
		w.PushU16BE(uint16(uint32(len(txBytes)) & 0xFFFF))
		w.PushBytes(txBytes)
		return w.Bytes()
	case OutputTagCommit:
		w := serialization.NewWriter(17)
		w.PushU8(uint8(OutputTagCommit))
		w.PushU64BE(o.CommitHeight)
		w.PushU64BE(o.CommitStart)
		return w.Bytes()
	default:
		return nil
	}
}

// DecodeOutput decodes one Output entry from the front of buf, returning
// the decoded entry and the number of bytes consumed.
func DecodeOutput(buf []byte) (*Output, int, error) {
	r := serialization.NewReader(buf)
	tagByte, ok := r.ReadU8()
	if !ok {
		return nil, 0, fmt.Errorf("codec: truncated output tag")
	}
	switch OutputTag(tagByte) {
	case OutputTagEvent:
		name, ok := readLenPrefixed(r)
		if !ok {
			return nil, 0, fmt.Errorf("codec: truncated event name")
		}
		count, ok := r.ReadU16BE()
		if !ok {
			return nil, 0, fmt.Errorf("codec: truncated attr count")
		}
		attrs := make([]EventAttr, 0, count)
		for i := uint16(0); i < count; i++ {
			k, ok := readLenPrefixed(r)
			if !ok {
				return nil, 0, fmt.Errorf("codec: truncated attr key")
			}
			v, ok := readLenPrefixed(r)
			if !ok {
				return nil, 0, fmt.Errorf("codec: truncated attr value")
			}
			attrs = append(attrs, EventAttr{Key: k, Value: v})
		}
		consumed := len(buf) - r.Remaining()
		return &Output{Tag: OutputTagEvent, Event: &Event{Name: name, Attrs: attrs}}, consumed, nil

	case OutputTagTransaction:
		hi, ok := r.ReadU16BE()
		if !ok {
			return nil, 0, fmt.Errorf("codec: truncated transaction length high half")
		}
		lo, ok := r.ReadU16BE()
		if !ok {
			return nil, 0, fmt.Errorf("codec: truncated transaction length")
		}
		txLen := uint32(hi)<<16 | uint32(lo)
		txBytes, ok := r.ReadBytes(int(txLen))
		if !ok {
			return nil, 0, fmt.Errorf("codec: truncated transaction body")
		}
		tx, err := DecodeTransaction(txBytes)
		if err != nil {
			return nil, 0, err
		}
		consumed := len(buf) - r.Remaining()
		return &Output{Tag: OutputTagTransaction, Transaction: tx}, consumed, nil

	case OutputTagCommit:
		height, ok := r.ReadU64BE()
		if !ok {
			return nil, 0, fmt.Errorf("codec: truncated commit height")
		}
		start, ok := r.ReadU64BE()
		if !ok {
			return nil, 0, fmt.Errorf("codec: truncated commit start")
		}
		consumed := len(buf) - r.Remaining()
		return &Output{Tag: OutputTagCommit, CommitHeight: height, CommitStart: start}, consumed, nil

	default:
		return nil, 0, fmt.Errorf("codec: unknown output tag %d", tagByte)
	}
}

// DecodeOutputStream decodes a full concatenated output log, per spec
// §6.5's "replicas MUST produce identical byte sequences" contract.
func DecodeOutputStream(buf []byte) ([]*Output, error) {
	var outputs []*Output
	for len(buf) > 0 {
		o, consumed, err := DecodeOutput(buf)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, o)
		buf = buf[consumed:]
	}
	return outputs, nil
}
