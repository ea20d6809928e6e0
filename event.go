package tefz

import (
	"strconv"
)

// pid is constant in the wire format: this is a single-process design.
const tracePID = "1"

// noArgs marks an event without an argument list.
const noArgs = int32(-1)

// event is one pending trace record. Created by a producer call, consumed
// and cleared by Harvest, never mutated after creation.
//
// For Counter events the cat slot is repurposed to carry the counted
// quantity's label index; the wire format omits cat for counters.
type event struct {
	ts   uint64
	dur  uint64
	tid  int64
	args int32
	name uint8
	cat  uint8
	ph   Phase
}

// appendWire appends the event's TEF JSON object to buf, resolving label
// indices through labels and argument lists through argLog.
//
// Phase-specific field sets: Complete carries dur, Counter omits cat and
// dur, Begin/End omit dur.
func (e *event) appendWire(buf []byte, labels *LabelTable, argLog [][]Arg) []byte {
	buf = append(buf, `{"name":`...)
	buf = strconv.AppendQuote(buf, labels.Label(e.name))
	if e.ph != PhaseCounter {
		buf = append(buf, `,"cat":`...)
		buf = strconv.AppendQuote(buf, labels.Label(e.cat))
	}
	buf = append(buf, `,"ph":"`...)
	buf = append(buf, byte(e.ph), '"')
	buf = append(buf, `,"ts":`...)
	buf = strconv.AppendUint(buf, e.ts, 10)
	if e.ph == PhaseComplete {
		buf = append(buf, `,"dur":`...)
		buf = strconv.AppendUint(buf, e.dur, 10)
	}
	buf = append(buf, `,"pid":`...)
	buf = append(buf, tracePID...)
	buf = append(buf, `,"tid":"`...)
	buf = strconv.AppendInt(buf, e.tid, 10)
	buf = append(buf, '"')
	if e.args != noArgs {
		buf = append(buf, `,"args":{`...)
		list := argLog[e.args]
		for i := range list {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, list[i].render(labels)...)
		}
		buf = append(buf, '}')
	}
	return append(buf, '}')
}
