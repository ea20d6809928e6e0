package tefz

import (
	"math"
	"strconv"
)

// ValueKind discriminates the scalar held by a Value.
type ValueKind uint8

// Supported argument value kinds.
const (
	KindUnit ValueKind = iota
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindString
)

// Value is a tagged union holding one typed scalar or a borrowed string.
// The zero Value is the unit value and renders as JSON null.
type Value struct {
	str  string
	bits uint64
	kind ValueKind
}

// Int32Value returns a Value holding a signed 32-bit integer.
func Int32Value(v int32) Value { return Value{kind: KindInt32, bits: uint64(v)} }

// Uint32Value returns a Value holding an unsigned 32-bit integer.
func Uint32Value(v uint32) Value { return Value{kind: KindUint32, bits: uint64(v)} }

// Int64Value returns a Value holding a signed 64-bit integer.
func Int64Value(v int64) Value { return Value{kind: KindInt64, bits: uint64(v)} }

// Uint64Value returns a Value holding an unsigned 64-bit integer.
func Uint64Value(v uint64) Value { return Value{kind: KindUint64, bits: v} }

// Float32Value returns a Value holding a 32-bit float.
func Float32Value(v float32) Value {
	return Value{kind: KindFloat32, bits: uint64(math.Float32bits(v))}
}

// Float64Value returns a Value holding a 64-bit float.
func Float64Value(v float64) Value {
	return Value{kind: KindFloat64, bits: math.Float64bits(v)}
}

// StringValue returns a Value borrowing the given string.
// The string is not copied; it must remain valid until harvested.
func StringValue(v string) Value { return Value{kind: KindString, str: v} }

// Kind returns the discriminator of the held scalar.
func (v Value) Kind() ValueKind { return v.kind }

func (v Value) isInteger() bool {
	switch v.kind {
	case KindInt32, KindUint32, KindInt64, KindUint64:
		return true
	}
	return false
}

// appendJSON appends the value's JSON rendering to buf.
// Numeric kinds emit their native textual form, strings are quoted and
// escaped, the unit value emits null.
func (v Value) appendJSON(buf []byte) []byte {
	switch v.kind {
	case KindInt32:
		return strconv.AppendInt(buf, int64(int32(v.bits)), 10)
	case KindUint32:
		return strconv.AppendUint(buf, v.bits, 10)
	case KindInt64:
		return strconv.AppendInt(buf, int64(v.bits), 10)
	case KindUint64:
		return strconv.AppendUint(buf, v.bits, 10)
	case KindFloat32:
		return strconv.AppendFloat(buf, float64(math.Float32frombits(uint32(v.bits))), 'g', -1, 32)
	case KindFloat64:
		return strconv.AppendFloat(buf, math.Float64frombits(v.bits), 'g', -1, 64)
	case KindString:
		return strconv.AppendQuote(buf, v.str)
	default:
		return append(buf, "null"...)
	}
}

// Arg is a (key, value) pair attached to an event. Key is a label index
// resolved through the recorder's label table at serialization time.
//
// The rendered JSON fragment is memoized: an Arg is serialized at most once
// per harvest pass, but a Scope can assemble several Args incrementally, so
// the fragment is computed lazily and cached.
type Arg struct {
	Key      uint8
	Value    Value
	frag     string
	rendered bool
}

// render returns the `"<key>":<value>` JSON fragment, computing it on first
// call and returning the cached string afterwards.
func (a *Arg) render(labels *LabelTable) string {
	if !a.rendered {
		buf := make([]byte, 0, 32)
		buf = strconv.AppendQuote(buf, labels.Label(a.Key))
		buf = append(buf, ':')
		buf = a.Value.appendJSON(buf)
		a.frag = string(buf)
		a.rendered = true
	}
	return a.frag
}
