package tefz

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeWire(t *testing.T, wire []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(wire, &m); err != nil {
		t.Fatalf("wire record is not valid JSON: %v\n%s", err, wire)
	}
	return m
}

func TestEventWireBegin(t *testing.T) {
	var labels LabelTable
	labels.Register(0, "ctx")
	labels.Register(1, "cat")

	e := event{name: 0, cat: 1, ph: PhaseBegin, ts: 42, tid: 7, args: noArgs}
	m := decodeWire(t, e.appendWire(nil, &labels, nil))

	if m["name"] != "ctx" || m["cat"] != "cat" || m["ph"] != "B" {
		t.Errorf("Unexpected fields: %v", m)
	}
	if m["ts"] != float64(42) {
		t.Errorf("Expected ts 42, got %v", m["ts"])
	}
	if m["pid"] != float64(1) {
		t.Errorf("Expected pid 1, got %v", m["pid"])
	}
	if m["tid"] != "7" {
		t.Errorf("Expected tid rendered as string, got %v", m["tid"])
	}
	// Begin/End events never carry dur or args.
	if _, ok := m["dur"]; ok {
		t.Error("Begin event should not carry dur")
	}
	if _, ok := m["args"]; ok {
		t.Error("Expected no args field")
	}
}

func TestEventWireComplete(t *testing.T) {
	var labels LabelTable
	labels.Register(5, "work")
	labels.Register(6, "cat")

	e := event{name: 5, cat: 6, ph: PhaseComplete, ts: 100, dur: 25, tid: 1, args: noArgs}
	m := decodeWire(t, e.appendWire(nil, &labels, nil))

	if m["ph"] != "X" {
		t.Errorf("Expected ph X, got %v", m["ph"])
	}
	if m["dur"] != float64(25) {
		t.Errorf("Expected dur 25, got %v", m["dur"])
	}
}

func TestEventWireCounterOmitsCat(t *testing.T) {
	var labels LabelTable
	labels.Register(2, "counter")
	labels.Register(3, "datum")

	argLog := [][]Arg{{{Key: 3, Value: Int64Value(13)}}}
	e := event{name: 2, cat: 3, ph: PhaseCounter, ts: 9, tid: 1, args: 0}

	wire := e.appendWire(nil, &labels, argLog)
	m := decodeWire(t, wire)

	if _, ok := m["cat"]; ok {
		t.Error("Counter event should not carry cat")
	}
	if _, ok := m["dur"]; ok {
		t.Error("Counter event should not carry dur")
	}
	args, ok := m["args"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected args object, got %v", m["args"])
	}
	if args["datum"] != float64(13) {
		t.Errorf("Expected args.datum 13, got %v", args["datum"])
	}
}

func TestEventWireArgsInsertionOrder(t *testing.T) {
	var labels LabelTable
	labels.Register(7, "first")
	labels.Register(8, "second")

	argLog := [][]Arg{{
		{Key: 7, Value: Int64Value(1)},
		{Key: 8, Value: Int64Value(2)},
	}}
	e := event{name: 0, cat: 0, ph: PhaseComplete, ts: 1, dur: 1, tid: 1, args: 0}

	wire := string(e.appendWire(nil, &labels, argLog))
	if !strings.Contains(wire, `"args":{"first":1,"second":2}`) {
		t.Errorf("Expected args in insertion order, got %s", wire)
	}
}

func TestEventWireUnregisteredLabels(t *testing.T) {
	var labels LabelTable

	e := event{name: 99, cat: 98, ph: PhaseEnd, ts: 1, tid: 1, args: noArgs}
	m := decodeWire(t, e.appendWire(nil, &labels, nil))

	if m["name"] != "" || m["cat"] != "" {
		t.Errorf("Expected empty strings for unregistered labels, got %v", m)
	}
}
