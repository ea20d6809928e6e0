package tefz

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// Recorder is the thread-safe tracing core. It owns the label table, the
// pending event and argument buffers, the metadata log, and the consumer
// list. Producers record events continuously (hot path); one coordinating
// goroutine drains them periodically with Harvest (cold path).
//
// Two locks guard disjoint state: the event lock covers the pending event,
// argument, and metadata buffers; the consumer lock covers the consumer
// list. The one global lock order is consumer lock then event lock - no
// code path may acquire them in reverse.
//
//nolint:govet // Field order optimized for readability over memory
type Recorder struct {
	labels LabelTable
	clock  clockz.Clock
	log    *zap.Logger
	start  time.Time

	lastTS  atomic.Uint64
	enabled atomic.Bool

	eventMu sync.Mutex
	events  []event
	argLog  [][]Arg
	meta    []string

	consumerMu sync.Mutex
	consumers  []Consumer
}

// New creates a new recorder using the real clock.
func New() *Recorder {
	return NewWithClock(clockz.RealClock)
}

// NewWithClock creates a recorder with the specified clock.
// Enables clock injection for deterministic testing.
func NewWithClock(clock clockz.Clock) *Recorder {
	return &Recorder{
		clock: clock,
		log:   zap.NewNop(),
		start: clock.Now(),
	}
}

// WithLogger sets the logger used for state transitions and returns the
// recorder. Call before tracing begins. The hot path never logs.
func (r *Recorder) WithLogger(log *zap.Logger) *Recorder {
	if log != nil {
		r.log = log
	}
	return r
}

// RegisterLabel stores text at the given label slot, overwriting any
// previous entry. NOT safe concurrently with recording; register every
// label before multi-goroutine tracing begins.
func (r *Recorder) RegisterLabel(index uint8, text string) {
	r.labels.Register(index, text)
}

// Label resolves a label index. Unregistered slots resolve to "".
func (r *Recorder) Label(index uint8) string {
	return r.labels.Label(index)
}

// Enabled reports whether at least one consumer is registered.
func (r *Recorder) Enabled() bool {
	return r.enabled.Load()
}

// Now returns microseconds elapsed since the recorder was created.
//
// Successive calls never return a non-increasing value: when the raw clock
// reading is at or below the last returned value, last+1 is returned
// instead. Trace browsers need a strict total order on timestamps to nest
// concurrent and adjacent events; the trade is sub-microsecond accuracy
// for uniqueness, capping distinguishable timestamps at about one per
// microsecond system-wide.
func (r *Recorder) Now() uint64 {
	raw := uint64(r.clock.Now().Sub(r.start) / time.Microsecond)
	for {
		last := r.lastTS.Load()
		if raw <= last {
			raw = last + 1
		}
		if r.lastTS.CompareAndSwap(last, raw) {
			return raw
		}
	}
}

// RecordEvent appends an event with no arguments, stamped with the current
// timestamp. No-op while tracing is disabled.
func (r *Recorder) RecordEvent(name, cat uint8, ph Phase) {
	if !r.enabled.Load() {
		return
	}
	e := event{name: name, cat: cat, ph: ph, ts: r.Now(), tid: goid.Get(), args: noArgs}
	r.eventMu.Lock()
	r.events = append(r.events, e)
	r.eventMu.Unlock()
}

// RecordEventWithArgs appends an event carrying an argument list, stamped
// with the current timestamp. No-op while tracing is disabled.
func (r *Recorder) RecordEventWithArgs(name, cat uint8, ph Phase, args []Arg) {
	if !r.enabled.Load() {
		return
	}
	r.record(event{name: name, cat: cat, ph: ph, ts: r.Now(), tid: goid.Get()}, args)
}

// RecordComplete appends a Complete-phase event with an explicit start
// timestamp and duration, optionally carrying arguments. Scope.End uses
// this; it is exported for callers that measure durations themselves.
// No-op while tracing is disabled.
func (r *Recorder) RecordComplete(name, cat uint8, ts, dur uint64, args []Arg) {
	if !r.enabled.Load() {
		return
	}
	r.record(event{name: name, cat: cat, ph: PhaseComplete, ts: ts, dur: dur, tid: goid.Get()}, args)
}

// SetCounter appends a Counter-phase event sampling value under the
// counted quantity's label. The category slot carries the quantity label
// index; counters have no category on the wire. No-op while tracing is
// disabled.
func (r *Recorder) SetCounter(name, quantity uint8, value int64) {
	if !r.enabled.Load() {
		return
	}
	e := event{name: name, cat: quantity, ph: PhaseCounter, ts: r.Now(), tid: goid.Get()}
	r.record(e, []Arg{{Key: quantity, Value: Int64Value(value)}})
}

// record appends e, registering args in the argument log when present.
func (r *Recorder) record(e event, args []Arg) {
	r.eventMu.Lock()
	if len(args) > 0 {
		e.args = int32(len(r.argLog))
		r.argLog = append(r.argLog, args)
	} else {
		e.args = noArgs
	}
	r.events = append(r.events, e)
	r.eventMu.Unlock()
}

// AddMetaEvent appends a metadata event of the given kind. Recognized
// kinds are MetaProcessName, MetaProcessLabels, and MetaThreadName with a
// string value, and MetaProcessSortIndex and MetaThreadSortIndex with an
// integer value; anything else is dropped without error.
//
// Metadata is rendered to wire form immediately and kept in a separate
// log that harvesting never clears - it is delivered once, to each
// consumer that finishes. No-op while tracing is disabled.
func (r *Recorder) AddMetaEvent(kind string, value Value) {
	if !r.enabled.Load() {
		return
	}
	var argName string
	switch kind {
	case MetaProcessName, MetaThreadName:
		argName = "name"
	case MetaProcessLabels:
		argName = "labels"
	case MetaProcessSortIndex, MetaThreadSortIndex:
		argName = "sort_index"
	default:
		return
	}
	if argName == "sort_index" {
		if !value.isInteger() {
			return
		}
	} else if value.Kind() != KindString {
		return
	}
	wire := appendMetaWire(make([]byte, 0, 96), kind, argName, value, goid.Get())
	r.eventMu.Lock()
	r.meta = append(r.meta, string(wire))
	r.eventMu.Unlock()
}

// AddConsumer registers a consumer, arms its expiry relative to now, and
// enables tracing if it was the first consumer. Nil consumers are ignored.
func (r *Recorder) AddConsumer(c Consumer) {
	if c == nil {
		return
	}
	c.UpdateExpiry(r.clock.Now())
	r.consumerMu.Lock()
	defer r.consumerMu.Unlock()
	r.consumers = append(r.consumers, c)
	if !r.enabled.Load() {
		r.enabled.Store(true)
		r.log.Info("tracing enabled", zap.Int("consumers", len(r.consumers)))
	}
}

// RemoveConsumer removes a consumer early, disabling tracing if the list
// empties. Normal removal happens through expiry during Harvest; don't
// call this unless you are tearing a consumer down before it completes.
func (r *Recorder) RemoveConsumer(c Consumer) {
	r.consumerMu.Lock()
	defer r.consumerMu.Unlock()
	i := 0
	for i < len(r.consumers) {
		if r.consumers[i] == c {
			last := len(r.consumers) - 1
			r.consumers[i] = r.consumers[last]
			r.consumers[last] = nil
			r.consumers = r.consumers[:last]
			continue
		}
		i++
	}
	if len(r.consumers) == 0 && r.enabled.Load() {
		r.enabled.Store(false)
		r.log.Info("tracing disabled")
	}
}

// Harvest drains the pending buffers, serializes every event, fans the
// batch out to consumers in registration order, retires consumers whose
// lifetime is up, and feeds the metadata log to consumers that finish.
//
// Call it periodically from one coordinating goroutine; it is synchronous
// and never blocks on anything but consumer I/O.
func (r *Recorder) Harvest() {
	r.harvest(false)
}

// Shutdown forces every registered consumer's expiry into the past, then
// runs one forced harvest pass so each still-registered consumer reaches
// StateComplete, even when the event buffer is idle.
func (r *Recorder) Shutdown() {
	r.consumerMu.Lock()
	for _, c := range r.consumers {
		c.UpdateExpiry(distantPast)
	}
	r.consumerMu.Unlock()
	r.harvest(true)
}

func (r *Recorder) harvest(force bool) {
	// Swap the pending buffers out under the event lock. Lock hold time
	// is a pointer swap, independent of batch size.
	r.eventMu.Lock()
	if len(r.events) == 0 && !force {
		r.eventMu.Unlock()
		return
	}
	events := r.events
	argLog := r.argLog
	r.events = nil
	r.argLog = nil
	r.eventMu.Unlock()

	// Disabling happens asynchronously relative to producers, so a batch
	// can exist with no one left to consume it. Discard it.
	r.consumerMu.Lock()
	registered := len(r.consumers)
	r.consumerMu.Unlock()
	if registered == 0 {
		return
	}

	// Serialize outside both locks.
	batch := make([]string, 0, len(events))
	buf := make([]byte, 0, 192)
	for i := range events {
		buf = events[i].appendWire(buf[:0], &r.labels, argLog)
		batch = append(batch, string(buf))
	}

	now := r.clock.Now()
	r.consumerMu.Lock()
	defer r.consumerMu.Unlock()

	// Fan out, then retire expired consumers via swap-with-last. A
	// consumer always sees every event produced up to the moment it
	// expires because ConsumeEvents runs before CheckExpiry.
	var expired []Consumer
	i := 0
	for i < len(r.consumers) {
		c := r.consumers[i]
		if len(batch) > 0 {
			c.ConsumeEvents(batch)
		}
		c.CheckExpiry(now)
		if c.State() == StateExpired {
			expired = append(expired, c)
			last := len(r.consumers) - 1
			r.consumers[i] = r.consumers[last]
			r.consumers[last] = nil
			r.consumers = r.consumers[:last]
			continue
		}
		i++
	}
	if len(r.consumers) == 0 && r.enabled.Load() {
		r.enabled.Store(false)
		r.log.Info("tracing disabled")
	}

	if len(expired) == 0 {
		return
	}

	// Copy the metadata log under the event lock, nested inside the
	// consumer lock. This nesting is the single fixed lock order in the
	// system; acquiring event-then-consumer anywhere would deadlock
	// against this path.
	r.eventMu.Lock()
	meta := make([]string, len(r.meta))
	copy(meta, r.meta)
	r.eventMu.Unlock()

	for _, c := range expired {
		c.Finish(meta)
		r.log.Info("consumer finished", zap.Int("meta_events", len(meta)))
	}
}

// appendMetaWire builds the immediate wire form of a metadata event.
func appendMetaWire(buf []byte, kind, argName string, value Value, tid int64) []byte {
	buf = append(buf, `{"name":"`...)
	buf = append(buf, kind...)
	buf = append(buf, `","ph":"M","pid":`...)
	buf = append(buf, tracePID...)
	buf = append(buf, `,"tid":"`...)
	buf = strconv.AppendInt(buf, tid, 10)
	buf = append(buf, `","args":{"`...)
	buf = append(buf, argName...)
	buf = append(buf, `":`...)
	buf = value.appendJSON(buf)
	return append(buf, `}}`...)
}
