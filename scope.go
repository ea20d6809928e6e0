package tefz

// Scope measures the duration of a lexical scope. It captures a start
// timestamp on creation and emits exactly one Complete event, carrying any
// accumulated arguments, when End runs.
//
// Intended use is a deferred End so the event is emitted on every exit
// path, including early return and panic unwinding:
//
//	scope := rec.StartScope(nameIdx, catIdx)
//	defer scope.End()
//	scope.AddArg(keyIdx, tefz.Int64Value(n))
//
// Scopes follow stack discipline: nest them freely within one goroutine or
// run them concurrently on different goroutines, but keep at most one per
// lexical scope. A Scope is NOT safe for concurrent use.
type Scope struct {
	rec   *Recorder
	args  []Arg
	start uint64
	name  uint8
	cat   uint8
	ended bool
}

// StartScope captures the current timestamp and returns a Scope for the
// given name and category label indices. No event is emitted yet.
func (r *Recorder) StartScope(name, cat uint8) *Scope {
	return &Scope{rec: r, name: name, cat: cat, start: r.Now()}
}

// AddArg appends a pending argument. Insertion order is preserved in the
// event's args object.
func (s *Scope) AddArg(key uint8, value Value) {
	s.args = append(s.args, Arg{Key: key, Value: value})
}

// End computes the elapsed duration and emits the Complete event.
// Safe to call multiple times - subsequent calls are no-ops, so an early
// explicit End coexists with a deferred one.
func (s *Scope) End() {
	if s.ended {
		return
	}
	s.ended = true
	dur := s.rec.Now() - s.start
	s.rec.RecordComplete(s.name, s.cat, s.start, dur, s.args)
}
