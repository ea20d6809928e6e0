// Package tefz provides a minimal, low-overhead Trace-Event-Format tracing library.
//
// tefz records timed and counted events from arbitrary goroutines and
// periodically hands them, serialized as Trace Event Format (TEF) JSON
// records, to pluggable consumers. The output is directly loadable by
// trace visualizers such as chrome://tracing or Perfetto.
//
// Core Components:.
//   - Recorder: Thread-safe event buffering, label registry, and harvest.
//   - Scope: Scope guard that emits one Complete event on End.
//   - Consumer: Sink capability with an ACTIVE/EXPIRED/COMPLETE lifecycle.
//   - FileConsumer: Reference consumer writing a trace artifact to disk.
//
// Basic Usage:.
//
//	rec := tefz.New()
//
//	// Register labels once, before any goroutine records events.
//	rec.RegisterLabel(0, "mainloop")
//	rec.RegisterLabel(1, "app")
//
//	// Start tracing by adding a consumer.
//	sink := tefz.NewFileConsumer(log, rec, 10*time.Second, "/tmp/trace.json")
//	rec.AddConsumer(sink)
//
//	// Hot path: record events from any goroutine.
//	scope := rec.StartScope(0, 1)
//	defer scope.End()
//
//	// Cold path: drain periodically from the main loop.
//	rec.Harvest()
//
//	// At exit, force every consumer to finish.
//	rec.Shutdown()
//
// Thread Safety:.
//
// Recorder is safe for concurrent use by multiple goroutines.
// Label registration is NOT safe concurrently with recording - register
// every label before multi-goroutine tracing begins.
//
// Scopes themselves are NOT thread-safe - do not share a Scope between
// goroutines.
//
// Overhead:.
//
// When no consumer is registered every recording call is a cheap no-op
// gated by one atomic load. Enabled-path cost is one timestamp read and
// one short mutex-guarded append; serialization happens later, during
// Harvest, outside the producer lock.
package tefz

// Phase identifies the kind of a trace event, using the single-character
// codes of the Trace Event Format.
//
// Only the subset needed by this library is defined. Unsupported phases
// (async, flow, object, memory-dump events) require fields outside the
// minimal record this library keeps per event.
type Phase byte

const (
	// PhaseBegin marks the start of a split duration event.
	PhaseBegin Phase = 'B'
	// PhaseEnd marks the end of a split duration event.
	PhaseEnd Phase = 'E'
	// PhaseComplete is a single event carrying its own duration.
	PhaseComplete Phase = 'X'
	// PhaseCounter is a named numeric sample.
	PhaseCounter Phase = 'C'
	// PhaseMetadata carries process/thread naming and ordering hints.
	PhaseMetadata Phase = 'M'
)

// Recognized metadata event kinds for Recorder.AddMetaEvent.
const (
	MetaProcessName      = "process_name"
	MetaProcessLabels    = "process_labels"
	MetaThreadName       = "thread_name"
	MetaProcessSortIndex = "process_sort_index"
	MetaThreadSortIndex  = "thread_sort_index"
)
