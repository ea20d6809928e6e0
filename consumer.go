package tefz

import (
	"sync"
	"time"
)

// MaxConsumerLifetime bounds a single trace session. Lifetimes above it are
// silently truncated because trace browsers are known to fail on very large
// artifacts.
const MaxConsumerLifetime = 10 * time.Second

// ConsumerState tracks where a consumer is in its lifecycle.
// Transitions are strictly forward: Active -> Expired -> Complete.
type ConsumerState uint8

const (
	// StateActive means the consumer is collecting events.
	StateActive ConsumerState = iota
	// StateExpired means the lifetime window is up; the consumer receives
	// the metadata batch on the next harvest pass and becomes Complete.
	StateExpired
	// StateComplete means the consumer is inert and safe to discard.
	StateComplete
)

// String returns the state name.
func (s ConsumerState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Consumer is the capability implemented by sinks. The Recorder references
// (does not own) a consumer while it is active; the owner discards it after
// it reaches StateComplete, or removes it early with RemoveConsumer.
//
// To harvest trace events the pattern is:
//  1. Create a consumer (embed Expiry for the lifecycle bookkeeping).
//  2. Implement ConsumeEvents to do what you want with the event batches.
//  3. Implement Finish to take the metadata batch; it must call MarkComplete.
//  4. Add it to a Recorder; discard it once State() == StateComplete.
type Consumer interface {
	// ConsumeEvents receives one harvest pass worth of serialized events.
	// Called any number of times while the consumer is active. May block
	// on I/O; harvest delivers to consumers sequentially.
	ConsumeEvents(events []string)

	// Finish delivers the accumulated metadata events exactly once, after
	// the consumer expired. Implementations must call MarkComplete.
	Finish(meta []string)

	// UpdateExpiry resets the expiry to now plus the lifetime. Called by
	// the Recorder on add; callers may also use it to stretch or cut a
	// live trace.
	UpdateExpiry(now time.Time)

	// CheckExpiry moves an active consumer to StateExpired once now is
	// past the expiry instant. Called by the Recorder during harvest,
	// after ConsumeEvents.
	CheckExpiry(now time.Time)

	// State reports the consumer's lifecycle state.
	State() ConsumerState
}

// Expiry implements the lifetime and state bookkeeping half of Consumer.
// Sinks embed a *Expiry from NewExpiry and implement ConsumeEvents and
// Finish themselves.
//
// The expiry starts in the distant future; adding the consumer to a
// Recorder arms it relative to the recorder's clock.
type Expiry struct {
	mu       sync.Mutex
	lifetime time.Duration
	expiry   time.Time
	state    ConsumerState
}

// distantFuture keeps an armed-but-never-added consumer from expiring.
// distantPast rearms an expiry so any clock reading is past it.
var (
	distantFuture = time.Unix(1<<48, 0)
	distantPast   = time.Unix(-1<<48, 0)
)

// NewExpiry returns bookkeeping for a consumer with the given lifetime.
// Lifetimes above MaxConsumerLifetime are silently clamped.
func NewExpiry(lifetime time.Duration) *Expiry {
	if lifetime > MaxConsumerLifetime {
		lifetime = MaxConsumerLifetime
	}
	return &Expiry{lifetime: lifetime, expiry: distantFuture}
}

// Lifetime returns the effective (possibly clamped) lifetime.
func (e *Expiry) Lifetime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifetime
}

// UpdateExpiry sets the expiry to now plus the lifetime.
func (e *Expiry) UpdateExpiry(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expiry = now.Add(e.lifetime)
}

// CheckExpiry moves an active consumer to StateExpired once now is past
// the expiry instant.
func (e *Expiry) CheckExpiry(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateActive && now.After(e.expiry) {
		e.state = StateExpired
	}
}

// State reports the lifecycle state.
func (e *Expiry) State() ConsumerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Expired reports whether the lifetime window is up.
func (e *Expiry) Expired() bool { return e.State() == StateExpired }

// Complete reports whether the consumer is inert.
func (e *Expiry) Complete() bool { return e.State() == StateComplete }

// MarkComplete moves an expired consumer to StateComplete. Finish
// implementations call it after handling the metadata batch.
//
// Calling it on a non-expired consumer is a programming error in the
// harvest protocol, not a recoverable condition, and panics.
func (e *Expiry) MarkComplete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateExpired {
		panic("tefz: MarkComplete on " + e.state.String() + " consumer")
	}
	e.state = StateComplete
}
