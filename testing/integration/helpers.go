package integration

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/tefz"
)

// CaptureConsumer buffers every delivery with test-friendly accessors.
// Safe for use with a harvester running on another goroutine.
type CaptureConsumer struct {
	*tefz.Expiry

	mu       sync.Mutex
	events   []string
	meta     []string
	finishes int
}

// NewCaptureConsumer creates a capturing consumer with the given lifetime.
func NewCaptureConsumer(lifetime time.Duration) *CaptureConsumer {
	return &CaptureConsumer{Expiry: tefz.NewExpiry(lifetime)}
}

// ConsumeEvents appends the batch to the captured event log.
func (c *CaptureConsumer) ConsumeEvents(events []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

// Finish records the metadata batch and completes the consumer.
func (c *CaptureConsumer) Finish(meta []string) {
	c.mu.Lock()
	c.meta = append([]string(nil), meta...)
	c.finishes++
	c.mu.Unlock()
	c.MarkComplete()
}

// Events returns a copy of every captured event.
func (c *CaptureConsumer) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

// Meta returns the captured metadata batch.
func (c *CaptureConsumer) Meta() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.meta...)
}

// Finishes returns how many times Finish ran.
func (c *CaptureConsumer) Finishes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishes
}

// decode unmarshals one wire record, failing the test on bad JSON.
func decode(t *testing.T, wire string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(wire), &m); err != nil {
		t.Fatalf("wire record is not valid JSON: %v\n%s", err, wire)
	}
	return m
}
