package tefz

import (
	"bufio"
	"os"
	"strconv"
	"time"

	"github.com/petermattis/goid"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Error is the error class for consumer I/O failures.
var Error = errs.Class("tefz")

// FileConsumer writes harvested events to a trace artifact on disk, in the
// {"traceEvents":[...]} document form that chrome://tracing and Perfetto
// load directly.
//
// The file is opened on construction and the opening bracket written
// immediately. If the open fails the consumer logs it, keeps the error,
// and silently discards events while still walking the state machine -
// tracing failures must never take the traced application down.
type FileConsumer struct {
	*Expiry

	log  *zap.Logger
	rec  *Recorder
	path string
	f    *os.File
	w    *bufio.Writer
	err  error
}

// NewFileConsumer opens path for writing and returns a consumer that stays
// active for the given lifetime (clamped to MaxConsumerLifetime). rec
// supplies the timestamp for the closing synthetic event.
func NewFileConsumer(log *zap.Logger, rec *Recorder, lifetime time.Duration, path string) *FileConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	c := &FileConsumer{
		Expiry: NewExpiry(lifetime),
		log:    log,
		rec:    rec,
		path:   path,
	}
	f, err := os.Create(path)
	if err != nil {
		c.err = Error.Wrap(err)
		c.log.Warn("failed to open trace file", zap.String("path", path), zap.Error(err))
		return c
	}
	c.f = f
	c.w = bufio.NewWriter(f)
	if _, err := c.w.WriteString("{\"traceEvents\":[\n"); err != nil {
		c.fail(err)
		return c
	}
	c.log.Info("opened trace file", zap.String("path", path))
	return c
}

// ConsumeEvents writes each serialized event followed by a comma. The
// closing synthetic event written by Finish terminates the array, so no
// "last real event" special case is needed here.
func (c *FileConsumer) ConsumeEvents(events []string) {
	if c.w == nil {
		return
	}
	for _, ev := range events {
		if _, err := c.w.WriteString(ev); err != nil {
			c.fail(err)
			return
		}
		if _, err := c.w.WriteString(",\n"); err != nil {
			c.fail(err)
			return
		}
	}
}

// Finish writes the metadata batch, marks the consumer complete, then
// terminates the array with a synthetic end_of_trace Complete event (no
// trailing comma) and closes the document and the file.
func (c *FileConsumer) Finish(meta []string) {
	c.ConsumeEvents(meta)
	c.MarkComplete()
	if c.w == nil {
		return
	}

	var ts uint64
	if c.rec != nil {
		ts = c.rec.Now()
	}
	trailer := make([]byte, 0, 96)
	trailer = append(trailer, `{"name":"end_of_trace","ph":"X","pid":`...)
	trailer = append(trailer, tracePID...)
	trailer = append(trailer, `,"tid":"`...)
	trailer = strconv.AppendInt(trailer, goid.Get(), 10)
	trailer = append(trailer, `","ts":`...)
	trailer = strconv.AppendUint(trailer, ts, 10)
	trailer = append(trailer, `,"dur":1000}`...)

	if _, err := c.w.Write(trailer); err != nil {
		c.fail(err)
		return
	}
	if _, err := c.w.WriteString("\n]\n}\n"); err != nil {
		c.fail(err)
		return
	}
	if err := c.w.Flush(); err != nil {
		c.fail(err)
		return
	}
	if err := c.f.Close(); err != nil {
		c.err = Error.Wrap(err)
		c.log.Warn("failed to close trace file", zap.String("path", c.path), zap.Error(err))
	} else {
		c.log.Info("closed trace file", zap.String("path", c.path))
	}
	c.f = nil
	c.w = nil
}

// Stop cuts the remaining lifetime to zero; the consumer expires on the
// next harvest pass.
func (c *FileConsumer) Stop() {
	c.UpdateExpiry(distantPast)
}

// IsOpen reports whether the artifact is open for writing.
func (c *FileConsumer) IsOpen() bool { return c.w != nil }

// Path returns the artifact path.
func (c *FileConsumer) Path() string { return c.path }

// Err returns the first I/O error encountered, or nil.
func (c *FileConsumer) Err() error { return c.err }

// fail records the first write error and stops writing; later batches are
// silently discarded.
func (c *FileConsumer) fail(err error) {
	if c.err == nil {
		c.err = Error.Wrap(err)
	}
	c.log.Warn("trace file write failed", zap.String("path", c.path), zap.Error(err))
	if c.f != nil {
		_ = c.f.Close()
	}
	c.f = nil
	c.w = nil
}
