package viewer

import (
	"sync"
	"time"
)

// Debouncer delivers the last triggered value once it has been left alone
// for the quiet period. Every delivery carries the sequence number of the
// Trigger that produced it; a receiver that may race with later triggers
// confirms the delivery with Current before acting on it.
type Debouncer[T any] struct {
	delay time.Duration
	fire  func(v T, seq uint64)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	stopped bool
}

// NewDebouncer creates a debouncer calling fire after delay.
func NewDebouncer[T any](delay time.Duration, fire func(v T, seq uint64)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fire: fire}
}

// Trigger restarts the quiet period with v as the pending value.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		if d.Current(seq) {
			d.fire(v, seq)
		}
	})
}

// Current reports whether seq belongs to the latest Trigger and the
// debouncer is still running.
func (d *Debouncer[T]) Current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.stopped && seq == d.seq
}

// Stop cancels any pending delivery. Later triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
