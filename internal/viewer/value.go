// Package viewer holds the zoom state machine that decides when a page is
// re-rendered and which render is on screen.
package viewer

import "sync"

// Value is a display value written by the page event loop and read by any
// goroutine.
type Value[T any] struct {
	mu sync.RWMutex
	v  T
}

// NewValue creates a value holding v.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v}
}

func (x *Value[T]) Get() T {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.v
}

func (x *Value[T]) Set(v T) {
	x.mu.Lock()
	x.v = v
	x.mu.Unlock()
}
