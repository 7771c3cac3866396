// Package devicelock serializes capture runs per device. Concurrent
// sessions against different devices are fine; two sessions driving the
// same device would fight over the scroll position.
package devicelock

import "sync"

// Registry hands out one mutex per device serial.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry creates an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*sync.Mutex)}
}

// Acquire blocks until the device is free and returns its release func.
func (r *Registry) Acquire(serial string) func() {
	r.mu.Lock()
	l, ok := r.locks[serial]
	if !ok {
		l = &sync.Mutex{}
		r.locks[serial] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

var defaultRegistry = NewRegistry()

// Acquire locks a device in the process-wide registry.
func Acquire(serial string) func() {
	return defaultRegistry.Acquire(serial)
}
