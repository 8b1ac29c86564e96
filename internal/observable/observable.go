// Package observable provides the single-writer observable fields the board
// adapter exposes its session state through. Each field has exactly one
// mutating code path; listeners are notified synchronously, in write order,
// before the mutator returns.
package observable

import "sync"

// Value holds one observable state field.
type Value[T comparable] struct {
	mu    sync.Mutex
	v     T
	seq   int
	subs  map[int]func(T)
	order []int
}

// NewValue creates a field with its initial value. Creation does not notify.
func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (f *Value[T]) Get() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v
}

// Set commits a new value and notifies listeners synchronously in
// subscription order. Setting the current value again is a no-op for
// observers. Listeners run under the field's lock and must not call Set
// on the same field.
func (f *Value[T]) Set(next T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if next == f.v {
		return
	}
	f.v = next

	for _, id := range f.order {
		if fn, ok := f.subs[id]; ok {
			fn(next)
		}
	}
}

// Subscribe registers a listener for subsequent changes and returns a
// cancel func. The listener does not fire for the current value.
func (f *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.seq
	f.seq++
	f.subs[id] = fn
	f.order = append(f.order, id)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}
