// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package observable provides a replay-latest state slot that presentation
// code can subscribe to.
//
// A Value holds one current value. Subscribers are called synchronously on
// the goroutine that calls Set, in the order the values were set. A new
// subscriber immediately receives the current value, so late subscribers
// never miss state that changed before they arrived.
//
// Subscribers must not call Set on the same Value from inside the callback.
// Code that needs to react by mutating state should hand the value off to
// another goroutine (the TUI does this through its event queue).
package observable

import (
	"sync"
)

// =============================================================================
// VALUE
// =============================================================================

// Value is a replay-latest observable slot.
type Value[T any] struct {
	// pubMu serializes publishing so subscribers see values in Set order.
	pubMu sync.Mutex

	mu     sync.RWMutex
	cur    T
	subs   map[uint64]func(T)
	order  []uint64
	nextID uint64
	equal  func(a, b T) bool
}

// New creates a Value that publishes on every Set.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[uint64]func(T)),
	}
}

// NewDistinct creates a Value that only publishes when the new value differs
// from the current one.
func NewDistinct[T comparable](initial T) *Value[T] {
	v := New(initial)
	v.equal = func(a, b T) bool { return a == b }
	return v
}

// NewDistinctFunc is NewDistinct with a caller-supplied equality check.
func NewDistinctFunc[T any](initial T, equal func(a, b T) bool) *Value[T] {
	v := New(initial)
	v.equal = equal
	return v
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

// Set stores x and notifies every subscriber. It reports whether the value
// was published; a distinct Value skips values equal to the current one.
func (v *Value[T]) Set(x T) bool {
	v.pubMu.Lock()
	defer v.pubMu.Unlock()
	return v.publish(x)
}

// Update applies fn to the current value and publishes the result.
func (v *Value[T]) Update(fn func(T) T) bool {
	v.pubMu.Lock()
	defer v.pubMu.Unlock()
	return v.publish(fn(v.Get()))
}

func (v *Value[T]) publish(x T) bool {
	v.mu.Lock()
	if v.equal != nil && v.equal(v.cur, x) {
		v.mu.Unlock()
		return false
	}
	v.cur = x
	subs := v.snapshotSubsLocked()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(x)
	}
	return true
}

// Subscribe registers fn and immediately calls it with the current value.
// The returned function removes the subscription; it is safe to call more
// than once.
func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.pubMu.Lock()
	defer v.pubMu.Unlock()

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	v.order = append(v.order, id)
	cur := v.cur
	v.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() { v.remove(id) })
	}
}

// Subscribers returns the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}

func (v *Value[T]) remove(id uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.subs, id)
	for i, o := range v.order {
		if o == id {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

func (v *Value[T]) snapshotSubsLocked() []func(T) {
	out := make([]func(T), 0, len(v.order))
	for _, id := range v.order {
		if fn, ok := v.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
