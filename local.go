package mcoro

import (
	"sync"

	"github.com/tcard/mcoro/internal/core"
	"github.com/tcard/mcoro/internal/gls"
)

// Local is coroutine-local storage, per spec §4.3/§9: a value private to
// each coroutine that created or first touched it, keyed off the
// coroutine's own identity rather than a goroutine ID a caller could spoof.
// Used from outside a coroutine it falls back to an OS-thread-local backed
// by goroutine ID, matching the same fallback the engine uses for
// Current/TryCurrent.
type Local[T any] struct {
	key  *int
	init func() T

	threadMu sync.Mutex
	thread   map[uint64]*T
}

// NewLocal returns a Local whose value is lazily created by init the first
// time each coroutine (or thread) touches it.
func NewLocal[T any](init func() T) *Local[T] {
	return &Local[T]{key: new(int), init: init, thread: make(map[uint64]*T)}
}

func (l *Local[T]) slot() *T {
	if co, ok := core.Current(); ok {
		v := co.LocalValue(l.key, func() any {
			val := l.init()
			return &val
		})
		return v.(*T)
	}

	id := gls.ID()
	l.threadMu.Lock()
	defer l.threadMu.Unlock()
	v, ok := l.thread[id]
	if !ok {
		val := l.init()
		v = &val
		l.thread[id] = v
	}
	return v
}

// Get returns the caller's value, creating it via init if this is the
// first touch.
func (l *Local[T]) Get() T { return *l.slot() }

// Set replaces the caller's value.
func (l *Local[T]) Set(v T) { *l.slot() = v }

// With runs f against a pointer to the caller's value, for in-place
// mutation without a separate Get/Set round trip.
func (l *Local[T]) With(f func(v *T)) { f(l.slot()) }
