// Package pool caches finished coroutine shells so that spawning a new
// coroutine can, on the common path, reuse a shell's struct instead of
// allocating a fresh one. A new backing goroutine is still started for
// every spawn.
package pool

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// Shell is anything that can be reset and handed out to a new spawn. In
// this module it wraps a finished CoroutineImpl, whose Reset installs a new
// generator (and so a new backing goroutine); kept generic over the
// concrete type to avoid an import cycle
// with internal/core, which is the only package that constructs one.
type Shell interface {
	// Reset prepares the shell to run thunk as a brand new coroutine body.
	Reset(thunk func())
}

// Pool is a bounded cache of idle Shells, gated by a weighted semaphore so
// that Get never allocates past capacity by more than the caller's own
// fallback path (a fresh allocation) chooses to.
type Pool struct {
	capacity int64
	sem      *semaphore.Weighted

	mu    sync.Mutex
	idle  []Shell
	total int64
}

// New returns a pool that holds at most capacity idle shells.
func New(capacity int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{capacity: int64(capacity), sem: semaphore.NewWeighted(int64(capacity))}
}

// Get returns an idle shell, or (nil, false) if the pool is empty, in which
// case the caller allocates a fresh one.
func (p *Pool) Get() (Shell, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.idle)
	if n == 0 {
		return nil, false
	}
	s := p.idle[n-1]
	p.idle = p.idle[:n-1]
	p.sem.Release(1)
	return s, true
}

// Put returns s to the pool, discarding it if the pool is already full.
func (p *Pool) Put(s Shell) {
	if s == nil {
		return
	}
	if !p.sem.TryAcquire(1) {
		return // full: drop it, let the GC reclaim it
	}
	p.mu.Lock()
	p.idle = append(p.idle, s)
	p.mu.Unlock()
}

// Len reports the number of currently idle shells.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Capacity reports the pool's configured capacity.
func (p *Pool) Capacity() int { return int(p.capacity) }
