// Package ioselector is the non-blocking I/O integration layer: it turns
// "this fd/conn would block" into an EventSource-shaped wakeup, the same
// way the timer wheel turns "this deadline has not elapsed" into one.
//
// Two backends satisfy the same Selector interface: an epoll-based one on
// Linux (selector_linux.go) and a portable goroutine-driven one everywhere
// else (selector_fallback.go), mirroring the spec's "Unix uses readiness...
// Windows uses completion" split by instead splitting along "native
// readiness primitive available" vs. "not available", which is the line Go
// itself can actually test without cgo or platform-specific syscalls for
// every target.
package ioselector

import (
	"sync/atomic"
	"time"
)

// Mode is the readiness kind a caller wants to be notified about.
type Mode int

const (
	Readable Mode = iota
	Writable
)

// Waiter is the minimal capability the selector needs from a parked
// coroutine: something to call exactly once when the fd becomes ready, or
// when the wait is cancelled.
type Waiter interface {
	// Wake is invoked from the selector's poll loop when the fd is ready.
	Wake()
	// WakeCanceled is invoked when CancelIo aborts this wait before it
	// was satisfied.
	WakeCanceled()
}

// IoData is the per-fd/conn readiness record described in spec §4.7: an
// atomic readiness flag plus the single outstanding waiter, plus a cancel
// slot. Exactly one waiter may be registered at a time per (fd, mode).
type IoData struct {
	ready  atomic.Bool
	waiter atomic.Pointer[Waiter]

	cancelOnce atomic.Bool
	cancel     chan struct{} // closed by Cancel; backend-specific, may be nil
}

// SetWaiter installs w as the current waiter, replacing any previous one.
func (d *IoData) SetWaiter(w Waiter) {
	if w == nil {
		d.waiter.Store(nil)
		return
	}
	d.waiter.Store(&w)
}

// TakeWaiter atomically removes and returns the current waiter, if any.
func (d *IoData) TakeWaiter() (Waiter, bool) {
	p := d.waiter.Swap(nil)
	if p == nil {
		return nil, false
	}
	return *p, true
}

// Cancel aborts a pending wait, idempotently. It is the Go realization of
// the spec's platform CancelIo primitive: it takes the waiting coroutine off
// this record (waking it with WakeCanceled) and closes the per-registration
// cancel channel, which stops the fallback backend's watcher goroutine. The
// epoll backend does not read that channel; its fd stays registered, and a
// later readiness event finds no waiter to wake.
func (d *IoData) Cancel() {
	if !d.cancelOnce.CompareAndSwap(false, true) {
		return
	}
	if w, ok := d.TakeWaiter(); ok {
		w.WakeCanceled()
	}
	if d.cancel != nil {
		close(d.cancel)
	}
}

// Selector is the platform-neutral non-blocking I/O event loop contract.
type Selector interface {
	// Register arranges for w.Wake to be called the next time fd is ready
	// for mode. probe is a non-blocking re-check ("try the syscall again,
	// did it stop returning EAGAIN?") that backends without a native
	// readiness primitive use to poll; epoll-backed implementations ignore
	// it and rely on epoll_ctl/epoll_wait directly. Registration is
	// one-shot: it must be re-armed after firing.
	Register(fd int, mode Mode, probe func() bool, w Waiter) (*IoData, error)
	// Deregister removes any pending registration for fd/mode, calling
	// WakeCanceled on the waiter if one was pending.
	Deregister(fd int, mode Mode)
	// Wait blocks up to timeout for at least one readiness event, firing
	// registered waiters as it finds them. A negative timeout blocks until
	// an event fires or Wake is called (the fallback backend also returns
	// once Close is called).
	Wait(timeout time.Duration) (events int)
	// Wake interrupts a concurrent, already-blocked Wait immediately,
	// without waiting for its timeout to elapse. It carries no event of its
	// own; the caller (the scheduler) calls it whenever it pushes work a
	// worker's idle loop would otherwise not notice until the next poll.
	Wake()
	// Close releases the selector's OS resources.
	Close() error
}
