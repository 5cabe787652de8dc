//go:build !linux

package ioselector

import (
	"sync"
	"time"
)

// fallbackSelector is the portable backend used wherever a native readiness
// primitive isn't wired up (anything but Linux, in this module). It is
// modeled on the goroutine-per-registration watcher pattern: each
// registration gets a short-lived ticking goroutine that retries the
// caller's non-blocking probe until it succeeds or is cancelled, then
// delivers the wakeup onto a shared ready queue that Wait drains.
//
// This trades a background goroutine per in-flight wait for not needing a
// native poll primitive; it is the same tradeoff the corpus's
// asyncio.goPoller makes.
type fallbackSelector struct {
	mu      sync.Mutex
	ready   chan Waiter
	wake    chan struct{}
	closed  bool
	closeCh chan struct{}
}

// New returns the selector backend for this platform.
func New() (Selector, error) {
	return &fallbackSelector{
		ready:   make(chan Waiter, 64),
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}, nil
}

const pollInterval = 500 * time.Microsecond

func (s *fallbackSelector) Register(fd int, mode Mode, probe func() bool, w Waiter) (*IoData, error) {
	d := &IoData{}
	d.SetWaiter(w)

	cancel := make(chan struct{})
	d.cancel = cancel

	go func() {
		t := time.NewTicker(pollInterval)
		defer t.Stop()
		for {
			select {
			case <-s.closeCh:
				return
			case <-cancel:
				return
			case <-t.C:
				if probe == nil || probe() {
					if waiter, ok := d.TakeWaiter(); ok {
						select {
						case s.ready <- waiter:
						case <-s.closeCh:
						}
					}
					return
				}
			}
		}
	}()

	return d, nil
}

func (s *fallbackSelector) Deregister(fd int, mode Mode) {
	// No-op: per-registration IoData.Cancel (invoked by the Cancel I/O
	// path) closes the watcher goroutine directly; Deregister exists to
	// satisfy the Selector contract symmetrically with the epoll backend.
}

func (s *fallbackSelector) Wait(timeout time.Duration) int {
	var after <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		after = timer.C
	}
	n := 0
	select {
	case w := <-s.ready:
		w.Wake()
		n++
	case <-s.wake:
		return 0
	case <-after:
		return 0
	case <-s.closeCh:
		return 0
	}
	// Drain any further already-ready waiters without blocking.
	for {
		select {
		case w := <-s.ready:
			w.Wake()
			n++
		default:
			return n
		}
	}
}

// Wake interrupts a blocked Wait immediately, the portable-backend
// equivalent of the epoll backend's self-pipe write.
func (s *fallbackSelector) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *fallbackSelector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.closeCh)
	return nil
}
