package core

import "sync"

// CancelIo is the platform handle that lets Cancel abort a pending
// non-blocking I/O wait, per spec §4.7/§9 ("Implementers may model it as an
// interface with one implementation per OS"). In this module it is
// realized uniformly by ioselector.IoData.Cancel regardless of OS, since
// both the epoll and fallback backends expose the same cancel channel.
type CancelIo interface {
	Cancel()
}

// Cancel is the atomic cancellation flag plus a slot for whichever CancelIo
// token is currently outstanding, as spec §3.
type Cancel struct {
	mu        sync.Mutex
	flag      bool
	io        CancelIo
	ownerPark *Park // the coroutine's own Park, for park()/park_timeout() cancellation
	sched     *Scheduler
}

// NewCancel returns a clear Cancel flag bound to sched, used to re-queue
// whatever this coroutine is parked on.
func NewCancel(sched *Scheduler) *Cancel {
	return &Cancel{sched: sched, ownerPark: NewPark(sched)}
}

// Cancel sets the flag (idempotently), best-effort cancels any registered
// I/O wait, and unparks the coroutine if it is parked. Safe from any
// goroutine, never blocks.
func (c *Cancel) Cancel() {
	c.mu.Lock()
	c.flag = true
	io := c.io
	c.mu.Unlock()

	if io != nil {
		io.Cancel()
	}
	c.ownerPark.cancelWait()
}

// IsCanceled reports the current state of the flag.
func (c *Cancel) IsCanceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flag
}

// Check returns ErrCanceled if the flag is set, nil otherwise. Sleep and
// IoWait call this before committing to suspend; park and channel waits test
// IsCanceled themselves. YieldNow and JoinState.Wait do not observe
// cancellation.
func (c *Cancel) Check() error {
	if c.IsCanceled() {
		return ErrCanceled
	}
	return nil
}

// SetIo installs the currently outstanding I/O cancellation token.
func (c *Cancel) SetIo(io CancelIo) {
	c.mu.Lock()
	c.io = io
	c.mu.Unlock()
}

// ClearIo removes the outstanding I/O cancellation token once the wait it
// guarded has completed normally.
func (c *Cancel) ClearIo() {
	c.mu.Lock()
	c.io = nil
	c.mu.Unlock()
}

// Park returns the coroutine's own park gate, used by ParkCurrent/Unpark.
func (c *Cancel) Park() *Park { return c.ownerPark }
