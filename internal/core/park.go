package core

import (
	"sync"
	"sync/atomic"
	"time"
)

type parkState int32

const (
	parkClean parkState = iota
	parkWaiting
	parkUnparked
	parkCanceled
	parkTimedOut
)

// Park is the one-shot-style gate of spec §3/§4.4: Clean → Waiting →
// {Unparked, Canceled, TimedOut} → Clean.
type Park struct {
	sched *Scheduler
	state atomic.Int32

	mu     sync.Mutex
	waiter *CoroutineImpl
	timer  *TimerHandle
}

// NewPark returns a park gate in the Clean state, bound to sched for
// re-queueing.
func NewPark(sched *Scheduler) *Park { return &Park{sched: sched} }

// parkWaitEvent is the EventSource a coroutine yields from ParkTimeout.
type parkWaitEvent struct {
	p        *Park
	deadline time.Time
	hasDL    bool
}

func (e *parkWaitEvent) Subscribe(co *CoroutineImpl) {
	e.p.mu.Lock()
	if parkState(e.p.state.Load()) != parkWaiting {
		// Unpark or cancelWait ran after Wait's Clean→Waiting step but before
		// there was a waiter to re-queue, so re-queue it here instead.
		e.p.mu.Unlock()
		e.p.sched.Schedule(co)
		return
	}
	e.p.waiter = co
	if e.hasDL {
		e.p.timer = e.p.sched.addTimer(co, e.deadline, func() {
			e.p.mu.Lock()
			same := e.p.waiter == co
			e.p.mu.Unlock()
			if same && e.p.state.CompareAndSwap(int32(parkWaiting), int32(parkTimedOut)) {
				e.p.clearAndRequeue(co)
			}
		})
	}
	e.p.mu.Unlock()

	if co.Cancel.IsCanceled() {
		if e.p.state.CompareAndSwap(int32(parkWaiting), int32(parkCanceled)) {
			e.p.clearAndRequeue(co)
		}
	}
}

func (e *parkWaitEvent) YieldBack() error {
	switch parkState(e.p.state.Load()) {
	case parkCanceled:
		e.p.state.Store(int32(parkClean))
		return ErrCanceled
	case parkTimedOut:
		e.p.state.Store(int32(parkClean))
		return ErrTimeout
	default:
		e.p.state.Store(int32(parkClean))
		return nil
	}
}

func (p *Park) clearAndRequeue(co *CoroutineImpl) {
	p.mu.Lock()
	p.waiter = nil
	if p.timer != nil {
		p.timer.Cancel()
		p.timer = nil
	}
	p.mu.Unlock()
	p.sched.Schedule(co)
}

// Wait parks the calling coroutine, or blocks the calling OS thread if
// called outside a coroutine, until Unpark, deadline, or cancellation. A
// negative timeout waits indefinitely.
func (p *Park) Wait(co *CoroutineImpl, timeout time.Duration) error {
	if !p.state.CompareAndSwap(int32(parkClean), int32(parkWaiting)) {
		// Already Unparked from a prior call racing ahead of us.
		p.state.CompareAndSwap(int32(parkUnparked), int32(parkClean))
		return nil
	}

	ev := &parkWaitEvent{p: p}
	if timeout >= 0 {
		ev.deadline = time.Now().Add(timeout)
		ev.hasDL = true
	}

	if co != nil {
		return co.Suspend(ev)
	}

	// Thread context: no EventSource machinery, just a condvar-style wait.
	done := make(chan struct{})
	p.mu.Lock()
	p.waiter = nil // thread waiters aren't CoroutineImpls; state alone carries the signal
	p.mu.Unlock()
	go func() {
		for {
			if parkState(p.state.Load()) != parkWaiting {
				close(done)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	if timeout >= 0 {
		select {
		case <-done:
		case <-time.After(timeout):
			p.state.CompareAndSwap(int32(parkWaiting), int32(parkTimedOut))
			<-done
		}
	} else {
		<-done
	}
	ev2 := parkWaitEvent{p: p}
	return ev2.YieldBack()
}

// Unpark attempts Waiting→Unparked, re-queueing the parked coroutine (if
// any). Already-clean or already-unparked parks are left as Unparked so
// the next Wait call returns immediately, matching spec §4.4.
func (p *Park) Unpark() {
	if p.state.CompareAndSwap(int32(parkWaiting), int32(parkUnparked)) {
		p.mu.Lock()
		co := p.waiter
		p.waiter = nil
		if p.timer != nil {
			p.timer.Cancel()
			p.timer = nil
		}
		p.mu.Unlock()
		if co != nil {
			p.sched.Schedule(co)
		}
		return
	}
	p.state.CompareAndSwap(int32(parkClean), int32(parkUnparked))
}

// cancelWait is invoked by Cancel.Cancel on the coroutine's own park.
func (p *Park) cancelWait() {
	if p.state.CompareAndSwap(int32(parkWaiting), int32(parkCanceled)) {
		p.mu.Lock()
		co := p.waiter
		p.waiter = nil
		if p.timer != nil {
			p.timer.Cancel()
			p.timer = nil
		}
		p.mu.Unlock()
		if co != nil {
			p.sched.Schedule(co)
		}
	}
}
