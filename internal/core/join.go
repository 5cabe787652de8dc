package core

import "sync"

// JoinState is the completion-signalling object shared by a CoroutineImpl
// and its JoinHandle, per spec §3/§4.4.
type JoinState struct {
	mu       sync.Mutex
	done     bool
	panicVal any
	hasPanic bool
	waiter   *CoroutineImpl
	doneCh   chan struct{}
	sched    *Scheduler
}

// NewJoinState returns a fresh, incomplete join state.
func NewJoinState(sched *Scheduler) *JoinState {
	return &JoinState{doneCh: make(chan struct{}), sched: sched}
}

// Trigger marks the join complete and wakes whatever is waiting on it. It
// happens-before any Wait call returns, satisfying spec invariant 4.
func (j *JoinState) Trigger(panicVal any, hasPanic bool) {
	j.mu.Lock()
	if j.done {
		j.mu.Unlock()
		return
	}
	j.done = true
	j.panicVal = panicVal
	j.hasPanic = hasPanic
	w := j.waiter
	j.waiter = nil
	j.mu.Unlock()

	close(j.doneCh)
	if w != nil {
		j.sched.Schedule(w)
	}
}

type joinWaitEvent struct{ j *JoinState }

func (e *joinWaitEvent) Subscribe(co *CoroutineImpl) {
	e.j.mu.Lock()
	if e.j.done {
		e.j.mu.Unlock()
		e.j.sched.Schedule(co)
		return
	}
	e.j.waiter = co
	e.j.mu.Unlock()
}

func (e *joinWaitEvent) YieldBack() error { return nil }

// Wait blocks the caller until the target completes. From inside a
// coroutine it suspends via the generator so the worker is freed to run
// other coroutines meanwhile; from a plain OS thread it blocks directly.
func (j *JoinState) Wait(caller *CoroutineImpl) (panicVal any, hasPanic bool) {
	if caller != nil {
		_ = caller.Suspend(&joinWaitEvent{j: j})
	} else {
		<-j.doneCh
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.panicVal, j.hasPanic
}

// Done reports whether Trigger has already run.
func (j *JoinState) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}
