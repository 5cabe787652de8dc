package core

import (
	"runtime"
	"sync"
	"time"
)

// yieldNowEvent implements the bare yield_now() suspension point: resume
// immediately, just give other runnable coroutines a turn first.
type yieldNowEvent struct{ sched *Scheduler }

func (e *yieldNowEvent) Subscribe(co *CoroutineImpl) { e.sched.Schedule(co) }
func (e *yieldNowEvent) YieldBack() error            { return nil }

// sleepEvent implements sleep(dur): fires from the timer wheel, but can
// also be woken early by Cancel, since sleep is listed among spec §5's
// suspension points a cancelled coroutine must observe promptly rather
// than only on its next, unrelated suspension.
type sleepEvent struct {
	sched    *Scheduler
	deadline time.Time
	co       *CoroutineImpl
	timer    *TimerHandle
	canceled bool
	wakeOnce sync.Once
}

// Cancel implements CancelIo, letting Cancel.Cancel() wake a sleeping
// coroutine immediately instead of waiting for its timer to fire.
func (e *sleepEvent) Cancel() {
	e.canceled = true
	e.wakeOnce.Do(func() {
		if e.timer != nil {
			e.timer.Cancel()
		}
		e.sched.Schedule(e.co)
	})
}

func (e *sleepEvent) Subscribe(co *CoroutineImpl) {
	e.co = co
	co.Cancel.SetIo(e)
	if co.Cancel.IsCanceled() {
		e.Cancel()
		return
	}
	e.timer = e.sched.addTimer(co, e.deadline, func() {
		e.wakeOnce.Do(func() { e.sched.Schedule(co) })
	})
}

func (e *sleepEvent) YieldBack() error {
	if co, ok := Current(); ok {
		co.Cancel.ClearIo()
	}
	if e.canceled {
		return ErrCanceled
	}
	return nil
}

// YieldNow yields once, letting the scheduler run other work before this
// coroutine resumes. Outside a coroutine this is a thread yield.
func YieldNow(sched *Scheduler) {
	if co, ok := Current(); ok {
		_ = co.Suspend(&yieldNowEvent{sched: sched})
		return
	}
	// No portable thread-yield primitive is exposed by the stdlib beyond
	// runtime.Gosched; that is the correct analogue outside a coroutine.
	runtime.Gosched()
}

// Sleep suspends the calling coroutine for dur, or blocks the calling OS
// thread if called outside a coroutine. Cancellation is observed before
// the sleep begins.
func Sleep(sched *Scheduler, dur time.Duration) error {
	if co, ok := Current(); ok {
		if err := co.Cancel.Check(); err != nil {
			return err
		}
		return co.Suspend(&sleepEvent{sched: sched, deadline: time.Now().Add(dur)})
	}
	time.Sleep(dur)
	return nil
}
