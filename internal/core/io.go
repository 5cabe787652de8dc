package core

import (
	"errors"

	"github.com/tcard/mcoro/internal/ioselector"
)

// ioWaiter adapts a CoroutineImpl to ioselector.Waiter: Wake/WakeCanceled
// both just re-queue the coroutine, recording which one happened so
// YieldBack can translate it into the right error.
type ioWaiter struct {
	co    *CoroutineImpl
	sched *Scheduler
	err   error
}

func (w *ioWaiter) Wake()         { w.sched.Schedule(w.co) }
func (w *ioWaiter) WakeCanceled() { w.err = ErrCanceled; w.sched.Schedule(w.co) }

// IoWait suspends co until fd is ready for mode, per spec §4.7: register
// with the owning worker's selector and yield. It returns after a single
// wake without re-checking readiness; the selector may wake spuriously, so
// callers retry their syscall (as netio's Read/Write loops do). probe is
// used only by the portable fallback backend; the epoll backend ignores it.
func (s *Scheduler) IoWait(co *CoroutineImpl, fd int, mode ioselector.Mode, probe func() bool) error {
	if co == nil {
		return errors.New("mcoro: non-blocking I/O wait requires coroutine context")
	}
	if err := co.Cancel.Check(); err != nil {
		return err
	}

	wid, pinned := co.PinnedWorker()
	if !pinned {
		wid = int(s.nextPlacement.Load()) % len(s.workers)
	}
	w := s.workers[wid]
	if w.io == nil {
		return errors.New("mcoro: io selector unavailable on this platform")
	}

	waiter := &ioWaiter{co: co, sched: s}
	data, err := w.io.Register(fd, mode, probe, waiter)
	if err != nil {
		return err
	}

	ev := &funcEvent{
		subscribe: func(co *CoroutineImpl) {
			co.Cancel.SetIo(data)
			if co.Cancel.IsCanceled() {
				data.Cancel()
			}
		},
		yieldBack: func() error {
			co.Cancel.ClearIo()
			return waiter.err
		},
	}
	return co.Suspend(ev)
}
