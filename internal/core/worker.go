package core

import (
	"time"

	"github.com/tcard/mcoro/internal/ioselector"
	"github.com/tcard/mcoro/internal/queue"
	"github.com/tcard/mcoro/internal/rtlog"
	"github.com/tcard/mcoro/internal/timerwheel"
)

// fairnessInterval bounds how many consecutive local pops a worker takes
// before checking the global queue, per spec §4.5's fairness rule.
const fairnessInterval = 61

// idlePollCeiling bounds how long a worker's I/O poll blocks when no timer
// is pending, so a newly woken local/global/pinned item is never starved
// for more than this long.
const idlePollCeiling = 20 * time.Millisecond

type worker struct {
	id    int
	sched *Scheduler

	local  *queue.Deque[*CoroutineImpl]
	pinned chan *CoroutineImpl

	wheel *timerwheel.Wheel
	io    ioselector.Selector

	wakeCh chan struct{}

	localPopsSinceGlobalCheck int
}

func newWorker(id int, sched *Scheduler) *worker {
	sel, err := selectorFactory()
	if err != nil {
		rtlog.L().Warnw("io selector unavailable, I/O wrappers will error", "worker", id, "err", err)
		sel = nil
	}
	return &worker{
		id:     id,
		sched:  sched,
		local:  queue.NewDeque[*CoroutineImpl](sched.cfg.LocalQueueCap),
		pinned: make(chan *CoroutineImpl, 4096),
		wheel:  timerwheel.New(),
		io:     sel,
		wakeCh: make(chan struct{}, 1),
	}
}

// wake interrupts this worker's idle loop immediately. When a selector is
// installed, idle() blocks in w.io.Wait rather than on wakeCh, so the wake
// must reach the selector itself (its self-pipe on the epoll backend) or
// the new item would sit unseen until idlePollCeiling elapses.
func (w *worker) wake() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
	if w.io != nil {
		w.io.Wake()
	}
}

func (w *worker) enqueuePinned(co *CoroutineImpl) {
	w.pinned <- co
	w.wake()
}

// loop is the per-worker scheduling loop of spec §4.5.
func (w *worker) loop() {
	for {
		co := w.next()
		if co == nil {
			w.idle()
			continue
		}
		w.run(co)
	}
}

func (w *worker) next() *CoroutineImpl {
	select {
	case co := <-w.pinned:
		return co
	default:
	}

	if w.localPopsSinceGlobalCheck >= fairnessInterval {
		w.localPopsSinceGlobalCheck = 0
		if co, ok := w.sched.global.Pop(); ok {
			return co
		}
	}

	if co, ok := w.local.PopBottom(); ok {
		w.localPopsSinceGlobalCheck++
		return co
	}

	if w.sched.cfg.WorkSteal {
		if co := w.steal(); co != nil {
			return co
		}
	}

	if co, ok := w.sched.global.Pop(); ok {
		return co
	}
	return nil
}

// steal takes half of another worker's local queue. Only unpinned entries
// ever sit in a local queue (pinned re-queues always go to a worker's
// dedicated pinned channel), so anything stolen here is safe to migrate,
// matching spec §5's "work stealing only migrates coroutines that have not
// yet started".
func (w *worker) steal() *CoroutineImpl {
	n := len(w.sched.workers)
	for i := 1; i < n; i++ {
		victim := w.sched.workers[(w.id+i)%n]
		if victim == w {
			continue
		}
		stolen := victim.local.StealHalf()
		if len(stolen) == 0 {
			continue
		}
		for _, co := range stolen[1:] {
			w.local.PushBottom(co)
		}
		return stolen[0]
	}
	return nil
}

func (w *worker) idle() {
	timeout := idlePollCeiling
	if deadline, ok := w.wheel.NextDeadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if timeout < 0 {
		timeout = 0
	}

	if w.io != nil {
		w.io.Wait(timeout)
	} else {
		select {
		case <-w.wakeCh:
		case <-time.After(timeout):
		}
	}
	w.wheel.Advance(time.Now())
}

// run resumes co exactly once, per spec §4.3's run_coroutine contract.
func (w *worker) run(co *CoroutineImpl) {
	co.PinTo(w.id)

	src, alive := co.Resume()
	if !alive {
		panicVal, hasPanic := co.PanicVal()
		if hasPanic {
			rtlog.L().Warnw("coroutine panicked", "coroutine", co.Name, "panic", panicVal)
		}
		co.Join.Trigger(panicVal, hasPanic)
		release(w.sched, co)
		return
	}

	src.Subscribe(co)
}
