package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tcard/mcoro/internal/ioselector"
	"github.com/tcard/mcoro/internal/pool"
	"github.com/tcard/mcoro/internal/queue"
	"github.com/tcard/mcoro/internal/rtlog"
	"github.com/tcard/mcoro/internal/timerwheel"
)

// TimerHandle lets a caller cancel a timer it registered via
// Scheduler.addTimer, idempotently.
type TimerHandle struct{ entry *timerwheel.Entry }

// Cancel idempotently prevents the timer's callback from firing, if it
// hasn't already.
func (h *TimerHandle) Cancel() {
	if h != nil && h.entry != nil {
		h.entry.Cancel()
	}
}

// Scheduler owns the worker pool and the global injection queue, per spec
// §4.5.
type Scheduler struct {
	cfg     Config
	workers []*worker
	global  *queue.Global[*CoroutineImpl]
	pool    *pool.Pool

	nextPlacement atomic.Uint64

	startOnce sync.Once
}

// NewScheduler constructs (but does not start) a scheduler with cfg.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	s := &Scheduler{
		cfg:    cfg,
		global: queue.NewGlobal[*CoroutineImpl](),
		pool:   pool.New(cfg.PoolCapacity),
	}
	s.workers = make([]*worker, cfg.Workers)
	for i := range s.workers {
		s.workers[i] = newWorker(i, s)
	}
	return s
}

// Start launches every worker's scheduling loop. Idempotent.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		for _, w := range s.workers {
			go w.loop()
		}
		rtlog.L().Infow("scheduler started", "workers", len(s.workers), "work_steal", s.cfg.WorkSteal)
	})
}

// Config returns the scheduler's configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Spawn builds and schedules a new coroutine running thunk. A stackSize of
// 0 (or less) uses the scheduler's configured StackSize.
func (s *Scheduler) Spawn(name string, stackSize int, thunk func()) *CoroutineImpl {
	s.Start()
	if stackSize <= 0 {
		stackSize = s.cfg.StackSize
	}
	co := spawn(s, name, stackSize, thunk)
	s.Schedule(co)
	return co
}

// Schedule routes co to its pinned worker if it has one, or places it on a
// worker's local queue (falling back to the global queue if that queue is
// full), per spec §4.5.
func (s *Scheduler) Schedule(co *CoroutineImpl) {
	if wid, pinned := co.PinnedWorker(); pinned {
		s.workers[wid].enqueuePinned(co)
		return
	}
	w := s.workers[int(s.nextPlacement.Add(1))%len(s.workers)]
	if !w.local.PushBottom(co) {
		s.global.Push(co)
	}
	w.wake()
}

// ScheduleGlobal always uses the global queue, per spec §4.5.
func (s *Scheduler) ScheduleGlobal(co *CoroutineImpl) {
	s.global.Push(co)
	for _, w := range s.workers {
		w.wake()
	}
}

// addTimer registers fire to run at deadline on the worker that owns co (or
// an arbitrary one, if co has not yet been pinned), per spec §4.6's
// cross-worker add_io_timer routing rule.
func (s *Scheduler) addTimer(co *CoroutineImpl, deadline time.Time, fire func()) *TimerHandle {
	wid, pinned := co.PinnedWorker()
	if !pinned {
		wid = int(s.nextPlacement.Load()) % len(s.workers)
	}
	e := s.workers[wid].wheel.Add(deadline, fire)
	s.workers[wid].wake()
	return &TimerHandle{entry: e}
}

// Stats is a point-in-time snapshot of queue depths, for the debug HTTP
// surface and for tests.
type Stats struct {
	GlobalQueueLen int           `json:"global_queue_len"`
	PoolIdle       int           `json:"pool_idle"`
	PoolCapacity   int           `json:"pool_capacity"`
	Workers        []WorkerStats `json:"workers"`
}

// WorkerStats is a single worker's snapshot.
type WorkerStats struct {
	ID            int `json:"id"`
	LocalQueueLen int `json:"local_queue_len"`
	PinnedQueued  int `json:"pinned_queued"`
}

// Stats returns a snapshot of current scheduler load.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		GlobalQueueLen: s.global.Len(),
		PoolIdle:       s.pool.Len(),
		PoolCapacity:   s.pool.Capacity(),
	}
	for _, w := range s.workers {
		st.Workers = append(st.Workers, WorkerStats{
			ID:            w.id,
			LocalQueueLen: w.local.Len(),
			PinnedQueued:  len(w.pinned),
		})
	}
	return st
}

// selectorFactory is overridable by tests that want a deterministic,
// syscall-free selector.
var selectorFactory = ioselector.New
