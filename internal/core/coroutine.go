package core

import (
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tcard/mcoro/internal/gls"
	"github.com/tcard/mcoro/internal/rtlog"
)

// unpinned marks a CoroutineImpl that has not yet been first resumed.
const unpinned = -1

// CoroutineImpl is the engine-side coroutine object of spec §3/§4.3: a
// Generator plus identity, pinning, and local storage. The "reduced stack"
// bookkeeping of the original design (snapshot live bytes, release the
// full stack to the pool) has no real counterpart here, since the backing
// goroutine's stack is managed by the Go runtime itself and parking it
// already costs only a few hundred bytes of goroutine bookkeeping — the
// property the original mechanism exists to provide. checkStackHighWater is
// kept as a best-effort, approximate stand-in for the overflow gate.
type CoroutineImpl struct {
	ID        uuid.UUID
	Name      string
	StackSize int

	gen *Generator

	Park   *Park
	Cancel *Cancel
	Join   *JoinState

	pinnedWorker atomic.Int32

	localsMu sync.Mutex
	locals   map[any]any

	sched *Scheduler
}

// Handle is the public, cloneable identity spec §3 calls Coroutine: it is
// what survives after the CoroutineImpl itself is recycled.
type Handle struct {
	ID        uuid.UUID
	Name      string
	StackSize int
	Park      *Park
	Cancel    *Cancel
}

// shell is the poolable wrapper spec §4.9 calls a "pre-initialised
// coroutine shell": a retired CoroutineImpl whose identity fields get reset
// and whose Generator is replaced by rewriting the start thunk, the Go
// realization of "closure is injected at spawn time". Only the wrapper
// struct itself is reused: spawn gives it a new UUID and Reset allocates a
// fresh Cancel, Park and Join, and the backing goroutine of a finished
// coroutine has already returned and cannot be resurrected, so a fresh one
// is started for the new thunk. This is strictly narrower than the
// original's stack-reuse trick, but that trick exists to make parking
// cheap, and a parked Go goroutine is already cheap (see SPEC_FULL.md §0);
// what this still amortises is the CoroutineImpl struct allocation.
type shell struct{ co *CoroutineImpl }

func (s *shell) Reset(thunk func()) {
	co := s.co
	co.pinnedWorker.Store(unpinned)
	co.Cancel = NewCancel(co.sched)
	co.Park = co.Cancel.Park()
	co.Join = NewJoinState(co.sched)
	co.localsMu.Lock()
	co.locals = nil
	co.localsMu.Unlock()
	co.gen = NewGenerator(func(g *Generator) {
		gls.Set(co)
		defer gls.Clear()
		defer checkStackHighWater(co)
		thunk()
	})
}

// spawn returns a CoroutineImpl running thunk, not yet scheduled, reusing a
// pooled shell when one is available.
func spawn(sched *Scheduler, name string, stackSize int, thunk func()) *CoroutineImpl {
	if name == "" {
		name = "mcoro-" + uuid.NewString()[:8]
	}

	if sched.pool != nil {
		if s, ok := sched.pool.Get(); ok {
			sh := s.(*shell)
			sh.co.Name = name
			sh.co.StackSize = stackSize
			sh.co.ID = uuid.New()
			sh.Reset(thunk)
			return sh.co
		}
	}

	co := &CoroutineImpl{
		ID:        uuid.New(),
		Name:      name,
		StackSize: stackSize,
		sched:     sched,
	}
	co.Cancel = NewCancel(sched)
	co.Park = co.Cancel.Park()
	co.Join = NewJoinState(sched)
	co.pinnedWorker.Store(unpinned)

	co.gen = NewGenerator(func(g *Generator) {
		gls.Set(co)
		defer gls.Clear()
		defer checkStackHighWater(co)
		thunk()
	})
	return co
}

// release returns co to the scheduler's pool as a reusable shell, once it
// has finished running.
func release(sched *Scheduler, co *CoroutineImpl) {
	if sched.pool == nil {
		return
	}
	sched.pool.Put(&shell{co: co})
}

// Handle returns the public identity for this coroutine.
func (co *CoroutineImpl) Handle() *Handle {
	return &Handle{ID: co.ID, Name: co.Name, StackSize: co.StackSize, Park: co.Park, Cancel: co.Cancel}
}

// Scheduler returns the scheduler this coroutine runs on, so free functions
// like YieldNow/Sleep can be called without threading a scheduler argument
// through the public API.
func (co *CoroutineImpl) Scheduler() *Scheduler { return co.sched }

// PinTo records w as this coroutine's permanently-owning worker, the first
// time it is called (subsequent calls are no-ops), matching the
// run-until-first-resume migration rule of spec §5.
func (co *CoroutineImpl) PinTo(workerID int) {
	co.pinnedWorker.CompareAndSwap(unpinned, int32(workerID))
}

// PinnedWorker reports the owning worker id, if this coroutine has run at
// least once.
func (co *CoroutineImpl) PinnedWorker() (id int, pinned bool) {
	v := co.pinnedWorker.Load()
	if v == unpinned {
		return 0, false
	}
	return int(v), true
}

// Resume advances the coroutine. ok is false once it has finished (return
// or panic); the caller should check PanicVal in that case.
func (co *CoroutineImpl) Resume() (EventSource, bool) { return co.gen.Resume() }

// PanicVal returns the coroutine body's recovered panic payload, if any.
func (co *CoroutineImpl) PanicVal() (any, bool) { return co.gen.PanicVal() }

// Suspend yields src to the host and re-checks cancellation on resume, per
// spec §4.7 ("yield_back runs first and must re-check cancellation").
// Callable only from inside the coroutine's own backing goroutine.
func (co *CoroutineImpl) Suspend(src EventSource) error {
	co.gen.YieldWith(src)
	return src.YieldBack()
}

// LocalValue lazily creates and returns the slot for key, used by the
// public coroutine-local-storage wrapper.
func (co *CoroutineImpl) LocalValue(key any, zero func() any) any {
	co.localsMu.Lock()
	defer co.localsMu.Unlock()
	if co.locals == nil {
		co.locals = make(map[any]any)
	}
	v, ok := co.locals[key]
	if !ok {
		v = zero()
		co.locals[key] = v
	}
	return v
}

// Current returns the CoroutineImpl executing on the calling goroutine, if
// any — the Go realization of spec's try_current()/is_coroutine().
func Current() (*CoroutineImpl, bool) {
	v, ok := gls.Get()
	if !ok {
		return nil, false
	}
	co, ok := v.(*CoroutineImpl)
	return co, ok
}

// softStackCeiling is compared against a runtime/debug.Stack() sample at
// coroutine exit. Go cannot report a genuine per-goroutine high-water mark
// or intercept a real stack overflow (that is always a fatal, unrecoverable
// runtime abort in Go), so this is a best-effort approximation of spec
// §4.3's "abort on used == size" gate: a single sample at coroutine exit,
// not a continuous watermark, documented as a platform limitation in
// DESIGN.md.
//
// Unlike a user closure's panic, this must never surface as a JoinHandle
// error: spec §6's exit codes treat a detected stack overflow and a
// user-triggered panic as two distinct outcomes, the former crashing the
// whole process rather than being reported and continuing. A plain panic
// here would instead be caught by the same recover() generator.go uses for
// ordinary user panics (it runs inside the same deferred-call chain), so
// this calls os.Exit directly — it never unwinds through that recover at
// all.
func checkStackHighWater(co *CoroutineImpl) {
	if co.StackSize <= 0 {
		return
	}
	used := len(debug.Stack())
	if used >= co.StackSize {
		rtlog.L().Errorw("stack overflow detected, aborting process", "coroutine", co.Name, "used", used, "limit", co.StackSize)
		rtlog.Sync()
		os.Exit(1)
	}
}
