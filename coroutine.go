package mcoro

import (
	"time"

	"github.com/tcard/mcoro/internal/core"
)

// Coroutine is the public, cloneable handle to a spawned coroutine, per
// spec §3: its name, configured stack size, and its Park/Cancel gates.
// Cloning is simply copying the value — every field is itself a reference
// type or immutable.
type Coroutine struct {
	h *core.Handle
}

// Name returns the coroutine's name, auto-generated if none was given to
// the Builder.
func (c Coroutine) Name() string { return c.h.Name }

// StackSize returns the coroutine's configured soft stack ceiling.
func (c Coroutine) StackSize() int { return c.h.StackSize }

// Cancel requests cooperative cancellation of this coroutine. It never
// blocks; the target observes it at its next suspension point.
func (c Coroutine) Cancel() { c.h.Cancel.Cancel() }

// IsCanceled reports whether Cancel has been called on this coroutine.
func (c Coroutine) IsCanceled() bool { return c.h.Cancel.IsCanceled() }

// Unpark wakes this coroutine if it is parked, or pre-arms the next
// park()/park_timeout() call to return immediately if it is not, per spec
// §4.4.
func (c Coroutine) Unpark() { c.h.Park.Unpark() }

func wrapHandle(h *core.Handle) Coroutine { return Coroutine{h: h} }

// Builder configures a coroutine before spawning it, per spec §6:
//
//	h := mcoro.NewBuilder[int]().Name("worker-1").StackSize(64 << 10).Spawn(f)
//
// T is the type the spawned closure returns. Go methods cannot introduce
// their own type parameters, so unlike the original's fluent
// Builder::new().spawn(f), T is fixed at the Builder's own construction.
type Builder[T any] struct {
	name      string
	stackSize int
	rt        *Runtime
}

// NewBuilder returns a Builder using the default runtime and the runtime's
// configured default stack size.
func NewBuilder[T any]() Builder[T] {
	return Builder[T]{}
}

// On targets rt instead of the default runtime.
func (b Builder[T]) On(rt *Runtime) Builder[T] { b.rt = rt; return b }

// Name sets the coroutine's name, used in logs and debug output.
func (b Builder[T]) Name(name string) Builder[T] { b.name = name; return b }

// StackSize sets the coroutine's soft stack ceiling in bytes (0 uses the
// runtime default).
func (b Builder[T]) StackSize(n int) Builder[T] { b.stackSize = n; return b }

// Spawn starts f on a new coroutine and returns a handle to its result.
func (b Builder[T]) Spawn(f func() T) *JoinHandle[T] {
	rt := b.rt
	if rt == nil {
		rt = defaultRuntime()
	}

	jh := &JoinHandle[T]{}
	thunk := func() {
		jh.result = f()
	}
	jh.impl = rt.sched.Spawn(b.name, b.stackSize, thunk)
	return jh
}

// Spawn starts f on a new coroutine of the default runtime and returns a
// handle to its result, per spec §6.
func Spawn[T any](f func() T) *JoinHandle[T] {
	return NewBuilder[T]().Spawn(f)
}

// Go starts f, discarding its result, the way the `go` statement starts a
// goroutine. The returned handle can still be joined for completion/panic
// reporting, or detached by ignoring it.
func Go(f func()) *JoinHandle[struct{}] {
	return Spawn(func() struct{} {
		f()
		return struct{}{}
	})
}

// JoinHandle is the result of spawning a coroutine, per spec §6: {handle,
// join state, result slot, panic slot}.
type JoinHandle[T any] struct {
	impl   *core.CoroutineImpl
	result T
}

// Handle returns the public coroutine handle.
func (j *JoinHandle[T]) Handle() Coroutine { return wrapHandle(j.impl.Handle()) }

// Cancel requests cooperative cancellation of the target coroutine.
func (j *JoinHandle[T]) Cancel() { j.impl.Cancel.Cancel() }

// Join blocks the caller (coroutine or thread) until the target completes,
// per spec §6. A panicking coroutine surfaces as a *PanicError.
func (j *JoinHandle[T]) Join() (T, error) {
	caller, _ := core.Current()
	panicVal, hasPanic := j.impl.Join.Wait(caller)
	if hasPanic {
		var zero T
		return zero, &PanicError{Payload: panicVal}
	}
	return j.result, nil
}

// joinErr adapts Join to a generics-erased error-only signature, used by
// Scope to join a heterogeneous set of handles.
func (j *JoinHandle[T]) joinErr() error {
	_, err := j.Join()
	return err
}

// YieldNow yields the calling coroutine once, letting other runnable
// coroutines run before it resumes, or yields the OS thread if called
// outside a coroutine.
func YieldNow() { core.YieldNow(currentScheduler()) }

// Sleep suspends the calling coroutine for dur without blocking its
// worker, or blocks the calling OS thread if called outside a coroutine.
func Sleep(dur time.Duration) error { return core.Sleep(currentScheduler(), dur) }

// ParkCurrent suspends the calling coroutine until it is Unparked or
// cancelled.
func ParkCurrent() error {
	co, ok := core.Current()
	if !ok {
		return errOutsideCoroutine
	}
	return core.ParkCurrent(co.Park)
}

// ParkTimeout suspends the calling coroutine until it is Unparked,
// cancelled, or dur elapses.
func ParkTimeout(dur time.Duration) error {
	co, ok := core.Current()
	if !ok {
		return errOutsideCoroutine
	}
	return core.ParkTimeout(co.Park, dur)
}

// TryCurrent returns the handle of the coroutine executing the calling
// goroutine, if any.
func TryCurrent() (Coroutine, bool) {
	co, ok := core.Current()
	if !ok {
		return Coroutine{}, false
	}
	return wrapHandle(co.Handle()), true
}

// IsCoroutine reports whether the calling goroutine is a coroutine body.
func IsCoroutine() bool {
	_, ok := core.Current()
	return ok
}

// currentScheduler resolves the scheduler that owns the calling coroutine,
// falling back to the default runtime's scheduler when called from a
// plain OS thread (e.g. Sleep() from main()).
func currentScheduler() *core.Scheduler {
	if co, ok := core.Current(); ok {
		return co.Scheduler()
	}
	return defaultRuntime().sched
}
