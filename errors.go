// Package mcoro implements a user-space M:N stackful coroutine runtime:
// many lightweight coroutines, each with its own logical stack, multiplexed
// onto a small pool of worker goroutines. See SPEC_FULL.md for the full
// design and DESIGN.md for how each piece is grounded.
package mcoro

import (
	"errors"
	"fmt"

	"github.com/tcard/mcoro/internal/core"
)

// Sentinel errors returned at suspension points, per spec §7. They are the
// engine's own sentinel values, so errors.Is matches against either name.
var (
	// ErrCanceled is returned by a suspension point that observed
	// cancellation of the current coroutine.
	ErrCanceled = core.ErrCanceled
	// ErrTimeout is returned when a deadline elapsed before the awaited
	// event fired.
	ErrTimeout = core.ErrTimeout
	// ErrDisconnected is returned by channel operations once all peers on
	// the other end have gone away.
	ErrDisconnected = core.ErrDisconnected
)

// errOutsideCoroutine is returned by park operations invoked from a plain
// OS thread, which has no Park gate to wait on.
var errOutsideCoroutine = errors.New("mcoro: not running inside a coroutine")

// PanicError wraps the payload recovered from a coroutine whose closure
// panicked, surfaced via JoinHandle.Join, per spec §7's "Joined-panic".
type PanicError struct {
	// Payload is whatever was passed to panic() inside the coroutine.
	Payload any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("mcoro: coroutine panicked: %v", e.Payload)
}

// AsPanicError reports whether err is (or wraps) a *PanicError, returning
// it for inspection of Payload.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
