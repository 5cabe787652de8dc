// Package cqueue implements the `select!` primitive of spec §4.8/§6: each
// arm runs once as a sibling coroutine that posts a single token — a
// closure running the arm's body — to a shared concurrent queue (the
// CQueue the package is named for). The host coroutine receives the first
// token, cancels the remaining siblings, and runs the winning body.
//
// Go has no sum-type or pattern-match construct to mirror `select! { pat =
// expr => body, … }` directly, so arms are built from small generic
// constructors (RecvArm, SleepArm, IOArm) instead of a macro; each captures
// its own body as an untyped closure once its event has fired, which is
// exactly the token the original design posts to the CQueue.
package cqueue

import (
	"time"

	"github.com/tcard/mcoro"
	"github.com/tcard/mcoro/channel"
)

// Arm is one branch of a Select call.
type Arm struct {
	spawn func(post channel.Sender[func()]) *mcoro.JoinHandle[struct{}]
}

// RecvArm fires when a value (or a disconnect) is received from r.
func RecvArm[T any](r channel.Receiver[T], body func(v T, err error)) Arm {
	return Arm{spawn: func(post channel.Sender[func()]) *mcoro.JoinHandle[struct{}] {
		return mcoro.Go(func() {
			v, err := r.Recv()
			_ = post.TrySend(func() { body(v, err) })
		})
	}}
}

// TryRecvArm fires immediately with whatever TryRecv returns, the
// `select!`-with-a-default-arm idiom for "run this if nothing else is
// ready yet" polling.
func TryRecvArm[T any](r channel.Receiver[T], body func(v T, err error)) Arm {
	return Arm{spawn: func(post channel.Sender[func()]) *mcoro.JoinHandle[struct{}] {
		return mcoro.Go(func() {
			v, err := r.TryRecv()
			_ = post.TrySend(func() { body(v, err) })
		})
	}}
}

// SleepArm fires after dur elapses, the timeout arm of a select.
func SleepArm(dur time.Duration, body func()) Arm {
	return Arm{spawn: func(post channel.Sender[func()]) *mcoro.JoinHandle[struct{}] {
		return mcoro.Go(func() {
			if err := mcoro.Sleep(dur); err != nil {
				return // cancelled: a sibling arm already won
			}
			_ = post.TrySend(func() { body() })
		})
	}}
}

// IOArm fires once waitReady returns, the I/O-readiness arm of a select;
// waitReady is expected to be a blocking non-blocking-I/O wrapper call
// (e.g. a netio read/write) that suspends the calling coroutine via the
// I/O selector rather than an OS thread.
func IOArm(waitReady func() error, body func(err error)) Arm {
	return Arm{spawn: func(post channel.Sender[func()]) *mcoro.JoinHandle[struct{}] {
		return mcoro.Go(func() {
			err := waitReady()
			_ = post.TrySend(func() { body(err) })
		})
	}}
}

// Select runs exactly one arm's body: whichever fires first among arms,
// per spec invariant 8 ("select exclusivity"). It blocks (suspending the
// calling coroutine, or the calling OS thread) until at least one arm is
// ready. The losing arms are cancelled and their partial state dropped.
func Select(arms ...Arm) {
	post, tokens := channel.Bounded[func()](len(arms))
	handles := make([]*mcoro.JoinHandle[struct{}], len(arms))
	for i, a := range arms {
		handles[i] = a.spawn(post)
	}

	run, _ := tokens.Recv()

	for _, h := range handles {
		h.Cancel()
	}
	post.Close()
	tokens.Close()

	if run != nil {
		run()
	}
}
