// Package channel implements the MPMC channels of spec §4.8/§6: an
// unbounded queue, a fixed-capacity ring-style buffer, or a zero-capacity
// rendezvous, each split into a Sender and a Receiver half.
package channel

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/tcard/mcoro"
	"github.com/tcard/mcoro/internal/core"
)

// SendError is returned by a blocking Send once every Receiver has gone
// away.
type SendError struct{ Value any }

func (e *SendError) Error() string { return "channel: send on disconnected channel" }

// TrySendError is returned by TrySend.
type TrySendError struct {
	Value        any
	Disconnected bool
}

func (e *TrySendError) Error() string {
	if e.Disconnected {
		return "channel: try_send on disconnected channel"
	}
	return "channel: try_send on full channel"
}

// Full reports whether TrySend failed because the channel was at capacity.
func (e *TrySendError) Full() bool { return !e.Disconnected }

// RecvError is returned by a blocking Recv once the channel is closed and
// drained.
var RecvError = errors.New("channel: recv on disconnected and empty channel")

// TryRecvError is returned by TryRecv.
type TryRecvError struct{ Disconnected bool }

func (e *TryRecvError) Error() string {
	if e.Disconnected {
		return "channel: try_recv on disconnected channel"
	}
	return "channel: try_recv on empty channel"
}

// Empty reports whether TryRecv failed because nothing was buffered.
func (e *TryRecvError) Empty() bool { return !e.Disconnected }

// RecvTimeoutError is returned by RecvTimeout.
type RecvTimeoutError struct{ Disconnected bool }

func (e *RecvTimeoutError) Error() string {
	if e.Disconnected {
		return "channel: recv_timeout on disconnected channel"
	}
	return "channel: recv_timeout timed out"
}

// Timeout reports whether RecvTimeout failed because the deadline elapsed.
func (e *RecvTimeoutError) Timeout() bool { return !e.Disconnected }

// shared is the state behind both halves, including endpoint refcounts so
// that dropping (Close-ing) the last Sender or the last Receiver
// disconnects the other side — Go has no destructors, so callers must call
// Close explicitly rather than relying on scope exit.
type shared[T any] struct {
	core      *core.ChannelCore[T]
	senders   atomic.Int64
	receivers atomic.Int64
}

// Sender is the send half of a channel.
type Sender[T any] struct{ s *shared[T] }

// Receiver is the receive half of a channel.
type Receiver[T any] struct{ s *shared[T] }

func newPair[T any](capacity int) (Sender[T], Receiver[T]) {
	s := &shared[T]{core: core.NewChannelCore[T](mcoro.DefaultScheduler(), capacity)}
	s.senders.Store(1)
	s.receivers.Store(1)
	return Sender[T]{s: s}, Receiver[T]{s: s}
}

// Unbounded returns an unbounded channel, per spec's `channel()`.
func Unbounded[T any]() (Sender[T], Receiver[T]) { return newPair[T](core.Unbounded) }

// Bounded returns a fixed-capacity channel, per spec's `bounded(n)`. A
// Send blocks once n values are buffered, the natural source of
// backpressure described in spec §4.8. Bounded[T](0) is the zero-capacity
// rendezvous variant: Send blocks until a Recv is already waiting to take
// the value directly, with no intermediate buffering.
func Bounded[T any](n int) (Sender[T], Receiver[T]) { return newPair[T](n) }

// Buffered is an alias for Bounded, matching the spec's `channel_buf(n)`
// naming for callers porting code 1:1.
func Buffered[T any](n int) (Sender[T], Receiver[T]) { return newPair[T](n) }

// Clone returns a second handle to the same send half, incrementing the
// live-sender count so the channel only disconnects once every clone (and
// the original) has been Closed.
func (s Sender[T]) Clone() Sender[T] {
	s.s.senders.Add(1)
	return s
}

// Send blocks until v is enqueued or every Receiver has gone away.
func (s Sender[T]) Send(v T) error {
	co, _ := core.Current()
	if err := s.s.core.Send(co, v); err != nil {
		return &SendError{Value: v}
	}
	return nil
}

// TrySend enqueues v without blocking.
func (s Sender[T]) TrySend(v T) error {
	if err := s.s.core.TrySend(v); err != nil {
		return &TrySendError{Value: v, Disconnected: errors.Is(err, core.ErrDisconnected)}
	}
	return nil
}

// Close drops this Sender handle, disconnecting the channel once it was
// the last one outstanding.
func (s Sender[T]) Close() {
	if s.s.senders.Add(-1) == 0 {
		s.s.core.Close()
	}
}

// Len returns the number of buffered, not-yet-received values.
func (s Sender[T]) Len() int { return s.s.core.Len() }

// Clone returns a second handle to the same receive half.
func (r Receiver[T]) Clone() Receiver[T] {
	r.s.receivers.Add(1)
	return r
}

// Recv blocks until a value is available or the channel disconnects.
func (r Receiver[T]) Recv() (T, error) {
	co, _ := core.Current()
	v, err := r.s.core.Recv(co)
	if err != nil {
		var zero T
		return zero, RecvError
	}
	return v, nil
}

// TryRecv returns the next value without blocking.
func (r Receiver[T]) TryRecv() (T, error) {
	v, err := r.s.core.TryRecv()
	if err != nil {
		var zero T
		return zero, &TryRecvError{Disconnected: errors.Is(err, core.ErrDisconnected)}
	}
	return v, nil
}

// RecvTimeout blocks until a value is available, the channel disconnects,
// or dur elapses.
func (r Receiver[T]) RecvTimeout(dur time.Duration) (T, error) {
	co, _ := core.Current()
	v, err := r.s.core.RecvTimeout(co, dur)
	if err != nil {
		var zero T
		return zero, &RecvTimeoutError{Disconnected: errors.Is(err, core.ErrDisconnected)}
	}
	return v, nil
}

// Close drops this Receiver handle, disconnecting the channel (failing
// pending and future Sends) once it was the last one outstanding.
func (r Receiver[T]) Close() {
	if r.s.receivers.Add(-1) == 0 {
		r.s.core.Close()
	}
}

// Len returns the number of buffered, not-yet-received values.
func (r Receiver[T]) Len() int { return r.s.core.Len() }

// coreHandle returns the underlying ChannelCore.
func (r Receiver[T]) coreHandle() *core.ChannelCore[T] { return r.s.core }

// CoreFor returns a Receiver's engine-level channel, bypassing channel's
// error-wrapping surface. It is a package-level function rather than a
// Receiver method; cqueue does not use it (its arms call Recv/TryRecv).
func CoreFor[T any](r Receiver[T]) *core.ChannelCore[T] { return r.coreHandle() }
