package core

// EventSource is the capability a suspending coroutine yields: a
// description of why it suspended and how to wake it back up. It is always
// constructed on the yielding coroutine's own stack (here: captured in a
// local variable inside its backing goroutine) and handed to the worker,
// which calls Subscribe exactly once to arrange the wakeup, transferring
// ownership of the CoroutineImpl to whatever holds it until Subscribe
// re-queues it.
type EventSource interface {
	// Subscribe is called by the worker goroutine, once, immediately after
	// Resume returns this source. It must ensure co is eventually
	// re-queued (via the scheduler) or intentionally dropped.
	Subscribe(co *CoroutineImpl)
	// YieldBack runs on the coroutine's own backing goroutine right after
	// it resumes, before user code regains control, and must translate
	// cancellation/timeout into the appropriate error.
	YieldBack() error
}

// Generator pairs a backing goroutine with a two-channel handshake,
// transferring control (never values in the protocol sense — the "value"
// transferred coroutine-to-host is always an EventSource) between a host
// and the coroutine body exactly as described in spec §4.2, realized with
// a real goroutine standing in for a register-switched stack (see
// SPEC_FULL.md §0).
type Generator struct {
	resumeCh chan struct{}
	yieldCh  chan EventSource

	panicVal any
	hasPanic bool
	done     bool
}

// NewGenerator starts body on a fresh backing goroutine and returns a
// Generator ready to be Resumed. body must call g.YieldWith for every
// suspension and simply return when the coroutine is finished.
func NewGenerator(body func(g *Generator)) *Generator {
	g := &Generator{
		resumeCh: make(chan struct{}),
		yieldCh:  make(chan EventSource),
	}
	go g.run(body)
	return g
}

func (g *Generator) run(body func(g *Generator)) {
	<-g.resumeCh // wait for the first Resume
	defer func() {
		if r := recover(); r != nil {
			g.panicVal = r
			g.hasPanic = true
		}
		close(g.yieldCh)
	}()
	body(g)
}

// Resume hands control to the coroutine until it next yields or returns.
// ok is false once the coroutine body has returned (or panicked); the
// caller should then consult PanicVal.
func (g *Generator) Resume() (src EventSource, ok bool) {
	g.resumeCh <- struct{}{}
	src, ok = <-g.yieldCh
	if !ok {
		g.done = true
	}
	return src, ok
}

// YieldWith suspends the calling coroutine, handing src to the host, and
// blocks until the host Resumes it again. Only callable from inside body.
func (g *Generator) YieldWith(src EventSource) {
	g.yieldCh <- src
	<-g.resumeCh
}

// PanicVal returns the recovered panic payload, if the coroutine's body
// panicked instead of returning normally.
func (g *Generator) PanicVal() (any, bool) { return g.panicVal, g.hasPanic }

// Done reports whether the coroutine's body has returned or panicked.
func (g *Generator) Done() bool { return g.done }
