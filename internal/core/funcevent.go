package core

// funcEvent adapts two closures to the EventSource interface, for the many
// suspension points (channel send/recv, I/O waits) whose wake-up logic is
// simple enough not to warrant its own named type.
type funcEvent struct {
	subscribe func(co *CoroutineImpl)
	yieldBack func() error
}

func (e *funcEvent) Subscribe(co *CoroutineImpl) { e.subscribe(co) }
func (e *funcEvent) YieldBack() error             { return e.yieldBack() }
