// Package gls provides a minimal goroutine-local lookup keyed by the
// calling goroutine's runtime id.
//
// Go has no blessed goroutine-local storage. The core needs one anyway: a
// coroutine's user closure runs on a dedicated backing goroutine for its
// entire lifetime (parked or not), so "the coroutine currently executing on
// this goroutine" is a well-defined, stable fact for as long as that
// closure is on the stack. This package makes that fact queryable, the same
// way a native implementation would consult thread-local storage.
package gls

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var registry sync.Map // goroutine id (uint64) -> any

// ID returns the runtime-assigned id of the calling goroutine.
//
// This parses the "goroutine N [...]" header of a runtime.Stack dump, which
// is the standard (if inelegant) way to obtain it without cgo or linkname
// tricks. It is called by Set/Get/Clear and by the root package's Local
// (for its thread-context fallback), never in a loop, so the cost is
// acceptable.
func ID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, _ := strconv.ParseUint(string(fields[1]), 10, 64)
	return id
}

// Set associates v with the calling goroutine.
func Set(v any) { registry.Store(ID(), v) }

// Get returns the value associated with the calling goroutine, if any.
func Get() (any, bool) { return registry.Load(ID()) }

// Clear removes the association for the calling goroutine.
func Clear() { registry.Delete(ID()) }
