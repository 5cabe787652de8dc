// Package rtlog holds the runtime's ambient structured logger.
//
// The default is a no-op logger so that importing this module is silent by
// default, matching the teacher package's silence; callers that want
// scheduler/worker/io visibility install a real *zap.Logger with Set.
package rtlog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var current atomic.Value // *zap.SugaredLogger

func init() {
	current.Store(zap.NewNop().Sugar())
}

// Set installs l as the runtime's logger. It is safe to call concurrently
// but, like the rest of Config, is intended to be called before the first
// spawn.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	current.Store(l.Sugar())
}

// L returns the currently installed logger.
func L() *zap.SugaredLogger {
	return current.Load().(*zap.SugaredLogger)
}

// Sync flushes any buffered log entries, the usual zap shutdown call.
// Callers that abort the process outright (os.Exit, not a panic the Go
// runtime will print on its own) must call this first or the final entries
// can be lost.
func Sync() {
	_ = L().Sync()
}
