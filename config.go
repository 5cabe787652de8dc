package mcoro

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/tcard/mcoro/internal/core"
)

// Config mirrors spec §4.5/§6's scheduler configuration surface.
type Config struct {
	Workers       int  `toml:"workers"`
	StackSize     int  `toml:"stack_size"`
	WorkSteal     bool `toml:"work_steal"`
	PoolCapacity  int  `toml:"pool_capacity"`
	LocalQueueCap int  `toml:"local_queue_cap"`
}

// DefaultConfig returns the runtime's built-in defaults: one worker per
// CPU, work stealing on.
func DefaultConfig() Config {
	c := core.DefaultConfig()
	return Config{
		Workers:       c.Workers,
		StackSize:     c.StackSize,
		WorkSteal:     c.WorkSteal,
		PoolCapacity:  c.PoolCapacity,
		LocalQueueCap: c.LocalQueueCap,
	}
}

func (c Config) toCore() core.Config {
	return core.Config{
		Workers:       c.Workers,
		StackSize:     c.StackSize,
		WorkSteal:     c.WorkSteal,
		PoolCapacity:  c.PoolCapacity,
		LocalQueueCap: c.LocalQueueCap,
	}
}

// LoadTOML reads a Config from a TOML file, starting from DefaultConfig so
// that any field the file omits keeps its default and a partial file is
// enough. A field the file sets explicitly, even to zero, keeps that value.
func LoadTOML(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("mcoro: reading config %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("mcoro: parsing config %s: %w", path, err)
	}
	return cfg, nil
}

var (
	pendingMu  sync.Mutex
	pending    = DefaultConfig()
	runtimeVal *Runtime
	runtimeSet sync.Once
)

// SetWorkers sets the worker count for the default runtime. Must be called
// before the first spawn; later calls do not retroactively reconfigure
// running workers, per spec §6.
func SetWorkers(n int) { pendingMu.Lock(); pending.Workers = n; pendingMu.Unlock() }

// SetStackSize sets the soft per-coroutine stack ceiling (0 disables the
// check) for the default runtime. Must be called before the first spawn.
func SetStackSize(n int) { pendingMu.Lock(); pending.StackSize = n; pendingMu.Unlock() }

// SetWorkSteal enables or disables work stealing for the default runtime.
// Must be called before the first spawn.
func SetWorkSteal(enabled bool) { pendingMu.Lock(); pending.WorkSteal = enabled; pendingMu.Unlock() }

// SetPoolCapacity sets the coroutine shell pool capacity for the default
// runtime. Must be called before the first spawn.
func SetPoolCapacity(n int) { pendingMu.Lock(); pending.PoolCapacity = n; pendingMu.Unlock() }

// SetConfig replaces the whole pending configuration for the default
// runtime in one call (e.g. with the result of LoadTOML). Must be called
// before the first spawn.
func SetConfig(cfg Config) { pendingMu.Lock(); pending = cfg; pendingMu.Unlock() }

// Runtime is a coroutine scheduler instance. Most programs use the
// package-level default runtime (lazily created on first spawn) via the
// free functions in this package; Runtime itself exists, per spec §9's
// "implementers who need multiple runtimes in one process must parameterise
// all module-level state by a runtime handle", for callers and tests that
// need more than one.
type Runtime struct {
	sched *core.Scheduler
}

// New constructs a fresh, independent runtime with cfg and starts its
// workers.
func New(cfg Config) *Runtime {
	r := &Runtime{sched: core.NewScheduler(cfg.toCore())}
	r.sched.Start()
	return r
}

// Stats returns a snapshot of the runtime's current queue depths.
func (r *Runtime) Stats() core.Stats { return r.sched.Stats() }

// DefaultScheduler exposes the default runtime's scheduler to sibling
// packages (channel, select) that need to park on it without risking an
// import cycle back into mcoro.
func DefaultScheduler() *core.Scheduler { return defaultRuntime().sched }

func defaultRuntime() *Runtime {
	runtimeSet.Do(func() {
		pendingMu.Lock()
		cfg := pending
		pendingMu.Unlock()
		runtimeVal = New(cfg)
	})
	return runtimeVal
}
