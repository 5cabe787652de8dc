package mcoro

import (
	"go.uber.org/multierr"
)

// Scope bounds a set of sibling coroutines, per spec §4.8/§9's "structured
// concurrency" design note: every coroutine spawned through it is joined
// before RunScope returns, and any panics or errors are aggregated rather
// than silently dropped.
type Scope struct {
	rt       *Runtime
	children []interface{ joinErr() error }
}

// RunScope runs f with a fresh Scope, then joins every coroutine spawned
// through it (in spawn order) before returning. The returned error
// aggregates every child's panic, via go.uber.org/multierr, the same way
// the teacher's call sites aggregate independent goroutine errors.
func RunScope(f func(s *Scope)) error {
	return runScopeOn(nil, f)
}

// RunScopeOn is RunScope against a specific runtime instead of the default
// one.
func RunScopeOn(rt *Runtime, f func(s *Scope)) error {
	return runScopeOn(rt, f)
}

func runScopeOn(rt *Runtime, f func(s *Scope)) (err error) {
	s := &Scope{rt: rt}
	defer func() {
		for _, c := range s.children {
			err = multierr.Append(err, c.joinErr())
		}
	}()
	f(s)
	return nil
}

// ScopeSpawn spawns f as a child of s, to be joined when s's RunScope call
// returns.
func ScopeSpawn[T any](s *Scope, f func() T) *JoinHandle[T] {
	b := NewBuilder[T]()
	if s.rt != nil {
		b = b.On(s.rt)
	}
	jh := b.Spawn(f)
	s.children = append(s.children, jh)
	return jh
}
