package mcoro_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tcard/mcoro"
)

func TestMain(m *testing.M) {
	mcoro.SetWorkers(4)
	m.Run()
}

func TestSpawnAndJoin(t *testing.T) {
	h := mcoro.Spawn(func() int { return 42 })
	v, err := h.Join()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestBuilderNameAndStackSize(t *testing.T) {
	h := mcoro.NewBuilder[struct{}]().Name("worker-x").StackSize(32 << 10).Spawn(func() struct{} { return struct{}{} })
	require.Equal(t, "worker-x", h.Handle().Name())
	require.Equal(t, 32<<10, h.Handle().StackSize())
	_, err := h.Join()
	require.NoError(t, err)
}

func TestJoinSurfacesPanicError(t *testing.T) {
	h := mcoro.Spawn(func() int {
		panic("kaboom")
	})
	_, err := h.Join()
	require.Error(t, err)
	pe, ok := mcoro.AsPanicError(err)
	require.True(t, ok)
	require.Equal(t, "kaboom", pe.Payload)
}

func TestCancelObservedOnSleep(t *testing.T) {
	var result error
	started := make(chan struct{})
	h := mcoro.Spawn(func() int {
		close(started)
		result = mcoro.Sleep(5 * time.Second)
		return 0
	})

	<-started
	h.Cancel()
	_, _ = h.Join()
	require.ErrorIs(t, result, mcoro.ErrCanceled)
}

func TestParkAndUnpark(t *testing.T) {
	ready := make(chan struct{})
	h := mcoro.Go(func() {
		close(ready)
		err := mcoro.ParkCurrent()
		require.NoError(t, err)
	})

	<-ready
	time.Sleep(10 * time.Millisecond)
	co := h.Handle()
	co.Unpark()
	_, err := h.Join()
	require.NoError(t, err)
}

func TestParkTimeout(t *testing.T) {
	h := mcoro.Spawn(func() error {
		return mcoro.ParkTimeout(20 * time.Millisecond)
	})
	err, joinErr := h.Join()
	require.NoError(t, joinErr)
	require.ErrorIs(t, err, mcoro.ErrTimeout)
}

func TestYieldNowLetsOthersRun(t *testing.T) {
	const n = 200
	var completed atomic.Int64
	handles := make([]*mcoro.JoinHandle[struct{}], n)
	for i := 0; i < n; i++ {
		handles[i] = mcoro.Go(func() {
			mcoro.YieldNow()
			completed.Add(1)
		})
	}
	for _, h := range handles {
		_, err := h.Join()
		require.NoError(t, err)
	}
	require.EqualValues(t, n, completed.Load())
}

func TestScopeJoinsAllChildren(t *testing.T) {
	var sum atomic.Int64
	err := mcoro.RunScope(func(s *mcoro.Scope) {
		for i := 1; i <= 5; i++ {
			i := i
			mcoro.ScopeSpawn(s, func() int {
				sum.Add(int64(i))
				return i
			})
		}
	})
	require.NoError(t, err)
	require.EqualValues(t, 15, sum.Load())
}

func TestScopeAggregatesPanics(t *testing.T) {
	err := mcoro.RunScope(func(s *mcoro.Scope) {
		mcoro.ScopeSpawn(s, func() int { panic("a") })
		mcoro.ScopeSpawn(s, func() int { panic("b") })
		mcoro.ScopeSpawn(s, func() int { return 1 })
	})
	require.Error(t, err)
}

func TestTryCurrentInsideAndOutside(t *testing.T) {
	_, ok := mcoro.TryCurrent()
	require.False(t, ok)
	require.False(t, mcoro.IsCoroutine())

	inside := make(chan bool, 1)
	h := mcoro.Go(func() {
		_, ok := mcoro.TryCurrent()
		inside <- ok
	})
	require.True(t, <-inside)
	_, _ = h.Join()
}

func TestLocalIsPerCoroutine(t *testing.T) {
	l := mcoro.NewLocal(func() int { return 0 })

	h1 := mcoro.Go(func() {
		l.Set(1)
		_ = mcoro.Sleep(5 * time.Millisecond)
		require.Equal(t, 1, l.Get())
	})
	h2 := mcoro.Go(func() {
		l.Set(2)
		_ = mcoro.Sleep(5 * time.Millisecond)
		require.Equal(t, 2, l.Get())
	})
	_, _ = h1.Join()
	_, _ = h2.Join()
}
