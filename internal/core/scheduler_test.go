package core

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testScheduler(t *testing.T, workers int) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = workers
	s := NewScheduler(cfg)
	s.Start()
	return s
}

func TestSpawnJoinCompletion(t *testing.T) {
	s := testScheduler(t, 2)

	var ran atomic.Bool
	co := s.Spawn("t", 0, func() { ran.Store(true) })

	_, hasPanic := co.Join.Wait(nil)
	require.False(t, hasPanic)
	require.True(t, ran.Load())
}

func TestJoinSurfacesPanic(t *testing.T) {
	s := testScheduler(t, 1)

	co := s.Spawn("panicker", 0, func() { panic("kaboom") })

	val, hasPanic := co.Join.Wait(nil)
	require.True(t, hasPanic)
	require.Equal(t, "kaboom", val)
}

func TestPinningStableAcrossYields(t *testing.T) {
	s := testScheduler(t, 4)

	var workerIDs []int
	var mu sync.Mutex
	done := make(chan struct{})

	s.Spawn("pinned", 0, func() {
		for i := 0; i < 20; i++ {
			id, _ := Current()
			wid, _ := id.PinnedWorker()
			mu.Lock()
			workerIDs = append(workerIDs, wid)
			mu.Unlock()
			YieldNow(s)
		}
		close(done)
	})

	<-done
	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(workerIDs); i++ {
		require.Equal(t, workerIDs[0], workerIDs[i], "coroutine migrated worker after first resume")
	}
}

func TestCancelObservedAtSuspensionPoint(t *testing.T) {
	s := testScheduler(t, 1)

	var err error
	started := make(chan struct{})
	finished := make(chan struct{})

	co := s.Spawn("cancelme", 0, func() {
		close(started)
		err = Sleep(s, 10*time.Second)
		close(finished)
	})

	<-started
	co.Cancel.Cancel()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled coroutine never resumed")
	}
	require.ErrorIs(t, err, ErrCanceled)
}

func TestFairnessAllCoroutinesComplete(t *testing.T) {
	s := testScheduler(t, 4)

	const n = 2000
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		s.Spawn("", 0, func() {
			YieldNow(s)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("not all coroutines completed in time")
	}
}

func TestTimerMonotonicity(t *testing.T) {
	s := testScheduler(t, 1)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(2)

	co := s.Spawn("order-host", 0, func() {})
	_, _ = co.Join.Wait(nil)

	fire := func(n int, dur time.Duration) {
		s.addTimer(co, time.Now().Add(dur), func() {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			wg.Done()
		})
	}
	fire(1, 5*time.Millisecond)
	fire(2, 50*time.Millisecond)

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2}, order)
}
