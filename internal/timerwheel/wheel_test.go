package timerwheel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWheelFiresInDeadlineOrder(t *testing.T) {
	w := New()

	var mu sync.Mutex
	var order []int

	now := time.Now()
	w.Add(now.Add(30*time.Millisecond), func() {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	})
	w.Add(now.Add(10*time.Millisecond), func() {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})

	deadline := now.Add(40 * time.Millisecond)
	for time.Now().Before(deadline) {
		w.Advance(time.Now())
		time.Sleep(Tick)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2}, order)
}

func TestEntryCancelPreventsFire(t *testing.T) {
	w := New()
	fired := false
	e := w.Add(time.Now().Add(5*time.Millisecond), func() { fired = true })

	require.True(t, e.Cancel())
	require.False(t, e.Cancel(), "second cancel should not win the race")

	w.Advance(time.Now().Add(10 * time.Millisecond))
	require.False(t, fired)
}

func TestNextDeadlineIgnoresCancelled(t *testing.T) {
	w := New()
	now := time.Now()
	e1 := w.Add(now.Add(5*time.Millisecond), func() {})
	w.Add(now.Add(50*time.Millisecond), func() {})

	e1.Cancel()

	d, ok := w.NextDeadline()
	require.True(t, ok)
	require.WithinDuration(t, now.Add(50*time.Millisecond), d, 5*time.Millisecond)
}
