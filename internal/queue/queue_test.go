package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDequeStealHalfTakesFromTop(t *testing.T) {
	d := NewDeque[int](16)
	for i := 1; i <= 4; i++ {
		require.True(t, d.PushBottom(i))
	}

	stolen := d.StealHalf()
	require.Equal(t, []int{1, 2}, stolen)
	require.Equal(t, 2, d.Len())

	v, ok := d.PopBottom()
	require.True(t, ok)
	require.Equal(t, 4, v)
}

func TestDequeRespectsCapacity(t *testing.T) {
	d := NewDeque[int](2)
	require.True(t, d.PushBottom(1))
	require.True(t, d.PushBottom(2))
	require.False(t, d.PushBottom(3))
	require.Equal(t, 2, d.Len())
}

func TestGlobalQueueFIFO(t *testing.T) {
	g := NewGlobal[string]()
	g.Push("a")
	g.Push("b")
	g.Push("c")

	for _, want := range []string{"a", "b", "c"} {
		v, ok := g.Pop()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	_, ok := g.Pop()
	require.False(t, ok)
}
