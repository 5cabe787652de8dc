package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type logEvent struct{ log *[]string }

func (e *logEvent) Subscribe(co *CoroutineImpl) {}
func (e *logEvent) YieldBack() error             { return nil }

func TestGeneratorResumeYieldSequence(t *testing.T) {
	var log []string
	g := NewGenerator(func(g *Generator) {
		log = append(log, "start")
		g.YieldWith(&logEvent{})
		log = append(log, "middle")
		g.YieldWith(&logEvent{})
		log = append(log, "end")
	})

	_, ok := g.Resume()
	require.True(t, ok)
	require.Equal(t, []string{"start"}, log)

	_, ok = g.Resume()
	require.True(t, ok)
	require.Equal(t, []string{"start", "middle"}, log)

	_, ok = g.Resume()
	require.False(t, ok)
	require.Equal(t, []string{"start", "middle", "end"}, log)
	require.True(t, g.Done())
}

func TestGeneratorPanicRecovered(t *testing.T) {
	g := NewGenerator(func(g *Generator) {
		panic("boom")
	})

	_, ok := g.Resume()
	require.False(t, ok)

	val, hasPanic := g.PanicVal()
	require.True(t, hasPanic)
	require.Equal(t, "boom", val)
}
