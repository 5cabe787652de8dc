package mcoro_test

import (
	"os"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/tcard/mcoro"
	"github.com/tcard/mcoro/internal/rtlog"
)

// TestStackOverflowAbortHelper is never run as part of a normal `go test
// ./...`: the stack overflow BDD scenario re-execs the test binary with
// -test.run pointed at this function alone and MCORO_BDD_STACK_OVERFLOW_HELPER
// set, since the code path it exercises calls os.Exit and would otherwise
// tear down the whole suite.
func TestStackOverflowAbortHelper(t *testing.T) {
	if os.Getenv("MCORO_BDD_STACK_OVERFLOW_HELPER") != "1" {
		t.Skip("only runs as a subprocess of the stack overflow BDD scenario")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatal(err)
	}
	rtlog.Set(logger)

	size := 64
	if s := os.Getenv("MCORO_BDD_STACK_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			size = n
		}
	}

	rt := mcoro.New(mcoro.DefaultConfig())
	done := make(chan struct{})
	mcoro.NewBuilder[int]().On(rt).StackSize(size).Spawn(func() int {
		close(done)
		return 0
	})
	<-done
	select {}
}
