//go:build unix

package netio_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tcard/mcoro"
	"github.com/tcard/mcoro/netio"
)

func TestMain(m *testing.M) {
	mcoro.SetWorkers(4)
	m.Run()
}

func TestReadWriteRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverDone := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			serverDone <- err
			return
		}
		defer c.Close()
		buf := make([]byte, 5)
		if _, err := c.Read(buf); err != nil {
			serverDone <- err
			return
		}
		_, err = c.Write(buf)
		serverDone <- err
	}()

	raw, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	require.NoError(t, err)

	h := mcoro.Spawn(func() error {
		conn, err := netio.New(raw)
		if err != nil {
			return err
		}
		defer conn.Close()

		if _, err := conn.Write([]byte("hello")); err != nil {
			return err
		}
		buf := make([]byte, 5)
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}
		if n != 5 || string(buf) != "hello" {
			return net.ErrClosed
		}
		return nil
	})

	result, joinErr := h.Join()
	require.NoError(t, joinErr)
	require.NoError(t, result)
	require.NoError(t, <-serverDone)
}
