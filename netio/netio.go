//go:build unix

// Package netio wraps a net.Conn with coroutine-aware non-blocking I/O,
// grounded on spec §4.7: a syscall read/write is attempted directly; on
// EAGAIN it registers the fd with the owning worker's selector and
// suspends the calling coroutine instead of blocking its worker thread.
//
// Only Unix-like platforms are supported: the selector has no IOCP
// backend on Windows (see DESIGN.md), and raw fd access itself is a
// syscall.Conn/syscall.RawConn concept that only applies there.
package netio

import (
	"errors"
	"net"
	"syscall"

	"github.com/tcard/mcoro"
	"github.com/tcard/mcoro/internal/core"
	"github.com/tcard/mcoro/internal/ioselector"
)

// Conn is a net.Conn driven through the coroutine I/O selector instead of
// blocking an OS thread per read/write.
type Conn struct {
	nc  net.Conn
	raw syscall.RawConn
	fd  int
}

// New wraps nc, which must expose its file descriptor (true of every
// *net.TCPConn/*net.UnixConn/*net.UDPConn returned by the net package).
func New(nc net.Conn) (*Conn, error) {
	sc, ok := nc.(syscall.Conn)
	if !ok {
		return nil, errors.New("netio: connection exposes no file descriptor")
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, err
	}
	c := &Conn{nc: nc, raw: raw}
	_ = raw.Control(func(fd uintptr) { c.fd = int(fd) })
	return c, nil
}

// Read behaves like net.Conn.Read, except that instead of blocking an OS
// thread while the socket has no data, it parks the calling coroutine.
func (c *Conn) Read(p []byte) (int, error) {
	for {
		var n int
		var opErr error
		ctrlErr := c.raw.Read(func(fd uintptr) bool {
			n, opErr = syscall.Read(int(fd), p)
			return opErr != syscall.EAGAIN
		})
		if ctrlErr != nil {
			return 0, ctrlErr
		}
		if opErr == syscall.EAGAIN {
			if err := c.wait(ioselector.Readable); err != nil {
				return 0, err
			}
			continue
		}
		return n, opErr
	}
}

// Write behaves like net.Conn.Write, parking the calling coroutine instead
// of blocking an OS thread while the socket buffer is full.
func (c *Conn) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		var n int
		var opErr error
		ctrlErr := c.raw.Write(func(fd uintptr) bool {
			n, opErr = syscall.Write(int(fd), p[total:])
			return opErr != syscall.EAGAIN
		})
		if ctrlErr != nil {
			return total, ctrlErr
		}
		if opErr == syscall.EAGAIN {
			if err := c.wait(ioselector.Writable); err != nil {
				return total, err
			}
			continue
		}
		if opErr != nil {
			return total, opErr
		}
		total += n
	}
	return total, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.nc.Close() }

// Fd returns the underlying file descriptor, for callers building their
// own cqueue.IOArm readiness waits (e.g. to race a read against a sleep).
func (c *Conn) Fd() int { return c.fd }

func (c *Conn) wait(mode ioselector.Mode) error {
	co, _ := core.Current()
	probe := func() bool {
		ready := false
		_ = c.raw.Read(func(uintptr) bool {
			ready = true
			return true
		})
		return ready
	}
	return mcoro.DefaultScheduler().IoWait(co, c.fd, mode, probe)
}

// WaitReadable suspends the calling coroutine until c's fd is readable,
// without consuming any data; intended for cqueue.IOArm readiness arms.
func WaitReadable(c *Conn) error { return c.wait(ioselector.Readable) }

// WaitWritable suspends the calling coroutine until c's fd is writable.
func WaitWritable(c *Conn) error { return c.wait(ioselector.Writable) }
