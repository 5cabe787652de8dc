//go:build linux

package ioselector

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollSelector is the Linux backend: one epoll instance per worker, woken
// early by a self-pipe whenever the scheduler's Wake needs the blocked Wait
// to return before its timeout.
type epollSelector struct {
	epfd int

	wakeR, wakeW int

	mu   sync.Mutex
	regs map[int64]*IoData // key = fd<<1 | mode
}

// New returns the selector backend for this platform.
func New() (Selector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		unix.Close(epfd)
		return nil, err
	}
	s := &epollSelector{epfd: epfd, wakeR: fds[0], wakeW: fds[1], regs: make(map[int64]*IoData)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, s.wakeR, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(s.wakeR)}); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func key(fd int, mode Mode) int64 { return int64(fd)<<1 | int64(mode) }

func epollEvents(mode Mode) uint32 {
	if mode == Writable {
		return unix.EPOLLOUT | unix.EPOLLONESHOT
	}
	return unix.EPOLLIN | unix.EPOLLONESHOT
}

func (s *epollSelector) Register(fd int, mode Mode, probe func() bool, w Waiter) (*IoData, error) {
	d := &IoData{cancel: make(chan struct{})}
	d.SetWaiter(w)

	s.mu.Lock()
	k := key(fd, mode)
	_, existed := s.regs[k]
	s.regs[k] = d
	s.mu.Unlock()

	ev := &unix.EpollEvent{Events: epollEvents(mode), Fd: int32(fd)}
	op := unix.EPOLL_CTL_ADD
	if existed {
		op = unix.EPOLL_CTL_MOD
	}
	err := unix.EpollCtl(s.epfd, op, fd, ev)
	if err == unix.EEXIST {
		// A one-shot registration that already fired stays in the epoll set
		// (disarmed) after Wait dropped it from regs; re-arm it in place.
		err = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, fd, ev)
	}
	if err != nil {
		s.mu.Lock()
		delete(s.regs, k)
		s.mu.Unlock()
		return nil, err
	}
	return d, nil
}

func (s *epollSelector) Deregister(fd int, mode Mode) {
	s.mu.Lock()
	k := key(fd, mode)
	d, ok := s.regs[k]
	delete(s.regs, k)
	s.mu.Unlock()
	if ok {
		d.Cancel()
	}
	_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (s *epollSelector) Wait(timeout time.Duration) int {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
		if ms == 0 && timeout > 0 {
			ms = 1
		}
	}
	var events [128]unix.EpollEvent
	n, err := unix.EpollWait(s.epfd, events[:], ms)
	if err != nil || n <= 0 {
		return 0
	}
	fired := 0
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if fd == s.wakeR {
			var buf [64]byte
			for {
				if _, err := unix.Read(s.wakeR, buf[:]); err != nil {
					break
				}
			}
			continue
		}
		// A one-shot registration may match either mode; try both keys.
		for _, mode := range [...]Mode{Readable, Writable} {
			s.mu.Lock()
			d, ok := s.regs[key(fd, mode)]
			if ok {
				delete(s.regs, key(fd, mode))
			}
			s.mu.Unlock()
			if !ok {
				continue
			}
			if w, ok := d.TakeWaiter(); ok {
				w.Wake()
				fired++
			}
		}
	}
	return fired
}

// Wake interrupts a blocked Wait immediately by writing a byte to the
// self-pipe registered for EPOLLIN; Wait's loop recognizes s.wakeR and
// drains it without treating it as a caller-visible event.
func (s *epollSelector) Wake() {
	var b [1]byte
	_, _ = unix.Write(s.wakeW, b[:])
}

func (s *epollSelector) Close() error {
	unix.Close(s.wakeW)
	unix.Close(s.wakeR)
	return unix.Close(s.epfd)
}
