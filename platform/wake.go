//go:build linux

package platform

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// EventfdSemaphore is a WakeSemaphore backed by a Linux eventfd, polled
// with unix.Poll so the wait is a real blocking syscall rather than a
// busy loop.
type EventfdSemaphore struct {
	fd int
}

// NewEventfdSemaphore creates an unsignalled semaphore.
func NewEventfdSemaphore() (*EventfdSemaphore, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("platform: eventfd: %w", err)
	}
	return &EventfdSemaphore{fd: fd}, nil
}

// Signal increments the eventfd counter, waking any blocked Wait.
func (s *EventfdSemaphore) Signal() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	// The write adds 1 to the counter. It fails with EAGAIN only when the
	// counter would overflow, in which case it is already non-zero and a
	// wake is still pending.
	_, _ = unix.Write(s.fd, buf[:])
}

// Wait polls the eventfd for up to timeout (forever if negative) and, if
// signalled, drains the counter back to zero.
func (s *EventfdSemaphore) Wait(timeout time.Duration) bool {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, ms)
	if err != nil || n <= 0 {
		return false
	}
	var buf [8]byte
	_, _ = unix.Read(s.fd, buf[:])
	return true
}

// Close releases the eventfd.
func (s *EventfdSemaphore) Close() error {
	return unix.Close(s.fd)
}
