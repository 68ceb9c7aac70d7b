package pty

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// waitReadable blocks for at most timeout until f has data to read, the
// peer hung up, or an error occurred. A false result with a nil error
// means the timeout expired.
func waitReadable(f *os.File, timeout time.Duration) (bool, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return false, err
	}

	var ready bool
	var pollErr error
	ctrlErr := rc.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, int(timeout/time.Millisecond))
		if err != nil {
			if !errors.Is(err, unix.EINTR) {
				pollErr = err
			}
			return
		}
		if n == 0 {
			return
		}
		if fds[0].Revents&unix.POLLNVAL != 0 {
			pollErr = unix.EBADF
			return
		}
		ready = true
	})
	if ctrlErr != nil {
		return false, ctrlErr
	}
	return ready, pollErr
}
