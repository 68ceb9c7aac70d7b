//go:build darwin

package pty

import "golang.org/x/sys/unix"

// termios ioctl requests for reading and writing terminal modes
const (
	getTermiosRequest = unix.TIOCGETA
	setTermiosRequest = unix.TIOCSETA
)
