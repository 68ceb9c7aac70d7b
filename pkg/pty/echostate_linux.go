//go:build linux

package pty

import "golang.org/x/sys/unix"

// termios ioctl requests for reading and writing terminal modes
const (
	getTermiosRequest = unix.TCGETS
	setTermiosRequest = unix.TCSETS
)
