//go:build linux || darwin

package pty

import (
	"os"

	"golang.org/x/sys/unix"
)

func localFlags(f *os.File) (uint64, bool) {
	if f == nil {
		return 0, false
	}
	termios, err := unix.IoctlGetTermios(int(f.Fd()), getTermiosRequest)
	if err != nil {
		return 0, false
	}
	return uint64(termios.Lflag), true
}

// IsEchoDisabled reports whether the terminal behind f has ECHO turned off,
// as it is while sudo and similar programs prompt for a password.
func IsEchoDisabled(f *os.File) bool {
	lflag, ok := localFlags(f)
	if !ok {
		return false
	}
	return lflag&unix.ECHO == 0
}

// IsSecretInputMode reports whether the terminal behind f is reading a
// hidden line: ECHO off with canonical line editing still on. Full-screen
// programs that switch both off are not treated as secret input.
func IsSecretInputMode(f *os.File) bool {
	lflag, ok := localFlags(f)
	if !ok {
		return false
	}
	return lflag&unix.ECHO == 0 && lflag&unix.ICANON != 0
}
