//go:build !linux && !darwin

package pty

import (
	"os"
)

// IsEchoDisabled returns false on unsupported platforms.
func IsEchoDisabled(f *os.File) bool {
	return false
}

// IsSecretInputMode returns false on unsupported platforms.
func IsSecretInputMode(f *os.File) bool {
	return false
}
