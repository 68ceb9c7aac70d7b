//go:build !linux

package pty

// Cwd is only available where /proc exposes it.
func (c *Controller) Cwd() (string, error) {
	if c.PID() == 0 {
		return "", ErrNotRunning
	}
	return "", ErrUnsupported
}
