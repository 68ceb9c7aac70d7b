//go:build linux

package pty

import (
	"fmt"
	"os"
)

// Cwd returns the child's current working directory by reading
// /proc/<pid>/cwd.
func (c *Controller) Cwd() (string, error) {
	pid := c.PID()
	if pid == 0 {
		return "", ErrNotRunning
	}

	cwd, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", pid))
	if err != nil {
		return "", fmt.Errorf("failed to read cwd: %w", err)
	}
	return cwd, nil
}
