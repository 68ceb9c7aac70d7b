package pty

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// Terminal holds the saved mode of a terminal switched into raw mode.
type Terminal struct {
	mu       sync.Mutex
	fd       int
	oldState *term.State
}

// MakeRaw puts f into raw mode and returns a handle that restores the
// previous mode. If f is not a terminal nothing changes and Restore is a
// no-op.
func MakeRaw(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return &Terminal{fd: fd}, nil
	}

	// Save current terminal state
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw mode: %w", err)
	}

	return &Terminal{
		fd:       fd,
		oldState: oldState,
	}, nil
}

// IsRaw reports whether Restore still has a mode to put back.
func (t *Terminal) IsRaw() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.oldState != nil
}

// Restore restores the terminal to its original state. Only the first call
// does anything.
func (t *Terminal) Restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.oldState == nil {
		return nil
	}
	if err := term.Restore(t.fd, t.oldState); err != nil {
		return fmt.Errorf("exiting raw mode: %w", err)
	}
	t.oldState = nil
	return nil
}

// inputPump forwards keystrokes from the input device to the master one
// byte at a time, with the device in raw mode for as long as it runs.
func (c *Controller) inputPump(master *os.File) error {
	in := c.opts.Stdin

	raw, err := MakeRaw(in)
	if err != nil {
		c.logger.Warn("keyboard forwarding disabled", "error", err)
		return nil
	}
	defer func() {
		if err := raw.Restore(); err != nil {
			c.logger.Warn("failed to restore terminal mode", "error", err)
		}
	}()

	buf := make([]byte, 1)
	for c.running.Load() {
		ready, err := waitReadable(in, c.opts.PollInterval)
		if err != nil {
			return c.pumpExit("input", err)
		}
		if !ready {
			continue
		}

		n, err := in.Read(buf)
		if n > 0 {
			if _, werr := master.Write(buf[:n]); werr != nil {
				return c.pumpExit("input", werr)
			}
		}
		if err != nil {
			return c.pumpExit("input", err)
		}
	}
	return nil
}
