package pty

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// Resize sets the child's terminal size.
func (c *Controller) Resize(cols, rows int) error {
	master, err := c.activeMaster()
	if err != nil {
		return err
	}
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("invalid terminal size %dx%d", cols, rows)
	}

	if err := c.setSize(master, cols, rows); err != nil {
		return fmt.Errorf("%w: resize: %w", ErrIO, err)
	}
	return nil
}

// setSize applies a size to the master and reports it to OnResize.
func (c *Controller) setSize(master *os.File, cols, rows int) error {
	size := &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}
	if err := pty.Setsize(master, size); err != nil {
		return err
	}

	if c.opts.OnResize != nil {
		c.opts.OnResize(cols, rows)
	}
	return nil
}

// watchResize keeps the child's size in step with the real terminal by
// listening for SIGWINCH. It returns a func that stops listening. Nothing is
// watched when stdout is not a terminal.
func (c *Controller) watchResize(master *os.File) func() {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}

	ch := make(chan os.Signal, 1)
	quit := make(chan struct{})
	signal.Notify(ch, syscall.SIGWINCH)

	go func() {
		for {
			select {
			case <-ch:
				if err := c.syncSize(fd, master); err != nil {
					// Resizing is not critical
					c.logger.Debug("terminal resize failed", "error", err)
				}
			case <-quit:
				return
			}
		}
	}()

	// Trigger initial resize to sync current terminal size
	if err := c.syncSize(fd, master); err != nil {
		c.logger.Debug("initial terminal resize failed", "error", err)
	}

	return func() {
		signal.Stop(ch)
		close(quit)
	}
}

// syncSize copies the size of the terminal on fd to the master.
func (c *Controller) syncSize(fd int, master *os.File) error {
	width, height, err := term.GetSize(fd)
	if err != nil {
		return err
	}
	return c.setSize(master, width, height)
}
