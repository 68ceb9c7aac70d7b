package pty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"syscall"

	"github.com/charmbracelet/x/ansi"
)

// clearSequences wipe the screen; seeing one drops the buffered transcript.
var clearSequences = []string{
	ansi.EraseEntireScreen,  // ESC [2J
	ansi.CursorHomePosition, // ESC [H
	ansi.ResetInitialState,  // ESC c
}

func containsClearSequence(chunk string) bool {
	for _, seq := range clearSequences {
		if strings.Contains(chunk, seq) {
			return true
		}
	}
	return false
}

// outputPump reads the master until the controller stops or the master fails.
func (c *Controller) outputPump(master *os.File) error {
	dec := newChunkDecoder()
	buf := make([]byte, c.opts.ChunkSize)

	for c.running.Load() {
		ready, err := waitReadable(master, c.opts.PollInterval)
		if err != nil {
			return c.pumpExit("output", err)
		}
		if !ready {
			continue
		}

		n, err := master.Read(buf)
		if n > 0 {
			c.deliver(dec.Decode(buf[:n]))
		}
		if err != nil {
			c.deliver(dec.Flush())
			return c.pumpExit("output", err)
		}
	}
	return nil
}

// deliver records a decoded chunk, hands it to every callback and echoes it.
func (c *Controller) deliver(chunk string) {
	if chunk == "" {
		return
	}

	if containsClearSequence(chunk) {
		c.output.Restart(chunk)
	} else {
		c.output.Append(chunk)
	}

	c.notify(chunk)

	if c.opts.Output != nil {
		if _, err := io.WriteString(c.opts.Output, chunk); err != nil {
			c.logger.Debug("echoing pty output failed", "error", err)
		}
	}
}

func (c *Controller) notify(chunk string) {
	c.cbMu.RLock()
	callbacks := slices.Clone(c.callbacks)
	c.cbMu.RUnlock()

	for _, cb := range callbacks {
		c.invoke(cb, chunk)
	}
}

// invoke runs one callback so that a panic in it cannot starve the others.
func (c *Controller) invoke(cb changeCallback, chunk string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("change callback panicked", "callback", cb.id, "panic", r)
		}
	}()
	cb.fn(chunk)
}

// pumpExit logs why a pump ended. Errors caused by Stop closing the master,
// or by the child hanging up, are expected.
func (c *Controller) pumpExit(pump string, err error) error {
	if errors.Is(err, io.EOF) {
		c.logger.Debug("pump reached end of input", "pump", pump)
		return nil
	}
	if !c.running.Load() || errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.EIO) {
		c.logger.Debug("pump stopped", "pump", pump, "error", err)
		return nil
	}
	c.logger.Warn("pump stopped on error", "pump", pump, "error", err)
	return fmt.Errorf("%w: %s pump: %w", ErrIO, pump, err)
}
