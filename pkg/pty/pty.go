// Package pty runs a child program on a pseudo-terminal, records and
// broadcasts what it prints, and lets callers type into it.
package pty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"claude_voice/pkg/buffer"
)

const (
	defaultProgram      = "/bin/bash"
	defaultTerm         = "xterm-256color"
	defaultPollInterval = 100 * time.Millisecond
	defaultChunkSize    = 1024

	// drainPolls bounds how long Wait lets the output pump drain after the
	// child exits, in poll intervals.
	drainPolls = 5
)

// Options configures a Controller.
type Options struct {
	// Program is the executable to run. Bare names are looked up in PATH.
	Program string

	// Args is the full argument vector including argv[0].
	// Empty means []string{Program}.
	Args []string

	// KeyboardForwarding copies raw keystrokes from Stdin to the child.
	KeyboardForwarding bool

	// Env holds extra environment entries for the child.
	Env []string

	// Dir is the child's working directory.
	Dir string

	// Term is the TERM value given to the child.
	Term string

	// PollInterval bounds how long a pump waits before re-checking whether
	// the controller is still running.
	PollInterval time.Duration

	// ChunkSize is the maximum number of bytes taken per master read.
	ChunkSize int

	// Stdin is the input device used for keyboard forwarding.
	Stdin *os.File

	// Output receives every chunk as it is read. Nil disables echoing.
	Output io.Writer

	// OnResize is called with the child's new size after every successful
	// resize, whether from Resize or from following the real terminal.
	OnResize func(cols, rows int)

	// Logger receives the controller's logs. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultOptions runs an interactive bash with keyboard forwarding and
// echoes to the real terminal.
func DefaultOptions() Options {
	return Options{
		Program:            defaultProgram,
		KeyboardForwarding: true,
		Term:               defaultTerm,
		PollInterval:       defaultPollInterval,
		ChunkSize:          defaultChunkSize,
		Stdin:              os.Stdin,
		Output:             os.Stdout,
	}
}

// ChangeFunc receives each newly read chunk of output. It runs on the
// output pump goroutine and must not call Stop.
type ChangeFunc func(chunk string)

// CallbackID identifies a registered ChangeFunc for removal.
type CallbackID uint64

type changeCallback struct {
	id CallbackID
	fn ChangeFunc
}

// Controller owns a child process attached to a pseudo-terminal.
type Controller struct {
	program string
	args    []string
	opts    Options
	logger  *slog.Logger

	mu         sync.Mutex
	master     *os.File  // PTY master, nil unless running
	cmd        *exec.Cmd // nil unless running
	started    bool
	done       chan struct{} // closed once the child is reaped
	outputDone chan struct{} // closed when the output pump returns
	pumps      *errgroup.Group
	stopResize func()

	running  atomic.Bool
	exitCode atomic.Int64

	output *buffer.ChunkBuffer

	cbMu      sync.RWMutex
	callbacks []changeCallback
	nextID    CallbackID
}

// New creates a controller. The child is not started until Start.
func New(opts Options) *Controller {
	if opts.Program == "" {
		opts.Program = defaultProgram
	}
	if opts.Term == "" {
		opts.Term = defaultTerm
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	args := append([]string(nil), opts.Args...)
	if len(args) == 0 {
		args = []string{opts.Program}
	}

	c := &Controller{
		program: opts.Program,
		args:    args,
		opts:    opts,
		logger:  opts.Logger.With("component", "pty"),
		output:  buffer.New(),
	}
	c.exitCode.Store(-1)
	return c
}

// Program returns the configured executable.
func (c *Controller) Program() string {
	return c.program
}

// Args returns a copy of the argument vector.
func (c *Controller) Args() []string {
	return append([]string(nil), c.args...)
}

// Start spawns the child and the pumps. A controller can be started once.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() {
		return ErrAlreadyRunning
	}
	if c.started {
		return ErrStopped
	}

	master, cmd, err := c.spawn()
	if err != nil {
		c.logger.Error("failed to start pty process", "program", c.program, "error", err)
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	c.master = master
	c.cmd = cmd
	c.started = true
	c.done = make(chan struct{})
	c.outputDone = make(chan struct{})
	c.running.Store(true)

	go c.reap(cmd, c.done)

	g := new(errgroup.Group)
	outputDone := c.outputDone
	g.Go(func() error {
		defer close(outputDone)
		return c.outputPump(master)
	})
	if c.opts.KeyboardForwarding {
		g.Go(func() error {
			return c.inputPump(master)
		})
		c.stopResize = c.watchResize(master)
	}
	c.pumps = g

	c.logger.Info("pty process started",
		"program", cmd.Path,
		"args", c.args,
		"pid", cmd.Process.Pid,
		"keyboard_forwarding", c.opts.KeyboardForwarding)
	return nil
}

// reap waits for the child and records its exit code.
func (c *Controller) reap(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	c.exitCode.Store(int64(code))
	c.logger.Debug("pty process exited", "pid", cmd.Process.Pid, "exit_code", code, "error", err)
	close(done)
}

// Wait blocks until the child exits or ctx is done, then stops the
// controller. Cancelling ctx is reported as an error but still cleans up.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done, outputDone := c.done, c.outputDone
	c.mu.Unlock()

	if !c.running.Load() || done == nil {
		return nil
	}

	select {
	case <-done:
		// Let the pump pick up whatever the child wrote before exiting
		select {
		case <-outputDone:
		case <-time.After(drainPolls * c.opts.PollInterval):
		case <-ctx.Done():
		}
		c.Stop()
		return nil
	case <-ctx.Done():
		c.logger.Info("wait for pty process interrupted", "error", ctx.Err())
		c.Stop()
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	}
}

// Stop terminates the child, closes the master and joins the pumps.
// Calling it on a controller that is not running does nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running.Swap(false) {
		c.mu.Unlock()
		return
	}
	master, cmd, done, pumps, stopResize := c.master, c.cmd, c.done, c.pumps, c.stopResize
	c.master = nil
	c.cmd = nil
	c.pumps = nil
	c.stopResize = nil
	c.mu.Unlock()

	if stopResize != nil {
		stopResize()
	}

	if master != nil {
		if err := master.Close(); err != nil {
			c.logger.Debug("closing pty master failed", "error", err)
		}
	}

	if cmd != nil && cmd.Process != nil {
		// The child may already be gone; that is what we want anyway
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			c.logger.Debug("killing pty process failed", "pid", cmd.Process.Pid, "error", err)
		}
		<-done
	}

	if pumps != nil {
		if err := pumps.Wait(); err != nil {
			c.logger.Debug("pump ended with error", "error", err)
		}
	}

	c.logger.Info("pty process stopped", "exit_code", c.ExitCode())
}

// Running reports whether the child has been started and not yet stopped.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// PID returns the child's process id, or 0 when not running.
func (c *Controller) PID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// ExitCode returns the child's exit code once it has been reaped, -1 before
// that or when it was killed by a signal.
func (c *Controller) ExitCode() int {
	return int(c.exitCode.Load())
}

// Done returns a channel closed when the child has been reaped. It is nil
// before Start.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// activeMaster returns the master if the controller is running.
func (c *Controller) activeMaster() (*os.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() || c.master == nil {
		return nil, ErrNotRunning
	}
	return c.master, nil
}

// SendInput writes text to the child as if it had been typed.
// Use SendKey for special keys such as enter or arrows.
func (c *Controller) SendInput(text string) error {
	master, err := c.activeMaster()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(master, text); err != nil {
		return fmt.Errorf("%w: send input: %w", ErrIO, err)
	}
	return nil
}

// SendKey writes the escape or control sequence for a named key. Names are
// case-insensitive; see KeyNames for the supported set.
func (c *Controller) SendKey(name string) error {
	master, err := c.activeMaster()
	if err != nil {
		return err
	}

	seq, ok := LookupKey(name)
	if !ok {
		return fmt.Errorf("%w: %q (supported keys: %s)", ErrUnknownKey, name, strings.Join(KeyNames(), ", "))
	}

	if _, err := master.Write(seq); err != nil {
		return fmt.Errorf("%w: send key %q: %w", ErrIO, name, err)
	}
	return nil
}

// AddChangeCallback registers fn to receive every chunk read from here on.
// Earlier output is not replayed.
func (c *Controller) AddChangeCallback(fn ChangeFunc) CallbackID {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()

	c.nextID++
	c.callbacks = append(c.callbacks, changeCallback{id: c.nextID, fn: fn})
	return c.nextID
}

// RemoveChangeCallback unregisters a callback. It reports whether id was
// registered.
func (c *Controller) RemoveChangeCallback(id CallbackID) bool {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()

	for i, cb := range c.callbacks {
		if cb.id == id {
			c.callbacks = append(c.callbacks[:i:i], c.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

// OutputBuffer returns a copy of the chunks read since the last clear.
func (c *Controller) OutputBuffer() []string {
	return c.output.Snapshot()
}

// OutputText returns the chunks read since the last clear, concatenated.
func (c *Controller) OutputText() string {
	return c.output.Text()
}

// ClearOutput empties the output buffer.
func (c *Controller) ClearOutput() {
	c.output.Clear()
}
