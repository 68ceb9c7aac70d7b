package pty

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/creack/pty"
)

// spawn allocates a PTY pair and starts the child as a session leader with
// the slave as its controlling terminal and standard streams. Only the
// master is returned; the parent's copy of the slave is closed.
func (c *Controller) spawn() (*os.File, *exec.Cmd, error) {
	path, err := resolveProgram(c.program)
	if err != nil {
		return nil, nil, err
	}

	master, slave, err := pty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open pty: %w", err)
	}

	cmd := &exec.Cmd{
		Path:   path,
		Args:   c.args,
		Dir:    c.opts.Dir,
		Env:    c.environ(),
		Stdin:  slave,
		Stdout: slave,
		Stderr: slave,
		SysProcAttr: &syscall.SysProcAttr{
			Setsid:  true,
			Setctty: true,
		},
	}

	if err := cmd.Start(); err != nil {
		_ = slave.Close()
		_ = master.Close()
		return nil, nil, fmt.Errorf("start %s: %w", path, err)
	}

	// The child holds its own copies of the slave now
	if err := slave.Close(); err != nil {
		c.logger.Debug("closing parent copy of pty slave failed", "error", err)
	}

	return master, cmd, nil
}

// resolveProgram looks bare names up in PATH; anything containing a
// separator is used as given.
func resolveProgram(program string) (string, error) {
	if strings.ContainsRune(program, os.PathSeparator) {
		return program, nil
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", program, err)
	}
	return path, nil
}

// environ returns the child environment: ours, the configured extras, and
// TERM last so it wins over anything inherited.
func (c *Controller) environ() []string {
	env := os.Environ()
	env = append(env, c.opts.Env...)
	env = append(env, "TERM="+c.opts.Term)
	return env
}
