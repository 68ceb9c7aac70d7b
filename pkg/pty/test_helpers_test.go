package pty

import (
	"errors"
	"log/slog"
	"strings"
	"syscall"
	"testing"
	"time"
)

// testOptions runs program with no keyboard forwarding and no echo, polling
// fast enough to keep tests short.
func testOptions(program string, args ...string) Options {
	opts := Options{
		Program:      program,
		PollInterval: 20 * time.Millisecond,
		Logger:       slog.New(slog.DiscardHandler),
	}
	if len(args) > 0 {
		opts.Args = append([]string{program}, args...)
	}
	return opts
}

// requireController starts a controller and stops it when the test ends.
// The test is skipped when the sandbox cannot allocate a PTY.
func requireController(t *testing.T, opts Options) *Controller {
	t.Helper()
	c := New(opts)
	if err := c.Start(); err != nil {
		if ptyUnavailable(err) {
			t.Skipf("PTY unavailable: %v", err)
		}
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func ptyUnavailable(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "ptmx") && !strings.Contains(msg, "pty") {
		return false
	}

	if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.ENODEV) {
		return true
	}
	if errors.Is(err, syscall.ENOENT) && strings.Contains(msg, "ptmx") {
		return true
	}
	if strings.Contains(msg, "permission denied") || strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "not permitted") || strings.Contains(msg, "no such device") ||
		strings.Contains(msg, "not supported") {
		return true
	}

	return false
}
