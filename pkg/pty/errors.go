package pty

import "errors"

// Error kinds returned by Controller. Match them with errors.Is; the
// underlying OS error, when there is one, is wrapped alongside.
var (
	// ErrAlreadyRunning is returned by Start on a running controller.
	ErrAlreadyRunning = errors.New("pty: already running")

	// ErrStopped is returned by Start on a controller that has been stopped.
	// Controllers are single-use.
	ErrStopped = errors.New("pty: controller was stopped")

	// ErrStartFailed wraps PTY allocation and process spawn failures.
	ErrStartFailed = errors.New("pty: start failed")

	// ErrNotRunning is returned when input is injected without a live child.
	ErrNotRunning = errors.New("pty: not running")

	// ErrUnknownKey is returned by SendKey for names missing from the key table.
	ErrUnknownKey = errors.New("pty: unknown key")

	// ErrIO wraps read and write failures on the master or input device.
	ErrIO = errors.New("pty: i/o error")

	// ErrUnsupported is returned by features unavailable on this platform.
	ErrUnsupported = errors.New("pty: not supported on this platform")
)
