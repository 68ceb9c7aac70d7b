// Package session wires a PTY controller, a screen model and an instruction
// router into one voice-driven terminal session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"

	"claude_voice/pkg/config"
	"claude_voice/pkg/logging"
	"claude_voice/pkg/pty"
	"claude_voice/pkg/router"
	"claude_voice/pkg/screen"
)

// TranscriptionSource delivers finished transcriptions of the user's speech.
type TranscriptionSource interface {
	AddTranscriptionCallback(fn func(text string))
}

// Session owns the child process and routes instructions to it.
type Session struct {
	cfg    config.Config
	logger *slog.Logger

	ctrl   *pty.Controller
	screen *screen.Screen
	router *router.Router

	// ctx bounds instructions delivered through Attach; Stop cancels it
	ctx    context.Context
	cancel context.CancelFunc

	closeLog  func() error
	closeOnce sync.Once
}

// Open loads the config file at configPath (the default path when empty),
// sets up logging from it and builds a session. Close releases the log file.
func Open(configPath string) (*Session, error) {
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.Init(cfg)
	if err != nil {
		logger.Warn("log file unavailable", "error", err)
	}

	s, err := New(cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	s.closeLog = closeLog
	s.logger.Info("session opened", "config", configPath, "program", cfg.Program)
	return s, nil
}

// New validates cfg and builds a session. Nothing runs until Start or Run.
func New(cfg config.Config, logger *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:    cfg,
		logger: logger.With("component", "session"),
		screen: screen.New(cfg.ScreenRows, cfg.ScreenCols),
		ctx:    ctx,
		cancel: cancel,
	}

	ctrlOpts := cfg.ControllerOptions()
	ctrlOpts.Logger = logger
	ctrlOpts.OnResize = s.onResize
	s.ctrl = pty.New(ctrlOpts)

	routerOpts := cfg.RouterOptions()
	routerOpts.Logger = logger
	s.router = router.New(s.ctrl, s.screen, routerOpts)

	s.ctrl.AddChangeCallback(s.onOutput)
	return s, nil
}

// onResize keeps the screen model the same size as the child's terminal,
// so prompts drawn near the bottom stay visible to the router.
func (s *Session) onResize(cols, rows int) {
	s.screen.Resize(rows, cols)
	s.logger.Debug("screen resized", "cols", cols, "rows", rows)
}

// onOutput keeps the screen current and lets the router re-read it.
func (s *Session) onOutput(chunk string) {
	if _, err := s.screen.WriteString(chunk); err != nil {
		s.logger.Debug("screen update failed", "error", err)
	}
	s.router.Refresh()
}

// Attach routes every transcription from src to the child.
func (s *Session) Attach(src TranscriptionSource) {
	src.AddTranscriptionCallback(func(text string) {
		// Failures are recorded in the router history and logged there
		_, _ = s.Instruct(text)
	})
}

// Instruct routes one instruction in the session's context.
func (s *Session) Instruct(text string) (router.Action, error) {
	return s.router.ProcessInstruction(s.ctx, text)
}

// Start spawns the child. With keyboard forwarding on a real terminal the
// child and the screen follow that terminal's size; otherwise the child is
// sized to the configured screen.
func (s *Session) Start() error {
	if err := s.ctrl.Start(); err != nil {
		return err
	}

	if !s.cfg.KeyboardForwarding || !term.IsTerminal(int(os.Stdout.Fd())) {
		if err := s.ctrl.Resize(s.cfg.ScreenCols, s.cfg.ScreenRows); err != nil {
			s.logger.Debug("sizing child terminal failed", "error", err)
		}
	}

	s.logger.Info("session started", "program", s.ctrl.Program(), "pid", s.ctrl.PID())
	return nil
}

// Wait blocks until the child exits or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	err := s.ctrl.Wait(ctx)
	s.cancel()
	s.logger.Info("session ended", "exit_code", s.ctrl.ExitCode())
	return err
}

// Run starts the child and waits for it.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	return s.Wait(ctx)
}

// Stop cancels pending instructions and terminates the child.
func (s *Session) Stop() {
	s.cancel()
	s.ctrl.Stop()
}

// Close stops the session and closes the log file opened by Open.
func (s *Session) Close() error {
	s.Stop()

	var err error
	s.closeOnce.Do(func() {
		if s.closeLog != nil {
			err = s.closeLog()
		}
	})
	return err
}

// Controller returns the underlying PTY controller.
func (s *Session) Controller() *pty.Controller {
	return s.ctrl
}

// Router returns the instruction router.
func (s *Session) Router() *router.Router {
	return s.router
}

// Screen returns the screen model.
func (s *Session) Screen() *screen.Screen {
	return s.screen
}
