// Package logging sets up the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"claude_voice/pkg/config"
)

const (
	appName        = "claude_voice"
	defaultLogFile = appName + ".log"

	maxLogSizeMB  = 5
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// Init installs a logger that writes to a rotating file and returns it with
// a func that closes the file. Every record carries the app name and pid.
//
// The child's output owns the terminal, so when the log directory cannot be
// created the logger falls back to stderr only if stderr is not a terminal,
// and discards records otherwise. The error is returned in both cases.
func Init(cfg config.Config) (*slog.Logger, func() error, error) {
	handlerOptions := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	logPath := strings.TrimSpace(cfg.LogFile)
	if logPath == "" {
		logPath = defaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		logger := install(newHandler(cfg.LogFormat, fallbackWriter(os.Stderr), handlerOptions))
		return logger, func() error { return nil }, err
	}

	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}

	logger := install(newHandler(cfg.LogFormat, writer, handlerOptions))
	logger.Debug("logging initialized", "path", logPath, "level", handlerOptions.Level)
	return logger, writer.Close, nil
}

func install(h slog.Handler) *slog.Logger {
	logger := slog.New(h).With("app", appName, "pid", os.Getpid())
	slog.SetDefault(logger)
	return logger
}

// fallbackWriter returns f unless it is a terminal shared with the child.
func fallbackWriter(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return io.Discard
	}
	return f
}

func defaultLogPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(homeDir) == "" {
		return filepath.Join("."+appName, "logs", defaultLogFile)
	}
	return filepath.Join(homeDir, "."+appName, "logs", defaultLogFile)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
