package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"claude_voice/pkg/pty"
	"claude_voice/pkg/router"
	"claude_voice/pkg/screen"
)

// Config represents the application configuration
type Config struct {
	Program            string       `json:"program"`
	Args               []string     `json:"args,omitempty"`
	Dir                string       `json:"dir,omitempty"`
	Env                []string     `json:"env,omitempty"`
	KeyboardForwarding bool         `json:"keyboard_forwarding"`
	Term               string       `json:"term"`
	PollIntervalMs     int          `json:"poll_interval_ms"`
	ReadChunkSize      int          `json:"read_chunk_size"`
	EchoOutput         bool         `json:"echo_output"`
	ScreenRows         int          `json:"screen_rows"`
	ScreenCols         int          `json:"screen_cols"`
	Router             RouterConfig `json:"router"`
	LogLevel           string       `json:"log_level"`
	LogFormat          string       `json:"log_format"`
	LogFile            string       `json:"log_file"`
}

// RouterConfig holds the instruction router settings
type RouterConfig struct {
	ChoiceMarker  string `json:"choice_marker"`
	SubmitDelayMs int    `json:"submit_delay_ms"`
	HistorySize   int    `json:"history_size"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		Program:            "/bin/bash",
		KeyboardForwarding: true,
		Term:               "xterm-256color",
		PollIntervalMs:     100,
		ReadChunkSize:      1024,
		EchoOutput:         true,
		ScreenRows:         screen.DefaultRows,
		ScreenCols:         screen.DefaultCols,
		Router: RouterConfig{
			ChoiceMarker:  router.DefaultChoiceMarker,
			SubmitDelayMs: 100,
			HistorySize:   1000,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load loads configuration from the specified path.
// If the file doesn't exist, creates one with default values. Keys missing
// from an existing file keep their defaults.
func Load(configPath string) (Config, error) {
	// Ensure directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Try to read existing config
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create default config
			cfg := Default()
			if err := Save(configPath, cfg); err != nil {
				return Config{}, fmt.Errorf("failed to create default config: %w", err)
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if strings.TrimSpace(c.Program) == "" {
		return fmt.Errorf("program is required")
	}

	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive, got: %d", c.PollIntervalMs)
	}

	if c.ReadChunkSize <= 0 {
		return fmt.Errorf("read_chunk_size must be positive, got: %d", c.ReadChunkSize)
	}

	if c.ScreenRows <= 0 || c.ScreenCols <= 0 {
		return fmt.Errorf("screen size must be positive, got: %dx%d", c.ScreenCols, c.ScreenRows)
	}

	if c.Router.ChoiceMarker == "" {
		return fmt.Errorf("router.choice_marker is required")
	}

	if c.Router.SubmitDelayMs < 0 {
		return fmt.Errorf("router.submit_delay_ms must not be negative, got: %d", c.Router.SubmitDelayMs)
	}

	if c.Router.HistorySize <= 0 {
		return fmt.Errorf("router.history_size must be positive, got: %d", c.Router.HistorySize)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log_level: %s", c.LogLevel)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unsupported log_format: %s", c.LogFormat)
	}

	return nil
}

// ControllerOptions converts the PTY settings into controller options.
// The logger is left for the caller to set.
func (c Config) ControllerOptions() pty.Options {
	opts := pty.DefaultOptions()
	opts.Program = c.Program
	opts.Args = append([]string(nil), c.Args...)
	opts.Env = append([]string(nil), c.Env...)
	opts.Dir = c.Dir
	opts.KeyboardForwarding = c.KeyboardForwarding
	opts.Term = c.Term
	opts.PollInterval = time.Duration(c.PollIntervalMs) * time.Millisecond
	opts.ChunkSize = c.ReadChunkSize
	if !c.EchoOutput {
		opts.Output = nil
	}
	return opts
}

// RouterOptions converts the router settings into router options.
func (c Config) RouterOptions() router.Options {
	return router.Options{
		ChoiceMarker: c.Router.ChoiceMarker,
		SubmitDelay:  time.Duration(c.Router.SubmitDelayMs) * time.Millisecond,
		HistorySize:  c.Router.HistorySize,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".claude_voice/config.json"
	}
	return filepath.Join(homeDir, ".claude_voice", "config.json")
}
