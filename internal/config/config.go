package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Worker contains the poll loop tuning knobs.
type Worker struct {
	PollIntervalSeconds int  `toml:"poll_interval_seconds"`
	BatchSize           int  `toml:"batch_size"`
	SendDelayMS         int  `toml:"send_delay_ms"`
	SendTimeoutSeconds  int  `toml:"send_timeout_seconds"`
	DryRun              bool `toml:"dry_run"`
}

// Notify selects and configures the delivery channel. When a Telegram token
// is present Telegram is used; otherwise ntfy when a topic is set; otherwise
// deliveries are logged and dropped (useful for local runs).
type Notify struct {
	TelegramToken         string `toml:"telegram_token"`
	TelegramChatID        int64  `toml:"telegram_chat_id"`
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Summary configures the scheduled daily-summary producer.
type Summary struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
	Subject  string `toml:"subject"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics configures the optional Prometheus scrape endpoint. An empty
// listen address disables the listener.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Config encapsulates all configuration values for herald.
//
// Sections by subsystem:
//   - Paths: data (queue database, lock file) and log directories
//   - Worker: poll interval, claim batch size, send pacing and timeout
//   - Notify: Telegram / ntfy delivery channel settings
//   - Summary: cron schedule for the daily summary alert
//   - Logging: log format and level
//   - Metrics: optional Prometheus scrape endpoint
type Config struct {
	Paths   Paths   `toml:"paths"`
	Worker  Worker  `toml:"worker"`
	Notify  Notify  `toml:"notify"`
	Summary Summary `toml:"summary"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
}

// PollInterval returns the worker poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Worker.PollIntervalSeconds) * time.Second
}

// SendDelay returns the inter-item delivery delay as a duration.
func (c *Config) SendDelay() time.Duration {
	return time.Duration(c.Worker.SendDelayMS) * time.Millisecond
}

// SendTimeout returns the per-delivery notifier timeout as a duration.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Worker.SendTimeoutSeconds) * time.Second
}

// NotifyTimeout returns the delivery transport request timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notify.RequestTimeoutSeconds) * time.Second
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/herald/config.toml")
}

// Sample returns the annotated starter configuration file.
func Sample() string {
	return sampleConfig
}

// CreateSample writes the annotated starter configuration to path.
func CreateSample(path string) error {
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("herald.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
