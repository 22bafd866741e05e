package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateNotify(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorker() error {
	if c.Worker.PollIntervalSeconds < 1 {
		return errors.New("worker.poll_interval_seconds must be at least 1")
	}
	if c.Worker.BatchSize < 1 || c.Worker.BatchSize > 500 {
		return fmt.Errorf("worker.batch_size must be between 1 and 500, got %d", c.Worker.BatchSize)
	}
	if c.Worker.SendDelayMS < 0 {
		return errors.New("worker.send_delay_ms must not be negative")
	}
	if c.Worker.SendTimeoutSeconds < 1 {
		return errors.New("worker.send_timeout_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.TelegramToken != "" && c.Notify.TelegramChatID == 0 {
		return errors.New("notify.telegram_chat_id is required when notify.telegram_token is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
