// Package notify delivers alert messages to the configured channel.
package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"herald/internal/alert"
	"herald/internal/config"
)

const userAgent = "Herald-Go/0.1.0"

// Message is one outbound notification.
type Message struct {
	Title    string
	Body     string
	Priority alert.Priority
}

// Notifier sends messages to a delivery channel.
type Notifier interface {
	// Name identifies the channel for logs and stats.
	Name() string
	Send(ctx context.Context, msg Message) error
}

// New builds a notifier from the configuration. Telegram wins when both
// channels are configured; with neither configured a noop implementation is
// returned so the worker can drain the queue without external delivery.
func New(cfg *config.Config) (Notifier, error) {
	if strings.TrimSpace(cfg.Notify.TelegramToken) != "" {
		return newTelegram(cfg)
	}
	if topic := strings.TrimSpace(cfg.Notify.NtfyTopic); topic != "" {
		return newNtfy(topic, cfg.NotifyTimeout()), nil
	}
	return noopNotifier{}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

type noopNotifier struct{}

func (noopNotifier) Name() string { return "noop" }

func (noopNotifier) Send(context.Context, Message) error { return nil }
