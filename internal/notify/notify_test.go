package notify_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"herald/internal/alert"
	"herald/internal/config"
	"herald/internal/notify"
)

func TestNewReturnsNoopWithoutChannels(t *testing.T) {
	cfg := config.Default()
	cfg.Notify.TelegramToken = ""
	cfg.Notify.NtfyTopic = ""

	notifier, err := notify.New(&cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if notifier.Name() != "noop" {
		t.Fatalf("expected noop notifier, got %s", notifier.Name())
	}
	if err := notifier.Send(context.Background(), notify.Message{Body: "dropped"}); err != nil {
		t.Fatalf("noop send should never fail: %v", err)
	}
}

func TestNewRejectsTokenWithoutChatID(t *testing.T) {
	cfg := config.Default()
	cfg.Notify.TelegramToken = "123:abc"
	cfg.Notify.TelegramChatID = 0

	if _, err := notify.New(&cfg); err == nil {
		t.Fatal("expected error for telegram token without chat id")
	}
}

func TestNtfySendSetsHeaders(t *testing.T) {
	tests := []struct {
		name           string
		msg            notify.Message
		expectPriority string
	}{
		{
			name: "critical move",
			msg: notify.Message{
				Title:    "AAPL price_change",
				Body:     "📈 *AAPL*: $150.50 (+12.30% from $134.00)",
				Priority: alert.PriorityCritical,
			},
			expectPriority: "urgent",
		},
		{
			name: "high tier",
			msg: notify.Message{
				Title:    "NVDA bullish_crossover",
				Body:     "golden cross",
				Priority: alert.PriorityHigh,
			},
			expectPriority: "high",
		},
		{
			name: "medium tier uses server default",
			msg: notify.Message{
				Body:     "volume spike",
				Priority: alert.PriorityMedium,
			},
			expectPriority: "",
		},
		{
			name: "low tier",
			msg: notify.Message{
				Body:     "daily summary",
				Priority: alert.PriorityLow,
			},
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				priority string
				tags     string
				body     string
			}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.priority = r.Header.Get("Priority")
				captured.tags = r.Header.Get("Tags")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notify.NtfyTopic = server.URL
			cfg.Notify.RequestTimeoutSeconds = 5

			notifier, err := notify.New(&cfg)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if notifier.Name() != "ntfy" {
				t.Fatalf("expected ntfy notifier, got %s", notifier.Name())
			}
			if err := notifier.Send(context.Background(), tc.msg); err != nil {
				t.Fatalf("Send failed: %v", err)
			}

			if captured.body != tc.msg.Body {
				t.Fatalf("expected body %q, got %q", tc.msg.Body, captured.body)
			}
			if captured.title != tc.msg.Title {
				t.Fatalf("expected title %q, got %q", tc.msg.Title, captured.title)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
			if captured.tags != "herald,alert" {
				t.Fatalf("unexpected tags %q", captured.tags)
			}
		})
	}
}

func TestNtfySendReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notify.NtfyTopic = server.URL

	notifier, err := notify.New(&cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := notifier.Send(context.Background(), notify.Message{Body: "hello"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
