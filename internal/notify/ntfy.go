package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"herald/internal/alert"
)

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
}

func newNtfy(endpoint string, timeout time.Duration) *ntfyNotifier {
	return &ntfyNotifier{
		endpoint: endpoint,
		client:   newHTTPClient(timeout),
	}
}

func (n *ntfyNotifier) Name() string { return "ntfy" }

// ntfyPriority maps alert tiers onto ntfy's priority header values. Medium is
// ntfy's default and sends no header.
func ntfyPriority(p alert.Priority) string {
	switch p {
	case alert.PriorityCritical:
		return "urgent"
	case alert.PriorityHigh:
		return "high"
	case alert.PriorityLow:
		return "low"
	default:
		return ""
	}
}

func (n *ntfyNotifier) Send(ctx context.Context, msg Message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	req.Header.Set("Tags", "herald,alert")
	if priority := ntfyPriority(msg.Priority); priority != "" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
