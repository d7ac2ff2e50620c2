package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docket/internal/config"
)

const userAgent = "docket/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyDocumentArchived(ctx context.Context, name, category, filedPath string) error
	NotifyDocumentHeld(ctx context.Context, name, reason string) error
	NotifyReviewNeeded(ctx context.Context, name, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyDocumentArchived(ctx context.Context, name, category, filedPath string) error {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	message := fmt.Sprintf("Filed: %s (%s)", name, category)
	if filedPath = strings.TrimSpace(filedPath); filedPath != "" {
		message = fmt.Sprintf("%s\n%s", message, filedPath)
	}
	data := payload{
		title:   "Docket - Archived",
		message: message,
		tags:    []string{"docket", "archived"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDocumentHeld(ctx context.Context, name, reason string) error {
	name = strings.TrimSpace(name)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Docket - Held",
		message:  fmt.Sprintf("Needs attention: %s\n%s", name, reason),
		tags:     []string{"docket", "held", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewNeeded(ctx context.Context, name, reason string) error {
	name = strings.TrimSpace(name)
	reason = strings.TrimSpace(reason)
	data := payload{
		title:   "Docket - Review",
		message: fmt.Sprintf("Filed pending review: %s\n%s", name, reason),
		tags:    []string{"docket", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Docket - Test",
		message:  "Notification system test",
		tags:     []string{"docket", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

type noopService struct{}

func (noopService) NotifyDocumentArchived(context.Context, string, string, string) error { return nil }
func (noopService) NotifyDocumentHeld(context.Context, string, string) error             { return nil }
func (noopService) NotifyReviewNeeded(context.Context, string, string) error             { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
