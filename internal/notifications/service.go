package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/marco/multiclass/internal/config"
	"github.com/marco/multiclass/internal/retry"
)

const userAgent = "multiclass/1.0"

// Title used for reclassification messages.
const ReclassifiedTitle = "多级分类完成"

// Service defines the notification surface used by the plugin and CLI.
type Service interface {
	NotifyReclassified(ctx context.Context, mediaTitle, finalPath string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		policy: retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: 500 * time.Millisecond,
		},
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
	policy   retry.Policy
}

func (n *ntfyService) NotifyReclassified(ctx context.Context, mediaTitle, finalPath string) error {
	mediaTitle = strings.TrimSpace(mediaTitle)
	message := "reclassification complete"
	if mediaTitle != "" {
		message = fmt.Sprintf("%s: %s", message, mediaTitle)
	}
	if finalPath = strings.TrimSpace(finalPath); finalPath != "" {
		message = fmt.Sprintf("%s\nFolder: %s", message, filepath.Dir(finalPath))
	}
	return n.send(ctx, payload{
		title:   ReclassifiedTitle,
		message: message,
		tags:    []string{"multiclass", "organize"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "multiclass - test",
		message:  "notification system test",
		tags:     []string{"multiclass", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	return retry.Do(ctx, n.policy, func(ctx context.Context) error {
		return n.post(ctx, data)
	})
}

func (n *ntfyService) post(ctx context.Context, data payload) error {
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
		return fmt.Errorf("ntfy returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyReclassified(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
