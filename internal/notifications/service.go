package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"igreport/internal/config"
	"igreport/internal/escalation"
)

const userAgent = "igreport/0.1.0"

// Service defines the notification surface exposed to the CLI and pipeline.
type Service interface {
	NotifyQueueDelay(ctx context.Context, imageRef string, wait time.Duration) error
	NotifyManualCorrection(ctx context.Context, imageRef, reason string) error
	NotifyRemoteUnavailable(ctx context.Context, mode string) error
	NotifyBatchCompleted(ctx context.Context, processed, needsCorrection int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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

func (n *ntfyService) NotifyQueueDelay(ctx context.Context, imageRef string, wait time.Duration) error {
	data := payload{
		title:   "igreport - Queued",
		message: fmt.Sprintf("⏳ Remote extraction queued for %s, expect ~%s", refLabel(imageRef), escalation.FormatETA(wait)),
		tags:    []string{"igreport", "queue", "delay"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyManualCorrection(ctx context.Context, imageRef, reason string) error {
	message := fmt.Sprintf("✍️ Correction needed for %s", refLabel(imageRef))
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\n%s", message, reason)
	}
	data := payload{
		title:   "igreport - Correction Needed",
		message: message,
		tags:    []string{"igreport", "correction", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRemoteUnavailable(ctx context.Context, mode string) error {
	data := payload{
		title:    "igreport - Remote Unavailable",
		message:  fmt.Sprintf("Mode %q wants remote extraction but no API key is configured", strings.TrimSpace(mode)),
		tags:     []string{"igreport", "remote", "config"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, processed, needsCorrection int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	title := "igreport - Batch Complete"
	message := fmt.Sprintf("Processed %d image(s) in %s", processed, durationText)
	if needsCorrection > 0 {
		title = "igreport - Batch Complete (corrections needed)"
		message = fmt.Sprintf("Processed %d image(s) in %s, %d need a correction", processed, durationText, needsCorrection)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"igreport", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	if err != nil {
		builder.WriteString(": ")
		builder.WriteString(err.Error())
	}
	data := payload{
		title:    "igreport - Error",
		message:  builder.String(),
		tags:     []string{"igreport", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "igreport - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"igreport", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func refLabel(imageRef string) string {
	if imageRef = strings.TrimSpace(imageRef); imageRef == "" {
		return "image"
	}
	return imageRef
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

func (noopService) NotifyQueueDelay(context.Context, string, time.Duration) error       { return nil }
func (noopService) NotifyManualCorrection(context.Context, string, string) error        { return nil }
func (noopService) NotifyRemoteUnavailable(context.Context, string) error               { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
