package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nutriverify/internal/config"
)

const userAgent = "nutriverify/0.1.0"

// BatchReport is the outcome of one verification run.
type BatchReport struct {
	RunID     string
	Processed int
	Verified  int
	Flagged   int
	Retried   int
	Errors    int
	Remaining int
	Duration  time.Duration
}

// Service defines the notification surface used by the pipeline.
type Service interface {
	NotifyBatchCompleted(ctx context.Context, report BatchReport) error
	NotifyRecordFlagged(ctx context.Context, recordID int64, name, kind string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil || !cfg.NotificationsEnabled() {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:        &http.Client{Timeout: timeout},
		notifyFlagged: cfg.Notifications.NotifyFlagged,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	notifyFlagged bool
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, report BatchReport) error {
	if report.Processed == 0 {
		return nil
	}
	message := fmt.Sprintf("Batch finished: %d verified, %d flagged", report.Verified, report.Flagged)
	if report.Retried > 0 {
		message += fmt.Sprintf(", %d retried", report.Retried)
	}
	if report.Errors > 0 {
		message += fmt.Sprintf(", %d errors", report.Errors)
	}
	message += fmt.Sprintf("\n%d records remain unverified (%s)", report.Remaining, report.Duration.Round(time.Second))

	data := payload{
		title:   "nutriverify - Batch Completed",
		message: message,
		tags:    []string{"nutriverify", "batch", "completed"},
	}
	if report.Errors > 0 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecordFlagged(ctx context.Context, recordID int64, name, kind string) error {
	if !n.notifyFlagged {
		return nil
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "unknown"
	}
	data := payload{
		title:   "nutriverify - Review Required",
		message: fmt.Sprintf("Record #%d %s flagged: %s", recordID, strings.TrimSpace(name), kind),
		tags:    []string{"nutriverify", "flagged", kind},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "nutriverify - Error",
		message:  builder.String(),
		tags:     []string{"nutriverify", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "nutriverify - Test",
		message:  "Notification system test",
		tags:     []string{"nutriverify", "test"},
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

func (noopService) NotifyBatchCompleted(context.Context, BatchReport) error          { return nil }
func (noopService) NotifyRecordFlagged(context.Context, int64, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                 { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
