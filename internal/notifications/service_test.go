package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nutriverify/internal/config"
	"nutriverify/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []capturedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

func configFor(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(configFor(""))
	if err := svc.NotifyBatchCompleted(context.Background(), notifications.BatchReport{Processed: 3}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsBatchSummary(t *testing.T) {
	server, captured := newNtfyServer(t, http.StatusOK)
	svc := notifications.NewService(configFor(server.URL))

	report := notifications.BatchReport{Processed: 5, Verified: 3, Flagged: 1, Retried: 1, Remaining: 40, Duration: 9 * time.Second}
	if err := svc.NotifyBatchCompleted(context.Background(), report); err != nil {
		t.Fatalf("NotifyBatchCompleted: %v", err)
	}
	reqs := captured()
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
	got := reqs[0]
	if got.title != "nutriverify - Batch Completed" || got.tags != "nutriverify,batch,completed" || got.priority != "" {
		t.Fatalf("unexpected headers %+v", got)
	}
	want := "Batch finished: 3 verified, 1 flagged, 1 retried\n40 records remain unverified (9s)"
	if got.body != want {
		t.Fatalf("body = %q, want %q", got.body, want)
	}
}

func TestNtfyServiceSkipsEmptyBatches(t *testing.T) {
	server, captured := newNtfyServer(t, http.StatusOK)
	svc := notifications.NewService(configFor(server.URL))
	if err := svc.NotifyBatchCompleted(context.Background(), notifications.BatchReport{}); err != nil {
		t.Fatalf("NotifyBatchCompleted: %v", err)
	}
	if n := len(captured()); n != 0 {
		t.Fatalf("expected no request for an empty batch, got %d", n)
	}
}

func TestNtfyServiceFlaggedRecords(t *testing.T) {
	server, captured := newNtfyServer(t, http.StatusOK)
	cfg := configFor(server.URL)
	svc := notifications.NewService(cfg)
	if err := svc.NotifyRecordFlagged(context.Background(), 42, "Protein Brick", "data_impossible"); err != nil {
		t.Fatalf("NotifyRecordFlagged: %v", err)
	}
	reqs := captured()
	if len(reqs) != 1 || reqs[0].body != "Record #42 Protein Brick flagged: data_impossible" {
		t.Fatalf("unexpected requests %+v", reqs)
	}

	cfg.Notifications.NotifyFlagged = false
	quiet := notifications.NewService(cfg)
	if err := quiet.NotifyRecordFlagged(context.Background(), 43, "Other", "data_impossible"); err != nil {
		t.Fatalf("NotifyRecordFlagged: %v", err)
	}
	if n := len(captured()); n != 1 {
		t.Fatalf("expected flagged notifications to be disabled, got %d requests", n)
	}
}

func TestNtfyServiceErrorPriority(t *testing.T) {
	server, captured := newNtfyServer(t, http.StatusOK)
	svc := notifications.NewService(configFor(server.URL))
	if err := svc.NotifyError(context.Background(), errors.New("database is locked"), "batch run"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	got := captured()[0]
	if got.priority != "high" || got.body != "Error during batch run: database is locked" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestNtfyServiceReportsHTTPFailures(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusForbidden)
	svc := notifications.NewService(configFor(server.URL))
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
