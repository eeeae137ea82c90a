package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"igreport/internal/config"
	"igreport/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyManualCorrection(context.Background(), "ref", "reason"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "queue delay",
			send: func(s notifications.Service) error {
				return s.NotifyQueueDelay(context.Background(), "abc.png", 123*time.Second)
			},
			expectTitle:   "igreport - Queued",
			expectMessage: "⏳ Remote extraction queued for abc.png, expect ~2m03s",
			expectTags:    "igreport,queue,delay",
		},
		{
			name: "manual correction",
			send: func(s notifications.Service) error {
				return s.NotifyManualCorrection(context.Background(), "", "queue too long")
			},
			expectTitle:   "igreport - Correction Needed",
			expectMessage: "✍️ Correction needed for image\nqueue too long",
			expectTags:    "igreport,correction,review",
		},
		{
			name: "remote unavailable",
			send: func(s notifications.Service) error {
				return s.NotifyRemoteUnavailable(context.Background(), "remote")
			},
			expectTitle:    "igreport - Remote Unavailable",
			expectMessage:  `Mode "remote" wants remote extraction but no API key is configured`,
			expectTags:     "igreport,remote,config",
			expectPriority: "high",
		},
		{
			name: "batch with corrections",
			send: func(s notifications.Service) error {
				return s.NotifyBatchCompleted(context.Background(), 4, 1, 2500*time.Millisecond)
			},
			expectTitle:   "igreport - Batch Complete (corrections needed)",
			expectMessage: "Processed 4 image(s) in 3s, 1 need a correction",
			expectTags:    "igreport,batch,completed",
		},
		{
			name: "batch clean",
			send: func(s notifications.Service) error {
				return s.NotifyBatchCompleted(context.Background(), 2, 0, 0)
			},
			expectTitle:   "igreport - Batch Complete",
			expectMessage: "Processed 2 image(s) in 0s",
			expectTags:    "igreport,batch,completed",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("boom"), "ingest")
			},
			expectTitle:    "igreport - Error",
			expectMessage:  "❌ Error with ingest: boom",
			expectTags:     "igreport,error,alert",
			expectPriority: "high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, requests := newCaptureServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = srv.URL
			svc := notifications.NewService(&cfg)

			if err := tt.send(svc); err != nil {
				t.Fatalf("send returned error: %v", err)
			}
			if len(*requests) != 1 {
				t.Fatalf("expected one request, got %d", len(*requests))
			}
			got := (*requests)[0]
			if got.title != tt.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tt.expectTitle)
			}
			if got.body != tt.expectMessage {
				t.Fatalf("message = %q, want %q", got.body, tt.expectMessage)
			}
			if got.tags != tt.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tt.expectTags)
			}
			if got.priority != tt.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tt.expectPriority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusBadGateway)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected 502 error, got %v", err)
	}
}
