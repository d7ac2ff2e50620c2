package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docket/internal/config"
)

type captured struct {
	body     string
	title    string
	tags     string
	priority string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			body:     string(body),
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func newNtfyConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return &cfg
}

func TestNoopWhenTopicUnset(t *testing.T) {
	cfg := config.Default()
	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifyDocumentHeld(context.Background(), "a.pdf", "broken"); err != nil {
		t.Fatalf("noop should never fail: %v", err)
	}
}

func TestNotifyDocumentHeldSendsHighPriority(t *testing.T) {
	server, requests := newCaptureServer(t)
	service := NewService(newNtfyConfig(server.URL))

	if err := service.NotifyDocumentHeld(context.Background(), "invoice.pdf", "extraction failed"); err != nil {
		t.Fatalf("NotifyDocumentHeld: %v", err)
	}

	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.priority != "high" {
		t.Fatalf("held notifications should be high priority, got %q", got.priority)
	}
	if !strings.Contains(got.body, "invoice.pdf") || !strings.Contains(got.body, "extraction failed") {
		t.Fatalf("unexpected body: %s", got.body)
	}
	if !strings.Contains(got.tags, "held") {
		t.Fatalf("unexpected tags: %s", got.tags)
	}
}

func TestNotifyDocumentArchivedIncludesPath(t *testing.T) {
	server, requests := newCaptureServer(t)
	service := NewService(newNtfyConfig(server.URL))

	if err := service.NotifyDocumentArchived(context.Background(), "invoice.pdf", "Invoice", "/archive/Invoice/2024/invoice.pdf"); err != nil {
		t.Fatalf("NotifyDocumentArchived: %v", err)
	}

	got := (*requests)[0]
	if got.title != "Docket - Archived" {
		t.Fatalf("unexpected title: %s", got.title)
	}
	if !strings.Contains(got.body, "/archive/Invoice/2024/invoice.pdf") {
		t.Fatalf("unexpected body: %s", got.body)
	}
}

func TestSendSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	service := NewService(newNtfyConfig(server.URL))
	err := service.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
