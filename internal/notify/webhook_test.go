package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

func TestKeyRejectedPayload_Format(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := NewKeyRejectedPayload("key rejected while syncing abc on na1", 18*time.Hour+32*time.Minute, at)

	if !strings.Contains(payload.Content, "@here") {
		t.Error("Expected @here mention in content")
	}
	if len(payload.Embeds) != 1 {
		t.Fatalf("Expected 1 embed, got %d", len(payload.Embeds))
	}

	embed := payload.Embeds[0]
	if embed.Color != colorRed {
		t.Errorf("Expected red color, got %d", embed.Color)
	}
	if embed.Description != "key rejected while syncing abc on na1" {
		t.Errorf("Unexpected description: %s", embed.Description)
	}
	if len(embed.Fields) != 1 || embed.Fields[0].Value != "18h 32m" {
		t.Errorf("Unexpected fields: %+v", embed.Fields)
	}
	if embed.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("Unexpected timestamp: %s", embed.Timestamp)
	}
}

func TestServerStartedPayload_Format(t *testing.T) {
	payload := NewServerStartedPayload("RGAPI...abcd", "postgres")
	embed := payload.Embeds[0]
	if embed.Color != colorGreen {
		t.Errorf("Expected green color, got %d", embed.Color)
	}
	if embed.Fields[0].Value != "RGAPI...abcd (validated)" || embed.Fields[1].Value != "postgres" {
		t.Errorf("Unexpected fields: %+v", embed.Fields)
	}
	if payload.Content != "" {
		t.Error("Start notification should not mention anyone")
	}
}

func TestWebhookClient_Notify(t *testing.T) {
	var received WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %s", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("Invalid JSON body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewWebhookClient(server.URL)
	if err := client.Notify(context.Background(), "key rejected"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if len(received.Embeds) != 1 || received.Embeds[0].Description != "key rejected" {
		t.Errorf("Unexpected payload: %+v", received)
	}
}

func TestWebhookClient_RetriesOnRateLimit(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewWebhookClient(server.URL).Send(context.Background(), NewServerStartedPayload("k", "sqlite")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestWebhookClient_GivesUpAfterRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := NewWebhookClient(server.URL).Send(context.Background(), WebhookPayload{Content: "x"})
	if err == nil {
		t.Fatal("Expected error after repeated 429s")
	}
	if attempts != maxRetries {
		t.Errorf("Expected %d attempts, got %d", maxRetries, attempts)
	}
}

func TestWebhookClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewWebhookClient(server.URL).Send(context.Background(), WebhookPayload{Content: "x"})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("Expected status 400 error, got %v", err)
	}
}

func TestWebhookClient_ContextCancelledDuringWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewWebhookClient(server.URL).Send(ctx, WebhookPayload{Content: "x"})
	if err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Send should return promptly on cancellation")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0h 0m"},
		{59 * time.Minute, "0h 59m"},
		{25*time.Hour + 5*time.Minute, "25h 5m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Sends a real notification to Discord
func TestWebhookClient_Integration(t *testing.T) {
	godotenv.Load("../../.env")

	webhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	if webhookURL == "" {
		t.Skip("DISCORD_WEBHOOK_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := NewWebhookClient(webhookURL).Send(ctx, NewServerStartedPayload("RGAPI...test", "integration")); err != nil {
		t.Fatalf("Failed to send notification: %v", err)
	}
}
