package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// Colors for Discord embeds
	colorRed   = 15158332 // 0xE74C3C
	colorGreen = 5763719  // 0x57F287

	defaultWebhookTimeout = 10 * time.Second

	// Max attempts when Discord rate limits us
	maxRetries = 3
)

// WebhookPayload represents a Discord webhook message
type WebhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed represents a Discord embed
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// NewKeyRejectedPayload reports a sync that hit a 401/403 from Riot
func NewKeyRejectedPayload(message string, uptime time.Duration, at time.Time) WebhookPayload {
	return WebhookPayload{
		Content: "@here Riot API key rejected",
		Embeds: []Embed{
			{
				Title:       "🔑 API Key Rejected",
				Description: message,
				Color:       colorRed,
				Fields: []EmbedField{
					{Name: "Server Uptime", Value: formatDuration(uptime), Inline: true},
				},
				Footer:    &EmbedFooter{Text: "Set a fresh RIOT_API_KEY and restart the server"},
				Timestamp: at.UTC().Format(time.RFC3339),
			},
		},
	}
}

// NewServerStartedPayload announces a server start with the key it validated
func NewServerStartedPayload(maskedKey, store string) WebhookPayload {
	return WebhookPayload{
		Embeds: []Embed{
			{
				Title: "✅ Match sync server started",
				Color: colorGreen,
				Fields: []EmbedField{
					{Name: "API Key", Value: maskedKey + " (validated)", Inline: true},
					{Name: "Store", Value: store, Inline: true},
				},
			},
		},
	}
}

// WebhookClient sends notifications to a Discord webhook
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
	started    time.Time
}

// NewWebhookClient creates a new WebhookClient
func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: defaultWebhookTimeout,
		},
		started: time.Now(),
	}
}

// Notify sends a key rejection message. It matches collector.NotifyFunc.
func (c *WebhookClient) Notify(ctx context.Context, message string) error {
	return c.Send(ctx, NewKeyRejectedPayload(message, time.Since(c.started), time.Now()))
}

// Send posts a payload, retrying while Discord answers 429
func (c *WebhookClient) Send(ctx context.Context, payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		resp.Body.Close()

		// Discord returns 204 No Content
		if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
			return nil
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
		}

		wait := time.Second
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(seconds) * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("webhook request failed after %d retries", maxRetries)
}

// formatDuration formats a duration as "Xh Ym" (e.g., 18h 32m)
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
