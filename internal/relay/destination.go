package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Destination is the external messaging sink a co-stream mirrors into.
type Destination interface {
	Send(ctx context.Context, text string) error
}

// WebhookDestination posts each mirrored line as JSON to a messaging
// webhook (a Telegram-bot style endpoint).
type WebhookDestination struct {
	url    string
	client *http.Client
}

func NewWebhookDestination(url string, timeout time.Duration) *WebhookDestination {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookDestination{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (d *WebhookDestination) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("destination returned %s", resp.Status)
	}
	return nil
}
