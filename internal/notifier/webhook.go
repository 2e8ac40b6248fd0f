package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook posts ticket notifications as JSON to an operator endpoint
// (chat-ops bot, incident tool).
type Webhook struct {
	url        string
	httpClient *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// WebhookPayload is the POST body.
type WebhookPayload struct {
	TicketID string `json:"ticket_id"`
	Message  string `json:"message"`
	Text     string `json:"text"`
}

func (w *Webhook) Notify(ctx context.Context, ticketID, message string) error {
	body, err := json.Marshal(WebhookPayload{
		TicketID: ticketID,
		Message:  message,
		Text:     Body(ticketID, message),
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: status %d for ticket %s", resp.StatusCode, ticketID)
	}
	return nil
}
