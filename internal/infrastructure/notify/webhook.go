package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quoteflow/quoteflow/internal/application/port"
)

// Config holds webhook sender configuration
type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

// WebhookSender delivers notifications as JSON POSTs to a configured
// webhook endpoint.
type WebhookSender struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookSender creates a new webhook notification sender
func NewWebhookSender(cfg Config, logger *zap.Logger) *WebhookSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type webhookPayload struct {
	ID             string            `json:"id"`
	EventType      string            `json:"event_type"`
	RecipientEmail string            `json:"recipient_email"`
	RecipientName  string            `json:"recipient_name,omitempty"`
	Subject        string            `json:"subject"`
	Body           string            `json:"body"`
	Payload        map[string]string `json:"payload,omitempty"`
	SentAt         time.Time         `json:"sent_at"`
}

// Send delivers one notification. The returned id identifies the
// delivery attempt for correlation in the receiver's logs.
func (s *WebhookSender) Send(ctx context.Context, n port.Notification) (string, error) {
	id := uuid.New().String()
	body, err := json.Marshal(webhookPayload{
		ID:             id,
		EventType:      n.EventType,
		RecipientEmail: n.RecipientEmail,
		RecipientName:  n.RecipientName,
		Subject:        n.Subject,
		Body:           n.Body,
		Payload:        n.Payload,
		SentAt:         time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Webhook delivery failed",
			zap.String("event_type", n.EventType),
			zap.Error(err))
		return "", fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("Webhook endpoint rejected notification",
			zap.String("event_type", n.EventType),
			zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	s.logger.Debug("Notification delivered",
		zap.String("id", id),
		zap.String("event_type", n.EventType))
	return id, nil
}

// Verify interface compliance
var _ port.NotificationSender = (*WebhookSender)(nil)
