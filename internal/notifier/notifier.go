// Package notifier delivers payment confirmation tokens out of band.
// Delivery is fire-and-forget from the payer's perspective: failures are
// logged, never surfaced in the payment flow.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Notifier delivers a confirmation token for a started payment.
type Notifier interface {
	NotifyToken(ctx context.Context, email, sessionID, token string) error
}

// tokenPayload is the JSON body posted by the webhook notifier.
type tokenPayload struct {
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	SentAt    string `json:"sent_at"`
}

// WebhookNotifier posts the token to a configured delivery endpoint
// (a mailer service, typically).
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookNotifier creates a webhook notifier for the given URL.
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		// Don't let a slow delivery endpoint block us.
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

// NotifyToken posts the token payload to the delivery endpoint.
func (n *WebhookNotifier) NotifyToken(ctx context.Context, email, sessionID, token string) error {
	body, err := json.Marshal(tokenPayload{
		Email:     email,
		SessionID: sessionID,
		Token:     token,
		SentAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("token delivery endpoint returned %d", resp.StatusCode)
}

// LogNotifier records the delivery instead of sending it. Used when no
// delivery endpoint is configured (local development).
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyToken logs the token delivery.
func (n *LogNotifier) NotifyToken(_ context.Context, email, sessionID, token string) error {
	n.logger.Info("confirmation token issued",
		zap.String("email", email),
		zap.String("session_id", sessionID),
		zap.String("token", token),
	)
	return nil
}
