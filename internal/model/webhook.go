// internal/model/webhook.go
package model

import (
	"encoding/json"
	"time"
)

// Webhook statuses
const (
	WebhookStatusReceived  = "received"
	WebhookStatusProcessed = "processed"
	WebhookStatusFailed    = "failed"
)

// DefaultWebhookMaxRetries is the retry ceiling used when a sweep does not
// specify one.
const DefaultWebhookMaxRetries = 3

// Webhook is a recorded inbound provider event. Records are append-only:
// duplicate deliveries from a provider are stored as new rows, never
// deduplicated, so the audit trail keeps every delivery attempt.
type Webhook struct {
	ID           int             `db:"id" json:"id"`
	ClientID     *int            `db:"client_id" json:"client_id,omitempty"`
	Provider     string          `db:"provider" json:"provider"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	ErrorMessage string          `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

func IsValidWebhookStatus(s string) bool {
	switch s {
	case WebhookStatusReceived, WebhookStatusProcessed, WebhookStatusFailed:
		return true
	}
	return false
}

// CanRetry reports whether the webhook is eligible for a retry sweep.
func (w *Webhook) CanRetry(maxRetries int) bool {
	return w.Status == WebhookStatusFailed && w.RetryCount < maxRetries
}

// WebhookStats summarizes webhooks inside a lookback window.
type WebhookStats struct {
	Total                int            `json:"total"`
	ByStatus             map[string]int `json:"by_status"`
	AvgProcessingSeconds float64        `json:"avg_processing_seconds"`
	DaysBack             int            `json:"days_back"`
}
