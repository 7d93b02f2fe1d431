// internal/service/webhook_service.go
package service

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
	"github.com/unclebandit/campaign-dispatch/internal/model"
	"github.com/unclebandit/campaign-dispatch/internal/queue"
	"github.com/unclebandit/campaign-dispatch/internal/repository"
)

// WebhookService records inbound provider events and manages the retry
// sweep over failed ones.
type WebhookService struct {
	WebhookRepo repository.WebhookRepositoryInterface
	// Queue, when set, receives each logged webhook id for the in-process
	// processing pass
	Queue queue.Queue
}

// RetrySweepItem is the outcome of the retry transition itself for one
// webhook, not of the later redelivery.
type RetrySweepItem struct {
	WebhookID int    `json:"webhook_id"`
	Retried   bool   `json:"retried"`
	Error     string `json:"error,omitempty"`
}

// RetrySweepResult summarizes one sweep over failed webhooks.
type RetrySweepResult struct {
	Attempted int              `json:"attempted"`
	Retried   int              `json:"retried"`
	Skipped   int              `json:"skipped"`
	Exhausted int              `json:"exhausted"` // at the retry ceiling, excluded from the sweep
	Items     []RetrySweepItem `json:"items"`
}

// LogWebhookEvent records an inbound provider event as received. Duplicate
// deliveries are accepted as new records; dedup is the consumer's problem.
func (s *WebhookService) LogWebhookEvent(clientID *int, provider, eventType string, payload json.RawMessage) (*model.Webhook, error) {
	if strings.TrimSpace(provider) == "" {
		return nil, appErrors.NewValidation("provider", "provider tag is required")
	}
	if strings.TrimSpace(eventType) == "" {
		return nil, appErrors.NewValidation("event_type", "event type is required")
	}

	w := &model.Webhook{
		ClientID:  clientID,
		Provider:  provider,
		EventType: eventType,
		Payload:   payload,
		Status:    model.WebhookStatusReceived,
	}
	if err := s.WebhookRepo.Create(w); err != nil {
		return nil, err
	}

	if s.Queue != nil {
		if err := s.Queue.Publish(queue.WebhookProcessTopic, w.ID); err != nil {
			// the record is stored either way, but stays received until a
			// processor marks it; the sweep only revisits failed webhooks
			log.Println("⚠️ failed to enqueue webhook for processing:", err)
		}
	}
	return w, nil
}

// UpdateWebhookStatus marks a webhook processed or failed for this attempt.
// Moving back to received is the retry sweep's transition; it has to go
// through MarkRetry so the retry_count increment is never skipped.
func (s *WebhookService) UpdateWebhookStatus(id int, status, errorMessage string) (*model.Webhook, error) {
	if !model.IsValidWebhookStatus(status) {
		return nil, appErrors.NewValidation("status", fmt.Sprintf("unknown status %q", status))
	}
	if status == model.WebhookStatusReceived {
		return nil, appErrors.NewValidation("status", "cannot move a webhook back to received directly; use the retry sweep")
	}
	return s.WebhookRepo.UpdateStatus(id, status, errorMessage)
}

func (s *WebhookService) MarkProcessed(id int) (*model.Webhook, error) {
	return s.WebhookRepo.UpdateStatus(id, model.WebhookStatusProcessed, "")
}

func (s *WebhookService) MarkFailed(id int, errorMessage string) (*model.Webhook, error) {
	return s.WebhookRepo.UpdateStatus(id, model.WebhookStatusFailed, errorMessage)
}

// GetWebhooksByEvent lists webhooks for one event type, newest first.
func (s *WebhookService) GetWebhooksByEvent(eventType string, limit int) ([]*model.Webhook, error) {
	if strings.TrimSpace(eventType) == "" {
		return nil, appErrors.NewValidation("event_type", "event type is required")
	}
	return s.WebhookRepo.ListByEvent(eventType, limit)
}

// GetFailedWebhooks lists failed webhooks still eligible for retry,
// optionally scoped to a client.
func (s *WebhookService) GetFailedWebhooks(clientID *int) ([]*model.Webhook, error) {
	return s.WebhookRepo.ListFailed(clientID, model.DefaultWebhookMaxRetries)
}

// RetryFailedWebhooks transitions failed webhooks under the ceiling back to
// received, incrementing retry_count and clearing error_message. It only
// marks eligibility; redelivery happens on a subsequent processing pass.
func (s *WebhookService) RetryFailedWebhooks(clientID *int, maxRetries int) (*RetrySweepResult, error) {
	if maxRetries <= 0 {
		maxRetries = model.DefaultWebhookMaxRetries
	}

	eligible, err := s.WebhookRepo.ListFailed(clientID, maxRetries)
	if err != nil {
		return nil, err
	}
	exhausted, err := s.WebhookRepo.CountFailedAtCeiling(clientID, maxRetries)
	if err != nil {
		return nil, err
	}

	result := &RetrySweepResult{
		Exhausted: exhausted,
		Items:     make([]RetrySweepItem, 0, len(eligible)),
	}
	for _, w := range eligible {
		result.Attempted++
		ok, err := s.WebhookRepo.MarkRetry(w.ID, maxRetries)
		item := RetrySweepItem{WebhookID: w.ID, Retried: ok}
		switch {
		case err != nil:
			item.Error = err.Error()
		case !ok:
			// a concurrent sweep or processor got there first
			result.Skipped++
		default:
			result.Retried++
			if s.Queue != nil {
				if perr := s.Queue.Publish(queue.WebhookProcessTopic, w.ID); perr != nil {
					log.Println("⚠️ failed to enqueue retried webhook:", perr)
				}
			}
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

// GetWebhookStats returns totals by status and the average processing
// latency over webhooks processed inside the lookback window (default 30
// days).
func (s *WebhookService) GetWebhookStats(clientID *int, daysBack int) (*model.WebhookStats, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	return s.WebhookRepo.Stats(clientID, daysBack)
}
