package queue

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/unclebandit/campaign-dispatch/internal/model"
	"github.com/unclebandit/campaign-dispatch/internal/repository"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process pub/sub with bounded retry
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// WebhookProcessTopic carries ids of webhooks waiting for a processing pass.
// The retry sweep only marks failed webhooks eligible again; this subscriber
// is the separate pass that actually runs them.
const WebhookProcessTopic = "webhook_process"

// ProcessorFunc runs the provider-specific side effect for one webhook.
type ProcessorFunc func(w *model.Webhook) error

// StartWebhookProcessSubscriber wires the processing pass: for each queued
// webhook id it looks the record up, runs the processor registered for its
// provider, and marks the webhook processed or failed. A webhook whose
// provider has no registered processor is acknowledged as processed — the
// record itself is the audit trail.
func StartWebhookProcessSubscriber(q Queue, repo repository.WebhookRepositoryInterface, processors map[string]ProcessorFunc) {
	go func() {
		err := q.Subscribe(WebhookProcessTopic, func(payload any) error {
			webhookID, ok := payload.(int)
			if !ok {
				log.Println("⚠️ Invalid payload type, expected int")
				return nil // no retry
			}

			hook, err := repo.GetByID(webhookID)
			if err != nil {
				log.Println("⚠️ Failed to fetch webhook:", err)
				return err
			}
			if hook.Status != model.WebhookStatusReceived {
				// already handled by another pass
				return nil
			}

			processor := processors[hook.Provider]
			if processor != nil {
				if perr := processor(hook); perr != nil {
					log.Printf("⚠️ Webhook %d processing failed: %v\n", webhookID, perr)
					if _, uerr := repo.UpdateStatus(webhookID, model.WebhookStatusFailed, perr.Error()); uerr != nil {
						return uerr
					}
					return nil // recorded as failed; the retry sweep owns the rest
				}
			}

			if _, err := repo.UpdateStatus(webhookID, model.WebhookStatusProcessed, ""); err != nil {
				log.Println("⚠️ Failed to update webhook status:", err)
				return err
			}
			return nil
		})

		if err != nil {
			log.Println("⚠️ Failed to start subscriber for", WebhookProcessTopic, ":", err)
		}
	}()
}
