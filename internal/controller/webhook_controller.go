// internal/controller/webhook_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/campaign-dispatch/internal/service"
)

type WebhookController struct {
	WebhookService *service.WebhookService
}

// LogEvent records an inbound provider callback. The payload stays an
// opaque blob; only the envelope is typed.
func (c *WebhookController) LogEvent(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var body struct {
		EventType string          `json:"event_type"`
		ClientID  *int            `json:"client_id"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	hook, err := c.WebhookService.LogWebhookEvent(body.ClientID, provider, body.EventType, body.Payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(hook)
}

func (c *WebhookController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, _ := strconv.Atoi(idStr)

	var body struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	hook, err := c.WebhookService.UpdateWebhookStatus(id, body.Status, body.ErrorMessage)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(hook)
}

func (c *WebhookController) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get("event_type")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	hooks, err := c.WebhookService.GetWebhooksByEvent(eventType, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  hooks,
		"count": len(hooks),
	})
}

func (c *WebhookController) ListFailed(w http.ResponseWriter, r *http.Request) {
	clientID := optionalIntParam(r, "client_id")

	hooks, err := c.WebhookService.GetFailedWebhooks(clientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  hooks,
		"count": len(hooks),
	})
}

func (c *WebhookController) Retry(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MaxRetries int  `json:"max_retries"`
		ClientID   *int `json:"client_id"`
	}
	// an empty body means defaults
	_ = json.NewDecoder(r.Body).Decode(&body)

	result, err := c.WebhookService.RetryFailedWebhooks(body.ClientID, body.MaxRetries)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(result)
}

func (c *WebhookController) Stats(w http.ResponseWriter, r *http.Request) {
	clientID := optionalIntParam(r, "client_id")
	daysBack, _ := strconv.Atoi(r.URL.Query().Get("days_back"))

	stats, err := c.WebhookService.GetWebhookStats(clientID, daysBack)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(stats)
}

func optionalIntParam(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
