// internal/handler/notifier_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/unclebandit/campaign-dispatch/internal/service"
)

// NotifierHandler exposes the progress notifier schedule over HTTP.
type NotifierHandler struct {
	Notifier *service.ProgressNotifier
}

func NewNotifierHandler(notifier *service.ProgressNotifier) *NotifierHandler {
	return &NotifierHandler{Notifier: notifier}
}

// StartHandler installs (or replaces) the periodic progress summary.
func (h *NotifierHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IntervalSeconds int `json:"interval_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if payload.IntervalSeconds < 1 {
		http.Error(w, "interval_seconds must be at least 1", http.StatusBadRequest)
		return
	}

	h.Notifier.Start(time.Duration(payload.IntervalSeconds) * time.Second)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"running":          true,
		"interval_seconds": payload.IntervalSeconds,
	})
}

// StopHandler cancels the schedule; stopping an idle notifier is fine.
func (h *NotifierHandler) StopHandler(w http.ResponseWriter, r *http.Request) {
	h.Notifier.Stop()

	json.NewEncoder(w).Encode(map[string]interface{}{
		"running": false,
	})
}

func (h *NotifierHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"running": h.Notifier.IsRunning(),
	})
}
