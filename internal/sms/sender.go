// internal/sms/sender.go
package sms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
)

// Message is one outbound SMS.
type Message struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

// DeliveryResult is the provider's acknowledgement of a single send.
type DeliveryResult struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	// AuthKind records which auth method carried the send
	AuthKind string `json:"auth_kind"`
}

// Sender dispatches a single outbound message using the resolved
// credential. It never retries on its own; the campaign driver and the
// webhook manager retry per their own policies.
type Sender struct {
	Client   *Client
	Resolver CredentialResolver
}

func NewSender(client *Client, resolver CredentialResolver) *Sender {
	return &Sender{Client: client, Resolver: resolver}
}

func (s *Sender) Send(ctx context.Context, msg Message) (*DeliveryResult, error) {
	// Reject before any network call
	if strings.TrimSpace(msg.To) == "" {
		return nil, appErrors.NewValidation("to", "recipient is required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return nil, appErrors.NewValidation("body", "message body is required")
	}

	cred, err := s.Resolver.Resolve(ctx)
	if err != nil {
		// NoWorkingCredential propagates as-is, distinct from delivery failure
		return nil, err
	}

	resp, err := s.Client.PostMessage(ctx, cred.Method, msg)
	if err != nil {
		return nil, appErrors.NewTransportDelivery(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, appErrors.NewTransportDelivery(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			// the cached credential stopped working mid-run
			s.Resolver.Invalidate()
		}
		return nil, appErrors.NewProviderRejected(resp.StatusCode, providerMessage(body))
	}

	result := &DeliveryResult{AuthKind: cred.Method.Kind}
	if err := json.Unmarshal(body, result); err != nil {
		// 2xx with an unparseable body still counts as accepted
		result.Status = "accepted"
	}
	if result.Status == "" {
		result.Status = "accepted"
	}
	return result, nil
}

// providerMessage pulls the human-readable error out of the provider body
// when it parses, otherwise falls back to the raw response text.
func providerMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(body))
}
