// internal/errors/errors.go
package appErrors

import (
	"fmt"
	"strings"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrExecutionNotFound means the referenced campaign execution does not exist
type ErrExecutionNotFound struct {
	ExecutionID int
}

func (e *ErrExecutionNotFound) Error() string {
	return fmt.Sprintf("campaign execution with ID %d not found", e.ExecutionID)
}

func NewExecutionNotFound(id int) error {
	return &ErrExecutionNotFound{ExecutionID: id}
}

// ErrWebhookNotFound means the referenced webhook does not exist
type ErrWebhookNotFound struct {
	WebhookID int
}

func (e *ErrWebhookNotFound) Error() string {
	return fmt.Sprintf("webhook with ID %d not found", e.WebhookID)
}

func NewWebhookNotFound(id int) error {
	return &ErrWebhookNotFound{WebhookID: id}
}

// ValidationError is rejected before any network or DB call is made
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// CredentialAttempt records why one candidate auth method failed
type CredentialAttempt struct {
	Method string `json:"method"`
	Reason string `json:"reason"`
}

// NoWorkingCredentialError means every candidate auth method failed the
// provider identity check. It carries the failure reason of each attempt,
// not just the last one, so callers get the full diagnostic set.
type NoWorkingCredentialError struct {
	Attempts []CredentialAttempt
}

func (e *NoWorkingCredentialError) Error() string {
	if len(e.Attempts) == 0 {
		return "no working credential: no auth methods configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Method, a.Reason))
	}
	return "no working credential: " + strings.Join(parts, "; ")
}

func NewNoWorkingCredential(attempts []CredentialAttempt) error {
	return &NoWorkingCredentialError{Attempts: attempts}
}

// DeliveryErrorKind distinguishes a network failure from an explicit
// provider rejection
type DeliveryErrorKind string

const (
	DeliveryTransport        DeliveryErrorKind = "transport"
	DeliveryProviderRejected DeliveryErrorKind = "provider_rejected"
)

// DeliveryError is returned by the dispatcher when a send attempt fails.
// Retry policy belongs to the caller, not the dispatcher.
type DeliveryError struct {
	Kind            DeliveryErrorKind
	StatusCode      int
	ProviderMessage string
	Err             error
}

func (e *DeliveryError) Error() string {
	if e.Kind == DeliveryTransport {
		return fmt.Sprintf("delivery transport failure: %v", e.Err)
	}
	return fmt.Sprintf("provider rejected send (HTTP %d): %s", e.StatusCode, e.ProviderMessage)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func NewTransportDelivery(err error) error {
	return &DeliveryError{Kind: DeliveryTransport, Err: err}
}

func NewProviderRejected(statusCode int, message string) error {
	return &DeliveryError{Kind: DeliveryProviderRejected, StatusCode: statusCode, ProviderMessage: message}
}
