// internal/sms/client.go
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Auth method kinds, in the order the provider documents them
const (
	AuthKindPrimaryToken = "primary-token" // api key + secret over HTTP Basic
	AuthKindScopedKey    = "scoped-key"    // access token over Bearer
)

// AuthMethod is one (principal, secret) pair tagged by kind. CredentialSets
// are read-only configuration, safe for unsynchronized concurrent reads.
type AuthMethod struct {
	Kind   string
	Key    string
	Secret string
}

func (m AuthMethod) apply(req *http.Request) {
	switch m.Kind {
	case AuthKindScopedKey:
		req.Header.Set("Authorization", "Bearer "+m.Secret)
	default:
		req.SetBasicAuth(m.Key, m.Secret)
	}
}

// CredentialsFromEnv builds the candidate list from the known credential
// env keys, in priority order. An explicit registry of kinds, never a scan
// of arbitrary environment variables.
func CredentialsFromEnv() []AuthMethod {
	candidates := []AuthMethod{}
	if key := os.Getenv("SMS_API_KEY"); key != "" {
		candidates = append(candidates, AuthMethod{
			Kind:   AuthKindPrimaryToken,
			Key:    key,
			Secret: os.Getenv("SMS_API_SECRET"),
		})
	}
	if token := os.Getenv("SMS_ACCESS_TOKEN"); token != "" {
		candidates = append(candidates, AuthMethod{
			Kind:   AuthKindScopedKey,
			Secret: token,
		})
	}
	return candidates
}

// Account is the provider's identity-check response schema.
type Account struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
}

// Client talks to the SMS provider HTTP API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CheckIdentity probes the provider's lightweight account-lookup endpoint
// with one auth method. The method succeeds iff the endpoint answers 200
// and the body parses as the expected account schema.
func (c *Client) CheckIdentity(ctx context.Context, method AuthMethod) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/account", nil)
	if err != nil {
		return nil, err
	}
	method.apply(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("identity check returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("identity check returned unexpected body: %w", err)
	}
	if account.AccountID == "" {
		return nil, fmt.Errorf("identity check response missing account_id")
	}
	return &account, nil
}

// PostMessage issues the provider send request with the given auth method.
// Interpreting the response is the dispatcher's job.
func (c *Client) PostMessage(ctx context.Context, method AuthMethod, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	method.apply(req)
	return c.HTTP.Do(req)
}
