// internal/sms/resolver.go
package sms

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
)

// ActiveCredential is the first auth method that passed the identity check,
// wrapped with the account it authenticated as so callers know which
// signing scheme to use.
type ActiveCredential struct {
	Method  AuthMethod
	Account Account
}

// CredentialResolver picks the currently working auth method before a send.
type CredentialResolver interface {
	Resolve(ctx context.Context) (*ActiveCredential, error)
	// Invalidate drops any cached positive result. Called when an
	// authenticated call comes back 401/403.
	Invalidate()
}

// Resolver probes candidates strictly in priority order and returns the
// first success. No caching across calls.
type Resolver struct {
	Client     *Client
	Candidates []AuthMethod
}

func NewResolver(client *Client, candidates []AuthMethod) *Resolver {
	return &Resolver{Client: client, Candidates: candidates}
}

func (r *Resolver) Resolve(ctx context.Context) (*ActiveCredential, error) {
	// Zero candidates fails immediately, no network call.
	if len(r.Candidates) == 0 {
		return nil, appErrors.NewNoWorkingCredential(nil)
	}

	attempts := []appErrors.CredentialAttempt{}
	for _, method := range r.Candidates {
		account, err := r.Client.CheckIdentity(ctx, method)
		if err != nil {
			attempts = append(attempts, appErrors.CredentialAttempt{
				Method: method.Kind,
				Reason: err.Error(),
			})
			continue
		}
		return &ActiveCredential{Method: method, Account: *account}, nil
	}
	return nil, appErrors.NewNoWorkingCredential(attempts)
}

func (r *Resolver) Invalidate() {}

// CachedResolver keeps a short-TTL positive result so a bulk send does not
// hit the identity endpoint once per recipient. The cache is never trusted
// past its TTL and is dropped explicitly when an authenticated call fails.
type CachedResolver struct {
	Inner CredentialResolver
	TTL   time.Duration

	mu      sync.Mutex
	cached  *ActiveCredential
	expires time.Time
}

func NewCachedResolver(inner CredentialResolver, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedResolver{Inner: inner, TTL: ttl}
}

func (c *CachedResolver) Resolve(ctx context.Context) (*ActiveCredential, error) {
	c.mu.Lock()
	if c.cached != nil && time.Now().Before(c.expires) {
		cred := *c.cached
		c.mu.Unlock()
		return &cred, nil
	}
	c.mu.Unlock()

	cred, err := c.Inner.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cached = cred
	c.expires = time.Now().Add(c.TTL)
	c.mu.Unlock()

	return cred, nil
}

func (c *CachedResolver) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

var (
	_ CredentialResolver = (*Resolver)(nil)
	_ CredentialResolver = (*CachedResolver)(nil)
)
