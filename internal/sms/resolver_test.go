package sms_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
	"github.com/unclebandit/campaign-dispatch/internal/sms"
)

// fakeProvider accepts one basic pair and one bearer token on the identity
// endpoint and counts every hit.
func fakeProvider(t *testing.T, goodKey, goodToken string) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/account" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt64(&hits, 1)

		if user, _, ok := r.BasicAuth(); ok && user == goodKey {
			w.Write([]byte(`{"account_id": "acc-1", "name": "Demo"}`))
			return
		}
		if goodToken != "" && r.Header.Get("Authorization") == "Bearer "+goodToken {
			w.Write([]byte(`{"account_id": "acc-1", "name": "Demo"}`))
			return
		}
		http.Error(w, `{"message": "bad credentials"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestResolveReturnsFirstWorkingCandidate(t *testing.T) {
	srv, hits := fakeProvider(t, "good-key", "good-token")

	// A fails, B succeeds, C would succeed but must never be probed
	candidates := []sms.AuthMethod{
		{Kind: sms.AuthKindPrimaryToken, Key: "stale-key", Secret: "x"},
		{Kind: sms.AuthKindScopedKey, Secret: "good-token"},
		{Kind: sms.AuthKindPrimaryToken, Key: "good-key", Secret: "y"},
	}
	resolver := sms.NewResolver(sms.NewClient(srv.URL), candidates)

	cred, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cred.Method.Kind != sms.AuthKindScopedKey {
		t.Errorf("expected the scoped-key method to win, got %s", cred.Method.Kind)
	}
	if cred.Account.AccountID != "acc-1" {
		t.Errorf("expected resolved account acc-1, got %s", cred.Account.AccountID)
	}
	if n := atomic.LoadInt64(hits); n != 2 {
		t.Errorf("expected exactly 2 identity probes (A then B), got %d", n)
	}
}

func TestResolveCollectsAllAttemptFailures(t *testing.T) {
	srv, _ := fakeProvider(t, "good-key", "")

	candidates := []sms.AuthMethod{
		{Kind: sms.AuthKindPrimaryToken, Key: "bad-1", Secret: "x"},
		{Kind: sms.AuthKindScopedKey, Secret: "bad-2"},
	}
	resolver := sms.NewResolver(sms.NewClient(srv.URL), candidates)

	_, err := resolver.Resolve(context.Background())
	var noCred *appErrors.NoWorkingCredentialError
	if !errors.As(err, &noCred) {
		t.Fatalf("expected NoWorkingCredentialError, got %v", err)
	}
	if len(noCred.Attempts) != 2 {
		t.Fatalf("expected a failure reason per candidate, got %d", len(noCred.Attempts))
	}
	if noCred.Attempts[0].Method != sms.AuthKindPrimaryToken || noCred.Attempts[1].Method != sms.AuthKindScopedKey {
		t.Errorf("attempts must keep candidate order: %+v", noCred.Attempts)
	}
}

func TestResolveZeroCandidatesMakesNoNetworkCall(t *testing.T) {
	srv, hits := fakeProvider(t, "good-key", "")

	resolver := sms.NewResolver(sms.NewClient(srv.URL), nil)
	_, err := resolver.Resolve(context.Background())

	var noCred *appErrors.NoWorkingCredentialError
	if !errors.As(err, &noCred) {
		t.Fatalf("expected NoWorkingCredentialError, got %v", err)
	}
	if n := atomic.LoadInt64(hits); n != 0 {
		t.Errorf("zero candidates must fail without touching the network, got %d hits", n)
	}
}

func TestCachedResolverReusesPositiveResult(t *testing.T) {
	srv, hits := fakeProvider(t, "good-key", "")

	inner := sms.NewResolver(sms.NewClient(srv.URL), []sms.AuthMethod{
		{Kind: sms.AuthKindPrimaryToken, Key: "good-key", Secret: "s"},
	})
	cached := sms.NewCachedResolver(inner, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := cached.Resolve(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt64(hits); n != 1 {
		t.Fatalf("expected a single identity probe for a warm cache, got %d", n)
	}

	// an observed auth failure drops the cache; the next resolve probes again
	cached.Invalidate()
	if _, err := cached.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt64(hits); n != 2 {
		t.Errorf("expected a fresh probe after invalidation, got %d hits", n)
	}
}
