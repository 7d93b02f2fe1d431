package sms_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	appErrors "github.com/unclebandit/campaign-dispatch/internal/errors"
	"github.com/unclebandit/campaign-dispatch/internal/sms"
)

// staticResolver hands back a fixed credential and records invalidations.
type staticResolver struct {
	invalidations int64
}

func (r *staticResolver) Resolve(ctx context.Context) (*sms.ActiveCredential, error) {
	return &sms.ActiveCredential{
		Method:  sms.AuthMethod{Kind: sms.AuthKindPrimaryToken, Key: "k", Secret: "s"},
		Account: sms.Account{AccountID: "acc-1"},
	}, nil
}

func (r *staticResolver) Invalidate() {
	atomic.AddInt64(&r.invalidations, 1)
}

func TestSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"message_id": "m-42", "status": "queued"}`))
	}))
	defer srv.Close()

	sender := sms.NewSender(sms.NewClient(srv.URL), &staticResolver{})
	result, err := sender.Send(context.Background(), sms.Message{To: "+254700000001", From: "PROMO", Body: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if result.MessageID != "m-42" || result.Status != "queued" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.AuthKind != sms.AuthKindPrimaryToken {
		t.Errorf("result must carry the auth method used, got %q", result.AuthKind)
	}
}

func TestSendProviderRejectedCarriesParsedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "invalid recipient"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := sms.NewSender(sms.NewClient(srv.URL), &staticResolver{})
	_, err := sender.Send(context.Background(), sms.Message{To: "bogus", Body: "hi"})

	var delivery *appErrors.DeliveryError
	if !errors.As(err, &delivery) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if delivery.Kind != appErrors.DeliveryProviderRejected {
		t.Errorf("expected provider_rejected, got %s", delivery.Kind)
	}
	if delivery.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", delivery.StatusCode)
	}
	if delivery.ProviderMessage != "invalid recipient" {
		t.Errorf("expected parsed provider message, got %q", delivery.ProviderMessage)
	}
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	sender := sms.NewSender(sms.NewClient(srv.URL), &staticResolver{})
	_, err := sender.Send(context.Background(), sms.Message{To: "+254700000001", Body: "hi"})

	var delivery *appErrors.DeliveryError
	if !errors.As(err, &delivery) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if delivery.Kind != appErrors.DeliveryTransport {
		t.Errorf("expected transport kind, got %s", delivery.Kind)
	}
}

func TestSendValidatesBeforeAnyNetworkCall(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer srv.Close()

	sender := sms.NewSender(sms.NewClient(srv.URL), &staticResolver{})

	if _, err := sender.Send(context.Background(), sms.Message{To: "", Body: "hi"}); err == nil {
		t.Fatal("expected validation error for missing recipient")
	} else {
		var validation *appErrors.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	}
	if _, err := sender.Send(context.Background(), sms.Message{To: "+254700000001", Body: "  "}); err == nil {
		t.Fatal("expected validation error for empty body")
	}

	if n := atomic.LoadInt64(&hits); n != 0 {
		t.Errorf("validation failures must not reach the provider, got %d hits", n)
	}
}

func TestSendAuthFailureInvalidatesResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "token revoked"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	resolver := &staticResolver{}
	sender := sms.NewSender(sms.NewClient(srv.URL), resolver)

	_, err := sender.Send(context.Background(), sms.Message{To: "+254700000001", Body: "hi"})
	var delivery *appErrors.DeliveryError
	if !errors.As(err, &delivery) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if delivery.ProviderMessage != "token revoked" {
		t.Errorf("expected error field fallback, got %q", delivery.ProviderMessage)
	}
	if atomic.LoadInt64(&resolver.invalidations) != 1 {
		t.Error("a 401 must invalidate the cached credential")
	}
}

func TestCredentialsFromEnvPriorityOrder(t *testing.T) {
	t.Setenv("SMS_API_KEY", "key-1")
	t.Setenv("SMS_API_SECRET", "secret-1")
	t.Setenv("SMS_ACCESS_TOKEN", "token-1")

	candidates := sms.CredentialsFromEnv()
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Kind != sms.AuthKindPrimaryToken {
		t.Errorf("primary-token must come first, got %s", candidates[0].Kind)
	}
	if candidates[1].Kind != sms.AuthKindScopedKey {
		t.Errorf("scoped-key must come second, got %s", candidates[1].Kind)
	}
}
