package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitializeSendsMinorUnitsAndStringMetadata(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Errorf("missing secret key header: %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         got["reference"],
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "sk_test")

	result, err := client.Initialize(context.Background(), "a@b.com", "ref-1", 150.5, "http://cb", map[string]any{"userId": 1})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if result.Reference != "ref-1" {
		t.Fatalf("unexpected reference: %s", result.Reference)
	}
	if result.AuthorizationURL == "" {
		t.Fatal("expected authorization url")
	}

	if got["amount"] != float64(15050) {
		t.Fatalf("amount not converted to minor units: %v", got["amount"])
	}
	if _, ok := got["metadata"].(string); !ok {
		t.Fatalf("metadata must be a JSON string, got %T", got["metadata"])
	}
}

func TestInitializeRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "invalid key"})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "sk_test")

	if _, err := client.Initialize(context.Background(), "a@b.com", "ref-1", 100, "http://cb", nil); !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

func TestVerifyReturnsTransactionState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"status":   "success",
				"amount":   250000,
				"metadata": map[string]any{"userId": 3},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "sk_test")

	result, err := client.Verify(context.Background(), "ref-9")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Status != "success" || result.Amount != 250000 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestVerifyGatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "sk_test")

	if _, err := client.Verify(context.Background(), "ref-9"); !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

func TestValidateSignature(t *testing.T) {
	client := NewClient(http.DefaultClient, "http://unused", "sk_test")
	body := []byte(`{"event":"charge.success"}`)

	mac := hmac.New(sha512.New, []byte("sk_test"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	if !client.ValidateSignature(body, valid) {
		t.Fatal("valid signature rejected")
	}
	if !client.ValidateSignature(body, " "+valid+" ") {
		t.Fatal("signature with whitespace rejected")
	}
	if client.ValidateSignature(body, "deadbeef") {
		t.Fatal("forged signature accepted")
	}
	if client.ValidateSignature(body, "") {
		t.Fatal("empty signature accepted")
	}
	if client.ValidateSignature([]byte("tampered"), valid) {
		t.Fatal("signature accepted for tampered body")
	}
}
