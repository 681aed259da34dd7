package coupons

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

func TestClientValidate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/validate-coupon" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true,"discount_amount_cents":500,"message":"ok"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "/validate-coupon", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	verdict, err := client.Validate(context.Background(), ValidationRequest{Code: "OBRA10"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !verdict.Valid || verdict.DiscountCents != 500 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestClientValidateFunctionNotDeployed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "/validate-coupon", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Validate(context.Background(), ValidationRequest{Code: "OBRA10"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("missing deployment must map to dependency error, got %v", err)
	}
}

func TestClientValidateUpstreamFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "/validate-coupon", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Validate(context.Background(), ValidationRequest{Code: "OBRA10"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("  ", "/validate-coupon", time.Second); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
