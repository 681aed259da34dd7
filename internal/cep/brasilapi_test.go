package cep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

func TestBrasilAPIFetchSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/39685000" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cep":"39685000","state":"MG","city":"Virgolândia","neighborhood":"","street":""}`))
	}))
	defer server.Close()

	client := NewBrasilAPIClient(WithBrasilAPIBaseURL(server.URL))
	addr, err := client.Fetch(context.Background(), "39685000")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if addr.City != "Virgolândia" || addr.State != "MG" {
		t.Errorf("unexpected address: %+v", addr)
	}
}

func TestBrasilAPIFetchNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Todos os serviços de CEP retornaram erro."}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewBrasilAPIClient(WithBrasilAPIBaseURL(server.URL))
	_, err := client.Fetch(context.Background(), "99999999")
	if err == nil {
		t.Fatalf("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Errorf("expected not found code, got %v", err)
	}
}

func TestBrasilAPIFetchIncompletePayloadIsUpstream(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cep":"39685000"}`))
	}))
	defer server.Close()

	client := NewBrasilAPIClient(WithBrasilAPIBaseURL(server.URL))
	_, err := client.Fetch(context.Background(), "39685000")
	if err == nil {
		t.Fatalf("expected upstream error for incomplete payload")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUpstream {
		t.Errorf("expected upstream code, got %v", err)
	}
}
