package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{entries: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key], nil
}

func (s *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; exists {
		return false, nil
	}
	s.entries[key] = fmt.Sprint(value)
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (s *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"call":%d}}`, *calls)
	})
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	t.Parallel()

	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), nil)(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if calls != 1 {
		t.Fatalf("expected handler call, got %d", calls)
	}
}

func TestIdempotencyRequiresKeyOnGuardedRoutes(t *testing.T) {
	t.Parallel()

	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), nil)(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"cep":"01310100"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run without a key, got %d calls", calls)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	t.Parallel()

	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), nil)(countingHandler(&calls))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"cep":"01310100"}`))
	req.Header.Set("Idempotency-Key", "abc-123")
	handler.ServeHTTP(first, req)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"cep":"01310100"}`))
	req.Header.Set("Idempotency-Key", "abc-123")
	handler.ServeHTTP(second, req)

	if calls != 1 {
		t.Fatalf("expected a single handler call, got %d", calls)
	}
	if second.Code != first.Code {
		t.Fatalf("replay status %d != original %d", second.Code, first.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay body %q != original %q", second.Body.String(), first.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	t.Parallel()

	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), nil)(countingHandler(&calls))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"cep":"01310100"}`))
	req.Header.Set("Idempotency-Key", "abc-123")
	handler.ServeHTTP(first, req)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"cep":"99999999"}`))
	req.Header.Set("Idempotency-Key", "abc-123")
	handler.ServeHTTP(second, req)

	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("expected a single handler call, got %d", calls)
	}
}

func TestIdempotencyScopesKeysPerUser(t *testing.T) {
	t.Parallel()

	calls := 0
	handler := Idempotency(newFakeIdempotencyStore(), nil)(countingHandler(&calls))

	for _, user := range []string{"user-a", "user-b"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"cep":"01310100"}`))
		req.Header.Set("Idempotency-Key", "shared-key")
		req = req.WithContext(WithUserID(req.Context(), user))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("user %s: expected 201 got %d", user, resp.Code)
		}
	}

	if calls != 2 {
		t.Fatalf("distinct users must not share idempotency records, got %d calls", calls)
	}
}
