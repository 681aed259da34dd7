package points

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
	"github.com/construpro/construpro-backend/pkg/outbox"
)

type fakeSubmissionStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{keys: make(map[string]string)}
}

func (f *fakeSubmissionStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = "inflight"
	return true, nil
}

func (f *fakeSubmissionStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func (f *fakeSubmissionStore) PointsSubmissionKey(userID, token string) string {
	return "cp:points:" + userID + ":" + token
}

type fakeAdjuster struct {
	response *AdjustResponse
	err      error
	calls    int
	block    chan struct{}
}

func (f *fakeAdjuster) AdjustPoints(ctx context.Context, req AdjustRequest) (*AdjustResponse, error) {
	f.calls++
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type passthroughTxRunner struct{}

func (passthroughTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newPointsTestService(t *testing.T, store *fakeSubmissionStore, client *fakeAdjuster, emitter *fakeEmitter) Service {
	t.Helper()
	svc, err := NewService(store, client, emitter, passthroughTxRunner{}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSubmitAccruesPoints(t *testing.T) {
	t.Parallel()

	store := newFakeSubmissionStore()
	client := &fakeAdjuster{response: &AdjustResponse{Success: true, BalancePoints: 150}}
	emitter := &fakeEmitter{}
	svc := newPointsTestService(t, store, client, emitter)

	result, err := svc.Submit(context.Background(), uuid.New(), SubmitInput{
		Token:  svc.NewToken(),
		Points: 50,
		Reason: "order completed",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.BalancePoints != 150 {
		t.Fatalf("unexpected balance: %d", result.BalancePoints)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventPointsAccrued {
		t.Fatalf("positive adjustment must emit accrual event: %+v", emitter.events)
	}
}

func TestSubmitNegativeAdjustmentEmitsAdjustedEvent(t *testing.T) {
	t.Parallel()

	store := newFakeSubmissionStore()
	client := &fakeAdjuster{response: &AdjustResponse{Success: true, BalancePoints: 20}}
	emitter := &fakeEmitter{}
	svc := newPointsTestService(t, store, client, emitter)

	_, err := svc.Submit(context.Background(), uuid.New(), SubmitInput{
		Token:  svc.NewToken(),
		Points: -30,
		Reason: "return processed",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventPointsAdjusted {
		t.Fatalf("negative adjustment must emit adjusted event: %+v", emitter.events)
	}
}

func TestSubmitRejectsReusedToken(t *testing.T) {
	t.Parallel()

	store := newFakeSubmissionStore()
	client := &fakeAdjuster{response: &AdjustResponse{Success: true}}
	svc := newPointsTestService(t, store, client, &fakeEmitter{})

	userID := uuid.New()
	token := svc.NewToken()
	input := SubmitInput{Token: token, Points: 10, Reason: "bonus"}

	if _, err := svc.Submit(context.Background(), userID, input); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	_, err := svc.Submit(context.Background(), userID, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeIdempotency {
		t.Fatalf("reused token must be rejected, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("function must not be called twice, got %d calls", client.calls)
	}
}

func TestSubmitReleasesTokenOnTransportFailure(t *testing.T) {
	t.Parallel()

	store := newFakeSubmissionStore()
	client := &fakeAdjuster{err: pkgerrors.New(pkgerrors.CodeNetwork, "connection refused")}
	svc := newPointsTestService(t, store, client, &fakeEmitter{})

	userID := uuid.New()
	token := svc.NewToken()
	input := SubmitInput{Token: token, Points: 10, Reason: "bonus"}

	if _, err := svc.Submit(context.Background(), userID, input); err == nil {
		t.Fatal("expected transport failure")
	}

	client.err = nil
	client.response = &AdjustResponse{Success: true}
	if _, err := svc.Submit(context.Background(), userID, input); err != nil {
		t.Fatalf("retry with same token after transport failure must succeed: %v", err)
	}
}

func TestSubmitSingleInFlightPerUser(t *testing.T) {
	t.Parallel()

	store := newFakeSubmissionStore()
	client := &fakeAdjuster{
		response: &AdjustResponse{Success: true},
		block:    make(chan struct{}),
	}
	svc := newPointsTestService(t, store, client, &fakeEmitter{})

	userID := uuid.New()
	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), userID, SubmitInput{
			Token:  svc.NewToken(),
			Points: 10,
			Reason: "bonus",
		})
		firstDone <- err
	}()

	// Wait for the first submission to reach the blocked function call.
	deadline := time.After(2 * time.Second)
	for client.calls == 0 {
		select {
		case <-deadline:
			t.Fatal("first submission never reached the function")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	_, err := svc.Submit(context.Background(), userID, SubmitInput{
		Token:  svc.NewToken(),
		Points: 5,
		Reason: "bonus",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("second concurrent submission must be rejected, got %v", err)
	}

	close(client.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first submission: %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	svc := newPointsTestService(t, newFakeSubmissionStore(), &fakeAdjuster{}, &fakeEmitter{})

	cases := []SubmitInput{
		{Points: 10, Reason: "bonus"},   // missing token
		{Token: "tok", Reason: "bonus"}, // zero points
		{Token: "tok", Points: 10},      // missing reason
	}
	for _, input := range cases {
		_, err := svc.Submit(context.Background(), uuid.New(), input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestSubmitSurfacesFunctionRejection(t *testing.T) {
	t.Parallel()

	client := &fakeAdjuster{response: &AdjustResponse{Success: false, Message: "saldo insuficiente"}}
	svc := newPointsTestService(t, newFakeSubmissionStore(), client, &fakeEmitter{})

	_, err := svc.Submit(context.Background(), uuid.New(), SubmitInput{
		Token:  svc.NewToken(),
		Points: -100,
		Reason: "redeem",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "saldo insuficiente" {
		t.Fatalf("rejection message must surface verbatim, got %v", err)
	}
}
