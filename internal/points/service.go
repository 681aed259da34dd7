package points

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
	"github.com/construpro/construpro-backend/pkg/outbox"
)

const submissionTTL = 24 * time.Hour

type submissionStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	PointsSubmissionKey(userID, token string) string
}

type adjuster interface {
	AdjustPoints(ctx context.Context, req AdjustRequest) (*AdjustResponse, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubmitInput is one points adjustment. Token must come from NewToken and is
// never reused: a repeat submission with the same token is rejected, a retry
// after failure needs the same token to slip past the dedup window only when
// the first attempt never reached the function.
type SubmitInput struct {
	Token   string
	Points  int64
	Reason  string
	OrderID *uuid.UUID
}

// SubmitResult reports the accepted adjustment.
type SubmitResult struct {
	Token         string `json:"token"`
	Points        int64  `json:"points"`
	BalancePoints int64  `json:"balance_points"`
}

// Service guards points submissions: one in-flight submission per user, one
// use per token, then the external function does the actual accounting.
type Service interface {
	NewToken() string
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*SubmitResult, error)
}

type service struct {
	store  submissionStore
	client adjuster
	events eventEmitter
	tx     txRunner
	logg   *logger.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool
}

// NewService wires the points submission service.
func NewService(store submissionStore, client adjuster, events eventEmitter, tx txRunner, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("submission store required")
	}
	if client == nil {
		return nil, fmt.Errorf("points client required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:    store,
		client:   client,
		events:   events,
		tx:       tx,
		logg:     logg,
		inFlight: make(map[uuid.UUID]bool),
	}, nil
}

// NewToken mints a submission token. Clients fetch one before each
// submission; the token never survives the submission it was minted for.
func (s *service) NewToken() string {
	return uuid.NewString()
}

func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*SubmitResult, error) {
	if input.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission token required")
	}
	if input.Points == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points adjustment cannot be zero")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason required")
	}

	if err := s.acquire(userID); err != nil {
		return nil, err
	}
	defer s.release(userID)

	key := s.store.PointsSubmissionKey(userID.String(), input.Token)
	fresh, err := s.store.SetNX(ctx, key, "inflight", submissionTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "points dedup store unavailable")
	}
	if !fresh {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "submission token already used")
	}

	orderID := ""
	if input.OrderID != nil {
		orderID = input.OrderID.String()
	}
	verdict, err := s.client.AdjustPoints(ctx, AdjustRequest{
		UserID:  userID.String(),
		Points:  input.Points,
		Reason:  input.Reason,
		OrderID: orderID,
		Token:   input.Token,
	})
	if err != nil {
		// The function never saw this token; free it so a retry can reuse it.
		if delErr := s.store.Del(ctx, key); delErr != nil {
			s.logg.Error(ctx, "failed to release points submission token", delErr)
		}
		return nil, err
	}
	if !verdict.Success {
		message := verdict.Message
		if message == "" {
			message = "ajuste de pontos recusado"
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, message)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		eventType := enums.EventPointsAdjusted
		if input.Points > 0 {
			eventType = enums.EventPointsAccrued
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePointsAdjustment,
			AggregateID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(input.Token)),
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: map[string]any{
				"user_id": userID,
				"points":  input.Points,
				"reason":  input.Reason,
				"token":   input.Token,
			},
		})
	})
	if err != nil {
		// The adjustment itself went through; losing the event is log-worthy
		// but must not read as a failed submission.
		s.logg.Error(ctx, "points adjustment succeeded but event emission failed", err)
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "points adjustment accepted")
	return &SubmitResult{
		Token:         input.Token,
		Points:        input.Points,
		BalancePoints: verdict.BalancePoints,
	}, nil
}

// acquire moves the user's submission gate from idle to in-flight.
func (s *service) acquire(userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[userID] {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "another points submission is in flight")
	}
	s.inFlight[userID] = true
	return nil
}

func (s *service) release(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}
