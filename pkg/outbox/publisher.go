package outbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/construpro/construpro-backend/pkg/config"
	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
	"github.com/construpro/construpro-backend/pkg/logger"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type publisherRepository interface {
	FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type publisherFactory interface {
	Publisher(name string) *gcppubsub.Publisher
	Ping(context.Context) error
}

// Publisher drains outbox_events into Pub/Sub topics keyed by event type.
type Publisher struct {
	repo         publisherRepository
	pubsub       publisherFactory
	logg         *logger.Logger
	topics       map[enums.OutboxEventType]string
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

// NewPublisher wires the publish loop. Order events and points events go to
// separate topics so downstream consumers subscribe independently.
func NewPublisher(repo publisherRepository, ps publisherFactory, cfg config.Config, logg *logger.Logger) (*Publisher, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if ps == nil {
		return nil, fmt.Errorf("pubsub client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	batchSize := cfg.Outbox.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxAttempts := cfg.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	pollMs := cfg.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}

	return &Publisher{
		repo:   repo,
		pubsub: ps,
		logg:   logg,
		topics: map[enums.OutboxEventType]string{
			enums.EventOrderCreated:   cfg.PubSub.OrdersTopic,
			enums.EventPointsAccrued:  cfg.PubSub.PointsTopic,
			enums.EventPointsAdjusted: cfg.PubSub.PointsTopic,
		},
		batchSize:    batchSize,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run polls until the context is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.pubsub.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping failed: %w", err)
	}

	interval := p.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			p.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := p.processBatch(ctx)
		if err != nil {
			p.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := p.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := p.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch reports progress only when a row was actually published or
// marked failed; a batch of skipped rows must not keep the loop spinning.
func (p *Publisher) processBatch(ctx context.Context) (bool, error) {
	events, err := p.repo.FetchUnpublished(p.batchSize, p.maxAttempts)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return false, nil
	}

	advanced := false
	for _, event := range events {
		if event.AttemptCount >= p.maxAttempts {
			// Exhausted rows stay in the table for manual inspection.
			continue
		}

		fields := map[string]any{
			"outbox_id":      event.ID.String(),
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID.String(),
			"attempt_count":  event.AttemptCount,
		}

		if err := p.publish(ctx, event); err != nil {
			logCtx := p.logg.WithFields(ctx, fields)
			logCtx = p.logg.WithField(logCtx, "error", err.Error())
			p.logg.Warn(logCtx, "outbox publish failed")
			if markErr := p.repo.MarkFailed(event.ID, err); markErr != nil {
				return advanced, fmt.Errorf("mark failure %s: %w", event.ID, markErr)
			}
			advanced = true
			continue
		}

		if markErr := p.repo.MarkPublished(event.ID); markErr != nil {
			return advanced, fmt.Errorf("mark published %s: %w", event.ID, markErr)
		}
		advanced = true
		p.logg.Info(p.logg.WithFields(ctx, fields), "outbox event published")
	}
	return advanced, nil
}

func (p *Publisher) publish(ctx context.Context, event models.OutboxEvent) error {
	topic, ok := p.topics[event.EventType]
	if !ok || topic == "" {
		return fmt.Errorf("no topic configured for event type %s", event.EventType)
	}
	pub := p.pubsub.Publisher(topic)
	if pub == nil {
		return fmt.Errorf("publisher not available for topic %s", topic)
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("publisher returned nil for topic %s", topic)
	}
	if _, err := result.Get(publishCtx); err != nil {
		return err
	}
	return nil
}

func (p *Publisher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
