// Package outbox publishes events that services committed alongside their
// writes.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/metrics"
	"opsboard-services/internal/queue"
	"opsboard-services/internal/store"

	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.OutboxEvent) error
}

// QueuePublisher sends events to the events exchange, keyed by event type.
type QueuePublisher struct {
	Client *queue.Client
}

func (p QueuePublisher) Publish(ctx context.Context, event domain.OutboxEvent) error {
	return p.Client.PublishJSON(ctx, queue.EventsExchange, event.Type, event.ID, queue.EventFromOutbox(event))
}

// LocalPublisher hands events straight to an in-process handler. Used when
// no broker is configured.
type LocalPublisher struct {
	Handler queue.HandlerFunc
}

func (p LocalPublisher) Publish(ctx context.Context, event domain.OutboxEvent) error {
	body, err := json.Marshal(queue.EventFromOutbox(event))
	if err != nil {
		return err
	}
	return p.Handler(ctx, body)
}

type Relay struct {
	store     store.Store
	publisher Publisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
	interval  time.Duration
	batch     int
}

func NewRelay(st store.Store, publisher Publisher, logger *zap.Logger, m *metrics.Metrics, interval time.Duration, batch int) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Relay{
		store:     st,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		interval:  interval,
		batch:     batch,
	}
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("outbox drain failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Drain publishes one batch of pending events and reports how many went out.
// Failed events keep their pending state and are retried on the next pass.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	events, err := r.store.PendingEvents(ctx, r.batch)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, evt := range events {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		if err := r.publisher.Publish(ctx, evt); err != nil {
			r.metrics.OutboxResult("failed")
			r.logger.Warn("outbox publish failed",
				zap.String("eventId", evt.ID),
				zap.String("type", evt.Type),
				zap.Int32("attempts", evt.Attempts+1),
				zap.Error(err),
			)
			if markErr := r.store.MarkEventFailed(ctx, evt.ID); markErr != nil {
				r.logger.Error("outbox mark failed", zap.String("eventId", evt.ID), zap.Error(markErr))
			}
			continue
		}
		if err := r.store.MarkEventPublished(ctx, evt.ID); err != nil {
			// The event will be published again; consumers must tolerate duplicates.
			r.logger.Error("outbox mark published failed", zap.String("eventId", evt.ID), zap.Error(err))
			continue
		}
		r.metrics.OutboxResult("published")
		published++
	}
	return published, nil
}
