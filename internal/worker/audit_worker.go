package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/repository"
)

const idempotencyTTL = 24 * time.Hour

// Deduplicator remembers which events have already been written.
type Deduplicator interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

type redisDeduplicator struct {
	client *redis.Client
}

func NewRedisDeduplicator(client *redis.Client) Deduplicator {
	return &redisDeduplicator{client: client}
}

func (d *redisDeduplicator) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *redisDeduplicator) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return d.client.Set(ctx, key, "1", ttl).Err()
}

type AuditWorker struct {
	channel *amqp.Channel
	audit   repository.AuditRepository
	dedup   Deduplicator
	log     *zap.Logger
	done    chan struct{}
}

func NewAuditWorker(
	ch *amqp.Channel,
	audit repository.AuditRepository,
	dedup Deduplicator,
	log *zap.Logger,
) *AuditWorker {
	return &AuditWorker{
		channel: ch,
		audit:   audit,
		dedup:   dedup,
		log:     log,
		done:    make(chan struct{}),
	}
}

func (w *AuditWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(auditQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("audit worker started", zap.String("queue", auditQueueName))
	return nil
}

func (w *AuditWorker) Stop() { close(w.done) }

func (w *AuditWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var evt model.Event
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		w.log.Error("unmarshal event", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With(
		zap.String("event_id", evt.ID.String()),
		zap.String("type", evt.Type),
		zap.String("entity_id", evt.EntityID),
	)

	key := "audit_processed:" + evt.ID.String()
	seen, err := w.dedup.Seen(ctx, key)
	if err != nil {
		log.Error("check idempotency key", zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("event already recorded, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.audit.Insert(ctx, toAuditEntry(evt)); err != nil {
		log.Error("record audit entry", zap.Error(err))
		_ = msg.Nack(false, false) // -> DLQ
		return
	}

	if err := w.dedup.Mark(ctx, key, idempotencyTTL); err != nil {
		log.Error("set idempotency key", zap.Error(err))
	}

	_ = msg.Ack(false)
	log.Info("audit entry recorded")
}

func toAuditEntry(evt model.Event) *model.AuditEntry {
	created := evt.OccurredAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return &model.AuditEntry{
		EventID:    evt.ID,
		Action:     evt.Type,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		Data:       evt.Data,
		CreatedAt:  created,
	}
}
