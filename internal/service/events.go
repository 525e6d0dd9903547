package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/flicky/agri-backoffice/internal/model"
)

// EventPublisher ships workflow events to the audit pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, evt model.Event) error
}

// Notifier publishes best-effort: failures are logged and never surface to
// the workflow that emitted the event. A nil Notifier drops events.
type Notifier struct {
	pub EventPublisher
	log *zap.Logger
}

func NewNotifier(pub EventPublisher, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{pub: pub, log: log}
}

func (n *Notifier) Notify(ctx context.Context, evt model.Event) {
	if n == nil || n.pub == nil {
		return
	}
	if err := n.pub.Publish(ctx, evt); err != nil {
		n.log.Warn("publish event",
			zap.String("type", evt.Type),
			zap.String("entity_id", evt.EntityID),
			zap.Error(err),
		)
	}
}
