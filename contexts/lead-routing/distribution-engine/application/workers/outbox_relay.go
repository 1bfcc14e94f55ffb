package workers

import (
	"context"
	"log/slog"
	"time"

	application "lares/contexts/lead-routing/distribution-engine/application"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

const defaultAuditTopic = "distribution.audit"

// OutboxRelay publishes queued audit/state-transition events to the bus.
// Rows stay pending until publish succeeds, so delivery is at-least-once and
// consumers dedupe on event_id.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = defaultAuditTopic
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("distribution outbox list pending failed",
			"event", "distribution_outbox_list_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, message := range pending {
		envelope := ports.EventEnvelope{
			EventID:      message.OutboxID,
			EventType:    message.EventType,
			PartitionKey: message.PartitionKey,
			OccurredAt:   message.CreatedAt,
			Data:         message.Payload,
		}
		if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("distribution outbox publish failed",
				"event", "distribution_outbox_publish_failed",
				"module", "lead-routing/distribution-engine",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_type", message.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, message.OutboxID, now); err != nil {
			logger.Error("distribution outbox mark published failed",
				"event", "distribution_outbox_mark_published_failed",
				"module", "lead-routing/distribution-engine",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}
	return nil
}
