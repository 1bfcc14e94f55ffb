package commands

import (
	"context"
	"encoding/json"

	application "lares/contexts/lead-routing/distribution-engine/application"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

const (
	EventQueueStarted    = "distribution.queue.started"
	EventAttemptCreated  = "distribution.attempt.created"
	EventAttemptResolved = "distribution.attempt.resolved"
	EventQueueCompleted  = "distribution.queue.completed"
	EventQueueFailed     = "distribution.queue.failed"
	EventQueueCancelled  = "distribution.queue.cancelled"
	EventAdminFallback   = "distribution.admin_fallback"
)

// appendEvent records one audit/state-transition event in the outbox.
// Outbox failures are logged but never abort the state change that already
// committed; the relay worker owns delivery.
func (uc UseCase) appendEvent(ctx context.Context, eventType, queueID string, payload map[string]any) {
	if uc.Outbox == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("distribution audit event marshal failed",
			"event", "distribution_audit_marshal_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"event_type", eventType,
			"queue_id", queueID,
			"error", err.Error(),
		)
		return
	}
	eventID := ""
	if uc.IDGen != nil {
		if id, err := uc.IDGen.NewID(ctx); err == nil {
			eventID = id
		}
	}
	envelope := ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "lead-routing/distribution-engine",
		SchemaVersion: 1,
		PartitionKey:  queueID,
		OccurredAt:    uc.now(),
		Data:          data,
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		logger.Error("distribution audit event append failed",
			"event", "distribution_audit_append_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"event_type", eventType,
			"queue_id", queueID,
			"error", err.Error(),
		)
	}
}
