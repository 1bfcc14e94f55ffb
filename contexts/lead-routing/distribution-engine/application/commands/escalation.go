package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	application "lares/contexts/lead-routing/distribution-engine/application"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	domainerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
	"lares/contexts/lead-routing/distribution-engine/domain/services"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

const (
	failureMaxAttempts  = "max attempts exhausted"
	failureNoCandidates = "no eligible candidates remaining"
)

// resolveAttempt performs the conditional attempt resolution and, only when
// this caller won the update, drives the queue forward. A lost race is the
// other writer's business and is swallowed here.
func (uc UseCase) resolveAttempt(
	ctx context.Context,
	attempt entities.Attempt,
	status entities.AttemptStatus,
	rawResponse string,
) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()
	if err := uc.Repository.ResolveAttempt(ctx, attempt.ID, status, rawResponse, now); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyResolved) {
			logger.Debug("distribution attempt already resolved elsewhere",
				"event", "distribution_attempt_resolution_lost",
				"module", "lead-routing/distribution-engine",
				"layer", "application",
				"queue_id", attempt.QueueID,
				"attempt_id", attempt.ID,
				"attempted_status", string(status),
			)
			return nil
		}
		return err
	}
	logger.Info("distribution attempt resolved",
		"event", "distribution_attempt_resolved",
		"module", "lead-routing/distribution-engine",
		"layer", "application",
		"queue_id", attempt.QueueID,
		"attempt_id", attempt.ID,
		"attempt_order", attempt.AttemptOrder,
		"broker_id", attempt.BrokerID,
		"status", string(status),
	)
	uc.appendEvent(ctx, EventAttemptResolved, attempt.QueueID, map[string]any{
		"queue_id":      attempt.QueueID,
		"attempt_id":    attempt.ID,
		"attempt_order": attempt.AttemptOrder,
		"broker_id":     attempt.BrokerID,
		"status":        string(status),
	})

	queue, err := uc.Repository.GetQueue(ctx, attempt.QueueID)
	if err != nil {
		return err
	}
	if queue.Status.Terminal() {
		return nil
	}

	if status == entities.AttemptStatusAccepted {
		return uc.completeQueue(ctx, queue, attempt)
	}

	request, err := uc.Requests.GetRequest(ctx, queue.RequestKind, queue.RequestID)
	if err != nil {
		return err
	}
	return uc.escalate(ctx, queue, request.Criteria)
}

// Resume re-drives a queue that has no pending attempt. That state is only
// reachable when the escalation following a resolution did not commit
// (transient dependency error or a crash between the two writes), so Resume
// finishes whatever the interrupted sequence still owed: completion when an
// accepted attempt is on record, the next escalation otherwise. Safe to call
// concurrently with live traffic; the conditional queue updates make the
// loser a no-op.
func (uc UseCase) Resume(ctx context.Context, queueID string) error {
	logger := application.ResolveLogger(uc.Logger)
	queue, err := uc.Repository.GetQueue(ctx, queueID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrQueueNotFound) {
			return nil
		}
		return err
	}
	if queue.Status.Terminal() {
		return nil
	}

	attempts, err := uc.Repository.ListAttempts(ctx, queue.ID)
	if err != nil {
		return err
	}
	for _, attempt := range attempts {
		if attempt.Status == entities.AttemptStatusPending {
			return nil
		}
		if attempt.Status == entities.AttemptStatusAccepted {
			logger.Info("distribution queue resumed into completion",
				"event", "distribution_queue_resumed",
				"module", "lead-routing/distribution-engine",
				"layer", "application",
				"queue_id", queue.ID,
				"broker_id", attempt.BrokerID,
			)
			return uc.completeQueue(ctx, queue, attempt)
		}
	}

	request, err := uc.Requests.GetRequest(ctx, queue.RequestKind, queue.RequestID)
	if err != nil {
		return err
	}
	logger.Info("distribution queue resumed into escalation",
		"event", "distribution_queue_resumed",
		"module", "lead-routing/distribution-engine",
		"layer", "application",
		"queue_id", queue.ID,
		"current_attempt", queue.CurrentAttempt,
	)
	return uc.escalate(ctx, queue, request.Criteria)
}

// escalate creates the next attempt for a queue, or fails it when the
// candidate pool or the attempt budget is exhausted. Delivery errors resolve
// the fresh attempt as error and loop on to the next candidate, so a dead
// address never stalls a queue.
func (uc UseCase) escalate(ctx context.Context, queue entities.Queue, criteria entities.Criteria) error {
	logger := application.ResolveLogger(uc.Logger)
	for {
		if queue.CurrentAttempt >= queue.MaxAttempts {
			return uc.failQueue(ctx, queue, failureMaxAttempts)
		}

		attempts, err := uc.Repository.ListAttempts(ctx, queue.ID)
		if err != nil {
			return err
		}
		attempted := make(map[string]bool, len(attempts))
		for _, previous := range attempts {
			attempted[previous.BrokerID] = true
		}

		candidates, err := uc.Directory.FindEligible(ctx, criteria)
		if err != nil {
			return err
		}
		best, ok := services.SelectBest(candidates, criteria, attempted)
		if !ok {
			return uc.failQueue(ctx, queue, failureNoCandidates)
		}

		attemptID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		now := uc.now()
		attempt := entities.Attempt{
			ID:            attemptID,
			QueueID:       queue.ID,
			BrokerID:      best.ID,
			BrokerAddress: best.WhatsAppAddress,
			AttemptOrder:  queue.CurrentAttempt + 1,
			Status:        entities.AttemptStatusPending,
			MessageSentAt: now,
			TimeoutAt:     now.Add(time.Duration(queue.TimeoutMinutes) * time.Minute),
			UpdatedAt:     now,
		}
		previousStatus := queue.Status
		if err := uc.Repository.AdvanceQueue(ctx, queue.ID, queue.CurrentAttempt, attempt); err != nil {
			if errors.Is(err, domainerrors.ErrQueueConflict) {
				logger.Debug("distribution escalation lost to concurrent writer",
					"event", "distribution_escalation_lost",
					"module", "lead-routing/distribution-engine",
					"layer", "application",
					"queue_id", queue.ID,
					"attempt_order", attempt.AttemptOrder,
				)
				return nil
			}
			return err
		}
		queue.Status = entities.QueueStatusInProgress
		queue.CurrentAttempt = attempt.AttemptOrder
		logger.Info("distribution attempt created",
			"event", "distribution_attempt_created",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"queue_id", queue.ID,
			"attempt_id", attempt.ID,
			"attempt_order", attempt.AttemptOrder,
			"broker_id", best.ID,
			"timeout_at", attempt.TimeoutAt,
		)
		uc.appendEvent(ctx, EventAttemptCreated, queue.ID, map[string]any{
			"queue_id":      queue.ID,
			"attempt_id":    attempt.ID,
			"attempt_order": attempt.AttemptOrder,
			"broker_id":     best.ID,
			"old_status":    string(previousStatus),
			"new_status":    string(entities.QueueStatusInProgress),
		})

		if _, err := uc.Sender.Send(ctx, best.WhatsAppAddress, uc.buildOffer(queue, criteria)); err != nil {
			logger.Warn("distribution offer delivery failed",
				"event", "distribution_offer_delivery_failed",
				"module", "lead-routing/distribution-engine",
				"layer", "application",
				"queue_id", queue.ID,
				"attempt_id", attempt.ID,
				"broker_id", best.ID,
				"error", err.Error(),
			)
			if err := uc.Repository.ResolveAttempt(ctx, attempt.ID, entities.AttemptStatusError, err.Error(), uc.now()); err != nil {
				if errors.Is(err, domainerrors.ErrAlreadyResolved) {
					return nil
				}
				return err
			}
			uc.appendEvent(ctx, EventAttemptResolved, queue.ID, map[string]any{
				"queue_id":      queue.ID,
				"attempt_id":    attempt.ID,
				"attempt_order": attempt.AttemptOrder,
				"broker_id":     best.ID,
				"status":        string(entities.AttemptStatusError),
			})
			continue
		}
		return nil
	}
}

func (uc UseCase) completeQueue(ctx context.Context, queue entities.Queue, attempt entities.Attempt) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()
	if err := uc.Repository.CompleteQueue(ctx, queue.ID, attempt.BrokerID, now); err != nil {
		if errors.Is(err, domainerrors.ErrQueueConflict) {
			return nil
		}
		return err
	}
	uc.appendEvent(ctx, EventQueueCompleted, queue.ID, map[string]any{
		"queue_id":   queue.ID,
		"old_status": string(queue.Status),
		"new_status": string(entities.QueueStatusCompleted),
		"broker_id":  attempt.BrokerID,
	})
	logger.Info("distribution queue completed",
		"event", "distribution_queue_completed",
		"module", "lead-routing/distribution-engine",
		"layer", "application",
		"queue_id", queue.ID,
		"request_kind", string(queue.RequestKind),
		"request_id", queue.RequestID,
		"broker_id", attempt.BrokerID,
		"attempt_order", attempt.AttemptOrder,
	)

	if err := uc.Requests.AssignRequest(ctx, queue.RequestKind, queue.RequestID, attempt.BrokerID); err != nil {
		logger.Error("distribution assignment write-back failed",
			"event", "distribution_writeback_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"queue_id", queue.ID,
			"request_kind", string(queue.RequestKind),
			"request_id", queue.RequestID,
			"broker_id", attempt.BrokerID,
			"error", err.Error(),
		)
		return err
	}
	if err := uc.Directory.RecordAssignment(ctx, attempt.BrokerID); err != nil {
		logger.Warn("distribution workload counter update failed",
			"event", "distribution_workload_update_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"broker_id", attempt.BrokerID,
			"error", err.Error(),
		)
	}
	return nil
}

func (uc UseCase) failQueue(ctx context.Context, queue entities.Queue, reason string) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := uc.Repository.FailQueue(ctx, queue.ID, reason, uc.now()); err != nil {
		if errors.Is(err, domainerrors.ErrQueueConflict) {
			return nil
		}
		return err
	}
	uc.appendEvent(ctx, EventQueueFailed, queue.ID, map[string]any{
		"queue_id":   queue.ID,
		"old_status": string(queue.Status),
		"new_status": string(entities.QueueStatusFailed),
		"reason":     reason,
	})
	logger.Warn("distribution queue failed",
		"event", "distribution_queue_failed",
		"module", "lead-routing/distribution-engine",
		"layer", "application",
		"queue_id", queue.ID,
		"request_kind", string(queue.RequestKind),
		"request_id", queue.RequestID,
		"reason", reason,
	)

	if queue.FallbackToAdmin && uc.AdminAddress != "" {
		uc.appendEvent(ctx, EventAdminFallback, queue.ID, map[string]any{
			"queue_id":     queue.ID,
			"request_kind": string(queue.RequestKind),
			"request_id":   queue.RequestID,
			"reason":       reason,
		})
		if _, err := uc.Sender.Send(ctx, uc.AdminAddress, uc.buildAdminFallback(queue, reason)); err != nil {
			logger.Error("distribution admin fallback delivery failed",
				"event", "distribution_admin_fallback_failed",
				"module", "lead-routing/distribution-engine",
				"layer", "application",
				"queue_id", queue.ID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

func (uc UseCase) buildOffer(queue entities.Queue, criteria entities.Criteria) ports.OutboundMessage {
	text := fmt.Sprintf("New %s opportunity waiting for you.", queue.RequestKind)
	if criteria.NeighborhoodID != "" {
		text += fmt.Sprintf(" Neighborhood: %s.", criteria.NeighborhoodID)
	}
	if criteria.BuilderID != "" {
		text += fmt.Sprintf(" Builder: %s.", criteria.BuilderID)
	}
	if criteria.PropertyType != "" {
		text += fmt.Sprintf(" Property type: %s.", criteria.PropertyType)
	}
	text += fmt.Sprintf(" Reply within %d minutes to take it.", queue.TimeoutMinutes)
	return ports.OutboundMessage{
		Text: text,
		ReplyOptions: []ports.ReplyOption{
			{ID: services.ReplyAccept, Label: "Accept"},
			{ID: services.ReplyReject, Label: "Pass"},
		},
	}
}

func (uc UseCase) buildAdminFallback(queue entities.Queue, reason string) ports.OutboundMessage {
	return ports.OutboundMessage{
		Text: fmt.Sprintf(
			"Distribution failed for %s %s (queue %s): %s. Manual assignment needed.",
			queue.RequestKind, queue.RequestID, queue.ID, reason,
		),
	}
}
