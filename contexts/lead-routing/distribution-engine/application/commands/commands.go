package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "lares/contexts/lead-routing/distribution-engine/application"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	domainerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
	"lares/contexts/lead-routing/distribution-engine/domain/services"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

type StartCommand struct {
	Kind      entities.RequestKind
	RequestID string
}

type CancelCommand struct {
	QueueID string
	Reason  string
}

type UseCase struct {
	Repository   ports.Repository
	Directory    ports.CandidateDirectory
	Requests     ports.RequestStore
	Sender       ports.MessageSender
	InboundLog   ports.InboundLog
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	AdminAddress string
	Logger       *slog.Logger
}

// Start opens a distribution queue for a lead or visit and creates attempt
// #1. Settings are snapshotted onto the queue row here; later escalations
// never re-read them.
func (uc UseCase) Start(ctx context.Context, cmd StartCommand) (entities.Queue, error) {
	logger := application.ResolveLogger(uc.Logger)
	requestID := strings.TrimSpace(cmd.RequestID)
	if requestID == "" || (cmd.Kind != entities.RequestKindLead && cmd.Kind != entities.RequestKindVisit) {
		return entities.Queue{}, domainerrors.ErrInvalidInput
	}

	settings, err := uc.Repository.GetSettings(ctx)
	if err != nil {
		logger.Error("distribution settings load failed",
			"event", "distribution_settings_load_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"request_id", requestID,
			"error", err.Error(),
		)
		return entities.Queue{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidSettings, err)
	}
	if !settings.Validate() {
		return entities.Queue{}, domainerrors.ErrInvalidSettings
	}
	if !settings.AutoDistributionEnabled {
		return entities.Queue{}, domainerrors.ErrDistributionDisabled
	}

	request, err := uc.Requests.GetRequest(ctx, cmd.Kind, requestID)
	if err != nil {
		logger.Warn("distribution request lookup failed",
			"event", "distribution_request_lookup_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"request_kind", string(cmd.Kind),
			"request_id", requestID,
			"error", err.Error(),
		)
		return entities.Queue{}, err
	}

	queueID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Queue{}, err
	}
	now := uc.now()
	queue := entities.Queue{
		ID:              queueID,
		RequestID:       requestID,
		RequestKind:     cmd.Kind,
		Status:          entities.QueueStatusPending,
		CurrentAttempt:  0,
		MaxAttempts:     settings.MaxAttempts,
		TimeoutMinutes:  settings.TimeoutMinutes,
		FallbackToAdmin: settings.FallbackToAdmin,
		StartedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.Repository.CreateQueue(ctx, queue); err != nil {
		if errors.Is(err, domainerrors.ErrQueueExists) {
			logger.Warn("distribution queue already active for request",
				"event", "distribution_queue_already_active",
				"module", "lead-routing/distribution-engine",
				"layer", "application",
				"request_kind", string(cmd.Kind),
				"request_id", requestID,
			)
			existing, err := uc.Repository.GetQueueByRequest(ctx, cmd.Kind, requestID)
			if err != nil {
				return entities.Queue{}, err
			}
			// A pending queue with no attempt is a leftover of a first Start
			// whose escalation never committed; the unique-active-queue rule
			// blocks replacement, so re-drive it here.
			if existing.Status == entities.QueueStatusPending && existing.CurrentAttempt == 0 {
				if err := uc.escalate(ctx, existing, request.Criteria); err != nil {
					return entities.Queue{}, err
				}
				return uc.Repository.GetQueue(ctx, existing.ID)
			}
			return existing, nil
		}
		return entities.Queue{}, err
	}
	logger.Info("distribution queue started",
		"event", "distribution_queue_started",
		"module", "lead-routing/distribution-engine",
		"layer", "application",
		"queue_id", queue.ID,
		"request_kind", string(cmd.Kind),
		"request_id", requestID,
		"max_attempts", settings.MaxAttempts,
		"timeout_minutes", settings.TimeoutMinutes,
	)
	uc.appendEvent(ctx, EventQueueStarted, queue.ID, map[string]any{
		"queue_id":     queue.ID,
		"request_kind": string(cmd.Kind),
		"request_id":   requestID,
		"old_status":   "",
		"new_status":   string(entities.QueueStatusPending),
	})

	if err := uc.escalate(ctx, queue, request.Criteria); err != nil {
		return entities.Queue{}, err
	}
	return uc.Repository.GetQueue(ctx, queue.ID)
}

// Cancel transitions a non-terminal queue to cancelled and voids any
// pending attempt so the sweeper cannot escalate it later.
func (uc UseCase) Cancel(ctx context.Context, cmd CancelCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	queueID := strings.TrimSpace(cmd.QueueID)
	if queueID == "" {
		return domainerrors.ErrInvalidInput
	}
	queue, err := uc.Repository.GetQueue(ctx, queueID)
	if err != nil {
		return err
	}
	if queue.Status.Terminal() {
		return domainerrors.ErrQueueTerminal
	}
	if err := uc.Repository.CancelQueue(ctx, queueID, uc.now()); err != nil {
		if errors.Is(err, domainerrors.ErrQueueConflict) {
			return domainerrors.ErrQueueTerminal
		}
		return err
	}
	logger.Info("distribution queue cancelled",
		"event", "distribution_queue_cancelled",
		"module", "lead-routing/distribution-engine",
		"layer", "application",
		"queue_id", queueID,
		"reason", strings.TrimSpace(cmd.Reason),
	)
	uc.appendEvent(ctx, EventQueueCancelled, queueID, map[string]any{
		"queue_id":   queueID,
		"old_status": string(queue.Status),
		"new_status": string(entities.QueueStatusCancelled),
		"reason":     strings.TrimSpace(cmd.Reason),
	})
	return nil
}

// HandleInbound is the response-resolver entrypoint for one gateway webhook
// event. Messages from senders without a pending attempt are handed to the
// general inbound log untouched.
func (uc UseCase) HandleInbound(ctx context.Context, message ports.InboundMessage) error {
	logger := application.ResolveLogger(uc.Logger)
	sender := strings.TrimSpace(message.SenderAddress)
	if sender == "" {
		return domainerrors.ErrInvalidInput
	}

	attempt, err := uc.Repository.FindPendingAttemptByAddress(ctx, sender)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAttemptNotFound) {
			if uc.InboundLog != nil {
				return uc.InboundLog.Record(ctx, message)
			}
			return nil
		}
		return err
	}

	status, ok := services.ParseReply(message.StructuredReplyID, message.Body)
	if !ok {
		logger.Info("distribution reply unrecognized",
			"event", "distribution_reply_unrecognized",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"queue_id", attempt.QueueID,
			"attempt_id", attempt.ID,
			"sender", sender,
		)
		return nil
	}
	return uc.resolveAttempt(ctx, attempt, status, message.Body)
}

// ResolveExpired resolves one timed-out attempt on behalf of the sweeper.
func (uc UseCase) ResolveExpired(ctx context.Context, attempt entities.Attempt) error {
	return uc.resolveAttempt(ctx, attempt, entities.AttemptStatusExpired, "")
}

func (uc UseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
