package queries

import (
	"context"
	"log/slog"
	"strings"

	application "lares/contexts/lead-routing/distribution-engine/application"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	domainerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

type UseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

type QueueDetail struct {
	Queue    entities.Queue
	Attempts []entities.Attempt
}

func (uc UseCase) GetQueue(ctx context.Context, queueID string) (QueueDetail, error) {
	logger := application.ResolveLogger(uc.Logger)
	normalizedQueueID := strings.TrimSpace(queueID)
	if normalizedQueueID == "" {
		return QueueDetail{}, domainerrors.ErrInvalidInput
	}
	queue, err := uc.Repository.GetQueue(ctx, normalizedQueueID)
	if err != nil {
		logger.Warn("distribution query get queue failed",
			"event", "distribution_query_get_queue_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"queue_id", normalizedQueueID,
			"error", err.Error(),
		)
		return QueueDetail{}, err
	}
	attempts, err := uc.Repository.ListAttempts(ctx, normalizedQueueID)
	if err != nil {
		return QueueDetail{}, err
	}
	return QueueDetail{Queue: queue, Attempts: attempts}, nil
}

func (uc UseCase) ListQueues(ctx context.Context, filter ports.QueueFilter) ([]entities.Queue, error) {
	logger := application.ResolveLogger(uc.Logger)
	filter.RequestID = strings.TrimSpace(filter.RequestID)
	queues, err := uc.Repository.ListQueues(ctx, filter)
	if err != nil {
		logger.Warn("distribution query list queues failed",
			"event", "distribution_query_list_queues_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "application",
			"request_id", filter.RequestID,
			"status", string(filter.Status),
			"error", err.Error(),
		)
		return nil, err
	}
	return queues, nil
}
