package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "lares/contexts/lead-routing/distribution-engine/application"
	"lares/contexts/lead-routing/distribution-engine/application/commands"
	"lares/contexts/lead-routing/distribution-engine/application/queries"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	"lares/contexts/lead-routing/distribution-engine/ports"
	httptransport "lares/contexts/lead-routing/distribution-engine/transport/http"
)

type Handler struct {
	Commands commands.UseCase
	Queries  queries.UseCase
	Logger   *slog.Logger
}

func (h Handler) StartHandler(
	ctx context.Context,
	req httptransport.StartDistributionRequest,
) (httptransport.QueueResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	queue, err := h.Commands.Start(ctx, commands.StartCommand{
		Kind:      entities.RequestKind(strings.TrimSpace(req.Kind)),
		RequestID: req.RequestID,
	})
	if err != nil {
		logger.Warn("distribution http start failed",
			"event", "distribution_http_start_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "adapter",
			"request_kind", strings.TrimSpace(req.Kind),
			"request_id", strings.TrimSpace(req.RequestID),
			"error", err.Error(),
		)
		return httptransport.QueueResponse{}, err
	}
	return queueToResponse(queue), nil
}

func (h Handler) CancelHandler(
	ctx context.Context,
	queueID string,
	req httptransport.CancelDistributionRequest,
) error {
	logger := application.ResolveLogger(h.Logger)
	if err := h.Commands.Cancel(ctx, commands.CancelCommand{
		QueueID: queueID,
		Reason:  req.Reason,
	}); err != nil {
		logger.Warn("distribution http cancel failed",
			"event", "distribution_http_cancel_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "adapter",
			"queue_id", strings.TrimSpace(queueID),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (h Handler) GetQueueHandler(ctx context.Context, queueID string) (httptransport.QueueDetailResponse, error) {
	detail, err := h.Queries.GetQueue(ctx, queueID)
	if err != nil {
		return httptransport.QueueDetailResponse{}, err
	}
	response := httptransport.QueueDetailResponse{
		QueueResponse: queueToResponse(detail.Queue),
		Attempts:      make([]httptransport.AttemptResponse, 0, len(detail.Attempts)),
	}
	for _, attempt := range detail.Attempts {
		response.Attempts = append(response.Attempts, attemptToResponse(attempt))
	}
	return response, nil
}

func (h Handler) ListQueuesHandler(
	ctx context.Context,
	requestID string,
	status string,
) (httptransport.QueueListResponse, error) {
	queues, err := h.Queries.ListQueues(ctx, ports.QueueFilter{
		RequestID: requestID,
		Status:    entities.QueueStatus(strings.TrimSpace(status)),
	})
	if err != nil {
		return httptransport.QueueListResponse{}, err
	}
	response := httptransport.QueueListResponse{
		Queues: make([]httptransport.QueueResponse, 0, len(queues)),
	}
	for _, queue := range queues {
		response.Queues = append(response.Queues, queueToResponse(queue))
	}
	return response, nil
}

// WebhookHandler accepts one inbound gateway event. Errors inside the
// resolver are logged but acknowledged with success so the gateway does not
// endlessly redeliver; the sweeper is the safety net for lost replies.
func (h Handler) WebhookHandler(ctx context.Context, req httptransport.InboundWebhookRequest) error {
	logger := application.ResolveLogger(h.Logger)
	receivedAt := time.Time{}
	if strings.TrimSpace(req.ReceivedAt) != "" {
		if parsed, err := time.Parse(time.RFC3339, req.ReceivedAt); err == nil {
			receivedAt = parsed.UTC()
		}
	}
	if err := h.Commands.HandleInbound(ctx, ports.InboundMessage{
		SenderAddress:     req.SenderAddress,
		Body:              req.Body,
		StructuredReplyID: req.StructuredReplyID,
		ReceivedAt:        receivedAt,
	}); err != nil {
		logger.Error("distribution http webhook handling failed",
			"event", "distribution_http_webhook_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "adapter",
			"sender", strings.TrimSpace(req.SenderAddress),
			"error", err.Error(),
		)
	}
	return nil
}

func queueToResponse(queue entities.Queue) httptransport.QueueResponse {
	response := httptransport.QueueResponse{
		ID:               queue.ID,
		RequestID:        queue.RequestID,
		RequestKind:      string(queue.RequestKind),
		Status:           string(queue.Status),
		CurrentAttempt:   queue.CurrentAttempt,
		MaxAttempts:      queue.MaxAttempts,
		AssignedBrokerID: queue.AssignedBrokerID,
		FailureReason:    queue.FailureReason,
		StartedAt:        queue.StartedAt.Format(time.RFC3339),
	}
	if queue.CompletedAt != nil {
		response.CompletedAt = queue.CompletedAt.Format(time.RFC3339)
	}
	return response
}

func attemptToResponse(attempt entities.Attempt) httptransport.AttemptResponse {
	response := httptransport.AttemptResponse{
		ID:            attempt.ID,
		BrokerID:      attempt.BrokerID,
		AttemptOrder:  attempt.AttemptOrder,
		Status:        string(attempt.Status),
		MessageSentAt: attempt.MessageSentAt.Format(time.RFC3339),
		TimeoutAt:     attempt.TimeoutAt.Format(time.RFC3339),
		ResponseType:  attempt.ResponseType,
	}
	if attempt.ResponseReceivedAt != nil {
		response.ResponseReceivedAt = attempt.ResponseReceivedAt.Format(time.RFC3339)
	}
	return response
}
