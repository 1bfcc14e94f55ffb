package ports

import (
	"context"
	"time"

	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	contractsv1 "lares/contracts/gen/events/v1"
)

type QueueFilter struct {
	RequestID string
	Status    entities.QueueStatus
	Limit     int
}

// Repository persists queues and attempts. ResolveAttempt and the queue
// transition methods must be implemented as atomic conditional updates:
// callers rely on "zero rows affected" surfacing as ErrAlreadyResolved /
// ErrQueueConflict to detect that a concurrent writer won.
type Repository interface {
	CreateQueue(ctx context.Context, queue entities.Queue) error
	GetQueue(ctx context.Context, queueID string) (entities.Queue, error)
	GetQueueByRequest(ctx context.Context, kind entities.RequestKind, requestID string) (entities.Queue, error)
	ListQueues(ctx context.Context, filter QueueFilter) ([]entities.Queue, error)

	// AdvanceQueue transitions the queue to in_progress, increments
	// current_attempt from the expected value, and inserts the attempt row,
	// all in one transaction guarded on current_attempt = fromAttempt.
	AdvanceQueue(ctx context.Context, queueID string, fromAttempt int, attempt entities.Attempt) error
	CompleteQueue(ctx context.Context, queueID string, brokerID string, completedAt time.Time) error
	FailQueue(ctx context.Context, queueID string, reason string, failedAt time.Time) error
	// CancelQueue also voids any still-pending attempt so a later sweep
	// cannot escalate a cancelled queue.
	CancelQueue(ctx context.Context, queueID string, cancelledAt time.Time) error

	GetAttempt(ctx context.Context, attemptID string) (entities.Attempt, error)
	ListAttempts(ctx context.Context, queueID string) ([]entities.Attempt, error)
	FindPendingAttemptByAddress(ctx context.Context, address string) (entities.Attempt, error)
	ListExpiredPendingAttempts(ctx context.Context, now time.Time, limit int) ([]entities.Attempt, error)
	// ListStalledQueues returns non-terminal queues that have no pending
	// attempt. Such queues exist only when a resolve-then-escalate sequence
	// was cut short (transient error or crash between the two writes) and
	// nothing else will ever drive them forward.
	ListStalledQueues(ctx context.Context, limit int) ([]entities.Queue, error)
	// ResolveAttempt performs the single conditional update
	// "... WHERE id = ? AND status = 'pending'" and reports
	// ErrAlreadyResolved when zero rows were affected.
	ResolveAttempt(
		ctx context.Context,
		attemptID string,
		status entities.AttemptStatus,
		responseText string,
		resolvedAt time.Time,
	) error

	GetSettings(ctx context.Context) (entities.Settings, error)
}

// CandidateDirectory is the engine's read view of the broker directory.
// RecordAssignment is the one write the engine produces there: bumping the
// workload counter when a queue completes.
type CandidateDirectory interface {
	FindEligible(ctx context.Context, criteria entities.Criteria) ([]entities.Candidate, error)
	RecordAssignment(ctx context.Context, brokerID string) error
}

// RequestStore abstracts the lead/visit records behind one contract so a
// single engine serves both kinds.
type RequestStore interface {
	GetRequest(ctx context.Context, kind entities.RequestKind, requestID string) (entities.DistributionRequest, error)
	AssignRequest(ctx context.Context, kind entities.RequestKind, requestID string, brokerID string) error
}

type ReplyOption struct {
	ID    string
	Label string
}

type OutboundMessage struct {
	Text         string
	ReplyOptions []ReplyOption
}

// MessageSender delivers one message through the messaging gateway and
// returns the gateway message id. Implementations own retry and
// circuit-breaking; the errors surfaced here are already final.
type MessageSender interface {
	Send(ctx context.Context, address string, message OutboundMessage) (string, error)
}

type InboundMessage struct {
	SenderAddress     string
	Body              string
	StructuredReplyID string
	ReceivedAt        time.Time
}

// InboundLog receives inbound messages that matched no pending attempt.
// The engine does not own all traffic on the channel.
type InboundLog interface {
	Record(ctx context.Context, message InboundMessage) error
}

// EventEnvelope aliases the canonical versioned contract so every runtime
// speaks the same event shape.
type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
