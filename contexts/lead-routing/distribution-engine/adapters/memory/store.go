package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	domainerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
	"lares/contexts/lead-routing/distribution-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

// Store is a full in-memory implementation of the engine's persistence
// ports, mirroring the postgres adapter's conditional-update semantics.
// Used by tests and local runs without a database.
type Store struct {
	mu sync.RWMutex

	queues   map[string]entities.Queue
	attempts map[string]entities.Attempt
	requests map[string]entities.DistributionRequest
	settings entities.Settings
	inbound  []ports.InboundMessage
	outbox   map[string]outboxRecord
}

func NewStore(settings entities.Settings, requests []entities.DistributionRequest) *Store {
	indexed := make(map[string]entities.DistributionRequest, len(requests))
	for _, request := range requests {
		indexed[requestKey(request.Kind, request.ID)] = request
	}
	return &Store{
		queues:   make(map[string]entities.Queue),
		attempts: make(map[string]entities.Attempt),
		requests: indexed,
		settings: settings,
		outbox:   make(map[string]outboxRecord),
	}
}

func requestKey(kind entities.RequestKind, requestID string) string {
	return string(kind) + "/" + requestID
}

func (s *Store) CreateQueue(_ context.Context, queue entities.Queue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.queues {
		if existing.RequestID == queue.RequestID &&
			existing.RequestKind == queue.RequestKind &&
			!existing.Status.Terminal() {
			return domainerrors.ErrQueueExists
		}
	}
	s.queues[queue.ID] = queue
	return nil
}

func (s *Store) GetQueue(_ context.Context, queueID string) (entities.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queue, ok := s.queues[queueID]
	if !ok {
		return entities.Queue{}, domainerrors.ErrQueueNotFound
	}
	return queue, nil
}

func (s *Store) GetQueueByRequest(
	_ context.Context,
	kind entities.RequestKind,
	requestID string,
) (entities.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest entities.Queue
	found := false
	for _, queue := range s.queues {
		if queue.RequestKind != kind || queue.RequestID != requestID {
			continue
		}
		if !found || queue.StartedAt.After(newest.StartedAt) {
			newest = queue
			found = true
		}
	}
	if !found {
		return entities.Queue{}, domainerrors.ErrQueueNotFound
	}
	return newest, nil
}

func (s *Store) ListQueues(_ context.Context, filter ports.QueueFilter) ([]entities.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queues := make([]entities.Queue, 0)
	for _, queue := range s.queues {
		if filter.RequestID != "" && queue.RequestID != filter.RequestID {
			continue
		}
		if filter.Status != "" && queue.Status != filter.Status {
			continue
		}
		queues = append(queues, queue)
	}
	sort.Slice(queues, func(i, j int) bool {
		return queues[i].StartedAt.After(queues[j].StartedAt)
	})
	if filter.Limit > 0 && len(queues) > filter.Limit {
		queues = queues[:filter.Limit]
	}
	return queues, nil
}

func (s *Store) AdvanceQueue(
	_ context.Context,
	queueID string,
	fromAttempt int,
	attempt entities.Attempt,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, ok := s.queues[queueID]
	if !ok {
		return domainerrors.ErrQueueNotFound
	}
	if queue.Status.Terminal() || queue.CurrentAttempt != fromAttempt {
		return domainerrors.ErrQueueConflict
	}
	for _, existing := range s.attempts {
		if existing.QueueID != queueID {
			continue
		}
		if existing.Status == entities.AttemptStatusPending {
			return domainerrors.ErrQueueConflict
		}
		if existing.BrokerID == attempt.BrokerID {
			return domainerrors.ErrInvalidStateTransition
		}
	}
	queue.Status = entities.QueueStatusInProgress
	queue.CurrentAttempt = fromAttempt + 1
	queue.UpdatedAt = attempt.MessageSentAt
	s.queues[queueID] = queue
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *Store) CompleteQueue(_ context.Context, queueID, brokerID string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, ok := s.queues[queueID]
	if !ok {
		return domainerrors.ErrQueueNotFound
	}
	if queue.Status != entities.QueueStatusInProgress {
		return domainerrors.ErrQueueConflict
	}
	queue.Status = entities.QueueStatusCompleted
	queue.AssignedBrokerID = brokerID
	queue.CompletedAt = &completedAt
	queue.UpdatedAt = completedAt
	s.queues[queueID] = queue
	return nil
}

func (s *Store) FailQueue(_ context.Context, queueID, reason string, failedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, ok := s.queues[queueID]
	if !ok {
		return domainerrors.ErrQueueNotFound
	}
	if queue.Status.Terminal() {
		return domainerrors.ErrQueueConflict
	}
	queue.Status = entities.QueueStatusFailed
	queue.FailureReason = reason
	queue.CompletedAt = &failedAt
	queue.UpdatedAt = failedAt
	s.queues[queueID] = queue
	return nil
}

func (s *Store) CancelQueue(_ context.Context, queueID string, cancelledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, ok := s.queues[queueID]
	if !ok {
		return domainerrors.ErrQueueNotFound
	}
	if queue.Status.Terminal() {
		return domainerrors.ErrQueueConflict
	}
	queue.Status = entities.QueueStatusCancelled
	queue.UpdatedAt = cancelledAt
	s.queues[queueID] = queue
	for id, attempt := range s.attempts {
		if attempt.QueueID == queueID && attempt.Status == entities.AttemptStatusPending {
			attempt.Status = entities.AttemptStatusError
			attempt.ResponseType = string(entities.AttemptStatusError)
			attempt.RawResponseText = "queue cancelled"
			attempt.UpdatedAt = cancelledAt
			s.attempts[id] = attempt
		}
	}
	return nil
}

func (s *Store) GetAttempt(_ context.Context, attemptID string) (entities.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return entities.Attempt{}, domainerrors.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *Store) ListAttempts(_ context.Context, queueID string) ([]entities.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempts := make([]entities.Attempt, 0)
	for _, attempt := range s.attempts {
		if attempt.QueueID == queueID {
			attempts = append(attempts, attempt)
		}
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].AttemptOrder < attempts[j].AttemptOrder
	})
	return attempts, nil
}

func (s *Store) FindPendingAttemptByAddress(_ context.Context, address string) (entities.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, attempt := range s.attempts {
		if attempt.Status == entities.AttemptStatusPending && attempt.BrokerAddress == address {
			return attempt, nil
		}
	}
	return entities.Attempt{}, domainerrors.ErrAttemptNotFound
}

func (s *Store) ListExpiredPendingAttempts(
	_ context.Context,
	now time.Time,
	limit int,
) ([]entities.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expired := make([]entities.Attempt, 0)
	for _, attempt := range s.attempts {
		if attempt.Status == entities.AttemptStatusPending && !attempt.TimeoutAt.After(now) {
			expired = append(expired, attempt)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].TimeoutAt.Before(expired[j].TimeoutAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (s *Store) ListStalledQueues(_ context.Context, limit int) ([]entities.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stalled := make([]entities.Queue, 0)
	for _, queue := range s.queues {
		if queue.Status.Terminal() {
			continue
		}
		hasPending := false
		for _, attempt := range s.attempts {
			if attempt.QueueID == queue.ID && attempt.Status == entities.AttemptStatusPending {
				hasPending = true
				break
			}
		}
		if !hasPending {
			stalled = append(stalled, queue)
		}
	}
	sort.Slice(stalled, func(i, j int) bool {
		return stalled[i].UpdatedAt.Before(stalled[j].UpdatedAt)
	})
	if limit > 0 && len(stalled) > limit {
		stalled = stalled[:limit]
	}
	return stalled, nil
}

func (s *Store) ResolveAttempt(
	_ context.Context,
	attemptID string,
	status entities.AttemptStatus,
	responseText string,
	resolvedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domainerrors.ErrAttemptNotFound
	}
	if attempt.Status != entities.AttemptStatusPending {
		return domainerrors.ErrAlreadyResolved
	}
	attempt.Status = status
	attempt.ResponseType = string(status)
	attempt.RawResponseText = responseText
	attempt.UpdatedAt = resolvedAt
	if status == entities.AttemptStatusAccepted || status == entities.AttemptStatusRejected {
		attempt.ResponseReceivedAt = &resolvedAt
	}
	s.attempts[attemptID] = attempt
	return nil
}

func (s *Store) GetSettings(_ context.Context) (entities.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) SetSettings(settings entities.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *Store) GetRequest(
	_ context.Context,
	kind entities.RequestKind,
	requestID string,
) (entities.DistributionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[requestKey(kind, requestID)]
	if !ok {
		return entities.DistributionRequest{}, domainerrors.ErrRequestNotFound
	}
	return request, nil
}

func (s *Store) AssignRequest(
	_ context.Context,
	kind entities.RequestKind,
	requestID string,
	brokerID string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := requestKey(kind, requestID)
	request, ok := s.requests[key]
	if !ok {
		return domainerrors.ErrRequestNotFound
	}
	request.AssignedBrokerID = brokerID
	s.requests[key] = request
	return nil
}

func (s *Store) Record(_ context.Context, message ports.InboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound = append(s.inbound, message)
	return nil
}

func (s *Store) InboundMessages() []ports.InboundMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.InboundMessage(nil), s.inbound...)
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(envelope.EventID)
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.outbox[id]; exists {
		return nil
	}
	s.outbox[id] = outboxRecord{
		OutboxID:     id,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      append([]byte(nil), envelope.Data...),
		CreatedAt:    envelope.OccurredAt,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.PublishedAt != nil {
			continue
		}
		pending = append(pending, ports.OutboxMessage{
			OutboxID:     record.OutboxID,
			EventType:    record.EventType,
			PartitionKey: record.PartitionKey,
			Payload:      append([]byte(nil), record.Payload...),
			CreatedAt:    record.CreatedAt,
		})
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrInvalidInput
	}
	record.PublishedAt = &publishedAt
	s.outbox[outboxID] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Store)(nil)
var _ ports.RequestStore = (*Store)(nil)
var _ ports.InboundLog = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
