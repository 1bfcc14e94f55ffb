package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lares/contexts/lead-routing/distribution-engine/adapters/memory"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	domainerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
)

func seedQueue(t *testing.T, store *memory.Store) entities.Queue {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	queue := entities.Queue{
		ID:             "queue-1",
		RequestID:      "lead-1",
		RequestKind:    entities.RequestKindLead,
		Status:         entities.QueueStatusPending,
		MaxAttempts:    3,
		TimeoutMinutes: 30,
		StartedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.CreateQueue(context.Background(), queue); err != nil {
		t.Fatalf("create queue failed: %v", err)
	}
	return queue
}

func attemptFor(queue entities.Queue, id, brokerID string, order int) entities.Attempt {
	sentAt := queue.StartedAt.Add(time.Duration(order) * time.Minute)
	return entities.Attempt{
		ID:            id,
		QueueID:       queue.ID,
		BrokerID:      brokerID,
		BrokerAddress: "+55" + brokerID,
		AttemptOrder:  order,
		Status:        entities.AttemptStatusPending,
		MessageSentAt: sentAt,
		TimeoutAt:     sentAt.Add(30 * time.Minute),
		UpdatedAt:     sentAt,
	}
}

func TestCreateQueueRejectsSecondActiveQueuePerRequest(t *testing.T) {
	store := memory.NewStore(entities.Settings{}, nil)
	queue := seedQueue(t, store)

	duplicate := queue
	duplicate.ID = "queue-2"
	if err := store.CreateQueue(context.Background(), duplicate); !errors.Is(err, domainerrors.ErrQueueExists) {
		t.Fatalf("expected ErrQueueExists, got %v", err)
	}
}

func TestAdvanceQueueGuardsOnExpectedAttempt(t *testing.T) {
	store := memory.NewStore(entities.Settings{}, nil)
	queue := seedQueue(t, store)

	if err := store.AdvanceQueue(context.Background(), queue.ID, 0, attemptFor(queue, "attempt-1", "broker-a", 1)); err != nil {
		t.Fatalf("first advance failed: %v", err)
	}

	// A second writer advancing from the same expected value must lose.
	err := store.AdvanceQueue(context.Background(), queue.ID, 0, attemptFor(queue, "attempt-stale", "broker-b", 1))
	if !errors.Is(err, domainerrors.ErrQueueConflict) {
		t.Fatalf("expected ErrQueueConflict on stale advance, got %v", err)
	}
}

func TestAdvanceQueueRejectsSecondPendingOrRepeatBroker(t *testing.T) {
	store := memory.NewStore(entities.Settings{}, nil)
	queue := seedQueue(t, store)

	if err := store.AdvanceQueue(context.Background(), queue.ID, 0, attemptFor(queue, "attempt-1", "broker-a", 1)); err != nil {
		t.Fatalf("first advance failed: %v", err)
	}
	err := store.AdvanceQueue(context.Background(), queue.ID, 1, attemptFor(queue, "attempt-2", "broker-b", 2))
	if !errors.Is(err, domainerrors.ErrQueueConflict) {
		t.Fatalf("expected ErrQueueConflict while an attempt is pending, got %v", err)
	}

	if err := store.ResolveAttempt(context.Background(), "attempt-1", entities.AttemptStatusRejected, "2", queue.StartedAt.Add(time.Minute)); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	err = store.AdvanceQueue(context.Background(), queue.ID, 1, attemptFor(queue, "attempt-2", "broker-a", 2))
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for repeat broker, got %v", err)
	}
}

func TestResolveAttemptIsExactlyOnce(t *testing.T) {
	store := memory.NewStore(entities.Settings{}, nil)
	queue := seedQueue(t, store)
	if err := store.AdvanceQueue(context.Background(), queue.ID, 0, attemptFor(queue, "attempt-1", "broker-a", 1)); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	resolvedAt := queue.StartedAt.Add(5 * time.Minute)
	if err := store.ResolveAttempt(context.Background(), "attempt-1", entities.AttemptStatusAccepted, "1", resolvedAt); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	err := store.ResolveAttempt(context.Background(), "attempt-1", entities.AttemptStatusExpired, "", resolvedAt.Add(time.Minute))
	if !errors.Is(err, domainerrors.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved on second resolve, got %v", err)
	}

	attempt, _ := store.GetAttempt(context.Background(), "attempt-1")
	if attempt.Status != entities.AttemptStatusAccepted {
		t.Fatalf("expected first resolution to stick, got %s", attempt.Status)
	}
	if attempt.ResponseReceivedAt == nil || !attempt.ResponseReceivedAt.Equal(resolvedAt) {
		t.Fatalf("expected response timestamp %v, got %v", resolvedAt, attempt.ResponseReceivedAt)
	}
}

func TestResolveAttemptTimeoutHasNoResponseTimestamp(t *testing.T) {
	store := memory.NewStore(entities.Settings{}, nil)
	queue := seedQueue(t, store)
	if err := store.AdvanceQueue(context.Background(), queue.ID, 0, attemptFor(queue, "attempt-1", "broker-a", 1)); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	if err := store.ResolveAttempt(context.Background(), "attempt-1", entities.AttemptStatusExpired, "", queue.StartedAt.Add(31*time.Minute)); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	attempt, _ := store.GetAttempt(context.Background(), "attempt-1")
	if attempt.ResponseReceivedAt != nil {
		t.Fatalf("timeouts must not carry a response timestamp, got %v", attempt.ResponseReceivedAt)
	}
}

func TestListExpiredPendingAttempts(t *testing.T) {
	store := memory.NewStore(entities.Settings{}, nil)
	queue := seedQueue(t, store)
	if err := store.AdvanceQueue(context.Background(), queue.ID, 0, attemptFor(queue, "attempt-1", "broker-a", 1)); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	beforeTimeout := queue.StartedAt.Add(20 * time.Minute)
	expired, err := store.ListExpiredPendingAttempts(context.Background(), beforeTimeout, 10)
	if err != nil {
		t.Fatalf("list expired failed: %v", err)
	}
	if len(expired) != 0 {
		t.Fatalf("expected nothing expired before the deadline, got %d", len(expired))
	}

	afterTimeout := queue.StartedAt.Add(40 * time.Minute)
	expired, err = store.ListExpiredPendingAttempts(context.Background(), afterTimeout, 10)
	if err != nil {
		t.Fatalf("list expired failed: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "attempt-1" {
		t.Fatalf("expected attempt-1 expired, got %+v", expired)
	}
}

func TestCancelQueueVoidsPendingAttempts(t *testing.T) {
	store := memory.NewStore(entities.Settings{}, nil)
	queue := seedQueue(t, store)
	if err := store.AdvanceQueue(context.Background(), queue.ID, 0, attemptFor(queue, "attempt-1", "broker-a", 1)); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	cancelledAt := queue.StartedAt.Add(10 * time.Minute)
	if err := store.CancelQueue(context.Background(), queue.ID, cancelledAt); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	attempt, _ := store.GetAttempt(context.Background(), "attempt-1")
	if attempt.Status != entities.AttemptStatusError {
		t.Fatalf("expected voided attempt, got %s", attempt.Status)
	}
	if _, err := store.FindPendingAttemptByAddress(context.Background(), attempt.BrokerAddress); !errors.Is(err, domainerrors.ErrAttemptNotFound) {
		t.Fatalf("expected no pending attempt after cancel, got %v", err)
	}

	if err := store.CancelQueue(context.Background(), queue.ID, cancelledAt); !errors.Is(err, domainerrors.ErrQueueConflict) {
		t.Fatalf("expected ErrQueueConflict cancelling a terminal queue, got %v", err)
	}
}

func TestListStalledQueues(t *testing.T) {
	store := memory.NewStore(entities.Settings{}, nil)
	queue := seedQueue(t, store)

	// A pending queue with no attempts is stalled from birth.
	stalled, err := store.ListStalledQueues(context.Background(), 10)
	if err != nil {
		t.Fatalf("list stalled failed: %v", err)
	}
	if len(stalled) != 1 || stalled[0].ID != queue.ID {
		t.Fatalf("expected the attempt-less queue listed, got %+v", stalled)
	}

	if err := store.AdvanceQueue(context.Background(), queue.ID, 0, attemptFor(queue, "attempt-1", "broker-a", 1)); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	stalled, _ = store.ListStalledQueues(context.Background(), 10)
	if len(stalled) != 0 {
		t.Fatalf("expected no stalled queues while an attempt is pending, got %+v", stalled)
	}

	// Resolving without a follow-up attempt re-stalls the queue.
	if err := store.ResolveAttempt(context.Background(), "attempt-1", entities.AttemptStatusRejected, "2", queue.StartedAt.Add(time.Minute)); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	stalled, _ = store.ListStalledQueues(context.Background(), 10)
	if len(stalled) != 1 || stalled[0].ID != queue.ID {
		t.Fatalf("expected the resolved queue listed as stalled, got %+v", stalled)
	}

	if err := store.CancelQueue(context.Background(), queue.ID, queue.StartedAt.Add(2*time.Minute)); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	stalled, _ = store.ListStalledQueues(context.Background(), 10)
	if len(stalled) != 0 {
		t.Fatalf("expected terminal queues excluded, got %+v", stalled)
	}
}
