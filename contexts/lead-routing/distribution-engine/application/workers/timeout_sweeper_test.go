package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lares/contexts/lead-routing/distribution-engine/adapters/memory"
	"lares/contexts/lead-routing/distribution-engine/application/commands"
	"lares/contexts/lead-routing/distribution-engine/application/workers"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type stubDirectory struct {
	candidates []entities.Candidate
	failNext   error
}

func (d *stubDirectory) FindEligible(_ context.Context, _ entities.Criteria) ([]entities.Candidate, error) {
	if err := d.failNext; err != nil {
		d.failNext = nil
		return nil, err
	}
	return append([]entities.Candidate(nil), d.candidates...), nil
}

func (d *stubDirectory) RecordAssignment(_ context.Context, _ string) error {
	return nil
}

type stubSender struct {
	sent []string
}

func (s *stubSender) Send(_ context.Context, address string, _ ports.OutboundMessage) (string, error) {
	s.sent = append(s.sent, address)
	return "msg-1", nil
}

func newSweeperFixture() (workers.TimeoutSweeper, commands.UseCase, *memory.Store, *stubDirectory, *fixedClock) {
	store := memory.NewStore(
		entities.Settings{MaxAttempts: 3, TimeoutMinutes: 30, AutoDistributionEnabled: true},
		[]entities.DistributionRequest{
			{ID: "lead-1", Kind: entities.RequestKindLead, Criteria: entities.Criteria{NeighborhoodID: "centro"}},
		},
	)
	clock := &fixedClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	directory := &stubDirectory{candidates: []entities.Candidate{
		{ID: "broker-a", Active: true, Neighborhoods: []string{"centro"}, Rating: 4.0, WhatsAppAddress: "+5511000000001"},
		{ID: "broker-b", Active: true, Rating: 3.0, WhatsAppAddress: "+5511000000002"},
	}}
	useCase := commands.UseCase{
		Repository: store,
		Directory:  directory,
		Requests:   store,
		Sender:     &stubSender{},
		InboundLog: store,
		Outbox:     store,
		Clock:      clock,
		IDGen:      store,
	}
	sweeper := workers.TimeoutSweeper{
		Repository: store,
		Commands:   useCase,
		Clock:      clock,
		BatchSize:  10,
	}
	return sweeper, useCase, store, directory, clock
}

func TestSweeperExpiresTimedOutAttemptAndEscalates(t *testing.T) {
	sweeper, useCase, store, _, clock := newSweeperFixture()

	queue, err := useCase.Start(context.Background(), commands.StartCommand{
		Kind:      entities.RequestKindLead,
		RequestID: "lead-1",
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	clock.now = clock.now.Add(31 * time.Minute)
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	attempts, err := store.ListAttempts(context.Background(), queue.ID)
	if err != nil {
		t.Fatalf("list attempts failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected expired attempt plus escalation, got %d attempts", len(attempts))
	}
	if attempts[0].Status != entities.AttemptStatusExpired {
		t.Fatalf("expected first attempt expired, got %s", attempts[0].Status)
	}
	if attempts[1].BrokerID != "broker-b" || attempts[1].Status != entities.AttemptStatusPending {
		t.Fatalf("expected pending escalation to broker-b, got %+v", attempts[1])
	}
}

func TestSweeperLeavesFreshAttemptsAlone(t *testing.T) {
	sweeper, useCase, store, _, clock := newSweeperFixture()

	queue, err := useCase.Start(context.Background(), commands.StartCommand{
		Kind:      entities.RequestKindLead,
		RequestID: "lead-1",
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	clock.now = clock.now.Add(10 * time.Minute)
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	attempts, _ := store.ListAttempts(context.Background(), queue.ID)
	if len(attempts) != 1 || attempts[0].Status != entities.AttemptStatusPending {
		t.Fatalf("expected untouched pending attempt, got %+v", attempts)
	}
}

func TestSweeperResumesQueueStalledByDirectoryOutage(t *testing.T) {
	sweeper, useCase, store, directory, clock := newSweeperFixture()

	queue, err := useCase.Start(context.Background(), commands.StartCommand{
		Kind:      entities.RequestKindLead,
		RequestID: "lead-1",
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	attempts, _ := store.ListAttempts(context.Background(), queue.ID)
	directory.failNext = errors.New("directory unavailable")
	err = useCase.HandleInbound(context.Background(), ports.InboundMessage{
		SenderAddress: attempts[0].BrokerAddress,
		Body:          "2",
	})
	if err == nil {
		t.Fatal("expected reject to surface the directory outage")
	}

	// Hours later nothing has a pending attempt to expire; only the stalled
	// pass can move this queue.
	clock.now = clock.now.Add(24 * time.Hour)
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	attempts, _ = store.ListAttempts(context.Background(), queue.ID)
	if len(attempts) != 2 {
		t.Fatalf("expected sweep to create the follow-up attempt, got %d attempts", len(attempts))
	}
	if attempts[1].BrokerID != "broker-b" || attempts[1].Status != entities.AttemptStatusPending {
		t.Fatalf("expected pending escalation to broker-b, got %+v", attempts[1])
	}
	updated, _ := store.GetQueue(context.Background(), queue.ID)
	if updated.Status != entities.QueueStatusInProgress || updated.CurrentAttempt != 2 {
		t.Fatalf("expected queue back in_progress on attempt 2, got %+v", updated)
	}
}
