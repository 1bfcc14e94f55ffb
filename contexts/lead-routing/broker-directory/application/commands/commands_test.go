package commands_test

import (
	"context"
	"errors"
	"testing"

	"lares/contexts/lead-routing/broker-directory/adapters/memory"
	"lares/contexts/lead-routing/broker-directory/application/commands"
	"lares/contexts/lead-routing/broker-directory/domain/entities"
	domainerrors "lares/contexts/lead-routing/broker-directory/domain/errors"
)

func TestRecordAssignmentIncrementsWorkload(t *testing.T) {
	store := memory.NewStore([]entities.Broker{
		{ID: "broker-a", Name: "Ana", Active: true, CompletedAssignments: 2},
	})
	useCase := commands.UseCase{Repository: store}

	if err := useCase.RecordAssignment(context.Background(), "broker-a"); err != nil {
		t.Fatalf("record assignment failed: %v", err)
	}

	broker, err := store.GetBroker(context.Background(), "broker-a")
	if err != nil {
		t.Fatalf("get broker failed: %v", err)
	}
	if broker.CompletedAssignments != 3 {
		t.Fatalf("expected workload counter 3, got %d", broker.CompletedAssignments)
	}
}

func TestRecordAssignmentValidation(t *testing.T) {
	useCase := commands.UseCase{Repository: memory.NewStore(nil)}

	if err := useCase.RecordAssignment(context.Background(), "  "); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := useCase.RecordAssignment(context.Background(), "ghost"); !errors.Is(err, domainerrors.ErrBrokerNotFound) {
		t.Fatalf("expected ErrBrokerNotFound, got %v", err)
	}
}
