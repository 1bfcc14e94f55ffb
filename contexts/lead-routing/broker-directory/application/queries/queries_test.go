package queries_test

import (
	"context"
	"errors"
	"testing"

	"lares/contexts/lead-routing/broker-directory/adapters/memory"
	"lares/contexts/lead-routing/broker-directory/application/queries"
	"lares/contexts/lead-routing/broker-directory/domain/entities"
	domainerrors "lares/contexts/lead-routing/broker-directory/domain/errors"
)

func seededQueries() queries.UseCase {
	store := memory.NewStore([]entities.Broker{
		{ID: "broker-a", Name: "Ana", Active: true, Neighborhoods: []string{"centro"}},
		{ID: "broker-b", Name: "Bruno", Active: true, Builders: []string{"construtora-x"}},
		{ID: "broker-c", Name: "Carla", Active: false},
	})
	return queries.UseCase{Repository: store}
}

func TestGetBroker(t *testing.T) {
	useCase := seededQueries()

	broker, err := useCase.GetBroker(context.Background(), " broker-a ")
	if err != nil {
		t.Fatalf("get broker failed: %v", err)
	}
	if broker.Name != "Ana" {
		t.Fatalf("unexpected broker %+v", broker)
	}

	if _, err := useCase.GetBroker(context.Background(), "ghost"); !errors.Is(err, domainerrors.ErrBrokerNotFound) {
		t.Fatalf("expected ErrBrokerNotFound, got %v", err)
	}
	if _, err := useCase.GetBroker(context.Background(), "  "); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank id, got %v", err)
	}
}

func TestFindEligibleReturnsOnlyActiveBrokers(t *testing.T) {
	useCase := seededQueries()

	// Specialization raises score downstream but never filters eligibility,
	// so an unrelated neighborhood still yields every active broker.
	brokers, err := useCase.FindEligible(context.Background(), entities.EligibilityCriteria{NeighborhoodID: "jardins"})
	if err != nil {
		t.Fatalf("find eligible failed: %v", err)
	}
	if len(brokers) != 2 {
		t.Fatalf("expected both active brokers, got %d", len(brokers))
	}
	for _, broker := range brokers {
		if !broker.Active {
			t.Fatalf("inactive broker %s leaked into eligibility", broker.ID)
		}
	}
}
