package ports

import (
	"context"

	"lares/contexts/lead-routing/broker-directory/domain/entities"
)

type Repository interface {
	GetBroker(ctx context.Context, brokerID string) (entities.Broker, error)
	ListBrokers(ctx context.Context, activeOnly bool) ([]entities.Broker, error)
	// FindEligible returns the active brokers for a request's criteria.
	// Specialization does not narrow the set, it only raises the score, so
	// every active broker is eligible.
	FindEligible(ctx context.Context, criteria entities.EligibilityCriteria) ([]entities.Broker, error)
	IncrementCompletedAssignments(ctx context.Context, brokerID string) error
}
