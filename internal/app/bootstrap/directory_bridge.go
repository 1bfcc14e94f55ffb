package bootstrap

import (
	"context"

	brokerdirectory "lares/contexts/lead-routing/broker-directory"
	brokerentities "lares/contexts/lead-routing/broker-directory/domain/entities"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

// directoryBridge adapts the broker-directory module to the engine's
// candidate directory port. Cross-context translation lives here in the
// composition root so neither context imports the other.
type directoryBridge struct {
	directory brokerdirectory.Module
}

func (b directoryBridge) FindEligible(ctx context.Context, criteria entities.Criteria) ([]entities.Candidate, error) {
	brokers, err := b.directory.Queries.FindEligible(ctx, brokerentities.EligibilityCriteria{
		NeighborhoodID: criteria.NeighborhoodID,
		BuilderID:      criteria.BuilderID,
	})
	if err != nil {
		return nil, err
	}
	candidates := make([]entities.Candidate, 0, len(brokers))
	for _, broker := range brokers {
		candidates = append(candidates, entities.Candidate{
			ID:                   broker.ID,
			Name:                 broker.Name,
			Active:               broker.Active,
			Neighborhoods:        broker.Neighborhoods,
			Builders:             broker.Builders,
			Rating:               broker.Rating,
			CompletedAssignments: broker.CompletedAssignments,
			WhatsAppAddress:      broker.WhatsAppAddress,
		})
	}
	return candidates, nil
}

func (b directoryBridge) RecordAssignment(ctx context.Context, brokerID string) error {
	return b.directory.Commands.RecordAssignment(ctx, brokerID)
}

var _ ports.CandidateDirectory = directoryBridge{}
