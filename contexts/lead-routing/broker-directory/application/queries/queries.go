package queries

import (
	"context"
	"log/slog"
	"strings"

	application "lares/contexts/lead-routing/broker-directory/application"
	"lares/contexts/lead-routing/broker-directory/domain/entities"
	domainerrors "lares/contexts/lead-routing/broker-directory/domain/errors"
	"lares/contexts/lead-routing/broker-directory/ports"
)

type UseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func (uc UseCase) GetBroker(ctx context.Context, brokerID string) (entities.Broker, error) {
	logger := application.ResolveLogger(uc.Logger)
	normalizedID := strings.TrimSpace(brokerID)
	if normalizedID == "" {
		return entities.Broker{}, domainerrors.ErrInvalidInput
	}
	broker, err := uc.Repository.GetBroker(ctx, normalizedID)
	if err != nil {
		logger.Warn("broker directory get failed",
			"event", "broker_directory_get_failed",
			"module", "lead-routing/broker-directory",
			"layer", "application",
			"broker_id", normalizedID,
			"error", err.Error(),
		)
		return entities.Broker{}, err
	}
	return broker, nil
}

func (uc UseCase) ListBrokers(ctx context.Context, activeOnly bool) ([]entities.Broker, error) {
	return uc.Repository.ListBrokers(ctx, activeOnly)
}

func (uc UseCase) FindEligible(
	ctx context.Context,
	criteria entities.EligibilityCriteria,
) ([]entities.Broker, error) {
	logger := application.ResolveLogger(uc.Logger)
	brokers, err := uc.Repository.FindEligible(ctx, criteria)
	if err != nil {
		logger.Error("broker directory eligibility lookup failed",
			"event", "broker_directory_find_eligible_failed",
			"module", "lead-routing/broker-directory",
			"layer", "application",
			"neighborhood_id", criteria.NeighborhoodID,
			"builder_id", criteria.BuilderID,
			"error", err.Error(),
		)
		return nil, err
	}
	return brokers, nil
}
