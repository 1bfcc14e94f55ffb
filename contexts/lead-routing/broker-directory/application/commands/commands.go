package commands

import (
	"context"
	"log/slog"
	"strings"

	application "lares/contexts/lead-routing/broker-directory/application"
	domainerrors "lares/contexts/lead-routing/broker-directory/domain/errors"
	"lares/contexts/lead-routing/broker-directory/ports"
)

type UseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

// RecordAssignment bumps a broker's workload counter. Called by the
// distribution engine when a queue completes.
func (uc UseCase) RecordAssignment(ctx context.Context, brokerID string) error {
	logger := application.ResolveLogger(uc.Logger)
	normalizedID := strings.TrimSpace(brokerID)
	if normalizedID == "" {
		return domainerrors.ErrInvalidInput
	}
	if err := uc.Repository.IncrementCompletedAssignments(ctx, normalizedID); err != nil {
		logger.Error("broker assignment counter update failed",
			"event", "broker_directory_record_assignment_failed",
			"module", "lead-routing/broker-directory",
			"layer", "application",
			"broker_id", normalizedID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("broker assignment recorded",
		"event", "broker_directory_assignment_recorded",
		"module", "lead-routing/broker-directory",
		"layer", "application",
		"broker_id", normalizedID,
	)
	return nil
}
