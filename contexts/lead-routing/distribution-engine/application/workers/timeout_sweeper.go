package workers

import (
	"context"
	"log/slog"
	"time"

	application "lares/contexts/lead-routing/distribution-engine/application"
	"lares/contexts/lead-routing/distribution-engine/application/commands"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

// TimeoutSweeper resolves expired pending attempts on a schedule. Each
// expired attempt goes through the same conditional resolution as webhook
// replies, so a sweep racing an inbound response is harmless: one of the two
// wins, the other no-ops. Each cycle also resumes stalled queues, the ones a
// crash or transient error left non-terminal with no pending attempt, so no
// queue waits on an operator to notice it stopped moving.
type TimeoutSweeper struct {
	Repository ports.Repository
	Commands   commands.UseCase
	Clock      ports.Clock
	BatchSize  int
	Logger     *slog.Logger
}

func (s TimeoutSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	limit := s.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	expired, err := s.Repository.ListExpiredPendingAttempts(ctx, now, limit)
	if err != nil {
		logger.Error("distribution sweep list expired failed",
			"event", "distribution_sweep_list_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	var failures int
	for _, attempt := range expired {
		if err := s.Commands.ResolveExpired(ctx, attempt); err != nil {
			failures++
			logger.Error("distribution sweep escalation failed",
				"event", "distribution_sweep_escalation_failed",
				"module", "lead-routing/distribution-engine",
				"layer", "worker",
				"queue_id", attempt.QueueID,
				"attempt_id", attempt.ID,
				"error", err.Error(),
			)
		}
	}

	stalled, err := s.Repository.ListStalledQueues(ctx, limit)
	if err != nil {
		logger.Error("distribution sweep list stalled failed",
			"event", "distribution_sweep_list_stalled_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	for _, queue := range stalled {
		if err := s.Commands.Resume(ctx, queue.ID); err != nil {
			failures++
			logger.Error("distribution sweep resume failed",
				"event", "distribution_sweep_resume_failed",
				"module", "lead-routing/distribution-engine",
				"layer", "worker",
				"queue_id", queue.ID,
				"error", err.Error(),
			)
		}
	}

	if len(expired) == 0 && len(stalled) == 0 {
		return nil
	}
	logger.Info("distribution sweep cycle finished",
		"event", "distribution_sweep_cycle_finished",
		"module", "lead-routing/distribution-engine",
		"layer", "worker",
		"expired", len(expired),
		"stalled", len(stalled),
		"failures", failures,
	)
	return nil
}
