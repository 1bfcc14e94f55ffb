package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"lares/contexts/lead-routing/distribution-engine/application/workers"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

type unavailableRepo struct {
	ports.Repository
	calls int
}

func (r *unavailableRepo) ListExpiredPendingAttempts(
	_ context.Context,
	_ time.Time,
	_ int,
) ([]entities.Attempt, error) {
	r.calls++
	return nil, errors.New("connection refused")
}

func TestWorkerRunSurvivesFailingSweepCycles(t *testing.T) {
	repo := &unavailableRepo{}
	worker := &WorkerApp{
		sweeper:       workers.TimeoutSweeper{Repository: repo},
		enableSweeper: true,
		pollInterval:  5 * time.Millisecond,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	if err := worker.Run(ctx); err != nil {
		t.Fatalf("expected run to outlive failing cycles and stop on context, got %v", err)
	}
	if repo.calls < 2 {
		t.Fatalf("expected the loop to keep retrying after a failed cycle, got %d calls", repo.calls)
	}
}
