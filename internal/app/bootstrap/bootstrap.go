package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	brokerdirectory "lares/contexts/lead-routing/broker-directory"
	brokerpostgres "lares/contexts/lead-routing/broker-directory/adapters/postgres"
	distributionengine "lares/contexts/lead-routing/distribution-engine"
	"lares/contexts/lead-routing/distribution-engine/adapters/gateway"
	enginepostgres "lares/contexts/lead-routing/distribution-engine/adapters/postgres"
	engineworkers "lares/contexts/lead-routing/distribution-engine/application/workers"
	"lares/internal/platform/config"
	"lares/internal/platform/db"
	"lares/internal/platform/httpserver"
	"lares/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	sweeper       engineworkers.TimeoutSweeper
	outboxRelay   engineworkers.OutboxRelay
	enableSweeper bool
	enableRelay   bool
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	brokerRepo := brokerpostgres.NewRepository(pg.DB, logger)
	brokerModule := brokerdirectory.NewModule(brokerdirectory.Dependencies{
		Repository: brokerRepo,
		Logger:     logger,
	})

	engineRepo := enginepostgres.NewRepository(pg.DB, logger)
	sender := gateway.NewClient(gateway.Config{
		BaseURL:  cfg.GatewayBaseURL,
		APIToken: cfg.GatewayAPIToken,
	}, logger)

	engineModule := distributionengine.NewModule(distributionengine.Dependencies{
		Repository:     engineRepo,
		Directory:      directoryBridge{directory: brokerModule},
		Requests:       engineRepo,
		Sender:         sender,
		InboundLog:     engineRepo,
		Outbox:         engineRepo,
		OutboxRepo:     engineRepo,
		Publisher:      kafka,
		Clock:          enginepostgres.SystemClock{},
		IDGen:          enginepostgres.UUIDGenerator{},
		AdminAddress:   cfg.AdminWhatsApp,
		SweepBatchSize: cfg.SweepBatch,
		Logger:         logger,
	})

	server := httpserver.New(engineModule, brokerModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	brokerRepo := brokerpostgres.NewRepository(pg.DB, logger)
	brokerModule := brokerdirectory.NewModule(brokerdirectory.Dependencies{
		Repository: brokerRepo,
		Logger:     logger,
	})

	engineRepo := enginepostgres.NewRepository(pg.DB, logger)
	sender := gateway.NewClient(gateway.Config{
		BaseURL:  cfg.GatewayBaseURL,
		APIToken: cfg.GatewayAPIToken,
	}, logger)

	engineModule := distributionengine.NewModule(distributionengine.Dependencies{
		Repository:     engineRepo,
		Directory:      directoryBridge{directory: brokerModule},
		Requests:       engineRepo,
		Sender:         sender,
		InboundLog:     engineRepo,
		Outbox:         engineRepo,
		OutboxRepo:     engineRepo,
		Publisher:      kafka,
		Clock:          enginepostgres.SystemClock{},
		IDGen:          enginepostgres.UUIDGenerator{},
		AdminAddress:   cfg.AdminWhatsApp,
		SweepBatchSize: cfg.SweepBatch,
		Logger:         logger,
	})

	return &WorkerApp{
		postgres:      pg,
		sweeper:       engineModule.Sweeper,
		outboxRelay:   engineModule.Relay,
		enableSweeper: cfg.EnableTimeoutSweeper,
		enableRelay:   cfg.EnableOutboxRelay,
		pollInterval:  cfg.SweepInterval,
		logger:        logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	// A failed cycle is an alert, not a reason to exit: the next tick
	// retries, and the store-level guards keep retried work idempotent.
	for {
		if w.enableSweeper {
			if err := w.sweeper.RunOnce(ctx); err != nil {
				w.logger.Error("timeout sweep cycle failed",
					"event", "bootstrap_sweep_cycle_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
		if w.enableRelay {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				w.logger.Error("outbox relay cycle failed",
					"event", "bootstrap_relay_cycle_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
