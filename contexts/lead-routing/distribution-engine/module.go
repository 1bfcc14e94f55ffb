package distributionengine

import (
	"log/slog"

	httpadapter "lares/contexts/lead-routing/distribution-engine/adapters/http"
	"lares/contexts/lead-routing/distribution-engine/adapters/memory"
	"lares/contexts/lead-routing/distribution-engine/application/commands"
	"lares/contexts/lead-routing/distribution-engine/application/queries"
	"lares/contexts/lead-routing/distribution-engine/application/workers"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Sweeper workers.TimeoutSweeper
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Repository     ports.Repository
	Directory      ports.CandidateDirectory
	Requests       ports.RequestStore
	Sender         ports.MessageSender
	InboundLog     ports.InboundLog
	Outbox         ports.OutboxWriter
	OutboxRepo     ports.OutboxRepository
	Publisher      ports.EventPublisher
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	AdminAddress   string
	SweepBatchSize int
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	commandUseCase := commands.UseCase{
		Repository:   deps.Repository,
		Directory:    deps.Directory,
		Requests:     deps.Requests,
		Sender:       deps.Sender,
		InboundLog:   deps.InboundLog,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		AdminAddress: deps.AdminAddress,
		Logger:       deps.Logger,
	}
	queryUseCase := queries.UseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
		Sweeper: workers.TimeoutSweeper{
			Repository: deps.Repository,
			Commands:   commandUseCase,
			Clock:      deps.Clock,
			BatchSize:  deps.SweepBatchSize,
			Logger:     deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine against the in-memory store, for tests
// and database-free local runs. Directory, Sender, and Publisher still come
// from the caller.
func NewInMemoryModule(
	settings entities.Settings,
	requests []entities.DistributionRequest,
	directory ports.CandidateDirectory,
	sender ports.MessageSender,
	publisher ports.EventPublisher,
	adminAddress string,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(settings, requests)
	module := NewModule(Dependencies{
		Repository:   store,
		Directory:    directory,
		Requests:     store,
		Sender:       sender,
		InboundLog:   store,
		Outbox:       store,
		OutboxRepo:   store,
		Publisher:    publisher,
		Clock:        store,
		IDGen:        store,
		AdminAddress: adminAddress,
		Logger:       logger,
	})
	module.Store = store
	return module
}
