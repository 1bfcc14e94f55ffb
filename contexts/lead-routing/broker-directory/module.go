package brokerdirectory

import (
	"log/slog"

	httpadapter "lares/contexts/lead-routing/broker-directory/adapters/http"
	"lares/contexts/lead-routing/broker-directory/adapters/memory"
	"lares/contexts/lead-routing/broker-directory/application/commands"
	"lares/contexts/lead-routing/broker-directory/application/queries"
	"lares/contexts/lead-routing/broker-directory/domain/entities"
	"lares/contexts/lead-routing/broker-directory/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Commands commands.UseCase
	Queries  queries.UseCase
	Store    *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	commandUseCase := commands.UseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	queryUseCase := queries.UseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Queries: queryUseCase,
			Logger:  deps.Logger,
		},
		Commands: commandUseCase,
		Queries:  queryUseCase,
	}
}

func NewInMemoryModule(seed []entities.Broker, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository: store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
