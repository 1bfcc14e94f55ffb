package httpadapter

import (
	"context"
	"log/slog"

	"lares/contexts/lead-routing/broker-directory/application/queries"
	"lares/contexts/lead-routing/broker-directory/domain/entities"
	httptransport "lares/contexts/lead-routing/broker-directory/transport/http"
)

type Handler struct {
	Queries queries.UseCase
	Logger  *slog.Logger
}

func (h Handler) GetBrokerHandler(ctx context.Context, brokerID string) (httptransport.BrokerResponse, error) {
	broker, err := h.Queries.GetBroker(ctx, brokerID)
	if err != nil {
		return httptransport.BrokerResponse{}, err
	}
	return brokerToResponse(broker), nil
}

func (h Handler) ListBrokersHandler(ctx context.Context, activeOnly bool) (httptransport.BrokerListResponse, error) {
	brokers, err := h.Queries.ListBrokers(ctx, activeOnly)
	if err != nil {
		return httptransport.BrokerListResponse{}, err
	}
	response := httptransport.BrokerListResponse{
		Brokers: make([]httptransport.BrokerResponse, 0, len(brokers)),
	}
	for _, broker := range brokers {
		response.Brokers = append(response.Brokers, brokerToResponse(broker))
	}
	return response, nil
}

func brokerToResponse(broker entities.Broker) httptransport.BrokerResponse {
	return httptransport.BrokerResponse{
		ID:                   broker.ID,
		Name:                 broker.Name,
		Active:               broker.Active,
		Neighborhoods:        append([]string(nil), broker.Neighborhoods...),
		Builders:             append([]string(nil), broker.Builders...),
		Rating:               broker.Rating,
		CompletedAssignments: broker.CompletedAssignments,
	}
}
