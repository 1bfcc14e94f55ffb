package httpserver

import (
	"errors"
	"net/http"

	brokererrors "lares/contexts/lead-routing/broker-directory/domain/errors"
	brokerhttp "lares/contexts/lead-routing/broker-directory/transport/http"
)

func (s *Server) registerBrokerRoutes() {
	s.mux.HandleFunc("GET /v1/brokers", s.handleListBrokers)
	s.mux.HandleFunc("GET /v1/brokers/{broker_id}", s.handleGetBroker)
}

func (s *Server) handleListBrokers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	resp, err := s.brokers.Handler.ListBrokersHandler(r.Context(), activeOnly)
	if err != nil {
		writeBrokerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBroker(w http.ResponseWriter, r *http.Request) {
	brokerID := r.PathValue("broker_id")
	resp, err := s.brokers.Handler.GetBrokerHandler(r.Context(), brokerID)
	if err != nil {
		writeBrokerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeBrokerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, brokererrors.ErrInvalidInput):
		writeBrokerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, brokererrors.ErrBrokerNotFound):
		writeBrokerError(w, http.StatusNotFound, "broker_not_found", err.Error())
	default:
		writeBrokerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBrokerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, brokerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
