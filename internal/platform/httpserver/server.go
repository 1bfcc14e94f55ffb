package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	brokerdirectory "lares/contexts/lead-routing/broker-directory"
	distributionengine "lares/contexts/lead-routing/distribution-engine"
	engineerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
	enginehttp "lares/contexts/lead-routing/distribution-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "lares/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	distribution distributionengine.Module
	brokers      brokerdirectory.Module
}

func New(
	distribution distributionengine.Module,
	brokers brokerdirectory.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		distribution: distribution,
		brokers:      brokers,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/distributions", s.handleStartDistribution)
	s.mux.HandleFunc("GET /v1/distributions", s.handleListDistributions)
	s.mux.HandleFunc("GET /v1/distributions/{queue_id}", s.handleGetDistribution)
	s.mux.HandleFunc("POST /v1/distributions/{queue_id}/cancel", s.handleCancelDistribution)

	s.mux.HandleFunc("POST /webhooks/messages", s.handleInboundMessage)

	s.registerBrokerRoutes()
}

func (s *Server) handleStartDistribution(w http.ResponseWriter, r *http.Request) {
	var req enginehttp.StartDistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.distribution.Handler.StartHandler(r.Context(), req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListDistributions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.distribution.Handler.ListQueuesHandler(
		r.Context(),
		query.Get("request_id"),
		query.Get("status"),
	)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDistribution(w http.ResponseWriter, r *http.Request) {
	queueID := r.PathValue("queue_id")
	resp, err := s.distribution.Handler.GetQueueHandler(r.Context(), queueID)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelDistribution(w http.ResponseWriter, r *http.Request) {
	var req enginehttp.CancelDistributionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	queueID := r.PathValue("queue_id")
	if err := s.distribution.Handler.CancelHandler(r.Context(), queueID, req); err != nil {
		writeEngineDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInboundMessage always acknowledges so the gateway does not
// redeliver; unresolvable replies are logged downstream.
func (s *Server) handleInboundMessage(w http.ResponseWriter, r *http.Request) {
	var req enginehttp.InboundWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	_ = s.distribution.Handler.WebhookHandler(r.Context(), req)
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func writeEngineDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engineerrors.ErrInvalidInput):
		writeEngineError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, engineerrors.ErrQueueNotFound):
		writeEngineError(w, http.StatusNotFound, "queue_not_found", err.Error())
	case errors.Is(err, engineerrors.ErrRequestNotFound):
		writeEngineError(w, http.StatusNotFound, "request_not_found", err.Error())
	case errors.Is(err, engineerrors.ErrQueueExists):
		writeEngineError(w, http.StatusConflict, "queue_exists", err.Error())
	case errors.Is(err, engineerrors.ErrQueueTerminal):
		writeEngineError(w, http.StatusConflict, "queue_terminal", err.Error())
	case errors.Is(err, engineerrors.ErrQueueConflict):
		writeEngineError(w, http.StatusConflict, "queue_conflict", err.Error())
	case errors.Is(err, engineerrors.ErrDistributionDisabled):
		writeEngineError(w, http.StatusUnprocessableEntity, "distribution_disabled", err.Error())
	case errors.Is(err, engineerrors.ErrInvalidSettings):
		writeEngineError(w, http.StatusUnprocessableEntity, "invalid_settings", err.Error())
	case errors.Is(err, engineerrors.ErrNoEligibleCandidates):
		writeEngineError(w, http.StatusUnprocessableEntity, "no_eligible_candidates", err.Error())
	case errors.Is(err, engineerrors.ErrChannelUnavailable):
		writeEngineError(w, http.StatusBadGateway, "channel_unavailable", err.Error())
	default:
		writeEngineError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEngineError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, enginehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
