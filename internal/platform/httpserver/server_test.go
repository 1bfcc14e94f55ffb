package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	brokerdirectory "lares/contexts/lead-routing/broker-directory"
	brokerentities "lares/contexts/lead-routing/broker-directory/domain/entities"
	distributionengine "lares/contexts/lead-routing/distribution-engine"
	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

type stubDirectory struct {
	candidates []entities.Candidate
}

func (d stubDirectory) FindEligible(_ context.Context, _ entities.Criteria) ([]entities.Candidate, error) {
	return d.candidates, nil
}

func (d stubDirectory) RecordAssignment(_ context.Context, _ string) error {
	return nil
}

type stubSender struct{}

func (stubSender) Send(_ context.Context, _ string, _ ports.OutboundMessage) (string, error) {
	return "msg-1", nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ string, _ ports.EventEnvelope) error {
	return nil
}

func newTestServer() *Server {
	engineModule := distributionengine.NewInMemoryModule(
		entities.Settings{MaxAttempts: 3, TimeoutMinutes: 30, AutoDistributionEnabled: true},
		[]entities.DistributionRequest{
			{ID: "lead-1", Kind: entities.RequestKindLead, Criteria: entities.Criteria{NeighborhoodID: "centro"}},
		},
		stubDirectory{candidates: []entities.Candidate{
			{ID: "broker-a", Active: true, Neighborhoods: []string{"centro"}, Rating: 4.0, WhatsAppAddress: "+5511000000001"},
		}},
		stubSender{},
		noopPublisher{},
		"",
		nil,
	)
	brokerModule := brokerdirectory.NewInMemoryModule([]brokerentities.Broker{
		{ID: "broker-a", Name: "Ana", Active: true, Neighborhoods: []string{"centro"}, Rating: 4.0, WhatsAppAddress: "+5511000000001"},
		{ID: "broker-b", Name: "Bruno", Active: false},
	}, nil)
	return New(engineModule, brokerModule, nil, ":0")
}

func doJSON(t *testing.T, server *Server, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode request failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestStartDistributionEndpoint(t *testing.T) {
	server := newTestServer()

	recorder := doJSON(t, server, http.MethodPost, "/v1/distributions", map[string]string{
		"kind":       "lead",
		"request_id": "lead-1",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response struct {
		ID             string `json:"id"`
		Status         string `json:"status"`
		CurrentAttempt int    `json:"current_attempt"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if response.ID == "" {
		t.Fatalf("expected queue id in response")
	}
	if response.Status != "in_progress" || response.CurrentAttempt != 1 {
		t.Fatalf("expected live queue on attempt 1, got %+v", response)
	}

	detail := doJSON(t, server, http.MethodGet, "/v1/distributions/"+response.ID, nil)
	if detail.Code != http.StatusOK {
		t.Fatalf("expected 200 on queue detail, got %d", detail.Code)
	}
}

func TestStartDistributionRejectsBadInput(t *testing.T) {
	server := newTestServer()

	recorder := doJSON(t, server, http.MethodPost, "/v1/distributions", map[string]string{
		"kind":       "rental",
		"request_id": "lead-1",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", recorder.Code)
	}

	recorder = doJSON(t, server, http.MethodPost, "/v1/distributions", map[string]string{
		"kind":       "lead",
		"request_id": "lead-missing",
	})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown request, got %d", recorder.Code)
	}
}

func TestGetDistributionNotFound(t *testing.T) {
	server := newTestServer()

	recorder := doJSON(t, server, http.MethodGet, "/v1/distributions/nope", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	var response struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode error body failed: %v", err)
	}
	if response.Code != "queue_not_found" {
		t.Fatalf("expected queue_not_found code, got %q", response.Code)
	}
}

func TestCancelDistributionEndpoint(t *testing.T) {
	server := newTestServer()

	start := doJSON(t, server, http.MethodPost, "/v1/distributions", map[string]string{
		"kind":       "lead",
		"request_id": "lead-1",
	})
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(start.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode start response failed: %v", err)
	}

	cancel := doJSON(t, server, http.MethodPost, "/v1/distributions/"+created.ID+"/cancel", map[string]string{
		"reason": "client withdrew",
	})
	if cancel.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", cancel.Code, cancel.Body.String())
	}

	again := doJSON(t, server, http.MethodPost, "/v1/distributions/"+created.ID+"/cancel", nil)
	if again.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second cancel, got %d", again.Code)
	}
}

func TestInboundWebhookAlwaysAcknowledges(t *testing.T) {
	server := newTestServer()

	recorder := doJSON(t, server, http.MethodPost, "/webhooks/messages", map[string]string{
		"sender_address": "+5511777770000",
		"body":           "hello",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", recorder.Code)
	}
}

func TestBrokerEndpoints(t *testing.T) {
	server := newTestServer()

	recorder := doJSON(t, server, http.MethodGet, "/v1/brokers?active=true", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var list struct {
		Brokers []struct {
			ID string `json:"id"`
		} `json:"brokers"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode broker list failed: %v", err)
	}
	if len(list.Brokers) != 1 || list.Brokers[0].ID != "broker-a" {
		t.Fatalf("expected only active broker-a, got %+v", list.Brokers)
	}

	missing := doJSON(t, server, http.MethodGet, "/v1/brokers/ghost", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown broker, got %d", missing.Code)
	}
}
