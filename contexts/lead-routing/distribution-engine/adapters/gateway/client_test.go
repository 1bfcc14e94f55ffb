package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"lares/contexts/lead-routing/distribution-engine/adapters/gateway"
	domainerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
	"lares/contexts/lead-routing/distribution-engine/ports"
)

func fastConfig(baseURL string) gateway.Config {
	return gateway.Config{
		BaseURL:         baseURL,
		APIToken:        "test-token",
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		BreakerTrip:     100,
		BreakerCooldown: time.Minute,
		RequestTimeout:  time.Second,
	}
}

func offer() ports.OutboundMessage {
	return ports.OutboundMessage{
		Text: "New lead opportunity waiting for you.",
		ReplyOptions: []ports.ReplyOption{
			{ID: "accept", Label: "Accept"},
			{ID: "reject", Label: "Pass"},
		},
	}
}

func TestSendDeliversAndReturnsMessageID(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeMessageID(w, "wamid-123")
	}))
	defer server.Close()

	client := gateway.NewClient(fastConfig(server.URL), nil)
	messageID, err := client.Send(context.Background(), "+5511000000001", offer())
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if messageID != "wamid-123" {
		t.Fatalf("expected gateway message id, got %q", messageID)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody["to"] != "+5511000000001" {
		t.Fatalf("expected recipient in payload, got %v", gotBody["to"])
	}
	buttons, _ := gotBody["buttons"].([]any)
	if len(buttons) != 2 {
		t.Fatalf("expected two reply buttons, got %v", gotBody["buttons"])
	}
}

func TestSendRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeMessageID(w, "wamid-456")
	}))
	defer server.Close()

	client := gateway.NewClient(fastConfig(server.URL), nil)
	messageID, err := client.Send(context.Background(), "+5511000000001", offer())
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if messageID != "wamid-456" {
		t.Fatalf("unexpected message id %q", messageID)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 delivery attempts, got %d", calls.Load())
	}
}

func TestSendInvalidAddressDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := gateway.NewClient(fastConfig(server.URL), nil)
	_, err := client.Send(context.Background(), "+5511bad", offer())
	if !errors.Is(err, domainerrors.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt for a rejected address, got %d", calls.Load())
	}
}

func TestSendBlankAddressRejectedLocally(t *testing.T) {
	client := gateway.NewClient(fastConfig("http://127.0.0.1:0"), nil)
	if _, err := client.Send(context.Background(), "  ", offer()); !errors.Is(err, domainerrors.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for blank address, got %v", err)
	}
}

func TestSendExhaustedRetriesSurfaceChannelUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := gateway.NewClient(fastConfig(server.URL), nil)
	_, err := client.Send(context.Background(), "+5511000000001", offer())
	if !errors.Is(err, domainerrors.ErrChannelUnavailable) {
		t.Fatalf("expected ErrChannelUnavailable after exhausted retries, got %v", err)
	}
}

func TestSendOpenBreakerShortCircuits(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := fastConfig(server.URL)
	cfg.MaxRetries = 1
	cfg.BreakerTrip = 2
	client := gateway.NewClient(cfg, nil)

	// Two failed deliveries trip the breaker.
	if _, err := client.Send(context.Background(), "+5511000000001", offer()); err == nil {
		t.Fatalf("expected failing send")
	}
	tripped := calls.Load()

	_, err := client.Send(context.Background(), "+5511000000001", offer())
	if !errors.Is(err, domainerrors.ErrChannelUnavailable) {
		t.Fatalf("expected ErrChannelUnavailable while breaker is open, got %v", err)
	}
	if calls.Load() != tripped {
		t.Fatalf("expected no gateway traffic while breaker is open, got %d extra calls", calls.Load()-tripped)
	}
}

func writeMessageID(w http.ResponseWriter, id string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message_id": id})
}
