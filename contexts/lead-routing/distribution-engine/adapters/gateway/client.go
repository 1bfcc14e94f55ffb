package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
	"lares/contexts/lead-routing/distribution-engine/ports"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

const (
	defaultMaxRetries      = 4
	defaultMaxInterval     = 30 * time.Second
	defaultInitialInterval = 500 * time.Millisecond
	defaultBreakerTrip     = 5
	defaultBreakerCooldown = 60 * time.Second
	defaultRequestTimeout  = 10 * time.Second
)

type Config struct {
	BaseURL         string
	APIToken        string
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	BreakerTrip     uint32
	BreakerCooldown time.Duration
	RequestTimeout  time.Duration
}

// Client talks to the WhatsApp-style messaging gateway. Transient channel
// failures retry with exponential backoff and jitter; a circuit breaker
// short-circuits sends for a cooldown window once consecutive failures pass
// the trip threshold, so a dead gateway is not hammered by every escalation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	breaker    *gobreaker.CircuitBreaker
	maxRetries uint64
	initial    time.Duration
	maxWait    time.Duration
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaultInitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaultMaxInterval
	}
	if cfg.BreakerTrip == 0 {
		cfg.BreakerTrip = defaultBreakerTrip
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaultBreakerCooldown
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	trip := cfg.BreakerTrip
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "messaging-gateway",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		// A rejected address is the candidate's data being wrong, not the
		// channel being down; it must not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domainerrors.ErrInvalidAddress)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("messaging gateway breaker state changed",
				"event", "gateway_breaker_state_changed",
				"module", "lead-routing/distribution-engine",
				"layer", "adapter",
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		breaker:    breaker,
		maxRetries: cfg.MaxRetries,
		initial:    cfg.InitialInterval,
		maxWait:    cfg.MaxInterval,
		logger:     logger,
	}
}

type sendRequest struct {
	To      string        `json:"to"`
	Text    string        `json:"text"`
	Buttons []buttonReply `json:"buttons,omitempty"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

func (c *Client) Send(ctx context.Context, address string, message ports.OutboundMessage) (string, error) {
	if strings.TrimSpace(address) == "" {
		return "", domainerrors.ErrInvalidAddress
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initial
	policy.MaxInterval = c.maxWait

	var messageID string
	operation := func() error {
		result, err := c.breaker.Execute(func() (any, error) {
			return c.post(ctx, address, message)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: circuit open", domainerrors.ErrChannelUnavailable))
			}
			if errors.Is(err, domainerrors.ErrInvalidAddress) {
				return backoff.Permanent(err)
			}
			return err
		}
		messageID = result.(string)
		return nil
	}

	err := backoff.Retry(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx),
	)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidAddress) {
			return "", domainerrors.ErrInvalidAddress
		}
		if errors.Is(err, domainerrors.ErrChannelUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domainerrors.ErrChannelUnavailable, err)
	}
	return messageID, nil
}

func (c *Client) post(ctx context.Context, address string, message ports.OutboundMessage) (string, error) {
	payload := sendRequest{
		To:   address,
		Text: message.Text,
	}
	for _, option := range message.ReplyOptions {
		payload.Buttons = append(payload.Buttons, buttonReply{ID: option.ID, Label: option.Label})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("messaging gateway request failed",
			"event", "gateway_request_failed",
			"module", "lead-routing/distribution-engine",
			"layer", "adapter",
			"to", address,
			"error", err.Error(),
		)
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var decoded sendResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return "", err
		}
		return decoded.MessageID, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("gateway transient failure: status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound ||
		resp.StatusCode == http.StatusUnprocessableEntity:
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", domainerrors.ErrInvalidAddress, resp.StatusCode)
	default:
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", domainerrors.ErrChannelUnavailable, resp.StatusCode)
	}
}

var _ ports.MessageSender = (*Client)(nil)
