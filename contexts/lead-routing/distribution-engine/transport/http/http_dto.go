package httptransport

type StartDistributionRequest struct {
	Kind      string `json:"kind"`
	RequestID string `json:"request_id"`
}

type CancelDistributionRequest struct {
	Reason string `json:"reason"`
}

// InboundWebhookRequest mirrors the gateway's inbound event payload.
type InboundWebhookRequest struct {
	SenderAddress     string `json:"sender_address"`
	Body              string `json:"body"`
	StructuredReplyID string `json:"structured_reply_id,omitempty"`
	ReceivedAt        string `json:"received_at,omitempty"`
}

type AttemptResponse struct {
	ID                 string `json:"id"`
	BrokerID           string `json:"broker_id"`
	AttemptOrder       int    `json:"attempt_order"`
	Status             string `json:"status"`
	MessageSentAt      string `json:"message_sent_at"`
	TimeoutAt          string `json:"timeout_at"`
	ResponseType       string `json:"response_type,omitempty"`
	ResponseReceivedAt string `json:"response_received_at,omitempty"`
}

type QueueResponse struct {
	ID               string `json:"id"`
	RequestID        string `json:"request_id"`
	RequestKind      string `json:"request_kind"`
	Status           string `json:"status"`
	CurrentAttempt   int    `json:"current_attempt"`
	MaxAttempts      int    `json:"max_attempts"`
	AssignedBrokerID string `json:"assigned_broker_id,omitempty"`
	FailureReason    string `json:"failure_reason,omitempty"`
	StartedAt        string `json:"started_at"`
	CompletedAt      string `json:"completed_at,omitempty"`
}

type QueueDetailResponse struct {
	QueueResponse
	Attempts []AttemptResponse `json:"attempts"`
}

type QueueListResponse struct {
	Queues []QueueResponse `json:"queues"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
