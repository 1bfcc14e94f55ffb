package postgresadapter

import (
	"time"

	"lares/contexts/lead-routing/distribution-engine/domain/entities"
)

type queueModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	RequestID        string     `gorm:"column:request_id"`
	RequestKind      string     `gorm:"column:request_kind"`
	Status           string     `gorm:"column:status"`
	CurrentAttempt   int        `gorm:"column:current_attempt"`
	MaxAttempts      int        `gorm:"column:max_attempts"`
	TimeoutMinutes   int        `gorm:"column:timeout_minutes"`
	FallbackToAdmin  bool       `gorm:"column:fallback_to_admin"`
	AssignedBrokerID string     `gorm:"column:assigned_broker_id"`
	FailureReason    string     `gorm:"column:failure_reason"`
	StartedAt        time.Time  `gorm:"column:started_at"`
	CompletedAt      *time.Time `gorm:"column:completed_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (queueModel) TableName() string {
	return "distribution_queues"
}

func queueModelFromEntity(queue entities.Queue) queueModel {
	return queueModel{
		ID:               queue.ID,
		RequestID:        queue.RequestID,
		RequestKind:      string(queue.RequestKind),
		Status:           string(queue.Status),
		CurrentAttempt:   queue.CurrentAttempt,
		MaxAttempts:      queue.MaxAttempts,
		TimeoutMinutes:   queue.TimeoutMinutes,
		FallbackToAdmin:  queue.FallbackToAdmin,
		AssignedBrokerID: queue.AssignedBrokerID,
		FailureReason:    queue.FailureReason,
		StartedAt:        queue.StartedAt.UTC(),
		CompletedAt:      normalizeOptionalTime(queue.CompletedAt),
		UpdatedAt:        queue.UpdatedAt.UTC(),
	}
}

func (m queueModel) toEntity() entities.Queue {
	return entities.Queue{
		ID:               m.ID,
		RequestID:        m.RequestID,
		RequestKind:      entities.RequestKind(m.RequestKind),
		Status:           entities.QueueStatus(m.Status),
		CurrentAttempt:   m.CurrentAttempt,
		MaxAttempts:      m.MaxAttempts,
		TimeoutMinutes:   m.TimeoutMinutes,
		FallbackToAdmin:  m.FallbackToAdmin,
		AssignedBrokerID: m.AssignedBrokerID,
		FailureReason:    m.FailureReason,
		StartedAt:        m.StartedAt.UTC(),
		CompletedAt:      normalizeOptionalTime(m.CompletedAt),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type attemptModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	QueueID            string     `gorm:"column:queue_id"`
	BrokerID           string     `gorm:"column:broker_id"`
	BrokerAddress      string     `gorm:"column:broker_address"`
	AttemptOrder       int        `gorm:"column:attempt_order"`
	Status             string     `gorm:"column:status"`
	MessageSentAt      time.Time  `gorm:"column:message_sent_at"`
	TimeoutAt          time.Time  `gorm:"column:timeout_at"`
	ResponseType       string     `gorm:"column:response_type"`
	ResponseReceivedAt *time.Time `gorm:"column:response_received_at"`
	RawResponseText    string     `gorm:"column:raw_response_text"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (attemptModel) TableName() string {
	return "distribution_attempts"
}

func attemptModelFromEntity(attempt entities.Attempt) attemptModel {
	return attemptModel{
		ID:                 attempt.ID,
		QueueID:            attempt.QueueID,
		BrokerID:           attempt.BrokerID,
		BrokerAddress:      attempt.BrokerAddress,
		AttemptOrder:       attempt.AttemptOrder,
		Status:             string(attempt.Status),
		MessageSentAt:      attempt.MessageSentAt.UTC(),
		TimeoutAt:          attempt.TimeoutAt.UTC(),
		ResponseType:       attempt.ResponseType,
		ResponseReceivedAt: normalizeOptionalTime(attempt.ResponseReceivedAt),
		RawResponseText:    attempt.RawResponseText,
		UpdatedAt:          attempt.UpdatedAt.UTC(),
	}
}

func (m attemptModel) toEntity() entities.Attempt {
	return entities.Attempt{
		ID:                 m.ID,
		QueueID:            m.QueueID,
		BrokerID:           m.BrokerID,
		BrokerAddress:      m.BrokerAddress,
		AttemptOrder:       m.AttemptOrder,
		Status:             entities.AttemptStatus(m.Status),
		MessageSentAt:      m.MessageSentAt.UTC(),
		TimeoutAt:          m.TimeoutAt.UTC(),
		ResponseType:       m.ResponseType,
		ResponseReceivedAt: normalizeOptionalTime(m.ResponseReceivedAt),
		RawResponseText:    m.RawResponseText,
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type settingsModel struct {
	ID                      int  `gorm:"column:id;primaryKey"`
	MaxAttempts             int  `gorm:"column:max_attempts"`
	TimeoutMinutes          int  `gorm:"column:timeout_minutes"`
	AutoDistributionEnabled bool `gorm:"column:auto_distribution_enabled"`
	FallbackToAdmin         bool `gorm:"column:fallback_to_admin"`
}

func (settingsModel) TableName() string {
	return "distribution_settings"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "distribution_outbox"
}

type inboundMessageModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	SenderAddress     string    `gorm:"column:sender_address"`
	Body              string    `gorm:"column:body"`
	StructuredReplyID string    `gorm:"column:structured_reply_id"`
	ReceivedAt        time.Time `gorm:"column:received_at"`
}

func (inboundMessageModel) TableName() string {
	return "inbound_messages"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	t := value.UTC()
	return &t
}
