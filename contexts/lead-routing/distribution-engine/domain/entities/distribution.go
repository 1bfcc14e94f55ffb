package entities

import "time"

type RequestKind string

const (
	RequestKindLead  RequestKind = "lead"
	RequestKindVisit RequestKind = "visit"
)

type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusInProgress QueueStatus = "in_progress"
	QueueStatusCompleted  QueueStatus = "completed"
	QueueStatusFailed     QueueStatus = "failed"
	QueueStatusCancelled  QueueStatus = "cancelled"
)

func (s QueueStatus) Terminal() bool {
	switch s {
	case QueueStatusCompleted, QueueStatusFailed, QueueStatusCancelled:
		return true
	default:
		return false
	}
}

type AttemptStatus string

const (
	AttemptStatusPending  AttemptStatus = "pending"
	AttemptStatusAccepted AttemptStatus = "accepted"
	AttemptStatusRejected AttemptStatus = "rejected"
	AttemptStatusExpired  AttemptStatus = "expired"
	AttemptStatusError    AttemptStatus = "error"
)

// Criteria is the matchable tag set extracted from a lead or visit.
// Zero values mean the request carries no preference for that tag.
type Criteria struct {
	NeighborhoodID string
	BuilderID      string
	PropertyType   string
}

// DistributionRequest is the engine's read view of the lead or visit being
// assigned. The surrounding application owns the underlying record; the
// engine only reads criteria and writes the final assignment back.
type DistributionRequest struct {
	ID               string
	Kind             RequestKind
	Criteria         Criteria
	AssignedBrokerID string
}

// Candidate is the engine's read view of a broker eligible for distribution.
type Candidate struct {
	ID                   string
	Name                 string
	Active               bool
	Neighborhoods        []string
	Builders             []string
	Rating               float64
	CompletedAssignments int
	WhatsAppAddress      string
}

// Queue is the per-request distribution record. MaxAttempts and
// TimeoutMinutes are snapshotted from settings when the queue starts so a
// settings change mid-escalation cannot skew an in-flight queue.
type Queue struct {
	ID               string
	RequestID        string
	RequestKind      RequestKind
	Status           QueueStatus
	CurrentAttempt   int
	MaxAttempts      int
	TimeoutMinutes   int
	FallbackToAdmin  bool
	AssignedBrokerID string
	FailureReason    string
	StartedAt        time.Time
	CompletedAt      *time.Time
	UpdatedAt        time.Time
}

// Attempt is one outbound offer to one broker for one queue.
// attempt_order is 1-based and gap-free within a queue; a broker never
// appears twice in the same queue.
type Attempt struct {
	ID                 string
	QueueID            string
	BrokerID           string
	BrokerAddress      string
	AttemptOrder       int
	Status             AttemptStatus
	MessageSentAt      time.Time
	TimeoutAt          time.Time
	ResponseType       string
	ResponseReceivedAt *time.Time
	RawResponseText    string
	UpdatedAt          time.Time
}

// Settings is the process-wide distribution configuration row, read once at
// queue start and never re-read mid-escalation.
type Settings struct {
	MaxAttempts             int
	TimeoutMinutes          int
	AutoDistributionEnabled bool
	FallbackToAdmin         bool
}

func (s Settings) Validate() bool {
	return s.MaxAttempts >= 1 && s.TimeoutMinutes >= 1
}
