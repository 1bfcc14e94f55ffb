package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the versioned wrapper around every event Lares publishes,
// including the distribution audit trail relayed from the outbox. Consumers
// key partitioning off PartitionKey (the queue id for distribution events).
// Fields are append-only; SchemaVersion gates breaking changes.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}
