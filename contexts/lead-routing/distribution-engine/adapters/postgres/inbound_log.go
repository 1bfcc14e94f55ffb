package postgresadapter

import (
	"context"
	"strings"
	"time"

	"lares/contexts/lead-routing/distribution-engine/ports"

	"github.com/google/uuid"
)

// Record stores an inbound message that matched no pending attempt. The
// general message log is shared with the rest of the application.
func (r *Repository) Record(ctx context.Context, message ports.InboundMessage) error {
	receivedAt := message.ReceivedAt.UTC()
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	row := inboundMessageModel{
		ID:                uuid.NewString(),
		SenderAddress:     strings.TrimSpace(message.SenderAddress),
		Body:              message.Body,
		StructuredReplyID: strings.TrimSpace(message.StructuredReplyID),
		ReceivedAt:        receivedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("distribution_repo_record_inbound_failed", err,
			"sender", row.SenderAddress,
		)
	}
	return nil
}

var _ ports.InboundLog = (*Repository)(nil)
