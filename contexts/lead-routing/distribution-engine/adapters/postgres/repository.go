package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	domainerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
	"lares/contexts/lead-routing/distribution-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var activeQueueStatuses = []string{
	string(entities.QueueStatusPending),
	string(entities.QueueStatusInProgress),
}

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateQueue(ctx context.Context, queue entities.Queue) error {
	if strings.TrimSpace(queue.ID) == "" || strings.TrimSpace(queue.RequestID) == "" {
		return domainerrors.ErrInvalidInput
	}

	var active int64
	if err := r.db.WithContext(ctx).
		Model(&queueModel{}).
		Where("request_kind = ?", string(queue.RequestKind)).
		Where("request_id = ?", queue.RequestID).
		Where("status IN ?", activeQueueStatuses).
		Count(&active).
		Error; err != nil {
		return r.logError("distribution_repo_create_queue_active_check_failed", err,
			"queue_id", queue.ID,
			"request_id", queue.RequestID,
		)
	}
	if active > 0 {
		return domainerrors.ErrQueueExists
	}

	row := queueModelFromEntity(queue)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrQueueExists
		}
		return r.logError("distribution_repo_create_queue_failed", err,
			"queue_id", queue.ID,
			"request_id", queue.RequestID,
		)
	}
	return nil
}

func (r *Repository) GetQueue(ctx context.Context, queueID string) (entities.Queue, error) {
	var row queueModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(queueID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Queue{}, domainerrors.ErrQueueNotFound
		}
		return entities.Queue{}, r.logError("distribution_repo_get_queue_failed", err,
			"queue_id", strings.TrimSpace(queueID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetQueueByRequest(
	ctx context.Context,
	kind entities.RequestKind,
	requestID string,
) (entities.Queue, error) {
	var row queueModel
	err := r.db.WithContext(ctx).
		Where("request_kind = ?", string(kind)).
		Where("request_id = ?", strings.TrimSpace(requestID)).
		Order("started_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Queue{}, domainerrors.ErrQueueNotFound
		}
		return entities.Queue{}, r.logError("distribution_repo_get_queue_by_request_failed", err,
			"request_kind", string(kind),
			"request_id", strings.TrimSpace(requestID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListQueues(ctx context.Context, filter ports.QueueFilter) ([]entities.Queue, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Model(&queueModel{})
	if filter.RequestID != "" {
		query = query.Where("request_id = ?", filter.RequestID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	var rows []queueModel
	if err := query.Order("started_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, r.logError("distribution_repo_list_queues_failed", err,
			"request_id", filter.RequestID,
			"status", string(filter.Status),
		)
	}
	queues := make([]entities.Queue, 0, len(rows))
	for _, row := range rows {
		queues = append(queues, row.toEntity())
	}
	return queues, nil
}

// AdvanceQueue is the escalation guard: the queue row advance and the
// attempt insert commit together, and the advance is conditional on the
// expected current_attempt, so two racing escalations cannot both insert.
func (r *Repository) AdvanceQueue(
	ctx context.Context,
	queueID string,
	fromAttempt int,
	attempt entities.Attempt,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&queueModel{}).
			Where("id = ?", queueID).
			Where("current_attempt = ?", fromAttempt).
			Where("status IN ?", activeQueueStatuses).
			Updates(map[string]any{
				"status":          string(entities.QueueStatusInProgress),
				"current_attempt": fromAttempt + 1,
				"updated_at":      attempt.MessageSentAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrQueueConflict
		}
		row := attemptModelFromEntity(attempt)
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrQueueConflict) {
			return domainerrors.ErrQueueConflict
		}
		if isUniqueViolation(err) {
			// Partial unique index on (queue_id) WHERE status = 'pending',
			// or the (queue_id, broker_id) uniqueness, fired.
			return domainerrors.ErrQueueConflict
		}
		return r.logError("distribution_repo_advance_queue_failed", err,
			"queue_id", queueID,
			"attempt_id", attempt.ID,
			"attempt_order", attempt.AttemptOrder,
		)
	}
	return nil
}

func (r *Repository) CompleteQueue(
	ctx context.Context,
	queueID string,
	brokerID string,
	completedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&queueModel{}).
		Where("id = ?", queueID).
		Where("status = ?", string(entities.QueueStatusInProgress)).
		Updates(map[string]any{
			"status":             string(entities.QueueStatusCompleted),
			"assigned_broker_id": brokerID,
			"completed_at":       completedAt.UTC(),
			"updated_at":         completedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("distribution_repo_complete_queue_failed", result.Error,
			"queue_id", queueID,
			"broker_id", brokerID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrQueueConflict
	}
	return nil
}

func (r *Repository) FailQueue(
	ctx context.Context,
	queueID string,
	reason string,
	failedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&queueModel{}).
		Where("id = ?", queueID).
		Where("status IN ?", activeQueueStatuses).
		Updates(map[string]any{
			"status":         string(entities.QueueStatusFailed),
			"failure_reason": reason,
			"completed_at":   failedAt.UTC(),
			"updated_at":     failedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("distribution_repo_fail_queue_failed", result.Error,
			"queue_id", queueID,
			"reason", reason,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrQueueConflict
	}
	return nil
}

func (r *Repository) CancelQueue(ctx context.Context, queueID string, cancelledAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&queueModel{}).
			Where("id = ?", queueID).
			Where("status IN ?", activeQueueStatuses).
			Updates(map[string]any{
				"status":     string(entities.QueueStatusCancelled),
				"updated_at": cancelledAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrQueueConflict
		}
		return tx.
			Model(&attemptModel{}).
			Where("queue_id = ?", queueID).
			Where("status = ?", string(entities.AttemptStatusPending)).
			Updates(map[string]any{
				"status":            string(entities.AttemptStatusError),
				"response_type":     string(entities.AttemptStatusError),
				"raw_response_text": "queue cancelled",
				"updated_at":        cancelledAt.UTC(),
			}).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrQueueConflict) {
			return domainerrors.ErrQueueConflict
		}
		return r.logError("distribution_repo_cancel_queue_failed", err,
			"queue_id", queueID,
		)
	}
	return nil
}

func (r *Repository) GetAttempt(ctx context.Context, attemptID string) (entities.Attempt, error) {
	var row attemptModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(attemptID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Attempt{}, domainerrors.ErrAttemptNotFound
		}
		return entities.Attempt{}, r.logError("distribution_repo_get_attempt_failed", err,
			"attempt_id", strings.TrimSpace(attemptID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAttempts(ctx context.Context, queueID string) ([]entities.Attempt, error) {
	var rows []attemptModel
	if err := r.db.WithContext(ctx).
		Where("queue_id = ?", strings.TrimSpace(queueID)).
		Order("attempt_order ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("distribution_repo_list_attempts_failed", err,
			"queue_id", strings.TrimSpace(queueID),
		)
	}
	attempts := make([]entities.Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, row.toEntity())
	}
	return attempts, nil
}

func (r *Repository) FindPendingAttemptByAddress(ctx context.Context, address string) (entities.Attempt, error) {
	var row attemptModel
	err := r.db.WithContext(ctx).
		Where("broker_address = ?", strings.TrimSpace(address)).
		Where("status = ?", string(entities.AttemptStatusPending)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Attempt{}, domainerrors.ErrAttemptNotFound
		}
		return entities.Attempt{}, r.logError("distribution_repo_find_pending_attempt_failed", err,
			"address", strings.TrimSpace(address),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListExpiredPendingAttempts(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]entities.Attempt, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []attemptModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.AttemptStatusPending)).
		Where("timeout_at <= ?", now.UTC()).
		Order("timeout_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("distribution_repo_list_expired_failed", err,
			"threshold_utc", now.UTC().Format(time.RFC3339),
			"limit", limit,
		)
	}
	attempts := make([]entities.Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, row.toEntity())
	}
	return attempts, nil
}

// ResolveAttempt is the single compare-and-swap the whole engine leans on:
// one conditional UPDATE gated on status = 'pending'. Zero rows affected
// means another writer resolved the attempt first.
func (r *Repository) ListStalledQueues(ctx context.Context, limit int) ([]entities.Queue, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []queueModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", activeQueueStatuses).
		Where(
			"NOT EXISTS (SELECT 1 FROM distribution_attempts a WHERE a.queue_id = distribution_queues.id AND a.status = ?)",
			string(entities.AttemptStatusPending),
		).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("distribution_repo_list_stalled_failed", err,
			"limit", limit,
		)
	}
	queues := make([]entities.Queue, 0, len(rows))
	for _, row := range rows {
		queues = append(queues, row.toEntity())
	}
	return queues, nil
}

func (r *Repository) ResolveAttempt(
	ctx context.Context,
	attemptID string,
	status entities.AttemptStatus,
	responseText string,
	resolvedAt time.Time,
) error {
	updates := map[string]any{
		"status":            string(status),
		"response_type":     string(status),
		"raw_response_text": responseText,
		"updated_at":        resolvedAt.UTC(),
	}
	if status == entities.AttemptStatusAccepted || status == entities.AttemptStatusRejected {
		updates["response_received_at"] = resolvedAt.UTC()
	}
	result := r.db.WithContext(ctx).
		Model(&attemptModel{}).
		Where("id = ?", strings.TrimSpace(attemptID)).
		Where("status = ?", string(entities.AttemptStatusPending)).
		Updates(updates)
	if result.Error != nil {
		return r.logError("distribution_repo_resolve_attempt_failed", result.Error,
			"attempt_id", strings.TrimSpace(attemptID),
			"status", string(status),
		)
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&attemptModel{}).
			Where("id = ?", strings.TrimSpace(attemptID)).
			Count(&exists).Error; err != nil {
			return r.logError("distribution_repo_resolve_attempt_check_failed", err,
				"attempt_id", strings.TrimSpace(attemptID),
			)
		}
		if exists == 0 {
			return domainerrors.ErrAttemptNotFound
		}
		return domainerrors.ErrAlreadyResolved
	}
	return nil
}

func (r *Repository) GetSettings(ctx context.Context) (entities.Settings, error) {
	var row settingsModel
	err := r.db.WithContext(ctx).
		Order("id ASC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Settings{}, domainerrors.ErrInvalidSettings
		}
		return entities.Settings{}, r.logError("distribution_repo_get_settings_failed", err)
	}
	return entities.Settings{
		MaxAttempts:             row.MaxAttempts,
		TimeoutMinutes:          row.TimeoutMinutes,
		AutoDistributionEnabled: row.AutoDistributionEnabled,
		FallbackToAdmin:         row.FallbackToAdmin,
	}, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "lead-routing/distribution-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("distribution repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
