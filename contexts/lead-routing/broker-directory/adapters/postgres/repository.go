package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"lares/contexts/lead-routing/broker-directory/domain/entities"
	domainerrors "lares/contexts/lead-routing/broker-directory/domain/errors"
	"lares/contexts/lead-routing/broker-directory/ports"

	"gorm.io/gorm"
)

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

func (r *Repository) GetBroker(ctx context.Context, brokerID string) (entities.Broker, error) {
	var row brokerModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(brokerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Broker{}, domainerrors.ErrBrokerNotFound
		}
		return entities.Broker{}, r.logError("broker_repo_get_failed", err,
			"broker_id", strings.TrimSpace(brokerID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListBrokers(ctx context.Context, activeOnly bool) ([]entities.Broker, error) {
	query := r.db.WithContext(ctx).Model(&brokerModel{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []brokerModel
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("broker_repo_list_failed", err,
			"active_only", activeOnly,
		)
	}
	brokers := make([]entities.Broker, 0, len(rows))
	for _, row := range rows {
		brokers = append(brokers, row.toEntity())
	}
	return brokers, nil
}

func (r *Repository) FindEligible(
	ctx context.Context,
	criteria entities.EligibilityCriteria,
) ([]entities.Broker, error) {
	var rows []brokerModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("broker_repo_find_eligible_failed", err,
			"neighborhood_id", criteria.NeighborhoodID,
			"builder_id", criteria.BuilderID,
		)
	}
	brokers := make([]entities.Broker, 0, len(rows))
	for _, row := range rows {
		brokers = append(brokers, row.toEntity())
	}
	return brokers, nil
}

func (r *Repository) IncrementCompletedAssignments(ctx context.Context, brokerID string) error {
	result := r.db.WithContext(ctx).
		Model(&brokerModel{}).
		Where("id = ?", strings.TrimSpace(brokerID)).
		Updates(map[string]any{
			"completed_assignments": gorm.Expr("completed_assignments + 1"),
			"updated_at":            time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("broker_repo_increment_assignments_failed", result.Error,
			"broker_id", strings.TrimSpace(brokerID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBrokerNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "lead-routing/broker-directory",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("broker directory repository operation failed", fields...)
	return err
}

type brokerModel struct {
	ID                   string    `gorm:"column:id;primaryKey"`
	Name                 string    `gorm:"column:name"`
	Active               bool      `gorm:"column:active"`
	Neighborhoods        []string  `gorm:"column:neighborhoods;type:text[]"`
	Builders             []string  `gorm:"column:builders;type:text[]"`
	Rating               float64   `gorm:"column:rating"`
	CompletedAssignments int       `gorm:"column:completed_assignments"`
	WhatsAppAddress      string    `gorm:"column:whatsapp_address"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (brokerModel) TableName() string {
	return "brokers"
}

func (m brokerModel) toEntity() entities.Broker {
	return entities.Broker{
		ID:                   m.ID,
		Name:                 m.Name,
		Active:               m.Active,
		Neighborhoods:        append([]string(nil), m.Neighborhoods...),
		Builders:             append([]string(nil), m.Builders...),
		Rating:               m.Rating,
		CompletedAssignments: m.CompletedAssignments,
		WhatsAppAddress:      m.WhatsAppAddress,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}

var _ ports.Repository = (*Repository)(nil)
