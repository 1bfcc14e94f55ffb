package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"lares/contexts/lead-routing/distribution-engine/domain/entities"
	domainerrors "lares/contexts/lead-routing/distribution-engine/domain/errors"
	"lares/contexts/lead-routing/distribution-engine/ports"

	"gorm.io/gorm"
)

const assignedRequestStatus = "assigned"

// leads and visits live in tables owned by the surrounding application; the
// engine reads criteria columns and writes the assignment back on terminal
// success, nothing more.
type leadModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	NeighborhoodID   string     `gorm:"column:neighborhood_id"`
	BuilderID        string     `gorm:"column:builder_id"`
	PropertyType     string     `gorm:"column:property_type"`
	Status           string     `gorm:"column:status"`
	AssignedBrokerID string     `gorm:"column:assigned_broker_id"`
	AssignedAt       *time.Time `gorm:"column:assigned_at"`
}

func (leadModel) TableName() string {
	return "leads"
}

type visitModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	NeighborhoodID   string     `gorm:"column:neighborhood_id"`
	BuilderID        string     `gorm:"column:builder_id"`
	PropertyType     string     `gorm:"column:property_type"`
	Status           string     `gorm:"column:status"`
	AssignedBrokerID string     `gorm:"column:assigned_broker_id"`
	AssignedAt       *time.Time `gorm:"column:assigned_at"`
}

func (visitModel) TableName() string {
	return "visits"
}

func (r *Repository) GetRequest(
	ctx context.Context,
	kind entities.RequestKind,
	requestID string,
) (entities.DistributionRequest, error) {
	normalizedID := strings.TrimSpace(requestID)
	switch kind {
	case entities.RequestKindLead:
		var row leadModel
		if err := r.db.WithContext(ctx).Where("id = ?", normalizedID).First(&row).Error; err != nil {
			return entities.DistributionRequest{}, r.requestLookupError(kind, normalizedID, err)
		}
		return entities.DistributionRequest{
			ID:   row.ID,
			Kind: kind,
			Criteria: entities.Criteria{
				NeighborhoodID: row.NeighborhoodID,
				BuilderID:      row.BuilderID,
				PropertyType:   row.PropertyType,
			},
			AssignedBrokerID: row.AssignedBrokerID,
		}, nil
	case entities.RequestKindVisit:
		var row visitModel
		if err := r.db.WithContext(ctx).Where("id = ?", normalizedID).First(&row).Error; err != nil {
			return entities.DistributionRequest{}, r.requestLookupError(kind, normalizedID, err)
		}
		return entities.DistributionRequest{
			ID:   row.ID,
			Kind: kind,
			Criteria: entities.Criteria{
				NeighborhoodID: row.NeighborhoodID,
				BuilderID:      row.BuilderID,
				PropertyType:   row.PropertyType,
			},
			AssignedBrokerID: row.AssignedBrokerID,
		}, nil
	default:
		return entities.DistributionRequest{}, domainerrors.ErrInvalidInput
	}
}

func (r *Repository) AssignRequest(
	ctx context.Context,
	kind entities.RequestKind,
	requestID string,
	brokerID string,
) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"assigned_broker_id": brokerID,
		"assigned_at":        now,
		"status":             assignedRequestStatus,
	}
	var result *gorm.DB
	switch kind {
	case entities.RequestKindLead:
		result = r.db.WithContext(ctx).
			Model(&leadModel{}).
			Where("id = ?", strings.TrimSpace(requestID)).
			Updates(updates)
	case entities.RequestKindVisit:
		result = r.db.WithContext(ctx).
			Model(&visitModel{}).
			Where("id = ?", strings.TrimSpace(requestID)).
			Updates(updates)
	default:
		return domainerrors.ErrInvalidInput
	}
	if result.Error != nil {
		return r.logError("distribution_repo_assign_request_failed", result.Error,
			"request_kind", string(kind),
			"request_id", strings.TrimSpace(requestID),
			"broker_id", brokerID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRequestNotFound
	}
	return nil
}

func (r *Repository) requestLookupError(kind entities.RequestKind, requestID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.ErrRequestNotFound
	}
	return r.logError("distribution_repo_get_request_failed", err,
		"request_kind", string(kind),
		"request_id", requestID,
	)
}

var _ ports.RequestStore = (*Repository)(nil)
