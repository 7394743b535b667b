package repository

import (
	"context"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadRemarkRepository handles database operations for lead remarks.
// Remarks are append-only; there is no update or delete.
type LeadRemarkRepository struct {
	db *gorm.DB
}

func NewLeadRemarkRepository(db *gorm.DB) *LeadRemarkRepository {
	return &LeadRemarkRepository{db: db}
}

func (r *LeadRemarkRepository) Create(ctx context.Context, remark *domain.LeadRemark) error {
	return r.db.WithContext(ctx).Create(remark).Error
}

func (r *LeadRemarkRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LeadRemark, error) {
	var remark domain.LeadRemark
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&remark).Error
	if err != nil {
		return nil, err
	}
	return &remark, nil
}

// ListByLead returns all remarks for a lead, newest first
func (r *LeadRemarkRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.LeadRemark, error) {
	var remarks []domain.LeadRemark
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&remarks).Error
	return remarks, err
}

// ListRecent returns the most recent remarks across all leads for activity feeds
func (r *LeadRemarkRepository) ListRecent(ctx context.Context, limit int) ([]domain.LeadRemark, error) {
	var remarks []domain.LeadRemark
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&remarks).Error
	return remarks, err
}

// CountByStaff returns the number of remarks a staff member has written
func (r *LeadRemarkRepository) CountByStaff(ctx context.Context, staffID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LeadRemark{}).
		Where("staff_id = ?", staffID).
		Count(&count).Error
	return count, err
}
