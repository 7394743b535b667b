package repository

import (
	"context"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttachmentRepository handles metadata for device photos and other files
// attached to leads. File bytes live in the storage backend; this table only
// tracks the storage key and metadata.
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, a *domain.LeadAttachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LeadAttachment, error) {
	var a domain.LeadAttachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.LeadAttachment, error) {
	var attachments []domain.LeadAttachment
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.LeadAttachment{}, "id = ?", id).Error
}
