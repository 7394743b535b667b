package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceSequenceRepository handles database operations for the invoice
// number sequence. The sequence is a single shared counter so invoice
// numbers stay gapless and strictly increasing across concurrent writers.
type InvoiceSequenceRepository struct {
	db *gorm.DB
}

// NewInvoiceSequenceRepository creates a new InvoiceSequenceRepository
func NewInvoiceSequenceRepository(db *gorm.DB) *InvoiceSequenceRepository {
	return &InvoiceSequenceRepository{db: db}
}

// NextNumber atomically retrieves and increments the invoice sequence.
// It runs inside the given transaction handle so the allocated number is
// rolled back together with the invoice if creation fails. The sequence row
// is locked with SELECT FOR UPDATE to prevent two writers reading the same
// value. If no sequence row exists yet, one is created starting at 1.
func (r *InvoiceSequenceRepository) NextNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	var seq domain.InvoiceSequence
	var next int

	result := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scope = ?", domain.InvoiceSequenceScope).
		First(&seq)

	if result.Error == gorm.ErrRecordNotFound {
		seq = domain.InvoiceSequence{
			Scope:        domain.InvoiceSequenceScope,
			LastSequence: 1,
			UpdatedAt:    time.Now(),
		}
		if err := tx.WithContext(ctx).Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("failed to create invoice sequence: %w", err)
		}
		next = 1
	} else if result.Error != nil {
		return 0, fmt.Errorf("failed to get invoice sequence: %w", result.Error)
	} else {
		next = seq.LastSequence + 1
		if err := tx.WithContext(ctx).Model(&seq).
			Where("scope = ?", domain.InvoiceSequenceScope).
			Updates(map[string]interface{}{
				"last_sequence": next,
				"updated_at":    time.Now(),
			}).Error; err != nil {
			return 0, fmt.Errorf("failed to update invoice sequence: %w", err)
		}
	}

	return next, nil
}
