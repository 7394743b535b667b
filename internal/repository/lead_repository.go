package repository

import (
	"context"
	"strings"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeadFilters contains all filter options for listing leads
type LeadFilters struct {
	Status          *domain.LeadStatus
	DeviceType      *domain.DeviceType
	Source          *domain.LeadSource
	AssignedStaffID *uuid.UUID
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	HasInvoice      *bool
	SearchQuery     *string
}

// LeadSortOption represents available sort options
type LeadSortOption string

const (
	LeadSortByCreatedDesc  LeadSortOption = "created_desc"
	LeadSortByCreatedAsc   LeadSortOption = "created_asc"
	LeadSortByUpdatedDesc  LeadSortOption = "updated_desc"
	LeadSortByQuotedDesc   LeadSortOption = "quoted_desc"
	LeadSortByQuotedAsc    LeadSortOption = "quoted_asc"
	LeadSortByFollowUpAsc  LeadSortOption = "follow_up_asc"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	// Omit associations to avoid GORM trying to validate related records
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(lead).Error
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).
		Preload("AssignedStaff").
		Preload("Remarks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", id).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(lead).Error
}

// UpdateFields applies a partial update, bumping updated_at
func (r *LeadRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *LeadRepository) List(ctx context.Context, page, pageSize int, filters *LeadFilters, sortBy LeadSortOption) ([]domain.Lead, int64, error) {
	var leads []domain.Lead
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Lead{}).Preload("AssignedStaff")
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applySorting(query, sortBy)

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&leads).Error

	return leads, total, err
}

func (r *LeadRepository) applyFilters(query *gorm.DB, filters *LeadFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DeviceType != nil {
		query = query.Where("device_type = ?", *filters.DeviceType)
	}
	if filters.Source != nil {
		query = query.Where("source = ?", *filters.Source)
	}
	if filters.AssignedStaffID != nil {
		query = query.Where("assigned_staff_id = ?", *filters.AssignedStaffID)
	}
	if filters.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filters.CreatedAfter)
	}
	if filters.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filters.CreatedBefore)
	}
	if filters.HasInvoice != nil {
		if *filters.HasInvoice {
			query = query.Where("invoice_id IS NOT NULL")
		} else {
			query = query.Where("invoice_id IS NULL")
		}
	}
	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		search := "%" + strings.ToLower(*filters.SearchQuery) + "%"
		query = query.Where(
			"LOWER(customer_name) LIKE ? OR LOWER(customer_phone) LIKE ? OR LOWER(device_model) LIKE ? OR LOWER(reported_issue) LIKE ?",
			search, search, search, search,
		)
	}
	return query
}

func (r *LeadRepository) applySorting(query *gorm.DB, sortBy LeadSortOption) *gorm.DB {
	switch sortBy {
	case LeadSortByCreatedAsc:
		return query.Order("created_at ASC")
	case LeadSortByUpdatedDesc:
		return query.Order("updated_at DESC")
	case LeadSortByQuotedDesc:
		return query.Order("quoted_amount DESC")
	case LeadSortByQuotedAsc:
		return query.Order("quoted_amount ASC")
	case LeadSortByFollowUpAsc:
		return query.Order("follow_up_date ASC")
	default:
		return query.Order("created_at DESC")
	}
}

// FindDueFollowUps returns open leads whose follow-up date is on or before
// the given cutoff. Terminal leads are excluded.
func (r *LeadRepository) FindDueFollowUps(ctx context.Context, cutoff time.Time) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.WithContext(ctx).
		Preload("AssignedStaff").
		Where("follow_up_date IS NOT NULL AND follow_up_date <= ?", cutoff).
		Where("status NOT IN ?", []domain.LeadStatus{domain.LeadStatusDelivered, domain.LeadStatusCancelled}).
		Order("follow_up_date ASC").
		Find(&leads).Error
	return leads, err
}

// FindUnlinkedInvoiced returns leads that have an invoice referencing them
// but no invoice_id back-link. Used by the reconciliation job to repair
// back-links that failed at invoice generation time.
func (r *LeadRepository) FindUnlinkedInvoiced(ctx context.Context) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.WithContext(ctx).
		Joins("JOIN invoices ON invoices.lead_id = leads.id").
		Where("leads.invoice_id IS NULL").
		Find(&leads).Error
	return leads, err
}

// SetInvoiceLink writes the invoice back-link on a lead. A lead links to at
// most one invoice, so an already linked lead is left untouched.
func (r *LeadRepository) SetInvoiceLink(ctx context.Context, leadID, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("id = ? AND invoice_id IS NULL", leadID).
		Updates(map[string]interface{}{
			"invoice_id": invoiceID,
			"updated_at": time.Now(),
		}).Error
}
