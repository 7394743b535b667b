package repository

import (
	"context"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	var staff domain.Staff
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

// GetByAuthID looks up a staff member by the subject of their auth token
func (r *StaffRepository) GetByAuthID(ctx context.Context, authID string) (*domain.Staff, error) {
	var staff domain.Staff
	err := r.db.WithContext(ctx).Where("auth_id = ?", authID).First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	var staff domain.Staff
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *StaffRepository) Update(ctx context.Context, staff *domain.Staff) error {
	return r.db.WithContext(ctx).Save(staff).Error
}

func (r *StaffRepository) List(ctx context.Context, includeInactive bool) ([]domain.Staff, error) {
	var members []domain.Staff
	query := r.db.WithContext(ctx).Order("display_name ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&members).Error
	return members, err
}

// ListByRole returns active staff members with the given role
func (r *StaffRepository) ListByRole(ctx context.Context, role domain.StaffRole) ([]domain.Staff, error) {
	var members []domain.Staff
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("display_name ASC").
		Find(&members).Error
	return members, err
}

// TouchLogin records the time of a successful authentication
func (r *StaffRepository) TouchLogin(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.Staff{}).
		Where("id = ?", id).
		Update("last_login_at", now).Error
}

// CountActiveAdmins returns the number of active admin accounts. Used to
// prevent deactivating the last admin.
func (r *StaffRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Staff{}).
		Where("role = ? AND is_active = ?", domain.RoleAdmin, true).
		Count(&count).Error
	return count, err
}
