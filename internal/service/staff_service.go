package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/mapper"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StaffService struct {
	staffRepo *repository.StaffRepository
	logger    *zap.Logger
}

func NewStaffService(staffRepo *repository.StaffRepository, logger *zap.Logger) *StaffService {
	return &StaffService{staffRepo: staffRepo, logger: logger}
}

// CreateStaff registers a new staff member
func (s *StaffService) CreateStaff(ctx context.Context, req *domain.CreateStaffRequest) (*domain.StaffDTO, error) {
	if !req.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}

	if _, err := s.staffRepo.GetByAuthID(ctx, req.AuthID); err == nil {
		return nil, fmt.Errorf("%w: auth id already registered", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check auth id: %w", err)
	}

	staff := &domain.Staff{
		AuthID:      strings.TrimSpace(req.AuthID),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       req.Phone,
		Role:        req.Role,
		IsActive:    true,
	}
	if err := s.staffRepo.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}

	dto := mapper.ToStaffDTO(staff)
	return &dto, nil
}

// GetStaff returns a staff member by id
func (s *StaffService) GetStaff(ctx context.Context, id uuid.UUID) (*domain.StaffDTO, error) {
	staff, err := s.staffRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	dto := mapper.ToStaffDTO(staff)
	return &dto, nil
}

// ListStaff returns staff members, optionally including deactivated accounts
func (s *StaffService) ListStaff(ctx context.Context, includeInactive bool) ([]domain.StaffDTO, error) {
	members, err := s.staffRepo.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	dtos := make([]domain.StaffDTO, len(members))
	for i := range members {
		dtos[i] = mapper.ToStaffDTO(&members[i])
	}
	return dtos, nil
}

// UpdateStaff changes a staff member's profile, role or active flag.
// Deactivating or demoting the last active admin is rejected.
func (s *StaffService) UpdateStaff(ctx context.Context, id uuid.UUID, req *domain.UpdateStaffRequest) (*domain.StaffDTO, error) {
	if !req.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}

	staff, err := s.staffRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}

	losesAdmin := staff.Role == domain.RoleAdmin && staff.IsActive &&
		(req.Role != domain.RoleAdmin || (req.IsActive != nil && !*req.IsActive))
	if losesAdmin {
		admins, err := s.staffRepo.CountActiveAdmins(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count admins: %w", err)
		}
		if admins <= 1 {
			return nil, fmt.Errorf("%w: cannot remove the last active admin", ErrConflict)
		}
	}

	staff.DisplayName = strings.TrimSpace(req.DisplayName)
	staff.Email = strings.ToLower(strings.TrimSpace(req.Email))
	staff.Phone = req.Phone
	staff.Role = req.Role
	if req.IsActive != nil {
		staff.IsActive = *req.IsActive
	}

	if err := s.staffRepo.Update(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to update staff: %w", err)
	}

	dto := mapper.ToStaffDTO(staff)
	return &dto, nil
}

// ResolveByAuthID looks up an active staff member for authentication,
// stamping the login time
func (s *StaffService) ResolveByAuthID(ctx context.Context, authID string) (*domain.Staff, error) {
	staff, err := s.staffRepo.GetByAuthID(ctx, authID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve staff: %w", err)
	}
	if !staff.IsActive {
		return nil, ErrUnauthorized
	}

	if err := s.staffRepo.TouchLogin(ctx, staff.ID); err != nil {
		s.logger.Warn("failed to record login time",
			zap.String("staff_id", staff.ID.String()),
			zap.Error(err))
	}

	return staff, nil
}
