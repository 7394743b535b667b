package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fixpoint-as/repair-api/internal/auth"
	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/mapper"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Status transition rules: defines valid transitions between lead statuses.
// Cancellation is handled separately and is allowed from any non-terminal status.
var validStatusTransitions = map[domain.LeadStatus][]domain.LeadStatus{
	domain.LeadStatusNew:             {domain.LeadStatusContacted},
	domain.LeadStatusContacted:       {domain.LeadStatusQualified},
	domain.LeadStatusQualified:       {domain.LeadStatusPickupScheduled},
	domain.LeadStatusPickupScheduled: {domain.LeadStatusInRepair},
	domain.LeadStatusInRepair:        {domain.LeadStatusCompleted},
	domain.LeadStatusCompleted:       {domain.LeadStatusDelivered},
	domain.LeadStatusDelivered:       {}, // Terminal state
	domain.LeadStatusCancelled:       {}, // Terminal state
}

type LeadService struct {
	leadRepo         *repository.LeadRepository
	remarkRepo       *repository.LeadRemarkRepository
	staffRepo        *repository.StaffRepository
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
}

func NewLeadService(
	leadRepo *repository.LeadRepository,
	remarkRepo *repository.LeadRemarkRepository,
	staffRepo *repository.StaffRepository,
	notificationRepo *repository.NotificationRepository,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:         leadRepo,
		remarkRepo:       remarkRepo,
		staffRepo:        staffRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// CreateLead registers a new repair inquiry in status "new"
func (s *LeadService) CreateLead(ctx context.Context, req *domain.CreateLeadRequest) (*domain.LeadDTO, error) {
	if !req.DeviceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown device type %q", ErrInvalidInput, req.DeviceType)
	}
	source := req.Source
	if source == "" {
		source = domain.LeadSourceWalkIn
	}

	if req.AssignedStaffID != nil {
		staff, err := s.staffRepo.GetByID(ctx, *req.AssignedStaffID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: assigned staff not found", ErrInvalidInput)
			}
			return nil, fmt.Errorf("failed to look up staff: %w", err)
		}
		if !staff.IsActive {
			return nil, ErrStaffInactive
		}
	}

	lead := &domain.Lead{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		DeviceType:      req.DeviceType,
		DeviceModel:     req.DeviceModel,
		ReportedIssue:   strings.TrimSpace(req.ReportedIssue),
		IssueDetails:    req.IssueDetails,
		QuotedAmount:    req.QuotedAmount,
		Status:          domain.LeadStatusNew,
		Source:          source,
		AssignedStaffID: req.AssignedStaffID,
		FollowUpDate:    req.FollowUpDate,
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	if lead.AssignedStaffID != nil {
		s.notifyAssignment(ctx, lead)
	}

	created, err := s.leadRepo.GetByID(ctx, lead.ID)
	if err != nil {
		s.logger.Warn("failed to reload lead after create", zap.Error(err))
		created = lead
	}

	dto := mapper.ToLeadDTO(created)
	return &dto, nil
}

// GetLead returns a lead with its remark history
func (s *LeadService) GetLead(ctx context.Context, id uuid.UUID) (*domain.LeadDTO, []domain.LeadRemarkDTO, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get lead: %w", err)
	}

	dto := mapper.ToLeadDTO(lead)
	remarks := make([]domain.LeadRemarkDTO, len(lead.Remarks))
	for i := range lead.Remarks {
		remarks[i] = mapper.ToLeadRemarkDTO(&lead.Remarks[i])
	}
	return &dto, remarks, nil
}

// ListLeads returns a page of leads matching the filters
func (s *LeadService) ListLeads(ctx context.Context, page, pageSize int, filters *repository.LeadFilters, sortBy repository.LeadSortOption) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	leads, total, err := s.leadRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	dtos := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		dtos[i] = mapper.ToLeadDTO(&leads[i])
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateLead applies a full update to a lead's contact and device fields.
// The status is not touched here; status moves only through AddRemark or
// CancelLead. Concurrent updates are last-writer-wins.
func (s *LeadService) UpdateLead(ctx context.Context, id uuid.UUID, req *domain.UpdateLeadRequest) (*domain.LeadDTO, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if lead.Status.IsTerminal() {
		return nil, ErrLeadTerminal
	}

	if !req.DeviceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown device type %q", ErrInvalidInput, req.DeviceType)
	}

	if req.AssignedStaffID != nil &&
		(lead.AssignedStaffID == nil || *lead.AssignedStaffID != *req.AssignedStaffID) {
		staff, err := s.staffRepo.GetByID(ctx, *req.AssignedStaffID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: assigned staff not found", ErrInvalidInput)
			}
			return nil, fmt.Errorf("failed to look up staff: %w", err)
		}
		if !staff.IsActive {
			return nil, ErrStaffInactive
		}
	}
	assignmentChanged := req.AssignedStaffID != nil &&
		(lead.AssignedStaffID == nil || *lead.AssignedStaffID != *req.AssignedStaffID)

	lead.CustomerName = strings.TrimSpace(req.CustomerName)
	lead.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	lead.CustomerEmail = req.CustomerEmail
	lead.CustomerAddress = req.CustomerAddress
	lead.DeviceType = req.DeviceType
	lead.DeviceModel = req.DeviceModel
	lead.ReportedIssue = strings.TrimSpace(req.ReportedIssue)
	lead.IssueDetails = req.IssueDetails
	lead.QuotedAmount = req.QuotedAmount
	lead.AssignedStaffID = req.AssignedStaffID
	lead.FollowUpDate = req.FollowUpDate

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	if assignmentChanged {
		s.notifyAssignment(ctx, lead)
	}

	updated, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("failed to reload lead after update", zap.Error(err))
		updated = lead
	}

	dto := mapper.ToLeadDTO(updated)
	return &dto, nil
}

// AddRemark appends a remark to a lead and optionally moves it to a new
// status. The transition is validated against the current status before
// anything is written; an invalid transition fails the whole call. Once the
// remark is persisted it is never rolled back: if the follow-up lead update
// fails, the response reports leadUpdated=false with a warning instead of an
// error.
func (s *LeadService) AddRemark(ctx context.Context, leadID uuid.UUID, req *domain.AddRemarkRequest) (*domain.AddRemarkResponse, error) {
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, fmt.Errorf("%w: remark note must not be empty", ErrInvalidInput)
	}

	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	// Validate the requested transition before writing anything
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *req.Status)
		}
		if !s.isValidTransition(lead.Status, *req.Status) {
			return nil, fmt.Errorf("%w: cannot move lead from %s to %s",
				ErrInvalidTransition, lead.Status, *req.Status)
		}
	}

	staffCtx, err := s.resolveActingStaff(ctx)
	if err != nil {
		return nil, err
	}

	remark := &domain.LeadRemark{
		LeadID:          leadID,
		StaffID:         staffCtx.StaffID,
		StaffName:       staffCtx.DisplayName,
		Note:            note,
		StatusChangedTo: req.Status,
	}
	if err := s.remarkRepo.Create(ctx, remark); err != nil {
		return nil, fmt.Errorf("failed to create remark: %w", err)
	}

	resp := &domain.AddRemarkResponse{
		Remark:      mapper.ToLeadRemarkDTO(remark),
		LeadUpdated: true,
	}

	// The remark is committed; any failure from here on degrades to a warning
	if req.Status != nil || req.FollowUpDate != nil {
		fields := map[string]interface{}{}
		if req.Status != nil {
			fields["status"] = *req.Status
		}
		if req.FollowUpDate != nil {
			fields["follow_up_date"] = *req.FollowUpDate
		}
		if err := s.leadRepo.UpdateFields(ctx, leadID, fields); err != nil {
			s.logger.Warn("remark saved but lead update failed",
				zap.String("lead_id", leadID.String()),
				zap.Error(err))
			resp.LeadUpdated = false
			resp.Warning = "remark was saved but the lead could not be updated"
			return resp, nil
		}
	}

	if req.Status != nil {
		s.notifyStatusChange(ctx, lead, *req.Status, staffCtx)
	}

	return resp, nil
}

// CancelLead moves a lead to cancelled from any non-terminal status,
// recording the reason as a remark
func (s *LeadService) CancelLead(ctx context.Context, leadID uuid.UUID, reason string) (*domain.LeadDTO, error) {
	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if lead.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: lead is already %s", ErrInvalidTransition, lead.Status)
	}

	staffCtx, err := s.resolveActingStaff(ctx)
	if err != nil {
		return nil, err
	}

	note := strings.TrimSpace(reason)
	if note == "" {
		note = "Lead cancelled"
	}
	cancelled := domain.LeadStatusCancelled
	remark := &domain.LeadRemark{
		LeadID:          leadID,
		StaffID:         staffCtx.StaffID,
		StaffName:       staffCtx.DisplayName,
		Note:            note,
		StatusChangedTo: &cancelled,
	}
	if err := s.remarkRepo.Create(ctx, remark); err != nil {
		return nil, fmt.Errorf("failed to create cancellation remark: %w", err)
	}

	if err := s.leadRepo.UpdateFields(ctx, leadID, map[string]interface{}{
		"status": domain.LeadStatusCancelled,
	}); err != nil {
		return nil, fmt.Errorf("failed to cancel lead: %w", err)
	}

	updated, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload lead: %w", err)
	}

	dto := mapper.ToLeadDTO(updated)
	return &dto, nil
}

// GetFollowUpsDue returns open leads whose follow-up date has passed
func (s *LeadService) GetFollowUpsDue(ctx context.Context) ([]domain.LeadDTO, error) {
	leads, err := s.leadRepo.FindDueFollowUps(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to find due follow-ups: %w", err)
	}
	dtos := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		dtos[i] = mapper.ToLeadDTO(&leads[i])
	}
	return dtos, nil
}

// resolveActingStaff loads the authenticated staff record and verifies it is
// still active. Tokens outlive deactivation, so every write re-checks the store.
func (s *LeadService) resolveActingStaff(ctx context.Context) (*auth.StaffContext, error) {
	staffCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	staff, err := s.staffRepo.GetByID(ctx, staffCtx.StaffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve acting staff: %w", err)
	}
	if !staff.IsActive {
		return nil, ErrStaffInactive
	}
	return staffCtx, nil
}

func (s *LeadService) isValidTransition(from, to domain.LeadStatus) bool {
	// Cancellation is allowed from any non-terminal status
	if to == domain.LeadStatusCancelled {
		return !from.IsTerminal()
	}
	validNext, ok := validStatusTransitions[from]
	if !ok {
		return false
	}
	for _, next := range validNext {
		if next == to {
			return true
		}
	}
	return false
}

// notifyAssignment records a notification for the assigned staff member.
// Failures are logged, never returned.
func (s *LeadService) notifyAssignment(ctx context.Context, lead *domain.Lead) {
	if lead.AssignedStaffID == nil {
		return
	}
	n := &domain.Notification{
		StaffID:    *lead.AssignedStaffID,
		Type:       string(domain.NotificationTypeLeadAssigned),
		Title:      "Lead assigned to you",
		Message:    fmt.Sprintf("%s: %s (%s)", lead.CustomerName, lead.ReportedIssue, lead.DeviceType),
		EntityID:   &lead.ID,
		EntityType: "lead",
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to create assignment notification",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err))
	}
}

// notifyStatusChange tells the assigned staff member their lead moved,
// unless they moved it themselves. Failures are logged, never returned.
func (s *LeadService) notifyStatusChange(ctx context.Context, lead *domain.Lead, newStatus domain.LeadStatus, actor *auth.StaffContext) {
	if lead.AssignedStaffID == nil || *lead.AssignedStaffID == actor.StaffID {
		return
	}
	n := &domain.Notification{
		StaffID:    *lead.AssignedStaffID,
		Type:       string(domain.NotificationTypeLeadStatusChange),
		Title:      "Lead status changed",
		Message:    fmt.Sprintf("%s moved from %s to %s", lead.CustomerName, lead.Status, newStatus),
		EntityID:   &lead.ID,
		EntityType: "lead",
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to create status change notification",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err))
	}
}
