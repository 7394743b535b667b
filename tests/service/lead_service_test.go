package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/fixpoint-as/repair-api/internal/service"
	"github.com/fixpoint-as/repair-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createLeadService(db *gorm.DB) *service.LeadService {
	logger := zap.NewNop()
	leadRepo := repository.NewLeadRepository(db)
	remarkRepo := repository.NewLeadRemarkRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	return service.NewLeadService(leadRepo, remarkRepo, staffRepo, notificationRepo, logger)
}

func leadTestContext(t *testing.T, db *gorm.DB) context.Context {
	staff := testutil.CreateTestStaff(t, db, "Test Technician", domain.RoleTechnician)
	return testutil.StaffContext(staff.ID, staff.Role)
}

func TestLeadService_CreateLead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := leadTestContext(t, db)

	t.Run("create with minimal fields", func(t *testing.T) {
		req := &domain.CreateLeadRequest{
			CustomerName:  "Kari Nordmann",
			CustomerPhone: "98765432",
			DeviceType:    domain.DeviceTypeLaptop,
			ReportedIssue: "does not boot",
		}

		lead, err := svc.CreateLead(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Kari Nordmann", lead.CustomerName)
		assert.Equal(t, domain.LeadStatusNew, lead.Status)
		assert.Equal(t, domain.LeadSourceWalkIn, lead.Source)
	})

	t.Run("create with assigned staff", func(t *testing.T) {
		staff := testutil.CreateTestStaff(t, db, "Assignee", domain.RoleTechnician)
		req := &domain.CreateLeadRequest{
			CustomerName:    "Ola Hansen",
			CustomerPhone:   "91111111",
			DeviceType:      domain.DeviceTypePhone,
			ReportedIssue:   "battery drains fast",
			Source:          domain.LeadSourceWebsite,
			AssignedStaffID: &staff.ID,
		}

		lead, err := svc.CreateLead(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadSourceWebsite, lead.Source)
		assert.Equal(t, "Assignee", lead.AssignedStaffName)
	})

	t.Run("reject unknown device type", func(t *testing.T) {
		req := &domain.CreateLeadRequest{
			CustomerName:  "Bad Device",
			CustomerPhone: "90000000",
			DeviceType:    domain.DeviceType("toaster"),
			ReportedIssue: "smokes",
		}

		_, err := svc.CreateLead(ctx, req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("reject assignment to unknown staff", func(t *testing.T) {
		missing := uuid.New()
		req := &domain.CreateLeadRequest{
			CustomerName:    "No Staff",
			CustomerPhone:   "90000001",
			DeviceType:      domain.DeviceTypePhone,
			ReportedIssue:   "broken camera",
			AssignedStaffID: &missing,
		}

		_, err := svc.CreateLead(ctx, req)
		assert.Error(t, err)
	})
}

func TestLeadService_AddRemark(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := leadTestContext(t, db)

	t.Run("remark without status change", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Remark Only", domain.LeadStatusNew)

		resp, err := svc.AddRemark(ctx, lead.ID, &domain.AddRemarkRequest{
			Note: "customer called to ask about price",
		})
		require.NoError(t, err)
		assert.True(t, resp.LeadUpdated)
		assert.Empty(t, resp.Warning)
		assert.Nil(t, resp.Remark.StatusChangedTo)

		var reloaded domain.Lead
		require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
		assert.Equal(t, domain.LeadStatusNew, reloaded.Status)
	})

	t.Run("remark with valid status change", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Advance Me", domain.LeadStatusNew)
		contacted := domain.LeadStatusContacted

		resp, err := svc.AddRemark(ctx, lead.ID, &domain.AddRemarkRequest{
			Note:   "reached customer on phone",
			Status: &contacted,
		})
		require.NoError(t, err)
		assert.True(t, resp.LeadUpdated)
		require.NotNil(t, resp.Remark.StatusChangedTo)
		assert.Equal(t, contacted, *resp.Remark.StatusChangedTo)

		var reloaded domain.Lead
		require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
		assert.Equal(t, domain.LeadStatusContacted, reloaded.Status)
	})

	t.Run("invalid transition writes nothing", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "No Skipping", domain.LeadStatusNew)
		delivered := domain.LeadStatusDelivered

		_, err := svc.AddRemark(ctx, lead.ID, &domain.AddRemarkRequest{
			Note:   "trying to skip ahead",
			Status: &delivered,
		})
		assert.ErrorIs(t, err, service.ErrInvalidTransition)

		var count int64
		require.NoError(t, db.Model(&domain.LeadRemark{}).Where("lead_id = ?", lead.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count, "remark must not be saved when the transition is invalid")

		var reloaded domain.Lead
		require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
		assert.Equal(t, domain.LeadStatusNew, reloaded.Status)
	})

	t.Run("whitespace note rejected", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Empty Note", domain.LeadStatusNew)

		_, err := svc.AddRemark(ctx, lead.ID, &domain.AddRemarkRequest{Note: "   \t  "})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unknown lead returns not found", func(t *testing.T) {
		_, err := svc.AddRemark(ctx, uuid.New(), &domain.AddRemarkRequest{Note: "hello"})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("remark on terminal status still allowed without transition", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Delivered Lead", domain.LeadStatusDelivered)

		resp, err := svc.AddRemark(ctx, lead.ID, &domain.AddRemarkRequest{
			Note: "customer picked up, left positive review",
		})
		require.NoError(t, err)
		assert.True(t, resp.LeadUpdated)
	})

	t.Run("follow-up date set alongside remark", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Follow Up", domain.LeadStatusContacted)
		followUp := time.Now().AddDate(0, 0, 3).Truncate(24 * time.Hour)

		resp, err := svc.AddRemark(ctx, lead.ID, &domain.AddRemarkRequest{
			Note:         "call back on Thursday",
			FollowUpDate: &followUp,
		})
		require.NoError(t, err)
		assert.True(t, resp.LeadUpdated)

		var reloaded domain.Lead
		require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
		require.NotNil(t, reloaded.FollowUpDate)
	})
}

func TestLeadService_ActingStaffChecks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)

	t.Run("deactivated staff cannot add remarks", func(t *testing.T) {
		staff := testutil.CreateTestStaff(t, db, "Former Employee", domain.RoleTechnician)
		require.NoError(t, db.Model(&domain.Staff{}).Where("id = ?", staff.ID).
			Update("is_active", false).Error)
		ctx := testutil.StaffContext(staff.ID, staff.Role)
		lead := testutil.CreateTestLead(t, db, "Guarded Lead", domain.LeadStatusNew)

		_, err := svc.AddRemark(ctx, lead.ID, &domain.AddRemarkRequest{Note: "should be rejected"})
		assert.ErrorIs(t, err, service.ErrStaffInactive)

		var count int64
		require.NoError(t, db.Model(&domain.LeadRemark{}).Where("lead_id = ?", lead.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("unknown staff identity cannot add remarks", func(t *testing.T) {
		ctx := testutil.StaffContext(uuid.Nil, domain.RoleManager)
		lead := testutil.CreateTestLead(t, db, "No Ghost Writers", domain.LeadStatusNew)

		_, err := svc.AddRemark(ctx, lead.ID, &domain.AddRemarkRequest{Note: "anonymous"})
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("deactivated staff cannot cancel leads", func(t *testing.T) {
		staff := testutil.CreateTestStaff(t, db, "Former Manager", domain.RoleManager)
		require.NoError(t, db.Model(&domain.Staff{}).Where("id = ?", staff.ID).
			Update("is_active", false).Error)
		ctx := testutil.StaffContext(staff.ID, staff.Role)
		lead := testutil.CreateTestLead(t, db, "Still Open", domain.LeadStatusContacted)

		_, err := svc.CancelLead(ctx, lead.ID, "no longer with us")
		assert.ErrorIs(t, err, service.ErrStaffInactive)

		var reloaded domain.Lead
		require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
		assert.Equal(t, domain.LeadStatusContacted, reloaded.Status)
	})
}

func TestLeadService_AddRemarkLeadUpdateFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := leadTestContext(t, db)

	lead := testutil.CreateTestLead(t, db, "Degraded", domain.LeadStatusContacted)
	followUp := time.Now().AddDate(0, 0, 2)

	// Dropping the column makes the post-remark lead update fail while
	// remark inserts and lead reads keep working.
	require.NoError(t, db.Migrator().DropColumn(&domain.Lead{}, "follow_up_date"))

	resp, err := svc.AddRemark(ctx, lead.ID, &domain.AddRemarkRequest{
		Note:         "call back in two days",
		FollowUpDate: &followUp,
	})
	require.NoError(t, err)
	assert.False(t, resp.LeadUpdated)
	assert.NotEmpty(t, resp.Warning)

	var count int64
	require.NoError(t, db.Model(&domain.LeadRemark{}).Where("lead_id = ?", lead.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "remark must survive the failed lead update")
}

func TestLeadService_StatusTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := leadTestContext(t, db)

	advance := func(t *testing.T, leadID uuid.UUID, to domain.LeadStatus) error {
		_, err := svc.AddRemark(ctx, leadID, &domain.AddRemarkRequest{
			Note:   "moving along",
			Status: &to,
		})
		return err
	}

	t.Run("full pipeline walk", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Pipeline", domain.LeadStatusNew)
		steps := []domain.LeadStatus{
			domain.LeadStatusContacted,
			domain.LeadStatusQualified,
			domain.LeadStatusPickupScheduled,
			domain.LeadStatusInRepair,
			domain.LeadStatusCompleted,
			domain.LeadStatusDelivered,
		}
		for _, next := range steps {
			require.NoError(t, advance(t, lead.ID, next), "transition to %s", next)
		}

		var reloaded domain.Lead
		require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
		assert.Equal(t, domain.LeadStatusDelivered, reloaded.Status)
	})

	t.Run("no backwards moves", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Backwards", domain.LeadStatusQualified)
		err := advance(t, lead.ID, domain.LeadStatusNew)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("no moves out of delivered", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Done", domain.LeadStatusDelivered)
		err := advance(t, lead.ID, domain.LeadStatusInRepair)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("cancel allowed from any active status", func(t *testing.T) {
		for _, from := range []domain.LeadStatus{
			domain.LeadStatusNew,
			domain.LeadStatusContacted,
			domain.LeadStatusQualified,
			domain.LeadStatusPickupScheduled,
			domain.LeadStatusInRepair,
			domain.LeadStatusCompleted,
		} {
			lead := testutil.CreateTestLead(t, db, "Cancel "+string(from), from)
			require.NoError(t, advance(t, lead.ID, domain.LeadStatusCancelled), "cancel from %s", from)
		}
	})

	t.Run("cancel not allowed from terminal statuses", func(t *testing.T) {
		delivered := testutil.CreateTestLead(t, db, "Cancel Delivered", domain.LeadStatusDelivered)
		assert.ErrorIs(t, advance(t, delivered.ID, domain.LeadStatusCancelled), service.ErrInvalidTransition)

		cancelled := testutil.CreateTestLead(t, db, "Cancel Cancelled", domain.LeadStatusCancelled)
		assert.ErrorIs(t, advance(t, cancelled.ID, domain.LeadStatusCancelled), service.ErrInvalidTransition)
	})
}

func TestLeadService_CancelLead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := leadTestContext(t, db)

	t.Run("cancel records a remark with the reason", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "To Cancel", domain.LeadStatusInRepair)

		dto, err := svc.CancelLead(ctx, lead.ID, "customer bought a new device")
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusCancelled, dto.Status)

		var remarks []domain.LeadRemark
		require.NoError(t, db.Where("lead_id = ?", lead.ID).Find(&remarks).Error)
		require.Len(t, remarks, 1)
		assert.Contains(t, remarks[0].Note, "customer bought a new device")
	})

	t.Run("cancel of terminal lead fails", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Already Done", domain.LeadStatusDelivered)
		_, err := svc.CancelLead(ctx, lead.ID, "too late")
		assert.Error(t, err)
	})
}

func TestLeadService_UpdateLead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := leadTestContext(t, db)

	t.Run("update quote and details", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Update Me", domain.LeadStatusContacted)

		dto, err := svc.UpdateLead(ctx, lead.ID, &domain.UpdateLeadRequest{
			CustomerName:  "Update Me",
			CustomerPhone: "91234567",
			DeviceType:    domain.DeviceTypePhone,
			DeviceModel:   "iPhone 14 Pro",
			ReportedIssue: "cracked screen and bent frame",
			QuotedAmount:  2500,
		})
		require.NoError(t, err)
		assert.Equal(t, 2500.0, dto.QuotedAmount)
		assert.Equal(t, "iPhone 14 Pro", dto.DeviceModel)
		// Status never changes through a plain update
		assert.Equal(t, domain.LeadStatusContacted, dto.Status)
	})

	t.Run("terminal leads reject updates", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Frozen", domain.LeadStatusCancelled)

		_, err := svc.UpdateLead(ctx, lead.ID, &domain.UpdateLeadRequest{
			CustomerName:  "Frozen",
			CustomerPhone: "91234567",
			DeviceType:    domain.DeviceTypePhone,
			ReportedIssue: "still broken",
		})
		assert.ErrorIs(t, err, service.ErrLeadTerminal)
	})
}

func TestLeadService_GetFollowUpsDue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)

	yesterday := time.Now().AddDate(0, 0, -1)
	tomorrow := time.Now().AddDate(0, 0, 1)

	due := testutil.CreateTestLead(t, db, "Due Lead", domain.LeadStatusContacted)
	require.NoError(t, db.Model(due).Update("follow_up_date", yesterday).Error)

	notDue := testutil.CreateTestLead(t, db, "Future Lead", domain.LeadStatusContacted)
	require.NoError(t, db.Model(notDue).Update("follow_up_date", tomorrow).Error)

	cancelled := testutil.CreateTestLead(t, db, "Cancelled Lead", domain.LeadStatusCancelled)
	require.NoError(t, db.Model(cancelled).Update("follow_up_date", yesterday).Error)

	dtos, err := svc.GetFollowUpsDue(context.Background())
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "Due Lead", dtos[0].CustomerName)
}
