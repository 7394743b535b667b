package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/fixpoint-as/repair-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createInvoiceRow(t *testing.T, db *gorm.DB, number string, leadID *uuid.UUID) *domain.Invoice {
	t.Helper()
	invoice := &domain.Invoice{
		InvoiceNumber: number,
		LeadID:        leadID,
		CustomerName:  "Repo Customer",
		Subtotal:      500,
		TotalAmount:   500,
		PaymentStatus: domain.PaymentStatusPending,
	}
	require.NoError(t, db.Create(invoice).Error)
	return invoice
}

func TestLeadRepository_SetInvoiceLink(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()

	t.Run("links an unlinked lead", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Unlinked", domain.LeadStatusCompleted)
		invoice := createInvoiceRow(t, db, "INV-10001", &lead.ID)

		require.NoError(t, repo.SetInvoiceLink(ctx, lead.ID, invoice.ID))

		var reloaded domain.Lead
		require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
		require.NotNil(t, reloaded.InvoiceID)
		assert.Equal(t, invoice.ID, *reloaded.InvoiceID)
	})

	t.Run("linked lead is never relinked", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Already Linked", domain.LeadStatusCompleted)
		first := createInvoiceRow(t, db, "INV-10002", &lead.ID)
		second := createInvoiceRow(t, db, "INV-10003", nil)

		require.NoError(t, repo.SetInvoiceLink(ctx, lead.ID, first.ID))
		require.NoError(t, repo.SetInvoiceLink(ctx, lead.ID, second.ID))

		var reloaded domain.Lead
		require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
		require.NotNil(t, reloaded.InvoiceID)
		assert.Equal(t, first.ID, *reloaded.InvoiceID, "the first link must stand")
	})
}

func TestLeadRepository_FindUnlinkedInvoiced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()

	linked := testutil.CreateTestLead(t, db, "Linked Fine", domain.LeadStatusCompleted)
	linkedInvoice := createInvoiceRow(t, db, "INV-20001", &linked.ID)
	require.NoError(t, repo.SetInvoiceLink(ctx, linked.ID, linkedInvoice.ID))

	orphaned := testutil.CreateTestLead(t, db, "Lost Back-Link", domain.LeadStatusCompleted)
	createInvoiceRow(t, db, "INV-20002", &orphaned.ID)

	testutil.CreateTestLead(t, db, "No Invoice", domain.LeadStatusNew)

	leads, err := repo.FindUnlinkedInvoiced(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, orphaned.ID, leads[0].ID)
}

func TestLeadRepository_UpdateFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Partial Update", domain.LeadStatusNew)
	before := lead.UpdatedAt

	require.NoError(t, repo.UpdateFields(ctx, lead.ID, map[string]interface{}{
		"status": domain.LeadStatusContacted,
	}))

	var reloaded domain.Lead
	require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
	assert.Equal(t, domain.LeadStatusContacted, reloaded.Status)
	assert.True(t, reloaded.UpdatedAt.After(before) || reloaded.UpdatedAt.Equal(before))
}

func TestLeadRepository_FindDueFollowUps(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()

	setFollowUp := func(t *testing.T, leadID uuid.UUID, at time.Time) {
		require.NoError(t, db.Model(&domain.Lead{}).Where("id = ?", leadID).
			Update("follow_up_date", at).Error)
	}

	now := time.Now()
	due := testutil.CreateTestLead(t, db, "Due Yesterday", domain.LeadStatusContacted)
	setFollowUp(t, due.ID, now.AddDate(0, 0, -1))

	future := testutil.CreateTestLead(t, db, "Due Next Week", domain.LeadStatusContacted)
	setFollowUp(t, future.ID, now.AddDate(0, 0, 7))

	cancelled := testutil.CreateTestLead(t, db, "Cancelled", domain.LeadStatusCancelled)
	setFollowUp(t, cancelled.ID, now.AddDate(0, 0, -2))

	for i := 0; i < 3; i++ {
		testutil.CreateTestLead(t, db, fmt.Sprintf("No Follow-Up %d", i), domain.LeadStatusNew)
	}

	leads, err := repo.FindDueFollowUps(ctx, now)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, due.ID, leads[0].ID)
}
