package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

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

func createInvoiceService(db *gorm.DB) *service.InvoiceService {
	logger := zap.NewNop()
	invoiceRepo := repository.NewInvoiceRepository(db)
	sequenceRepo := repository.NewInvoiceSequenceRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	return service.NewInvoiceService(invoiceRepo, sequenceRepo, leadRepo, logger)
}

func simpleInvoiceRequest() *domain.GenerateInvoiceRequest {
	return &domain.GenerateInvoiceRequest{
		CustomerName: "Walk-in Customer",
		Items: []domain.InvoiceItemRequest{
			{Description: "Screen replacement", Quantity: 1, UnitPrice: 1200},
			{Description: "Labor", Quantity: 1, UnitPrice: 300},
		},
		Subtotal:    1500,
		TotalAmount: 1500,
	}
}

func TestInvoiceService_Generate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createInvoiceService(db)
	ctx := context.Background()

	t.Run("numbers are sequential and zero padded", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			resp, err := svc.Generate(ctx, simpleInvoiceRequest())
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("INV-%05d", i), resp.Invoice.InvoiceNumber)
			assert.Empty(t, resp.Warning)
		}
	})

	t.Run("generate from a lead snapshots customer and links back", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Invoice Customer", domain.LeadStatusCompleted)

		req := simpleInvoiceRequest()
		req.LeadID = &lead.ID
		req.CustomerName = ""

		resp, err := svc.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Invoice Customer", resp.Invoice.CustomerName)
		assert.Equal(t, domain.DeviceTypePhone, resp.Invoice.DeviceType)
		assert.Empty(t, resp.Warning)

		var reloaded domain.Lead
		require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
		require.NotNil(t, reloaded.InvoiceID)
		assert.Equal(t, resp.Invoice.ID, *reloaded.InvoiceID)
	})

	t.Run("second invoice for the same lead conflicts", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "One Invoice Only", domain.LeadStatusCompleted)

		req := simpleInvoiceRequest()
		req.LeadID = &lead.ID
		_, err := svc.Generate(ctx, req)
		require.NoError(t, err)

		req2 := simpleInvoiceRequest()
		req2.LeadID = &lead.ID
		_, err = svc.Generate(ctx, req2)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("unknown lead rejected", func(t *testing.T) {
		missing := uuid.New()
		req := simpleInvoiceRequest()
		req.LeadID = &missing

		_, err := svc.Generate(ctx, req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("empty item list rejected", func(t *testing.T) {
		req := simpleInvoiceRequest()
		req.Items = nil

		_, err := svc.Generate(ctx, req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("mismatched totals rejected", func(t *testing.T) {
		req := simpleInvoiceRequest()
		req.Subtotal = 999

		_, err := svc.Generate(ctx, req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("failed generate does not consume a number", func(t *testing.T) {
		before, err := svc.Generate(ctx, simpleInvoiceRequest())
		require.NoError(t, err)

		bad := simpleInvoiceRequest()
		bad.Subtotal = 1
		_, err = svc.Generate(ctx, bad)
		require.Error(t, err)

		after, err := svc.Generate(ctx, simpleInvoiceRequest())
		require.NoError(t, err)

		var beforeSeq, afterSeq int
		_, err = fmt.Sscanf(before.Invoice.InvoiceNumber, "INV-%05d", &beforeSeq)
		require.NoError(t, err)
		_, err = fmt.Sscanf(after.Invoice.InvoiceNumber, "INV-%05d", &afterSeq)
		require.NoError(t, err)
		assert.Equal(t, beforeSeq+1, afterSeq)
	})

	t.Run("tax and discount are validated against line items", func(t *testing.T) {
		req := &domain.GenerateInvoiceRequest{
			CustomerName: "Taxed Customer",
			Items: []domain.InvoiceItemRequest{
				{Description: "Battery replacement", Quantity: 2, UnitPrice: 500},
			},
			Subtotal:       1000,
			DiscountAmount: 100,
			TaxRate:        25,
			TaxAmount:      225,
			TotalAmount:    1125,
		}

		resp, err := svc.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1125.0, resp.Invoice.TotalAmount)
		require.Len(t, resp.Invoice.Items, 1)
		assert.Equal(t, 1000.0, resp.Invoice.Items[0].LineTotal)
	})
}

func TestInvoiceService_UpdatePayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createInvoiceService(db)
	ctx := context.Background()

	newInvoice := func(t *testing.T) uuid.UUID {
		resp, err := svc.Generate(ctx, simpleInvoiceRequest())
		require.NoError(t, err)
		return resp.Invoice.ID
	}

	setStatus := func(t *testing.T, id uuid.UUID, status domain.PaymentStatus) *domain.InvoiceDTO {
		dto, err := svc.UpdatePayment(ctx, id, &domain.UpdatePaymentRequest{PaymentStatus: status})
		require.NoError(t, err)
		return dto
	}

	t.Run("pending to paid stamps paid_at", func(t *testing.T) {
		id := newInvoice(t)
		dto := setStatus(t, id, domain.PaymentStatusPaid)
		assert.Equal(t, domain.PaymentStatusPaid, dto.PaymentStatus)
		assert.NotNil(t, dto.PaidAt)
	})

	t.Run("partial back to pending clears paid_at", func(t *testing.T) {
		id := newInvoice(t)
		setStatus(t, id, domain.PaymentStatusPartial)
		dto := setStatus(t, id, domain.PaymentStatusPending)
		assert.Equal(t, domain.PaymentStatusPending, dto.PaymentStatus)
		assert.Nil(t, dto.PaidAt)
	})

	t.Run("paid to refunded allowed", func(t *testing.T) {
		id := newInvoice(t)
		setStatus(t, id, domain.PaymentStatusPaid)
		dto := setStatus(t, id, domain.PaymentStatusRefunded)
		assert.Equal(t, domain.PaymentStatusRefunded, dto.PaymentStatus)
	})

	t.Run("pending straight to refunded rejected", func(t *testing.T) {
		id := newInvoice(t)
		_, err := svc.UpdatePayment(ctx, id, &domain.UpdatePaymentRequest{PaymentStatus: domain.PaymentStatusRefunded})
		assert.ErrorIs(t, err, service.ErrInvalidPaymentChange)
	})

	t.Run("refunded is terminal", func(t *testing.T) {
		id := newInvoice(t)
		setStatus(t, id, domain.PaymentStatusPaid)
		setStatus(t, id, domain.PaymentStatusRefunded)

		_, err := svc.UpdatePayment(ctx, id, &domain.UpdatePaymentRequest{PaymentStatus: domain.PaymentStatusPending})
		assert.ErrorIs(t, err, service.ErrInvalidPaymentChange)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		id := newInvoice(t)
		dto, err := svc.UpdatePayment(ctx, id, &domain.UpdatePaymentRequest{
			PaymentStatus: domain.PaymentStatusPending,
			PaymentMethod: domain.PaymentMethodCard,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPending, dto.PaymentStatus)
		assert.Equal(t, domain.PaymentMethodCard, dto.PaymentMethod)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		id := newInvoice(t)
		_, err := svc.UpdatePayment(ctx, id, &domain.UpdatePaymentRequest{PaymentStatus: domain.PaymentStatus("gifted")})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("unknown invoice returns not found", func(t *testing.T) {
		_, err := svc.UpdatePayment(ctx, uuid.New(), &domain.UpdatePaymentRequest{PaymentStatus: domain.PaymentStatusPaid})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestInvoiceService_GetByNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createInvoiceService(db)
	ctx := context.Background()

	resp, err := svc.Generate(ctx, simpleInvoiceRequest())
	require.NoError(t, err)

	t.Run("lookup is case and whitespace tolerant", func(t *testing.T) {
		dto, err := svc.GetByNumber(ctx, "  inv-00001 ")
		require.NoError(t, err)
		assert.Equal(t, resp.Invoice.ID, dto.ID)
	})

	t.Run("unknown number returns not found", func(t *testing.T) {
		_, err := svc.GetByNumber(ctx, "INV-99999")
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestInvoiceService_ReconcileLeadLinks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createInvoiceService(db)
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Orphaned Link", domain.LeadStatusCompleted)

	req := simpleInvoiceRequest()
	req.LeadID = &lead.ID
	_, err := svc.Generate(ctx, req)
	require.NoError(t, err)

	// Simulate a lost back-link
	require.NoError(t, db.Model(&domain.Lead{}).Where("id = ?", lead.ID).Update("invoice_id", nil).Error)

	repaired, err := svc.ReconcileLeadLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	var reloaded domain.Lead
	require.NoError(t, db.First(&reloaded, "id = ?", lead.ID).Error)
	assert.NotNil(t, reloaded.InvoiceID)

	// A second run finds nothing to do
	repaired, err = svc.ReconcileLeadLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestInvoiceService_ConcurrentNumbering(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createInvoiceService(db)
	ctx := context.Background()

	const workers = 8
	results := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Generate(ctx, simpleInvoiceRequest())
			if err != nil {
				// sqlite allows a single writer at a time
				return
			}
			results <- resp.Invoice.InvoiceNumber
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	issued := 0
	for number := range results {
		assert.False(t, seen[number], "invoice number %s issued twice", number)
		seen[number] = true
		issued++
	}
	require.NotZero(t, issued)

	// Numbers stay dense: the highest issued number equals the count issued
	var invoices []domain.Invoice
	require.NoError(t, db.Order("invoice_number").Find(&invoices).Error)
	require.Len(t, invoices, issued)
	assert.Equal(t, fmt.Sprintf("INV-%05d", issued), invoices[issued-1].InvoiceNumber)
}
