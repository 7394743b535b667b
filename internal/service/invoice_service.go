package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/mapper"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// invoiceNumberFormat produces numbers like INV-00042
const invoiceNumberFormat = "INV-%05d"

// Payment status change rules. Refunded is terminal and only reachable
// from paid.
var validPaymentChanges = map[domain.PaymentStatus][]domain.PaymentStatus{
	domain.PaymentStatusPending:  {domain.PaymentStatusPartial, domain.PaymentStatusPaid},
	domain.PaymentStatusPartial:  {domain.PaymentStatusPaid, domain.PaymentStatusPending},
	domain.PaymentStatusPaid:     {domain.PaymentStatusRefunded},
	domain.PaymentStatusRefunded: {}, // Terminal state
}

type InvoiceService struct {
	invoiceRepo  *repository.InvoiceRepository
	sequenceRepo *repository.InvoiceSequenceRepository
	leadRepo     *repository.LeadRepository
	logger       *zap.Logger
}

func NewInvoiceService(
	invoiceRepo *repository.InvoiceRepository,
	sequenceRepo *repository.InvoiceSequenceRepository,
	leadRepo *repository.LeadRepository,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		sequenceRepo: sequenceRepo,
		leadRepo:     leadRepo,
		logger:       logger,
	}
}

// Generate creates an invoice with the next sequential number. The sequence
// increment and the invoice insert share one transaction, so a failed insert
// releases the number and two concurrent calls can never get the same one.
//
// When the invoice is generated from a lead, customer and device fields are
// snapshotted from the lead and the lead gets a back-link to the invoice.
// The back-link write happens after the invoice transaction commits; if it
// fails the invoice stands and the response carries a warning. The
// reconciliation job repairs missing back-links later.
func (s *InvoiceService) Generate(ctx context.Context, req *domain.GenerateInvoiceRequest) (*domain.GenerateInvoiceResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: invoice needs at least one line item", ErrInvalidInput)
	}

	var lead *domain.Lead
	if req.LeadID != nil {
		var err error
		lead, err = s.leadRepo.GetByID(ctx, *req.LeadID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: lead not found", ErrInvalidInput)
			}
			return nil, fmt.Errorf("failed to get lead: %w", err)
		}
		if lead.InvoiceID != nil {
			return nil, fmt.Errorf("%w: lead already has an invoice", ErrConflict)
		}
	} else if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required without a lead", ErrInvalidInput)
	}

	invoice := s.buildInvoice(req, lead)
	if err := s.validateTotals(invoice); err != nil {
		return nil, err
	}

	err := s.invoiceRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.sequenceRepo.NextNumber(ctx, tx)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = fmt.Sprintf(invoiceNumberFormat, seq)
		return s.invoiceRepo.CreateInTx(ctx, tx, invoice)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice: %w", err)
	}

	resp := &domain.GenerateInvoiceResponse{}

	// Back-link the lead outside the invoice transaction
	if lead != nil {
		if err := s.leadRepo.SetInvoiceLink(ctx, lead.ID, invoice.ID); err != nil {
			s.logger.Warn("invoice created but lead back-link failed",
				zap.String("invoice_number", invoice.InvoiceNumber),
				zap.String("lead_id", lead.ID.String()),
				zap.Error(err))
			resp.Warning = "invoice was created but the lead could not be linked to it"
		}
	}

	created, err := s.invoiceRepo.GetByID(ctx, invoice.ID)
	if err != nil {
		s.logger.Warn("failed to reload invoice after create", zap.Error(err))
		created = invoice
	}

	resp.Invoice = mapper.ToInvoiceDTO(created)
	return resp, nil
}

func (s *InvoiceService) buildInvoice(req *domain.GenerateInvoiceRequest, lead *domain.Lead) *domain.Invoice {
	invoice := &domain.Invoice{
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		Subtotal:       req.Subtotal,
		TaxRate:        req.TaxRate,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		TotalAmount:    req.TotalAmount,
		PaymentStatus:  domain.PaymentStatusPending,
		Notes:          req.Notes,
		Terms:          req.Terms,
	}

	if lead != nil {
		invoice.LeadID = &lead.ID
		invoice.CustomerName = lead.CustomerName
		invoice.CustomerPhone = lead.CustomerPhone
		invoice.CustomerEmail = lead.CustomerEmail
		invoice.DeviceType = lead.DeviceType
		invoice.DeviceModel = lead.DeviceModel
		invoice.ReportedIssue = lead.ReportedIssue
	}

	invoice.Items = make([]domain.InvoiceItem, len(req.Items))
	for i, item := range req.Items {
		invoice.Items[i] = domain.InvoiceItem{
			Description:  item.Description,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			LineTotal:    item.Quantity * item.UnitPrice,
			DisplayOrder: i,
		}
	}

	return invoice
}

// validateTotals recomputes the money fields from the line items and rejects
// requests whose stated totals do not add up. A half-cent tolerance absorbs
// client-side rounding.
func (s *InvoiceService) validateTotals(invoice *domain.Invoice) error {
	const tolerance = 0.005

	var subtotal float64
	for _, item := range invoice.Items {
		subtotal += item.LineTotal
	}
	if math.Abs(subtotal-invoice.Subtotal) > tolerance {
		return fmt.Errorf("%w: subtotal %.2f does not match line items %.2f",
			ErrInvalidInput, invoice.Subtotal, subtotal)
	}

	expectedTax := (subtotal - invoice.DiscountAmount) * invoice.TaxRate / 100
	if math.Abs(expectedTax-invoice.TaxAmount) > tolerance {
		return fmt.Errorf("%w: tax amount %.2f does not match rate %.2f%%",
			ErrInvalidInput, invoice.TaxAmount, invoice.TaxRate)
	}

	expectedTotal := subtotal - invoice.DiscountAmount + invoice.TaxAmount
	if math.Abs(expectedTotal-invoice.TotalAmount) > tolerance {
		return fmt.Errorf("%w: total %.2f does not match computed %.2f",
			ErrInvalidInput, invoice.TotalAmount, expectedTotal)
	}

	if invoice.TotalAmount < 0 {
		return fmt.Errorf("%w: total must not be negative", ErrInvalidInput)
	}

	return nil
}

// GetInvoice returns an invoice by id
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

// GetByNumber returns an invoice by its human-facing number
func (s *InvoiceService) GetByNumber(ctx context.Context, number string) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

// ListInvoices returns a page of invoices matching the filters
func (s *InvoiceService) ListInvoices(ctx context.Context, page, pageSize int, filters *repository.InvoiceFilters) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	invoices, total, err := s.invoiceRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i])
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

// UpdatePayment changes the payment status of an invoice. Marking an invoice
// paid stamps paid_at; moving it off paid clears it. Refunded invoices are
// frozen.
func (s *InvoiceService) UpdatePayment(ctx context.Context, id uuid.UUID, req *domain.UpdatePaymentRequest) (*domain.InvoiceDTO, error) {
	if !req.PaymentStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, req.PaymentStatus)
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if invoice.PaymentStatus != req.PaymentStatus &&
		!s.isValidPaymentChange(invoice.PaymentStatus, req.PaymentStatus) {
		return nil, fmt.Errorf("%w: cannot move invoice from %s to %s",
			ErrInvalidPaymentChange, invoice.PaymentStatus, req.PaymentStatus)
	}

	fields := map[string]interface{}{
		"payment_status": req.PaymentStatus,
	}
	if req.PaymentMethod != "" {
		fields["payment_method"] = req.PaymentMethod
	}
	switch req.PaymentStatus {
	case domain.PaymentStatusPaid:
		if invoice.PaidAt == nil {
			fields["paid_at"] = time.Now()
		}
	case domain.PaymentStatusPending, domain.PaymentStatusPartial:
		fields["paid_at"] = nil
	}

	if err := s.invoiceRepo.UpdatePayment(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	updated, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invoice: %w", err)
	}

	dto := mapper.ToInvoiceDTO(updated)
	return &dto, nil
}

func (s *InvoiceService) isValidPaymentChange(from, to domain.PaymentStatus) bool {
	validNext, ok := validPaymentChanges[from]
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

// ReconcileLeadLinks repairs leads whose invoice back-link failed at
// generation time. Returns the number of links repaired.
func (s *InvoiceService) ReconcileLeadLinks(ctx context.Context) (int, error) {
	leads, err := s.leadRepo.FindUnlinkedInvoiced(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to find unlinked leads: %w", err)
	}

	repaired := 0
	for i := range leads {
		invoice, err := s.invoiceRepo.GetByLead(ctx, leads[i].ID)
		if err != nil {
			s.logger.Warn("failed to load invoice for unlinked lead",
				zap.String("lead_id", leads[i].ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.leadRepo.SetInvoiceLink(ctx, leads[i].ID, invoice.ID); err != nil {
			s.logger.Warn("failed to repair lead back-link",
				zap.String("lead_id", leads[i].ID.String()),
				zap.Error(err))
			continue
		}
		repaired++
	}

	if repaired > 0 {
		s.logger.Info("repaired invoice back-links", zap.Int("count", repaired))
	}
	return repaired, nil
}
