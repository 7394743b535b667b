package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"go.uber.org/zap"
)

const exportTable = "dbo.fixpoint_invoice_export"

// InvoiceSource lists paid invoices for export.
type InvoiceSource interface {
	FindPaidSince(ctx context.Context, since time.Time) ([]domain.Invoice, error)
}

// Exporter pushes paid invoices into the accounting database. Rows are keyed
// by invoice number so re-running an export window is safe.
type Exporter struct {
	client   *Client
	invoices InvoiceSource
	logger   *zap.Logger
}

// ExportResult summarizes a completed export run.
type ExportResult struct {
	Exported int
	Skipped  int
	Failed   int
}

func NewExporter(client *Client, invoices InvoiceSource, logger *zap.Logger) *Exporter {
	return &Exporter{
		client:   client,
		invoices: invoices,
		logger:   logger,
	}
}

// ExportPaidInvoices exports invoices paid since the given time. Individual
// row failures are logged and counted but do not abort the run.
func (e *Exporter) ExportPaidInvoices(ctx context.Context, since time.Time) (*ExportResult, error) {
	if !e.client.IsEnabled() {
		return nil, fmt.Errorf("accounting export not available")
	}

	invoices, err := e.invoices.FindPaidSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list paid invoices: %w", err)
	}

	result := &ExportResult{}
	for i := range invoices {
		inv := &invoices[i]

		exists, err := e.client.queryRowExists(ctx,
			fmt.Sprintf("SELECT 1 FROM %s WHERE invoice_number = @p1", exportTable),
			inv.InvoiceNumber,
		)
		if err != nil {
			e.logger.Warn("Failed to check existing export row",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		if err := e.insertInvoice(ctx, inv); err != nil {
			e.logger.Warn("Failed to export invoice",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Exported++
	}

	e.logger.Info("Paid invoice export completed",
		zap.Int("exported", result.Exported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Time("since", since),
	)

	return result, nil
}

func (e *Exporter) insertInvoice(ctx context.Context, inv *domain.Invoice) error {
	paidAt := time.Time{}
	if inv.PaidAt != nil {
		paidAt = *inv.PaidAt
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(invoice_number, customer_name, device_type, device_model,
		 subtotal, tax_amount, discount_amount, total_amount,
		 payment_method, paid_at, exported_at)
		VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11)`, exportTable)

	_, err := e.client.execContext(ctx, query,
		inv.InvoiceNumber,
		inv.CustomerName,
		string(inv.DeviceType),
		inv.DeviceModel,
		inv.Subtotal,
		inv.TaxAmount,
		inv.DiscountAmount,
		inv.TotalAmount,
		string(inv.PaymentMethod),
		paidAt,
		time.Now().UTC(),
	)
	return err
}
