package repository

// Statistics and aggregation methods for the InvoiceRepository.

import (
	"context"
	"fmt"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
)

// RevenueStats holds windowed revenue figures for the dashboard
type RevenueStats struct {
	PaidRevenue     float64
	PendingRevenue  float64
	PaidInvoices    int64
	PendingInvoices int64
	TotalInvoices   int64
	TotalBilled     float64
}

// RevenueInWindow returns revenue figures for invoices created within [from, to).
// Partial invoices count toward pending because the outstanding amount is
// still open.
func (r *InvoiceRepository) RevenueInWindow(ctx context.Context, from, to time.Time) (*RevenueStats, error) {
	stats := &RevenueStats{}

	totalQuery := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("created_at >= ? AND created_at < ?", from, to)
	if err := totalQuery.Count(&stats.TotalInvoices).Error; err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	paidQuery := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("payment_status = ?", domain.PaymentStatusPaid)
	if err := paidQuery.Count(&stats.PaidInvoices).Error; err != nil {
		return nil, fmt.Errorf("failed to count paid invoices: %w", err)
	}
	paidSumQuery := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("payment_status = ?", domain.PaymentStatusPaid)
	if err := paidSumQuery.Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.PaidRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum paid revenue: %w", err)
	}

	pendingStatuses := []domain.PaymentStatus{
		domain.PaymentStatusPending,
		domain.PaymentStatusPartial,
	}
	pendingQuery := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("payment_status IN ?", pendingStatuses)
	if err := pendingQuery.Count(&stats.PendingInvoices).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending invoices: %w", err)
	}
	pendingSumQuery := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("payment_status IN ?", pendingStatuses)
	if err := pendingSumQuery.Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.PendingRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum pending revenue: %w", err)
	}

	billedQuery := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("payment_status <> ?", domain.PaymentStatusRefunded)
	if err := billedQuery.Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.TotalBilled).Error; err != nil {
		return nil, fmt.Errorf("failed to sum billed total: %w", err)
	}

	return stats, nil
}
