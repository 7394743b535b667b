package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultWindowDays = 30
	maxWindowDays     = 365
	topIssuesLimit    = 5
)

// MetricsService computes the dashboard aggregates. All figures are derived
// from leads and invoices created inside a rolling window ending now; deltas
// compare against the equally-sized window immediately before it.
type MetricsService struct {
	leadRepo    *repository.LeadRepository
	invoiceRepo *repository.InvoiceRepository
	logger      *zap.Logger
}

func NewMetricsService(
	leadRepo *repository.LeadRepository,
	invoiceRepo *repository.InvoiceRepository,
	logger *zap.Logger,
) *MetricsService {
	return &MetricsService{
		leadRepo:    leadRepo,
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// GetDashboardMetrics computes all dashboard figures for a window of the
// given number of days. A non-positive or oversized windowDays falls back to
// the default.
func (s *MetricsService) GetDashboardMetrics(ctx context.Context, windowDays int) (*domain.DashboardMetrics, error) {
	if windowDays <= 0 || windowDays > maxWindowDays {
		windowDays = defaultWindowDays
	}

	now := time.Now()
	from := now.AddDate(0, 0, -windowDays)
	prevFrom := from.AddDate(0, 0, -windowDays)

	counts, err := s.leadRepo.CountsInWindow(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get lead counts: %w", err)
	}
	prevCounts, err := s.leadRepo.CountsInWindow(ctx, prevFrom, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get prior lead counts: %w", err)
	}

	revenue, err := s.invoiceRepo.RevenueInWindow(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue stats: %w", err)
	}
	prevRevenue, err := s.invoiceRepo.RevenueInWindow(ctx, prevFrom, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get prior revenue stats: %w", err)
	}

	topIssues, err := s.leadRepo.TopIssues(ctx, from, now, topIssuesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top issues: %w", err)
	}
	byDevice, err := s.leadRepo.DeviceTypeBreakdown(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get device breakdown: %w", err)
	}
	byStatus, err := s.leadRepo.StatusBreakdown(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get status breakdown: %w", err)
	}
	daily, err := s.leadRepo.DailySeries(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily series: %w", err)
	}
	staffActivity, err := s.leadRepo.StaffPerformance(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff performance: %w", err)
	}

	metrics := &domain.DashboardMetrics{
		WindowDays:      windowDays,
		TotalLeads:      counts.Total,
		NewLeads:        counts.New,
		InProgressLeads: counts.InProgress,
		CompletedLeads:  counts.Completed,
		CancelledLeads:  counts.Cancelled,
		ConversionRate:  conversionRate(counts),
		PaidRevenue:     revenue.PaidRevenue,
		PendingRevenue:  revenue.PendingRevenue,
		PaidInvoices:    revenue.PaidInvoices,
		PendingInvoices: revenue.PendingInvoices,
		TopIssues:       topIssues,
		ByDeviceType:    byDevice,
		ByStatus:        byStatus,
		DailyLeads:      daily,
		StaffActivity:   staffActivity,
	}

	if revenue.TotalInvoices > 0 {
		metrics.AvgInvoiceValue = revenue.TotalBilled / float64(revenue.TotalInvoices)
	}
	prevAvg := 0.0
	if prevRevenue.TotalInvoices > 0 {
		prevAvg = prevRevenue.TotalBilled / float64(prevRevenue.TotalInvoices)
	}

	metrics.LeadsDelta = delta(float64(counts.Total), float64(prevCounts.Total))
	metrics.ConversionDelta = conversionDelta(counts, prevCounts)
	metrics.PaidRevenueDelta = delta(revenue.PaidRevenue, prevRevenue.PaidRevenue)
	metrics.AvgInvoiceDelta = delta(metrics.AvgInvoiceValue, prevAvg)

	return metrics, nil
}

// conversionRate is delivered over total, 0 when the window has no leads
func conversionRate(c *repository.LeadCounts) float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Delivered) / float64(c.Total)
}

// delta builds a period comparison. When the prior value is zero there is
// nothing to divide by, so NoPriorData is set rather than reporting an
// unbounded percentage.
func delta(current, previous float64) domain.MetricDelta {
	d := domain.MetricDelta{
		Current:  current,
		Previous: previous,
	}
	if previous == 0 {
		d.NoPriorData = true
		return d
	}
	d.ChangePct = (current - previous) / previous * 100
	return d
}

// conversionDelta compares conversion rates as point change, not a percent
// of a percent. NoPriorData is set when the prior window had no leads at all.
func conversionDelta(current, previous *repository.LeadCounts) domain.MetricDelta {
	d := domain.MetricDelta{
		Current:  conversionRate(current),
		Previous: conversionRate(previous),
	}
	if previous.Total == 0 {
		d.NoPriorData = true
		return d
	}
	d.ChangePct = (d.Current - d.Previous) * 100
	return d
}
