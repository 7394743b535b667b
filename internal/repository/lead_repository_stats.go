package repository

// This file contains statistics and aggregation methods for the LeadRepository.
// Includes:
// - Windowed lead counts and conversion rate inputs
// - Breakdowns by status, device type and reported issue
// - Daily new/converted series
// - Per-staff performance stats

import (
	"context"
	"fmt"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/google/uuid"
)

// LeadCounts holds windowed lead counts for the dashboard
type LeadCounts struct {
	Total      int64
	New        int64
	InProgress int64
	Completed  int64
	Cancelled  int64
	Delivered  int64
}

// CountsInWindow returns lead counts for leads created within [from, to)
func (r *LeadRepository) CountsInWindow(ctx context.Context, from, to time.Time) (*LeadCounts, error) {
	counts := &LeadCounts{}

	base := func() *countQuery {
		return &countQuery{r: r, ctx: ctx, from: from, to: to}
	}

	if err := base().count(&counts.Total); err != nil {
		return nil, fmt.Errorf("failed to count total leads: %w", err)
	}
	if err := base().status(domain.LeadStatusNew).count(&counts.New); err != nil {
		return nil, fmt.Errorf("failed to count new leads: %w", err)
	}
	inProgress := []domain.LeadStatus{
		domain.LeadStatusContacted,
		domain.LeadStatusQualified,
		domain.LeadStatusPickupScheduled,
		domain.LeadStatusInRepair,
	}
	if err := base().statuses(inProgress).count(&counts.InProgress); err != nil {
		return nil, fmt.Errorf("failed to count in-progress leads: %w", err)
	}
	completed := []domain.LeadStatus{
		domain.LeadStatusCompleted,
		domain.LeadStatusDelivered,
	}
	if err := base().statuses(completed).count(&counts.Completed); err != nil {
		return nil, fmt.Errorf("failed to count completed leads: %w", err)
	}
	if err := base().status(domain.LeadStatusCancelled).count(&counts.Cancelled); err != nil {
		return nil, fmt.Errorf("failed to count cancelled leads: %w", err)
	}
	if err := base().status(domain.LeadStatusDelivered).count(&counts.Delivered); err != nil {
		return nil, fmt.Errorf("failed to count delivered leads: %w", err)
	}

	return counts, nil
}

type countQuery struct {
	r        *LeadRepository
	ctx      context.Context
	from, to time.Time
	sts      []domain.LeadStatus
}

func (q *countQuery) status(s domain.LeadStatus) *countQuery {
	q.sts = []domain.LeadStatus{s}
	return q
}

func (q *countQuery) statuses(sts []domain.LeadStatus) *countQuery {
	q.sts = sts
	return q
}

func (q *countQuery) count(dest *int64) error {
	query := q.r.db.WithContext(q.ctx).Model(&domain.Lead{}).
		Where("created_at >= ? AND created_at < ?", q.from, q.to)
	if len(q.sts) == 1 {
		query = query.Where("status = ?", q.sts[0])
	} else if len(q.sts) > 1 {
		query = query.Where("status IN ?", q.sts)
	}
	return query.Count(dest).Error
}

// StatusBreakdown returns lead counts per status for leads created within the window
func (r *LeadRepository) StatusBreakdown(ctx context.Context, from, to time.Time) ([]domain.StatusCount, error) {
	var results []domain.StatusCount
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Order("count DESC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group leads by status: %w", err)
	}
	return results, nil
}

// DeviceTypeBreakdown returns lead counts per device type within the window
func (r *LeadRepository) DeviceTypeBreakdown(ctx context.Context, from, to time.Time) ([]domain.DeviceTypeCount, error) {
	var results []domain.DeviceTypeCount
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("device_type, COUNT(*) as count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("device_type").
		Order("count DESC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group leads by device type: %w", err)
	}
	return results, nil
}

// TopIssues returns the most frequent reported issues within the window
func (r *LeadRepository) TopIssues(ctx context.Context, from, to time.Time, limit int) ([]domain.IssueCount, error) {
	var results []domain.IssueCount
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("reported_issue as issue, COUNT(*) as count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("reported_issue").
		Order("count DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top issues: %w", err)
	}
	return results, nil
}

// DailySeries returns per-day counts of new and converted (delivered) leads
// within the window. DATE() works on both postgres and sqlite so tests can
// run against an in-memory database.
func (r *LeadRepository) DailySeries(ctx context.Context, from, to time.Time) ([]domain.DailyLeadPoint, error) {
	type row struct {
		Day      string
		NewCount int64
		Conv     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("DATE(created_at) as day, COUNT(*) as new_count, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) as conv", domain.LeadStatusDelivered).
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily leads: %w", err)
	}

	points := make([]domain.DailyLeadPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, domain.DailyLeadPoint{
			Date:      r.Day,
			New:       r.NewCount,
			Converted: r.Conv,
		})
	}
	return points, nil
}

// StaffPerformance returns per-staff assigned and converted lead counts
// within the window. Staff with no assigned leads in the window are omitted.
func (r *LeadRepository) StaffPerformance(ctx context.Context, from, to time.Time) ([]domain.StaffPerformance, error) {
	type row struct {
		StaffID   uuid.UUID
		StaffName string
		Assigned  int64
		Converted int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("leads.assigned_staff_id as staff_id, staff.display_name as staff_name, COUNT(*) as assigned, SUM(CASE WHEN leads.status = ? THEN 1 ELSE 0 END) as converted", domain.LeadStatusDelivered).
		Joins("JOIN staff ON staff.id = leads.assigned_staff_id").
		Where("leads.created_at >= ? AND leads.created_at < ?", from, to).
		Where("leads.assigned_staff_id IS NOT NULL").
		Group("leads.assigned_staff_id, staff.display_name").
		Order("assigned DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate staff performance: %w", err)
	}

	perf := make([]domain.StaffPerformance, 0, len(rows))
	for _, r := range rows {
		p := domain.StaffPerformance{
			StaffID:        r.StaffID,
			StaffName:      r.StaffName,
			AssignedLeads:  r.Assigned,
			ConvertedLeads: r.Converted,
		}
		if r.Assigned > 0 {
			p.ConversionRate = float64(r.Converted) / float64(r.Assigned)
		}
		perf = append(perf, p)
	}
	return perf, nil
}
