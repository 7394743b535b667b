package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FollowUpJobName is the name of the follow-up reminder job
const FollowUpJobName = "follow_up_reminders"

// followUpDedupeWindow suppresses repeat reminders for the same lead within
// this window. Slightly under a day so the daily 08:00 run always fires.
const followUpDedupeWindow = 23 * time.Hour

// FollowUpLeadSource lists leads whose follow-up date has passed.
type FollowUpLeadSource interface {
	FindDueFollowUps(ctx context.Context, cutoff time.Time) ([]domain.Lead, error)
}

// FollowUpNotificationStore creates reminder notifications with dedupe.
type FollowUpNotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	ExistsRecent(ctx context.Context, staffID uuid.UUID, notifType string, entityID uuid.UUID, since time.Time) (bool, error)
}

// FollowUpJob notifies assigned staff about leads whose follow-up date has
// come due. Each reminder is an in-app notification plus an optional email.
type FollowUpJob struct {
	leads         FollowUpLeadSource
	notifications FollowUpNotificationStore
	mailer        *notify.Mailer
	logger        *zap.Logger
	timeout       time.Duration
}

// NewFollowUpJob creates a new follow-up reminder job.
func NewFollowUpJob(leads FollowUpLeadSource, notifications FollowUpNotificationStore, mailer *notify.Mailer, logger *zap.Logger, timeout time.Duration) *FollowUpJob {
	return &FollowUpJob{
		leads:         leads,
		notifications: notifications,
		mailer:        mailer,
		logger:        logger,
		timeout:       timeout,
	}
}

// Run executes the follow-up reminder job.
// This is called by the scheduler according to the cron expression.
func (j *FollowUpJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	leads, err := j.leads.FindDueFollowUps(ctx, time.Now())
	if err != nil {
		j.logger.Error("failed to find due follow-ups",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	notified := 0
	skipped := 0
	for i := range leads {
		lead := &leads[i]
		if lead.AssignedStaffID == nil {
			skipped++
			continue
		}

		exists, err := j.notifications.ExistsRecent(ctx,
			*lead.AssignedStaffID,
			string(domain.NotificationTypeFollowUpDue),
			lead.ID,
			time.Now().Add(-followUpDedupeWindow),
		)
		if err != nil {
			j.logger.Warn("follow-up dedupe check failed",
				zap.String("lead_id", lead.ID.String()),
				zap.Error(err))
			continue
		}
		if exists {
			skipped++
			continue
		}

		leadID := lead.ID
		notification := &domain.Notification{
			StaffID:    *lead.AssignedStaffID,
			Type:       string(domain.NotificationTypeFollowUpDue),
			Title:      "Follow-up due",
			Message:    fmt.Sprintf("Follow-up is due for %s (%s %s)", lead.CustomerName, lead.DeviceType, lead.DeviceModel),
			EntityID:   &leadID,
			EntityType: "lead",
		}
		if err := j.notifications.Create(ctx, notification); err != nil {
			j.logger.Warn("failed to create follow-up notification",
				zap.String("lead_id", lead.ID.String()),
				zap.Error(err))
			continue
		}
		notified++

		if lead.AssignedStaff != nil && lead.AssignedStaff.Email != "" {
			if err := j.mailer.Send(
				lead.AssignedStaff.Email,
				fmt.Sprintf("Follow-up due: %s", lead.CustomerName),
				notification.Message,
			); err != nil {
				j.logger.Warn("failed to send follow-up email",
					zap.String("lead_id", lead.ID.String()),
					zap.Error(err))
			}
		}
	}

	j.logger.Info("follow-up reminder job completed",
		zap.Int("due", len(leads)),
		zap.Int("notified", notified),
		zap.Int("skipped", skipped),
		zap.Duration("duration", time.Since(start)))
}

// RegisterFollowUpJob registers the follow-up reminder job with the scheduler.
func RegisterFollowUpJob(scheduler *Scheduler, leads FollowUpLeadSource, notifications FollowUpNotificationStore, mailer *notify.Mailer, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewFollowUpJob(leads, notifications, mailer, logger, timeout)
	return scheduler.AddJob(FollowUpJobName, cronExpr, job.Run)
}
