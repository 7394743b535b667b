package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fixpoint-as/repair-api/internal/auth"
	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/mapper"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultNotificationLimit = 50

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, logger: logger}
}

// ListMine returns notifications for the authenticated staff member
func (s *NotificationService) ListMine(ctx context.Context, unreadOnly bool) ([]domain.NotificationDTO, int64, error) {
	staffCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, 0, ErrUnauthorized
	}

	notifications, err := s.notificationRepo.ListForStaff(ctx, staffCtx.StaffID, unreadOnly, defaultNotificationLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.notificationRepo.CountUnread(ctx, staffCtx.StaffID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToNotificationDTO(&notifications[i])
	}
	return dtos, unread, nil
}

// MarkRead marks one of the caller's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	staffCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}

	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if n.StaffID != staffCtx.StaffID {
		return ErrPermissionDenied
	}

	return s.notificationRepo.MarkRead(ctx, id)
}

// MarkAllRead marks all of the caller's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	staffCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	return s.notificationRepo.MarkAllRead(ctx, staffCtx.StaffID)
}
