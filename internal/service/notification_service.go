package service

import (
	"context"
	"time"

	"levelforum/internal/models"

	"gorm.io/gorm"
)

// notificationWindow is how far back the read side looks. Older rows stay in
// the table but are never served.
const notificationWindow = 7 * 24 * time.Hour

// NotificationService serves the recent notifications addressed to a user.
// Rows are written by CommentService as part of the comment transaction.
type NotificationService struct {
	db   *gorm.DB
	safe *SafeExecutor
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(db *gorm.DB, safe *SafeExecutor) *NotificationService {
	return &NotificationService{db: db, safe: safe}
}

// ListNotifications returns a user's notifications from the last seven days,
// newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	return Execute(ctx, s.safe, "NotificationService.ListNotifications",
		opParams{"userId": userID},
		func(ctx context.Context) ([]models.Notification, error) {
			since := time.Now().UTC().Add(-notificationWindow)
			var notifications []models.Notification
			err := s.db.WithContext(ctx).
				Where("user_id = ? AND created_at >= ?", userID, since).
				Order("created_at DESC").
				Find(&notifications).Error
			return notifications, err
		})
}

// CountNotifications returns how many notifications a user has in the
// current window.
func (s *NotificationService) CountNotifications(ctx context.Context, userID uint) (int64, error) {
	return Execute(ctx, s.safe, "NotificationService.CountNotifications",
		opParams{"userId": userID},
		func(ctx context.Context) (int64, error) {
			since := time.Now().UTC().Add(-notificationWindow)
			var count int64
			err := s.db.WithContext(ctx).Model(&models.Notification{}).
				Where("user_id = ? AND created_at >= ?", userID, since).
				Count(&count).Error
			return count, err
		})
}

// ClearNotifications deletes all of a user's notifications.
func (s *NotificationService) ClearNotifications(ctx context.Context, userID uint) error {
	_, err := Execute(ctx, s.safe, "NotificationService.ClearNotifications",
		opParams{"userId": userID},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.db.WithContext(ctx).
				Where("user_id = ?", userID).
				Delete(&models.Notification{}).Error
		})
	return err
}
