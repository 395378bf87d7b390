package db

import (
	"context"

	"github.com/steemit/agora/internal/models"
)

// NotificationRepository provides notification database operations
type NotificationRepository struct {
	*Repository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{Repository: repo}
}

// CreateBatch inserts one notification row per entry
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifs []*models.Notification) error {
	if len(notifs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(notifs, 100).Error
}

// ListForUser lists a user's notifications, newest first. lastID pages backwards.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, unreadOnly bool, lastID int64, limit int) ([]*models.Notification, error) {
	var list []*models.Notification
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	if lastID > 0 {
		q = q.Where("id < ?", lastID)
	}
	err := q.Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// CountUnread counts a user's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one of the user's notifications read
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read = ?", id, userID, false).
		Update("read", true)
	return res.RowsAffected == 1, res.Error
}

// MarkAllRead marks every unread notification of the user read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}
