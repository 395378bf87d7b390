package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/pkg/logging"
)

// NotificationService reads and acknowledges a user's notifications
type NotificationService struct {
	store   NotificationStore
	counter UnreadCounter
	logger  *zap.Logger
}

// NewNotificationService creates a notification service. counter may be nil.
func NewNotificationService(store NotificationStore, counter UnreadCounter) *NotificationService {
	return &NotificationService{store: store, counter: counter, logger: logging.WithComponent("notifications")}
}

// List returns notifications newest first, paging backwards from lastID
func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool, lastID int64, limit int) ([]*models.Notification, error) {
	_, limit = page(0, limit)
	list, err := s.store.ListForUser(ctx, userID, unreadOnly, lastID, limit)
	return list, internal(err, "list notifications")
}

// UnreadCount returns the number of unread notifications, from the cache when warm
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if s.counter != nil {
		if n, err := s.counter.GetUnread(ctx, userID); err == nil {
			return n, nil
		}
	}
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, internal(err, "count unread")
	}
	if s.counter != nil {
		if err := ignoreCacheOff(s.counter.SetUnread(ctx, userID, n)); err != nil {
			s.logger.Warn("failed to cache unread count", zap.Error(err))
		}
	}
	return n, nil
}

// MarkRead marks one notification read. Marking an already read one is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	changed, err := s.store.MarkRead(ctx, userID, id)
	if err != nil {
		return internal(err, "mark read")
	}
	if changed {
		s.resetCounter(ctx, userID)
	}
	return nil
}

// MarkAllRead marks every notification read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, internal(err, "mark all read")
	}
	s.resetCounter(ctx, userID)
	return n, nil
}

func (s *NotificationService) resetCounter(ctx context.Context, userID int64) {
	if s.counter == nil {
		return
	}
	if err := ignoreCacheOff(s.counter.ResetUnread(ctx, userID)); err != nil {
		s.logger.Warn("failed to reset unread count", zap.Error(err))
	}
}
