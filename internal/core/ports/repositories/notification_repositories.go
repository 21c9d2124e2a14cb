package repositories

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// NotificationRepository defines persistence operations for stored
// notifications.
type NotificationRepository interface {
	// SaveNotification persists a new notification.
	SaveNotification(ctx context.Context, notification domain.Notification) error

	// ListNotificationsForUser lists a user's notifications, newest first.
	ListNotificationsForUser(ctx context.Context, userID string, onlyUnread bool, limit int) ([]domain.Notification, error)

	// CountUnread returns the number of unread notifications for a user.
	CountUnread(ctx context.Context, userID string) (int64, error)

	// MarkRead marks a single notification read; it must belong to the user.
	MarkRead(ctx context.Context, notificationID, userID string) error

	// MarkAllRead marks all of a user's notifications read and returns the
	// number affected.
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// DeleteNotification removes a notification owned by the user.
	DeleteNotification(ctx context.Context, notificationID, userID string) error
}
