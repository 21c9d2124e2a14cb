package services

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// NotifierSvc is the fire-and-forget alert dispatch consumed by the exchange
// engine. Notify never returns an error: storage or push failures are logged
// and swallowed so a notifier outage cannot threaten a state transition.
type NotifierSvc interface {
	Notify(ctx context.Context, recipientID, senderID string, exchangeID *string, kind domain.NotificationKind, title, body string, metadata map[string]string)
}

// NotificationSvcFacade adds the read/manage surface on top of dispatch.
type NotificationSvcFacade interface {
	NotifierSvc

	ListForUser(ctx context.Context, userID string, onlyUnread bool, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, notificationID, userID string) error
}

// PushSender delivers a push notification to a device token. Implementations
// are best-effort transports; the notification service swallows their errors.
type PushSender interface {
	SendPush(ctx context.Context, pushToken, title, body string, data map[string]string) error
}
