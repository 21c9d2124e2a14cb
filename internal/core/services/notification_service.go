package services

import (
	"context"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/google/uuid"
)

type notificationService struct {
	BaseService
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepositoryFacade
	pushSender       portssvc.PushSender
	clock            func() time.Time
}

var _ portssvc.NotificationSvcFacade = (*notificationService)(nil)

// NotificationServiceOption customizes the notification service.
type NotificationServiceOption func(*notificationService)

// WithNotificationClock overrides the time source.
func WithNotificationClock(clock func() time.Time) NotificationServiceOption {
	return func(s *notificationService) { s.clock = clock }
}

// NewNotificationService creates a new notification service. pushSender may
// be nil, in which case only in-app notifications are stored.
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepositoryFacade,
	pushSender portssvc.PushSender,
	opts ...NotificationServiceOption,
) portssvc.NotificationSvcFacade {
	s := &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pushSender:       pushSender,
		clock:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify stores an in-app notification and pushes it to the recipient's
// device when a push token is registered. All failures are logged and
// swallowed: a notifier outage must never affect the caller's operation.
func (s *notificationService) Notify(ctx context.Context, recipientID, senderID string, exchangeID *string, kind domain.NotificationKind, title, body string, metadata map[string]string) {
	logger := s.GetLogger(ctx).With("op", "Notify", "recipientID", recipientID, "kind", kind)

	notification := domain.Notification{
		NotificationID: uuid.NewString(),
		RecipientID:    recipientID,
		SenderID:       senderID,
		ExchangeID:     exchangeID,
		Kind:           kind,
		Message:        body,
		CreatedAt:      s.clock(),
	}
	if err := s.notificationRepo.SaveNotification(ctx, notification); err != nil {
		logger.Error("failed to store notification", "error", err)
	}

	if s.pushSender == nil {
		return
	}
	recipient, err := s.userRepo.FindUserByID(ctx, recipientID)
	if err != nil {
		logger.Warn("failed to load notification recipient", "error", err)
		return
	}
	if recipient.PushToken == "" {
		return
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata["kind"] = string(kind)
	if err := s.pushSender.SendPush(ctx, recipient.PushToken, title, body, metadata); err != nil {
		logger.Warn("failed to send push notification", "error", err)
	}
}

// ListForUser lists the user's notifications, newest first.
func (s *notificationService) ListForUser(ctx context.Context, userID string, onlyUnread bool, limit int) ([]domain.Notification, error) {
	return s.notificationRepo.ListNotificationsForUser(ctx, userID, onlyUnread, limit)
}

// UnreadCount returns the user's unread notification count.
func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications read.
func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.notificationRepo.MarkRead(ctx, notificationID, userID)
}

// MarkAllRead marks all of the user's notifications read.
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// Delete removes one of the user's notifications.
func (s *notificationService) Delete(ctx context.Context, notificationID, userID string) error {
	return s.notificationRepo.DeleteNotification(ctx, notificationID, userID)
}
