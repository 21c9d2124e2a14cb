package pgsql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portsrepo "github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxNotificationRepository struct {
	BaseRepository
}

// newPgxNotificationRepository creates a new repository for stored
// notifications.
func newPgxNotificationRepository(pool *pgxpool.Pool) portsrepo.NotificationRepository {
	return &PgxNotificationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.NotificationRepository = (*PgxNotificationRepository)(nil)

// SaveNotification inserts a new notification.
func (r *PgxNotificationRepository) SaveNotification(ctx context.Context, notification domain.Notification) error {
	query := `
		INSERT INTO notifications (notification_id, recipient_id, sender_id, exchange_id, kind, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	var senderID sql.NullString
	if notification.SenderID != "" {
		senderID = sql.NullString{String: notification.SenderID, Valid: true}
	}
	_, err := r.Pool.Exec(ctx, query,
		notification.NotificationID, notification.RecipientID, senderID, notification.ExchangeID,
		notification.Kind, notification.Message, notification.Read, notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification %s: %w", notification.NotificationID, err)
	}
	return nil
}

// ListNotificationsForUser lists a user's notifications, newest first.
func (r *PgxNotificationRepository) ListNotificationsForUser(ctx context.Context, userID string, onlyUnread bool, limit int) ([]domain.Notification, error) {
	query := `
		SELECT notification_id, recipient_id, sender_id, exchange_id, kind, message, read, created_at
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC LIMIT $3;
	`
	rows, err := r.Pool.Query(ctx, query, userID, onlyUnread, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		var (
			notification domain.Notification
			senderID     sql.NullString
		)
		if err := rows.Scan(&notification.NotificationID, &notification.RecipientID, &senderID,
			&notification.ExchangeID, &notification.Kind, &notification.Message,
			&notification.Read, &notification.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notification.SenderID = senderID.String
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *PgxNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE;`
	if err := r.Pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks a single notification read; it must belong to the user.
func (r *PgxNotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {
	query := `UPDATE notifications SET read = TRUE WHERE notification_id = $1 AND recipient_id = $2;`
	tag, err := r.Pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", notificationID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification with ID %s not found", apperrors.ErrNotFound, notificationID)
	}
	return nil
}

// MarkAllRead marks all of a user's notifications read.
func (r *PgxNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND read = FALSE;`
	tag, err := r.Pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteNotification removes a notification owned by the user.
func (r *PgxNotificationRepository) DeleteNotification(ctx context.Context, notificationID, userID string) error {
	query := `DELETE FROM notifications WHERE notification_id = $1 AND recipient_id = $2;`
	tag, err := r.Pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", notificationID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification with ID %s not found", apperrors.ErrNotFound, notificationID)
	}
	return nil
}
