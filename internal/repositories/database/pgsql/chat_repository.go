package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portsrepo "github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxChatRepository struct {
	BaseRepository
}

// newPgxChatRepository creates a new repository for chat channels and
// messages.
func newPgxChatRepository(pool *pgxpool.Pool) portsrepo.ChatRepository {
	return &PgxChatRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ChatRepository = (*PgxChatRepository)(nil)

func scanChannel(row scannable) (*domain.ChatChannel, error) {
	var channel domain.ChatChannel
	err := row.Scan(&channel.ChannelID, &channel.UserAID, &channel.UserBID, &channel.ExchangeID, &channel.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

// FindChannelByMembers retrieves the channel for a user pair regardless of
// member order.
func (r *PgxChatRepository) FindChannelByMembers(ctx context.Context, userAID, userBID string) (*domain.ChatChannel, error) {
	query := `
		SELECT channel_id, user_a_id, user_b_id, exchange_id, created_at FROM chat_channels
		WHERE (user_a_id = $1 AND user_b_id = $2) OR (user_a_id = $2 AND user_b_id = $1);
	`
	channel, err := scanChannel(r.Pool.QueryRow(ctx, query, userAID, userBID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chat channel not found", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find chat channel: %w", err)
	}
	return channel, nil
}

// FindChannelByID retrieves a channel by its identifier.
func (r *PgxChatRepository) FindChannelByID(ctx context.Context, channelID string) (*domain.ChatChannel, error) {
	query := `SELECT channel_id, user_a_id, user_b_id, exchange_id, created_at FROM chat_channels WHERE channel_id = $1;`
	channel, err := scanChannel(r.Pool.QueryRow(ctx, query, channelID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chat channel with ID %s not found", apperrors.ErrNotFound, channelID)
		}
		return nil, fmt.Errorf("failed to find chat channel %s: %w", channelID, err)
	}
	return channel, nil
}

// SaveChannel inserts a new channel. The members are stored in lexical order
// so the unique pair constraint is order insensitive.
func (r *PgxChatRepository) SaveChannel(ctx context.Context, channel domain.ChatChannel) error {
	userAID, userBID := channel.UserAID, channel.UserBID
	if userBID < userAID {
		userAID, userBID = userBID, userAID
	}
	query := `
		INSERT INTO chat_channels (channel_id, user_a_id, user_b_id, exchange_id, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.Pool.Exec(ctx, query, channel.ChannelID, userAID, userBID, channel.ExchangeID, channel.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: chat channel for this user pair already exists", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save chat channel %s: %w", channel.ChannelID, err)
	}
	return nil
}

// ListChannelPreviewsForUser lists the user's channels with the latest
// message of each, most recent activity first.
func (r *PgxChatRepository) ListChannelPreviewsForUser(ctx context.Context, userID string) ([]domain.ChatPreview, error) {
	query := `
		SELECT c.channel_id,
			CASE WHEN c.user_a_id = $1 THEN c.user_b_id ELSE c.user_a_id END AS other_user_id,
			COALESCE(u.name, '') AS other_user_name,
			COALESCE(m.content, '') AS last_message,
			COALESCE(m.sent_at, c.created_at) AS last_activity
		FROM chat_channels c
		LEFT JOIN users u ON u.user_id = CASE WHEN c.user_a_id = $1 THEN c.user_b_id ELSE c.user_a_id END
		LEFT JOIN LATERAL (
			SELECT content, sent_at FROM chat_messages
			WHERE channel_id = c.channel_id
			ORDER BY sent_at DESC LIMIT 1
		) m ON TRUE
		WHERE c.user_a_id = $1 OR c.user_b_id = $1
		ORDER BY last_activity DESC;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat previews: %w", err)
	}
	defer rows.Close()

	previews := make([]domain.ChatPreview, 0)
	for rows.Next() {
		var preview domain.ChatPreview
		if err := rows.Scan(&preview.ChannelID, &preview.OtherUserID, &preview.OtherUserName,
			&preview.LastMessage, &preview.LastActivity); err != nil {
			return nil, fmt.Errorf("failed to scan chat preview row: %w", err)
		}
		previews = append(previews, preview)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat preview rows: %w", err)
	}
	return previews, nil
}

// SaveMessage inserts a new message.
func (r *PgxChatRepository) SaveMessage(ctx context.Context, message domain.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (message_id, channel_id, sender_id, content, sent_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.Pool.Exec(ctx, query, message.MessageID, message.ChannelID, message.SenderID, message.Content, message.SentAt)
	if err != nil {
		return fmt.Errorf("failed to save chat message %s: %w", message.MessageID, err)
	}
	return nil
}

// ListMessages lists a channel's messages in send order.
func (r *PgxChatRepository) ListMessages(ctx context.Context, channelID string, limit int) ([]domain.ChatMessage, error) {
	query := `
		SELECT message_id, channel_id, sender_id, content, sent_at FROM chat_messages
		WHERE channel_id = $1 ORDER BY sent_at ASC LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.ChatMessage, 0)
	for rows.Next() {
		var message domain.ChatMessage
		if err := rows.Scan(&message.MessageID, &message.ChannelID, &message.SenderID, &message.Content, &message.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat message rows: %w", err)
	}
	return messages, nil
}
