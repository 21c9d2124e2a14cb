package repositories

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// ChatRepository defines persistence operations for chat channels and
// messages.
type ChatRepository interface {
	// FindChannelByMembers retrieves the channel for a user pair regardless
	// of the order the members are given in.
	FindChannelByMembers(ctx context.Context, userAID, userBID string) (*domain.ChatChannel, error)

	// FindChannelByID retrieves a channel by its identifier.
	FindChannelByID(ctx context.Context, channelID string) (*domain.ChatChannel, error)

	// SaveChannel persists a new channel.
	SaveChannel(ctx context.Context, channel domain.ChatChannel) error

	// ListChannelPreviewsForUser lists the user's channels with the latest
	// message of each, most recent activity first.
	ListChannelPreviewsForUser(ctx context.Context, userID string) ([]domain.ChatPreview, error)

	// SaveMessage persists a new message.
	SaveMessage(ctx context.Context, message domain.ChatMessage) error

	// ListMessages lists a channel's messages in send order.
	ListMessages(ctx context.Context, channelID string, limit int) ([]domain.ChatMessage, error)
}
