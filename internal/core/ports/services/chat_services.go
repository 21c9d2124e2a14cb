package services

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// ChatSvcFacade is the messaging subsystem surface. EnsureChannel is the
// contract the exchange engine depends on; the rest serves the chat API.
type ChatSvcFacade interface {
	// EnsureChannel returns the channel for the user pair, creating it if
	// absent. Idempotent: repeated calls return the same channel.
	EnsureChannel(ctx context.Context, userAID, userBID, exchangeID string) (*domain.ChatChannel, error)

	// ListChannelsForUser lists the user's conversations with previews.
	ListChannelsForUser(ctx context.Context, userID string) ([]domain.ChatPreview, error)

	// SendMessage posts a message to a channel the sender belongs to.
	SendMessage(ctx context.Context, channelID, senderID, content string) (*domain.ChatMessage, error)

	// ListMessages lists a channel's messages for a member.
	ListMessages(ctx context.Context, channelID, userID string, limit int) ([]domain.ChatMessage, error)
}
