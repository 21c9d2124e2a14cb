package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/google/uuid"
)

// Named errors for chat operations.
var (
	ErrNotChannelMember = fmt.Errorf("%w: user is not a member of this channel", apperrors.ErrForbidden)
	ErrEmptyMessage     = fmt.Errorf("%w: message content is empty", apperrors.ErrValidation)
)

type chatService struct {
	BaseService
	chatRepo repositories.ChatRepository
	notifier portssvc.NotifierSvc
	clock    func() time.Time
}

var _ portssvc.ChatSvcFacade = (*chatService)(nil)

// ChatServiceOption customizes the chat service.
type ChatServiceOption func(*chatService)

// WithChatClock overrides the time source.
func WithChatClock(clock func() time.Time) ChatServiceOption {
	return func(s *chatService) { s.clock = clock }
}

// NewChatService creates a new chat service.
func NewChatService(chatRepo repositories.ChatRepository, notifier portssvc.NotifierSvc, opts ...ChatServiceOption) portssvc.ChatSvcFacade {
	s := &chatService{
		chatRepo: chatRepo,
		notifier: notifier,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureChannel returns the channel for the user pair, creating it when
// absent. A concurrent create losing the unique-pair race falls back to the
// winner's channel, so the call is idempotent.
func (s *chatService) EnsureChannel(ctx context.Context, userAID, userBID, exchangeID string) (*domain.ChatChannel, error) {
	logger := s.GetLogger(ctx).With("op", "EnsureChannel")

	channel, err := s.chatRepo.FindChannelByMembers(ctx, userAID, userBID)
	if err == nil {
		return channel, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up chat channel: %w", err)
	}

	newChannel := domain.ChatChannel{
		ChannelID:  uuid.NewString(),
		UserAID:    userAID,
		UserBID:    userBID,
		ExchangeID: exchangeID,
		CreatedAt:  s.clock(),
	}
	if err := s.chatRepo.SaveChannel(ctx, newChannel); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.chatRepo.FindChannelByMembers(ctx, userAID, userBID)
		}
		logger.Error("failed to save chat channel", "error", err)
		return nil, fmt.Errorf("failed to save chat channel: %w", err)
	}

	logger.Info("chat channel created", "channelID", newChannel.ChannelID)
	return &newChannel, nil
}

// ListChannelsForUser lists the user's conversations, most recent first.
func (s *chatService) ListChannelsForUser(ctx context.Context, userID string) ([]domain.ChatPreview, error) {
	return s.chatRepo.ListChannelPreviewsForUser(ctx, userID)
}

// SendMessage posts a message to a channel the sender belongs to and alerts
// the other member.
func (s *chatService) SendMessage(ctx context.Context, channelID, senderID, content string) (*domain.ChatMessage, error) {
	logger := s.GetLogger(ctx).With("op", "SendMessage", "channelID", channelID)

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	channel, err := s.chatRepo.FindChannelByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.HasMember(senderID) {
		return nil, ErrNotChannelMember
	}

	message := domain.ChatMessage{
		MessageID: uuid.NewString(),
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
		SentAt:    s.clock(),
	}
	if err := s.chatRepo.SaveMessage(ctx, message); err != nil {
		logger.Error("failed to save message", "error", err)
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	recipientID := channel.UserAID
	if recipientID == senderID {
		recipientID = channel.UserBID
	}
	s.notifier.Notify(ctx, recipientID, senderID, nil, domain.NotifNewMessage,
		"New message", content, map[string]string{"channelID": channelID})

	return &message, nil
}

// ListMessages lists a channel's messages for one of its members.
func (s *chatService) ListMessages(ctx context.Context, channelID, userID string, limit int) ([]domain.ChatMessage, error) {
	channel, err := s.chatRepo.FindChannelByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.HasMember(userID) {
		return nil, ErrNotChannelMember
	}
	return s.chatRepo.ListMessages(ctx, channelID, limit)
}
