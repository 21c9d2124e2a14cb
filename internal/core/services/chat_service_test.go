package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portsrepo "github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	"github.com/bookswapp/bookswap_backend/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockChatRepository struct {
	mock.Mock
}

var _ portsrepo.ChatRepository = (*MockChatRepository)(nil)

func (m *MockChatRepository) FindChannelByMembers(ctx context.Context, userAID, userBID string) (*domain.ChatChannel, error) {
	args := m.Called(ctx, userAID, userBID)
	if ch, ok := args.Get(0).(*domain.ChatChannel); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) FindChannelByID(ctx context.Context, channelID string) (*domain.ChatChannel, error) {
	args := m.Called(ctx, channelID)
	if ch, ok := args.Get(0).(*domain.ChatChannel); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) SaveChannel(ctx context.Context, channel domain.ChatChannel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockChatRepository) ListChannelPreviewsForUser(ctx context.Context, userID string) ([]domain.ChatPreview, error) {
	args := m.Called(ctx, userID)
	if previews, ok := args.Get(0).([]domain.ChatPreview); ok {
		return previews, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) SaveMessage(ctx context.Context, message domain.ChatMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockChatRepository) ListMessages(ctx context.Context, channelID string, limit int) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, channelID, limit)
	if msgs, ok := args.Get(0).([]domain.ChatMessage); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

type ChatServiceTestSuite struct {
	suite.Suite
	chatRepo *MockChatRepository
	notifier *MockNotifier
	ctx      context.Context
	now      time.Time
}

func (s *ChatServiceTestSuite) SetupTest() {
	s.chatRepo = new(MockChatRepository)
	s.notifier = new(MockNotifier)
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestChatServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ChatServiceTestSuite))
}

func (s *ChatServiceTestSuite) testChannel() *domain.ChatChannel {
	return &domain.ChatChannel{
		ChannelID:  "chan-1",
		UserAID:    requesterID,
		UserBID:    receiverID,
		ExchangeID: "ex-1",
		CreatedAt:  s.now,
	}
}

func (s *ChatServiceTestSuite) TestEnsureChannel_ReturnsExisting() {
	svc := services.NewChatService(s.chatRepo, s.notifier)
	existing := s.testChannel()
	s.chatRepo.On("FindChannelByMembers", s.ctx, requesterID, receiverID).Return(existing, nil).Once()

	channel, err := svc.EnsureChannel(s.ctx, requesterID, receiverID, "ex-1")

	s.Require().NoError(err)
	s.Equal("chan-1", channel.ChannelID)
	s.chatRepo.AssertNotCalled(s.T(), "SaveChannel", mock.Anything, mock.Anything)
}

func (s *ChatServiceTestSuite) TestEnsureChannel_CreatesWhenMissing() {
	svc := services.NewChatService(s.chatRepo, s.notifier, services.WithChatClock(func() time.Time { return s.now }))
	s.chatRepo.On("FindChannelByMembers", s.ctx, requesterID, receiverID).Return(nil, apperrors.ErrNotFound).Once()
	s.chatRepo.On("SaveChannel", s.ctx, mock.MatchedBy(func(ch domain.ChatChannel) bool {
		return ch.UserAID == requesterID && ch.UserBID == receiverID && ch.ExchangeID == "ex-1"
	})).Return(nil).Once()

	channel, err := svc.EnsureChannel(s.ctx, requesterID, receiverID, "ex-1")

	s.Require().NoError(err)
	s.NotEmpty(channel.ChannelID)
	s.chatRepo.AssertExpectations(s.T())
}

func (s *ChatServiceTestSuite) TestEnsureChannel_LosesCreateRace() {
	svc := services.NewChatService(s.chatRepo, s.notifier)
	winner := s.testChannel()
	s.chatRepo.On("FindChannelByMembers", s.ctx, requesterID, receiverID).Return(nil, apperrors.ErrNotFound).Once()
	s.chatRepo.On("SaveChannel", s.ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()
	s.chatRepo.On("FindChannelByMembers", s.ctx, requesterID, receiverID).Return(winner, nil).Once()

	channel, err := svc.EnsureChannel(s.ctx, requesterID, receiverID, "ex-1")

	s.Require().NoError(err)
	s.Equal("chan-1", channel.ChannelID)
	s.chatRepo.AssertExpectations(s.T())
}

func (s *ChatServiceTestSuite) TestSendMessage_NotifiesOtherMember() {
	svc := services.NewChatService(s.chatRepo, s.notifier, services.WithChatClock(func() time.Time { return s.now }))
	s.chatRepo.On("FindChannelByID", s.ctx, "chan-1").Return(s.testChannel(), nil).Once()
	s.chatRepo.On("SaveMessage", s.ctx, mock.MatchedBy(func(msg domain.ChatMessage) bool {
		return msg.ChannelID == "chan-1" && msg.SenderID == requesterID && msg.Content == "hello"
	})).Return(nil).Once()
	s.notifier.On("Notify", s.ctx, receiverID, requesterID, (*string)(nil), domain.NotifNewMessage,
		mock.Anything, "hello", map[string]string{"channelID": "chan-1"}).Once()

	msg, err := svc.SendMessage(s.ctx, "chan-1", requesterID, "hello")

	s.Require().NoError(err)
	s.Equal("hello", msg.Content)
	s.chatRepo.AssertExpectations(s.T())
	s.notifier.AssertExpectations(s.T())
}

func (s *ChatServiceTestSuite) TestSendMessage_NotAMember() {
	svc := services.NewChatService(s.chatRepo, s.notifier)
	s.chatRepo.On("FindChannelByID", s.ctx, "chan-1").Return(s.testChannel(), nil).Once()

	_, err := svc.SendMessage(s.ctx, "chan-1", strangerID, "hello")

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrNotChannelMember)
	s.chatRepo.AssertNotCalled(s.T(), "SaveMessage", mock.Anything, mock.Anything)
}

func (s *ChatServiceTestSuite) TestSendMessage_EmptyContent() {
	svc := services.NewChatService(s.chatRepo, s.notifier)

	_, err := svc.SendMessage(s.ctx, "chan-1", requesterID, "   ")

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrEmptyMessage)
	s.chatRepo.AssertNotCalled(s.T(), "FindChannelByID", mock.Anything, mock.Anything)
}

func (s *ChatServiceTestSuite) TestListMessages_MemberOnly() {
	svc := services.NewChatService(s.chatRepo, s.notifier)
	s.chatRepo.On("FindChannelByID", s.ctx, "chan-1").Return(s.testChannel(), nil).Twice()
	s.chatRepo.On("ListMessages", s.ctx, "chan-1", 50).Return([]domain.ChatMessage{
		{MessageID: "msg-1", ChannelID: "chan-1", SenderID: receiverID, Content: "hi"},
	}, nil).Once()

	msgs, err := svc.ListMessages(s.ctx, "chan-1", requesterID, 50)
	s.Require().NoError(err)
	s.Len(msgs, 1)

	_, err = svc.ListMessages(s.ctx, "chan-1", strangerID, 50)
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrNotChannelMember)
}
