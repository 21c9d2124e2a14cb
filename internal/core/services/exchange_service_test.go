package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/core/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mocks ---

type MockExchangeRepository struct {
	mock.Mock
}

func (m *MockExchangeRepository) FindExchangeByID(ctx context.Context, exchangeID string) (*domain.Exchange, error) {
	args := m.Called(ctx, exchangeID)
	switch v := args.Get(0).(type) {
	case *domain.Exchange:
		return v, args.Error(1)
	case func(context.Context, string) (*domain.Exchange, error):
		return v(ctx, exchangeID)
	default:
		return nil, args.Error(1)
	}
}

func (m *MockExchangeRepository) ListExchangesByReceiver(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error) {
	args := m.Called(ctx, userID, limit, offset)
	if exs, ok := args.Get(0).([]domain.Exchange); ok {
		return exs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExchangeRepository) ListExchangesByRequester(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error) {
	args := m.Called(ctx, userID, limit, offset)
	if exs, ok := args.Get(0).([]domain.Exchange); ok {
		return exs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExchangeRepository) HasPendingExchange(ctx context.Context, bookID, requesterID, receiverID string) (bool, error) {
	args := m.Called(ctx, bookID, requesterID, receiverID)
	return args.Bool(0), args.Error(1)
}

func (m *MockExchangeRepository) SaveExchange(ctx context.Context, exchange domain.Exchange) error {
	args := m.Called(ctx, exchange)
	return args.Error(0)
}

func (m *MockExchangeRepository) UpdateExchange(ctx context.Context, exchange domain.Exchange) error {
	args := m.Called(ctx, exchange)
	return args.Error(0)
}

func (m *MockExchangeRepository) CompleteExchange(ctx context.Context, exchange domain.Exchange, requestedBookID, offeredBookID string, now time.Time) error {
	args := m.Called(ctx, exchange, requestedBookID, offeredBookID, now)
	return args.Error(0)
}

type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) FindBookByID(ctx context.Context, bookID string) (*domain.Book, error) {
	args := m.Called(ctx, bookID)
	if book, ok := args.Get(0).(*domain.Book); ok {
		return book, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookRepository) ListBooksByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Book, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if books, ok := args.Get(0).([]domain.Book); ok {
		return books, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookRepository) ListAvailableBooks(ctx context.Context, filter *domain.ProximityFilter, limit, offset int) ([]domain.Book, error) {
	args := m.Called(ctx, filter, limit, offset)
	if books, ok := args.Get(0).([]domain.Book); ok {
		return books, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookRepository) SaveBook(ctx context.Context, book domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *MockBookRepository) UpdateBook(ctx context.Context, book domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *MockBookRepository) FindBooksByIDsForUpdate(ctx context.Context, tx pgx.Tx, bookIDs []string) (map[string]domain.Book, error) {
	args := m.Called(ctx, tx, bookIDs)
	if books, ok := args.Get(0).(map[string]domain.Book); ok {
		return books, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookRepository) MarkBooksExchangedInTx(ctx context.Context, tx pgx.Tx, bookIDs []string, now time.Time) error {
	args := m.Called(ctx, tx, bookIDs, now)
	return args.Error(0)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) EnsureChannel(ctx context.Context, userAID, userBID, exchangeID string) (*domain.ChatChannel, error) {
	args := m.Called(ctx, userAID, userBID, exchangeID)
	if ch, ok := args.Get(0).(*domain.ChatChannel); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatService) ListChannelsForUser(ctx context.Context, userID string) ([]domain.ChatPreview, error) {
	args := m.Called(ctx, userID)
	if chs, ok := args.Get(0).([]domain.ChatPreview); ok {
		return chs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, channelID, senderID, content string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, channelID, senderID, content)
	if msg, ok := args.Get(0).(*domain.ChatMessage); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatService) ListMessages(ctx context.Context, channelID, userID string, limit int) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, channelID, userID, limit)
	if msgs, ok := args.Get(0).([]domain.ChatMessage); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, recipientID, senderID string, exchangeID *string, kind domain.NotificationKind, title, body string, metadata map[string]string) {
	m.Called(ctx, recipientID, senderID, exchangeID, kind, title, body, metadata)
}

// --- Suite ---

type ExchangeServiceTestSuite struct {
	suite.Suite
	exchangeRepo *MockExchangeRepository
	bookRepo     *MockBookRepository
	chatSvc      *MockChatService
	notifier     *MockNotifier
	service      portssvc.ExchangeSvcFacade
	ctx          context.Context
	now          time.Time
}

func (s *ExchangeServiceTestSuite) SetupTest() {
	s.exchangeRepo = new(MockExchangeRepository)
	s.bookRepo = new(MockBookRepository)
	s.chatSvc = new(MockChatService)
	s.notifier = new(MockNotifier)
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.service = services.NewExchangeService(
		s.exchangeRepo, s.bookRepo, s.chatSvc, s.notifier,
		services.WithExchangeClock(func() time.Time { return s.now }),
		services.WithSynchronousSideEffects(),
	)
}

func TestExchangeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExchangeServiceTestSuite))
}

// --- Fixtures ---

const (
	requesterID = "user-requester"
	receiverID  = "user-receiver"
	strangerID  = "user-stranger"
	wantedBook  = "book-wanted"
	offeredBook = "book-offered"
)

func availableBook(bookID, ownerID string) *domain.Book {
	return &domain.Book{
		BookID:  bookID,
		OwnerID: ownerID,
		Title:   "A Book",
		Status:  domain.BookAvailable,
	}
}

func pendingExchange() *domain.Exchange {
	return &domain.Exchange{
		ExchangeID:      "ex-1",
		RequestedBookID: wantedBook,
		RequesterID:     requesterID,
		ReceiverID:      receiverID,
		Status:          domain.ExchangePending,
		ProposedAt:      time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC),
		Version:         1,
	}
}

func acceptedExchange() *domain.Exchange {
	ex := pendingExchange()
	agreed := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	ex.Status = domain.ExchangeAccepted
	ex.AgreedAt = &agreed
	ex.Version = 2
	return ex
}

func readyExchange() *domain.Exchange {
	ex := acceptedExchange()
	offered := offeredBook
	ex.OfferedBookID = &offered
	ex.MeetingLocation = &domain.MeetingLocation{
		Latitude:  decimal.RequireFromString("40.4168000"),
		Longitude: decimal.RequireFromString("-3.7038000"),
		Name:      "Plaza Mayor",
	}
	ex.Version = 4
	return ex
}

func testLocation() domain.MeetingLocation {
	return domain.MeetingLocation{
		Latitude:  decimal.RequireFromString("40.4168000"),
		Longitude: decimal.RequireFromString("-3.7038000"),
		Name:      "Plaza Mayor",
		Address:   "Plaza Mayor, Madrid",
	}
}

// --- CreateRequest ---

func (s *ExchangeServiceTestSuite) TestCreateRequest_Success() {
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(availableBook(wantedBook, receiverID), nil)
	s.exchangeRepo.On("HasPendingExchange", s.ctx, wantedBook, requesterID, receiverID).Return(false, nil)
	s.exchangeRepo.On("SaveExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, receiverID, requesterID, mock.Anything, domain.NotifExchangeRequested,
		mock.Anything, mock.Anything, mock.Anything).Return()

	ex, err := s.service.CreateRequest(s.ctx, dto.CreateExchangeRequest{RequestedBookID: wantedBook}, requesterID)

	s.Require().NoError(err)
	s.Equal(domain.ExchangePending, ex.Status)
	s.Equal(receiverID, ex.ReceiverID)
	s.Equal(requesterID, ex.RequesterID)
	s.Nil(ex.OfferedBookID)
	s.False(ex.ConfirmedByRequester)
	s.False(ex.ConfirmedByReceiver)
	s.Equal(s.now, ex.ProposedAt)
	s.NotEmpty(ex.ExchangeID)
	s.notifier.AssertExpectations(s.T())
}

func (s *ExchangeServiceTestSuite) TestCreateRequest_OwnBook() {
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(availableBook(wantedBook, requesterID), nil)

	_, err := s.service.CreateRequest(s.ctx, dto.CreateExchangeRequest{RequestedBookID: wantedBook}, requesterID)

	s.Require().ErrorIs(err, services.ErrOwnBookRequest)
	s.ErrorIs(err, apperrors.ErrInvariantViolation)
	s.exchangeRepo.AssertNotCalled(s.T(), "SaveExchange", mock.Anything, mock.Anything)
}

func (s *ExchangeServiceTestSuite) TestCreateRequest_BookNotAvailable() {
	book := availableBook(wantedBook, receiverID)
	book.Status = domain.BookExchanged
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(book, nil)

	_, err := s.service.CreateRequest(s.ctx, dto.CreateExchangeRequest{RequestedBookID: wantedBook}, requesterID)

	s.Require().ErrorIs(err, services.ErrBookNotAvailable)
}

func (s *ExchangeServiceTestSuite) TestCreateRequest_DuplicatePending() {
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(availableBook(wantedBook, receiverID), nil)
	s.exchangeRepo.On("HasPendingExchange", s.ctx, wantedBook, requesterID, receiverID).Return(true, nil)

	_, err := s.service.CreateRequest(s.ctx, dto.CreateExchangeRequest{RequestedBookID: wantedBook}, requesterID)

	s.Require().ErrorIs(err, services.ErrDuplicatePending)
	s.ErrorIs(err, apperrors.ErrDuplicate)
	s.exchangeRepo.AssertNotCalled(s.T(), "SaveExchange", mock.Anything, mock.Anything)
}

func (s *ExchangeServiceTestSuite) TestCreateRequest_WithOfferedBookNotOwned() {
	offered := offeredBook
	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(availableBook(wantedBook, receiverID), nil)
	s.bookRepo.On("FindBookByID", s.ctx, offeredBook).Return(availableBook(offeredBook, strangerID), nil)
	s.exchangeRepo.On("HasPendingExchange", s.ctx, wantedBook, requesterID, receiverID).Return(false, nil)

	_, err := s.service.CreateRequest(s.ctx, dto.CreateExchangeRequest{RequestedBookID: wantedBook, OfferedBookID: &offered}, requesterID)

	s.Require().ErrorIs(err, services.ErrOfferedBookNotOwned)
}

// --- Decide ---

func (s *ExchangeServiceTestSuite) TestDecide_AcceptByReceiver() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(pendingExchange(), nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.chatSvc.On("EnsureChannel", mock.Anything, requesterID, receiverID, "ex-1").
		Return(&domain.ChatChannel{ChannelID: "chan-1"}, nil)
	s.notifier.On("Notify", mock.Anything, requesterID, receiverID, mock.Anything, domain.NotifExchangeAccepted,
		mock.Anything, mock.Anything, mock.Anything).Return()

	ex, err := s.service.Decide(s.ctx, "ex-1", receiverID, portssvc.DecisionAccept)

	s.Require().NoError(err)
	s.Equal(domain.ExchangeAccepted, ex.Status)
	s.Require().NotNil(ex.AgreedAt)
	s.Equal(s.now, *ex.AgreedAt)
	s.chatSvc.AssertExpectations(s.T())
	s.notifier.AssertExpectations(s.T())
}

func (s *ExchangeServiceTestSuite) TestDecide_RejectByReceiver() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(pendingExchange(), nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, requesterID, receiverID, mock.Anything, domain.NotifExchangeRejected,
		mock.Anything, mock.Anything, mock.Anything).Return()

	ex, err := s.service.Decide(s.ctx, "ex-1", receiverID, portssvc.DecisionReject)

	s.Require().NoError(err)
	s.Equal(domain.ExchangeRejected, ex.Status)
	s.Nil(ex.AgreedAt)
	s.chatSvc.AssertNotCalled(s.T(), "EnsureChannel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ExchangeServiceTestSuite) TestDecide_RequesterForbidden() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(pendingExchange(), nil)

	_, err := s.service.Decide(s.ctx, "ex-1", requesterID, portssvc.DecisionAccept)

	s.Require().ErrorIs(err, services.ErrNotReceiver)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *ExchangeServiceTestSuite) TestDecide_NonParticipantForbidden() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(pendingExchange(), nil)

	_, err := s.service.Decide(s.ctx, "ex-1", strangerID, portssvc.DecisionAccept)

	s.Require().ErrorIs(err, services.ErrNotParticipant)
}

func (s *ExchangeServiceTestSuite) TestDecide_AlreadyAccepted() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(acceptedExchange(), nil)

	_, err := s.service.Decide(s.ctx, "ex-1", receiverID, portssvc.DecisionAccept)

	s.Require().ErrorIs(err, services.ErrExchangeNotPending)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

// --- OfferBook ---

func (s *ExchangeServiceTestSuite) TestOfferBook_Success() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(acceptedExchange(), nil)
	s.bookRepo.On("FindBookByID", s.ctx, offeredBook).Return(availableBook(offeredBook, requesterID), nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, receiverID, requesterID, mock.Anything, domain.NotifBookOffered,
		mock.Anything, mock.Anything, mock.Anything).Return()

	ex, err := s.service.OfferBook(s.ctx, "ex-1", requesterID, offeredBook)

	s.Require().NoError(err)
	s.Require().NotNil(ex.OfferedBookID)
	s.Equal(offeredBook, *ex.OfferedBookID)
}

func (s *ExchangeServiceTestSuite) TestOfferBook_ByReceiverWithRequestersBook() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(acceptedExchange(), nil)
	s.bookRepo.On("FindBookByID", s.ctx, offeredBook).Return(availableBook(offeredBook, requesterID), nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, requesterID, receiverID, mock.Anything, domain.NotifBookOffered,
		mock.Anything, mock.Anything, mock.Anything).Return()

	ex, err := s.service.OfferBook(s.ctx, "ex-1", receiverID, offeredBook)

	s.Require().NoError(err)
	s.Require().NotNil(ex.OfferedBookID)
}

func (s *ExchangeServiceTestSuite) TestOfferBook_SingleShot() {
	ex := acceptedExchange()
	already := "book-earlier"
	ex.OfferedBookID = &already
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)

	_, err := s.service.OfferBook(s.ctx, "ex-1", requesterID, offeredBook)

	s.Require().ErrorIs(err, services.ErrAlreadyOffered)
	s.exchangeRepo.AssertNotCalled(s.T(), "UpdateExchange", mock.Anything, mock.Anything)
}

func (s *ExchangeServiceTestSuite) TestOfferBook_NotRequestersBook() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(acceptedExchange(), nil)
	s.bookRepo.On("FindBookByID", s.ctx, offeredBook).Return(availableBook(offeredBook, receiverID), nil)

	_, err := s.service.OfferBook(s.ctx, "ex-1", requesterID, offeredBook)

	s.Require().ErrorIs(err, services.ErrOfferedBookNotOwned)
}

func (s *ExchangeServiceTestSuite) TestOfferBook_OnRejectedExchange() {
	ex := pendingExchange()
	ex.Status = domain.ExchangeRejected
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)

	_, err := s.service.OfferBook(s.ctx, "ex-1", requesterID, offeredBook)

	s.Require().ErrorIs(err, services.ErrExchangeClosed)
}

// --- ProposeLocation ---

func (s *ExchangeServiceTestSuite) TestProposeLocation_Success() {
	ex := acceptedExchange()
	offered := offeredBook
	ex.OfferedBookID = &offered
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, receiverID, requesterID, mock.Anything, domain.NotifLocationProposed,
		mock.Anything, mock.Anything, mock.Anything).Return()

	got, err := s.service.ProposeLocation(s.ctx, "ex-1", requesterID, testLocation())

	s.Require().NoError(err)
	s.Require().NotNil(got.MeetingLocation)
	s.Equal("Plaza Mayor", got.MeetingLocation.Name)
	s.True(got.MeetingLocation.Latitude.Equal(decimal.RequireFromString("40.4168000")))
}

func (s *ExchangeServiceTestSuite) TestProposeLocation_Overwrite() {
	ex := readyExchange()
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, requesterID, receiverID, mock.Anything, domain.NotifLocationProposed,
		mock.Anything, mock.Anything, mock.Anything).Return()

	loc := testLocation()
	loc.Name = "Retiro Park"
	got, err := s.service.ProposeLocation(s.ctx, "ex-1", receiverID, loc)

	s.Require().NoError(err)
	s.Equal("Retiro Park", got.MeetingLocation.Name)
}

func (s *ExchangeServiceTestSuite) TestProposeLocation_NoOfferedBook() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(acceptedExchange(), nil)

	_, err := s.service.ProposeLocation(s.ctx, "ex-1", requesterID, testLocation())

	s.Require().ErrorIs(err, services.ErrNoOfferedBook)
	s.ErrorIs(err, apperrors.ErrInvariantViolation)
}

func (s *ExchangeServiceTestSuite) TestProposeLocation_PendingExchange() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(pendingExchange(), nil)

	_, err := s.service.ProposeLocation(s.ctx, "ex-1", requesterID, testLocation())

	s.Require().ErrorIs(err, services.ErrExchangeNotAccepted)
}

// --- Confirm ---

func (s *ExchangeServiceTestSuite) TestConfirm_FirstParticipant() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(readyExchange(), nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, receiverID, requesterID, mock.Anything, domain.NotifExchangeConfirmed,
		mock.Anything, mock.Anything, mock.Anything).Return()

	ex, completed, err := s.service.Confirm(s.ctx, "ex-1", requesterID)

	s.Require().NoError(err)
	s.False(completed)
	s.True(ex.ConfirmedByRequester)
	s.False(ex.ConfirmedByReceiver)
	s.Equal(domain.ExchangeAccepted, ex.Status)
	s.exchangeRepo.AssertNotCalled(s.T(), "CompleteExchange",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ExchangeServiceTestSuite) TestConfirm_SecondParticipantCompletes() {
	ex := readyExchange()
	ex.ConfirmedByRequester = true
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)
	s.exchangeRepo.On("CompleteExchange", s.ctx, mock.AnythingOfType("domain.Exchange"), wantedBook, offeredBook, s.now).Return(nil)
	s.notifier.On("Notify", mock.Anything, requesterID, receiverID, mock.Anything, domain.NotifExchangeCompleted,
		mock.Anything, mock.Anything, mock.Anything).Return()
	s.notifier.On("Notify", mock.Anything, receiverID, receiverID, mock.Anything, domain.NotifExchangeCompleted,
		mock.Anything, mock.Anything, mock.Anything).Return()

	got, completed, err := s.service.Confirm(s.ctx, "ex-1", receiverID)

	s.Require().NoError(err)
	s.True(completed)
	s.Equal(domain.ExchangeCompleted, got.Status)
	s.True(got.BothConfirmed())
	s.Require().NotNil(got.AgreedAt)
	s.Equal(s.now, *got.AgreedAt)
	s.exchangeRepo.AssertNotCalled(s.T(), "UpdateExchange", mock.Anything, mock.Anything)
	s.notifier.AssertExpectations(s.T())
}

// Completion refreshes the agreement timestamp; the acceptance-time value
// must not survive into the completed snapshot.
func (s *ExchangeServiceTestSuite) TestConfirm_CompletionRefreshesAgreedAt() {
	ex := readyExchange()
	ex.ConfirmedByReceiver = true
	acceptedAt := *ex.AgreedAt
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)
	s.exchangeRepo.On("CompleteExchange", s.ctx, mock.MatchedBy(func(e domain.Exchange) bool {
		return e.AgreedAt != nil && e.AgreedAt.Equal(s.now)
	}), wantedBook, offeredBook, s.now).Return(nil)
	s.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, domain.NotifExchangeCompleted,
		mock.Anything, mock.Anything, mock.Anything).Return()

	got, completed, err := s.service.Confirm(s.ctx, "ex-1", requesterID)

	s.Require().NoError(err)
	s.True(completed)
	s.Require().NotNil(got.AgreedAt)
	s.Equal(s.now, *got.AgreedAt)
	s.NotEqual(acceptedAt, *got.AgreedAt)
	s.exchangeRepo.AssertExpectations(s.T())
}

func (s *ExchangeServiceTestSuite) TestConfirm_Repeat() {
	ex := readyExchange()
	ex.ConfirmedByRequester = true
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)

	_, _, err := s.service.Confirm(s.ctx, "ex-1", requesterID)

	s.Require().ErrorIs(err, services.ErrAlreadyConfirmed)
	s.ErrorIs(err, apperrors.ErrInvariantViolation)
	s.exchangeRepo.AssertNotCalled(s.T(), "UpdateExchange", mock.Anything, mock.Anything)
}

func (s *ExchangeServiceTestSuite) TestConfirm_NoMeetingLocation() {
	ex := acceptedExchange()
	offered := offeredBook
	ex.OfferedBookID = &offered
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)

	_, _, err := s.service.Confirm(s.ctx, "ex-1", requesterID)

	s.Require().ErrorIs(err, services.ErrNoMeetingLocation)
}

func (s *ExchangeServiceTestSuite) TestConfirm_VersionConflict() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(readyExchange(), nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(apperrors.ErrConflict)

	_, _, err := s.service.Confirm(s.ctx, "ex-1", requesterID)

	s.Require().ErrorIs(err, apperrors.ErrConflict)
}

func (s *ExchangeServiceTestSuite) TestConfirm_CompletedExchange() {
	ex := readyExchange()
	ex.Status = domain.ExchangeCompleted
	ex.ConfirmedByRequester = true
	ex.ConfirmedByReceiver = true
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)

	_, _, err := s.service.Confirm(s.ctx, "ex-1", receiverID)

	s.Require().ErrorIs(err, services.ErrExchangeCompleted)
}

// --- Cancel ---

func (s *ExchangeServiceTestSuite) TestCancel_ByRequester() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(pendingExchange(), nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, receiverID, requesterID, mock.Anything, domain.NotifExchangeCanceled,
		mock.Anything, mock.Anything, mock.Anything).Return()

	ex, err := s.service.Cancel(s.ctx, "ex-1", requesterID)

	s.Require().NoError(err)
	s.Equal(domain.ExchangeCanceled, ex.Status)
}

func (s *ExchangeServiceTestSuite) TestCancel_AcceptedByReceiver() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(acceptedExchange(), nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, requesterID, receiverID, mock.Anything, domain.NotifExchangeCanceled,
		mock.Anything, mock.Anything, mock.Anything).Return()

	ex, err := s.service.Cancel(s.ctx, "ex-1", receiverID)

	s.Require().NoError(err)
	s.Equal(domain.ExchangeCanceled, ex.Status)
}

// A rejected exchange can still be withdrawn; only completion freezes it.
func (s *ExchangeServiceTestSuite) TestCancel_RejectedExchange() {
	ex := pendingExchange()
	ex.Status = domain.ExchangeRejected
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).Return(nil)
	s.notifier.On("Notify", mock.Anything, receiverID, requesterID, mock.Anything, domain.NotifExchangeCanceled,
		mock.Anything, mock.Anything, mock.Anything).Return()

	got, err := s.service.Cancel(s.ctx, "ex-1", requesterID)

	s.Require().NoError(err)
	s.Equal(domain.ExchangeCanceled, got.Status)
}

func (s *ExchangeServiceTestSuite) TestCancel_NonParticipant() {
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(pendingExchange(), nil)

	_, err := s.service.Cancel(s.ctx, "ex-1", strangerID)

	s.Require().ErrorIs(err, services.ErrNotParticipant)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *ExchangeServiceTestSuite) TestCancel_CompletedImmutable() {
	ex := readyExchange()
	ex.Status = domain.ExchangeCompleted
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)

	_, err := s.service.Cancel(s.ctx, "ex-1", requesterID)

	s.Require().ErrorIs(err, services.ErrExchangeCompleted)
	s.exchangeRepo.AssertNotCalled(s.T(), "UpdateExchange", mock.Anything, mock.Anything)
}

func (s *ExchangeServiceTestSuite) TestCancel_AlreadyCanceled() {
	ex := pendingExchange()
	ex.Status = domain.ExchangeCanceled
	s.exchangeRepo.On("FindExchangeByID", s.ctx, "ex-1").Return(ex, nil)

	_, err := s.service.Cancel(s.ctx, "ex-1", requesterID)

	s.Require().ErrorIs(err, services.ErrExchangeClosed)
}

// --- Lifecycle ---

// Walks the happy path end to end against a stateful in-memory repo stub:
// request, accept, offer, location, confirm twice, completed.
func (s *ExchangeServiceTestSuite) TestLifecycle_HappyPath() {
	var stored domain.Exchange

	s.bookRepo.On("FindBookByID", s.ctx, wantedBook).Return(availableBook(wantedBook, receiverID), nil)
	s.bookRepo.On("FindBookByID", s.ctx, offeredBook).Return(availableBook(offeredBook, requesterID), nil)
	s.exchangeRepo.On("HasPendingExchange", s.ctx, wantedBook, requesterID, receiverID).Return(false, nil)
	s.exchangeRepo.On("SaveExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(domain.Exchange) }).Return(nil)
	s.exchangeRepo.On("FindExchangeByID", s.ctx, mock.AnythingOfType("string")).
		Return(func(ctx context.Context, id string) (*domain.Exchange, error) {
			snapshot := stored
			return &snapshot, nil
		})
	s.exchangeRepo.On("UpdateExchange", s.ctx, mock.AnythingOfType("domain.Exchange")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(domain.Exchange)
			stored.Version++
		}).Return(nil)
	s.exchangeRepo.On("CompleteExchange", s.ctx, mock.AnythingOfType("domain.Exchange"), wantedBook, offeredBook, s.now).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(domain.Exchange)
			stored.Version++
		}).Return(nil)
	s.chatSvc.On("EnsureChannel", mock.Anything, requesterID, receiverID, mock.AnythingOfType("string")).
		Return(&domain.ChatChannel{ChannelID: "chan-1"}, nil)
	s.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).Return()

	ex, err := s.service.CreateRequest(s.ctx, dto.CreateExchangeRequest{RequestedBookID: wantedBook}, requesterID)
	s.Require().NoError(err)
	exchangeID := ex.ExchangeID

	ex, err = s.service.Decide(s.ctx, exchangeID, receiverID, portssvc.DecisionAccept)
	s.Require().NoError(err)
	s.Equal(domain.ExchangeAccepted, ex.Status)

	ex, err = s.service.OfferBook(s.ctx, exchangeID, requesterID, offeredBook)
	s.Require().NoError(err)
	s.Require().NotNil(ex.OfferedBookID)

	ex, err = s.service.ProposeLocation(s.ctx, exchangeID, receiverID, testLocation())
	s.Require().NoError(err)
	s.Require().NotNil(ex.MeetingLocation)

	ex, completed, err := s.service.Confirm(s.ctx, exchangeID, requesterID)
	s.Require().NoError(err)
	s.False(completed)
	s.Equal(domain.ExchangeAccepted, ex.Status)

	ex, completed, err = s.service.Confirm(s.ctx, exchangeID, receiverID)
	s.Require().NoError(err)
	s.True(completed)
	s.Equal(domain.ExchangeCompleted, ex.Status)
	s.True(ex.BothConfirmed())
}
