package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/bookswapp/bookswap_backend/internal/handlers"
	"github.com/bookswapp/bookswap_backend/internal/middleware"
	"github.com/bookswapp/bookswap_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExchangeService ---

type MockExchangeService struct {
	mock.Mock
}

var _ portssvc.ExchangeSvcFacade = (*MockExchangeService)(nil)

func (m *MockExchangeService) CreateRequest(ctx context.Context, req dto.CreateExchangeRequest, requesterID string) (*domain.Exchange, error) {
	args := m.Called(ctx, req, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exchange), args.Error(1)
}

func (m *MockExchangeService) Decide(ctx context.Context, exchangeID, callerID string, decision portssvc.ExchangeDecision) (*domain.Exchange, error) {
	args := m.Called(ctx, exchangeID, callerID, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exchange), args.Error(1)
}

func (m *MockExchangeService) OfferBook(ctx context.Context, exchangeID, callerID, bookID string) (*domain.Exchange, error) {
	args := m.Called(ctx, exchangeID, callerID, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exchange), args.Error(1)
}

func (m *MockExchangeService) ProposeLocation(ctx context.Context, exchangeID, callerID string, loc domain.MeetingLocation) (*domain.Exchange, error) {
	args := m.Called(ctx, exchangeID, callerID, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exchange), args.Error(1)
}

func (m *MockExchangeService) Confirm(ctx context.Context, exchangeID, callerID string) (*domain.Exchange, bool, error) {
	args := m.Called(ctx, exchangeID, callerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Exchange), args.Bool(1), args.Error(2)
}

func (m *MockExchangeService) Cancel(ctx context.Context, exchangeID, callerID string) (*domain.Exchange, error) {
	args := m.Called(ctx, exchangeID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exchange), args.Error(1)
}

func (m *MockExchangeService) GetByID(ctx context.Context, exchangeID string) (*domain.Exchange, error) {
	args := m.Called(ctx, exchangeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exchange), args.Error(1)
}

func (m *MockExchangeService) ListReceivedFor(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Exchange), args.Error(1)
}

func (m *MockExchangeService) ListSentFor(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Exchange), args.Error(1)
}

func (m *MockExchangeService) HasPendingBetween(ctx context.Context, bookID, requesterID, receiverID string) (bool, error) {
	args := m.Called(ctx, bookID, requesterID, receiverID)
	return args.Bool(0), args.Error(1)
}

// --- Mock ChatService ---

type MockChatService struct {
	mock.Mock
}

var _ portssvc.ChatSvcFacade = (*MockChatService)(nil)

func (m *MockChatService) EnsureChannel(ctx context.Context, userAID, userBID, exchangeID string) (*domain.ChatChannel, error) {
	args := m.Called(ctx, userAID, userBID, exchangeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatChannel), args.Error(1)
}

func (m *MockChatService) ListChannelsForUser(ctx context.Context, userID string) ([]domain.ChatPreview, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatPreview), args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, channelID, senderID, content string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, channelID, senderID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatMessage), args.Error(1)
}

func (m *MockChatService) ListMessages(ctx context.Context, channelID, userID string, limit int) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, channelID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatMessage), args.Error(1)
}

// --- Suite ---

type ExchangeHandlerTestSuite struct {
	suite.Suite
	router              *gin.Engine
	mockExchangeService *MockExchangeService
	mockChatService     *MockChatService
	jwtSecret           string
}

func (suite *ExchangeHandlerTestSuite) generateTestToken(userID string) string {
	token, err := utils.GenerateJWT(userID, suite.jwtSecret, time.Now().Add(time.Hour))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *ExchangeHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockExchangeService = new(MockExchangeService)
	suite.mockChatService = new(MockChatService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterExchangeRoutes(v1, suite.mockExchangeService, suite.mockChatService)
}

func (suite *ExchangeHandlerTestSuite) doJSON(method, url, userID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			suite.FailNow("Failed to encode request body", err.Error())
		}
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func TestExchangeHandler(t *testing.T) {
	suite.Run(t, new(ExchangeHandlerTestSuite))
}

// --- Test Cases ---

func (suite *ExchangeHandlerTestSuite) TestCreateExchange_Success() {
	requesterID := uuid.NewString()
	bookID := uuid.NewString()
	expected := &domain.Exchange{
		ExchangeID:      uuid.NewString(),
		RequestedBookID: bookID,
		RequesterID:     requesterID,
		ReceiverID:      uuid.NewString(),
		Status:          domain.ExchangePending,
		ProposedAt:      time.Now().UTC(),
		Version:         1,
	}

	suite.mockExchangeService.On("CreateRequest",
		mock.AnythingOfType("*context.valueCtx"),
		mock.MatchedBy(func(req dto.CreateExchangeRequest) bool {
			return req.RequestedBookID == bookID
		}),
		requesterID,
	).Return(expected, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/exchanges", requesterID,
		dto.CreateExchangeRequest{RequestedBookID: bookID})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.ExchangeResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expected.ExchangeID, resp.ExchangeID)
	suite.Equal(string(domain.ExchangePending), resp.Status)
	suite.mockExchangeService.AssertExpectations(suite.T())
}

func (suite *ExchangeHandlerTestSuite) TestCreateExchange_MissingBookID() {
	w := suite.doJSON(http.MethodPost, "/api/v1/exchanges", uuid.NewString(), gin.H{})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockExchangeService.AssertNotCalled(suite.T(), "CreateRequest",
		mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeHandlerTestSuite) TestCreateExchange_Unauthenticated() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/exchanges", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *ExchangeHandlerTestSuite) TestDecideExchange_AcceptIncludesChannelID() {
	receiverID := uuid.NewString()
	requesterID := uuid.NewString()
	exchangeID := uuid.NewString()
	channelID := uuid.NewString()
	agreedAt := time.Now().UTC()
	accepted := &domain.Exchange{
		ExchangeID:  exchangeID,
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      domain.ExchangeAccepted,
		AgreedAt:    &agreedAt,
		Version:     2,
	}

	suite.mockExchangeService.On("Decide",
		mock.AnythingOfType("*context.valueCtx"), exchangeID, receiverID, portssvc.DecisionAccept,
	).Return(accepted, nil).Once()
	suite.mockChatService.On("EnsureChannel",
		mock.AnythingOfType("*context.valueCtx"), requesterID, receiverID, exchangeID,
	).Return(&domain.ChatChannel{ChannelID: channelID}, nil).Once()

	w := suite.doJSON(http.MethodPatch, "/api/v1/exchanges/"+exchangeID+"/decision", receiverID,
		dto.DecideExchangeRequest{Decision: "accept"})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ExchangeResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(string(domain.ExchangeAccepted), resp.Status)
	suite.Equal(channelID, resp.ChannelID)
	suite.mockExchangeService.AssertExpectations(suite.T())
	suite.mockChatService.AssertExpectations(suite.T())
}

func (suite *ExchangeHandlerTestSuite) TestDecideExchange_RejectSkipsChannel() {
	receiverID := uuid.NewString()
	exchangeID := uuid.NewString()
	rejected := &domain.Exchange{
		ExchangeID:  exchangeID,
		RequesterID: uuid.NewString(),
		ReceiverID:  receiverID,
		Status:      domain.ExchangeRejected,
		Version:     2,
	}

	suite.mockExchangeService.On("Decide",
		mock.AnythingOfType("*context.valueCtx"), exchangeID, receiverID, portssvc.DecisionReject,
	).Return(rejected, nil).Once()

	w := suite.doJSON(http.MethodPatch, "/api/v1/exchanges/"+exchangeID+"/decision", receiverID,
		dto.DecideExchangeRequest{Decision: "reject"})

	suite.Equal(http.StatusOK, w.Code)
	suite.mockChatService.AssertNotCalled(suite.T(), "EnsureChannel",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeHandlerTestSuite) TestConfirmExchange_ReportsCompletion() {
	callerID := uuid.NewString()
	exchangeID := uuid.NewString()
	completed := &domain.Exchange{
		ExchangeID:           exchangeID,
		RequesterID:          callerID,
		ReceiverID:           uuid.NewString(),
		Status:               domain.ExchangeCompleted,
		ConfirmedByRequester: true,
		ConfirmedByReceiver:  true,
		Version:              5,
	}

	suite.mockExchangeService.On("Confirm",
		mock.AnythingOfType("*context.valueCtx"), exchangeID, callerID,
	).Return(completed, true, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/exchanges/"+exchangeID+"/confirm", callerID, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ConfirmExchangeResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Completed)
	suite.Equal(string(domain.ExchangeCompleted), resp.Exchange.Status)
}

func (suite *ExchangeHandlerTestSuite) TestGetExchange_NonParticipantForbidden() {
	callerID := uuid.NewString()
	exchangeID := uuid.NewString()
	other := &domain.Exchange{
		ExchangeID:  exchangeID,
		RequesterID: uuid.NewString(),
		ReceiverID:  uuid.NewString(),
		Status:      domain.ExchangePending,
	}

	suite.mockExchangeService.On("GetByID",
		mock.AnythingOfType("*context.valueCtx"), exchangeID,
	).Return(other, nil).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/exchanges/"+exchangeID, callerID, nil)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *ExchangeHandlerTestSuite) TestListReceived_PassesPagination() {
	userID := uuid.NewString()

	suite.mockExchangeService.On("ListReceivedFor",
		mock.AnythingOfType("*context.valueCtx"), userID, 5, 10,
	).Return([]domain.Exchange{}, nil).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/exchanges/received?limit=5&offset=10", userID, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockExchangeService.AssertExpectations(suite.T())
}

func (suite *ExchangeHandlerTestSuite) TestCheckPending() {
	userID := uuid.NewString()
	bookID := uuid.NewString()
	ownerID := uuid.NewString()

	suite.mockExchangeService.On("HasPendingBetween",
		mock.AnythingOfType("*context.valueCtx"), bookID, userID, ownerID,
	).Return(true, nil).Once()

	w := suite.doJSON(http.MethodGet,
		"/api/v1/exchanges/pending?bookID="+bookID+"&receiverID="+ownerID, userID, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp map[string]bool
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp["pending"])
}
