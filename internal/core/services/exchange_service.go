package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/google/uuid"
)

// Named errors for exchange transitions. Each wraps an apperrors sentinel so
// handlers can map them to HTTP statuses with errors.Is.
var (
	ErrBookNotAvailable    = fmt.Errorf("%w: book is not available for exchange", apperrors.ErrInvariantViolation)
	ErrOwnBookRequest      = fmt.Errorf("%w: cannot request a book you own", apperrors.ErrInvariantViolation)
	ErrDuplicatePending    = fmt.Errorf("%w: a pending exchange for this book already exists", apperrors.ErrDuplicate)
	ErrNotParticipant      = fmt.Errorf("%w: user is not a participant of this exchange", apperrors.ErrForbidden)
	ErrNotReceiver         = fmt.Errorf("%w: only the receiver may decide on a request", apperrors.ErrForbidden)
	ErrExchangeNotPending  = fmt.Errorf("%w: exchange is not pending", apperrors.ErrInvalidTransition)
	ErrExchangeNotAccepted = fmt.Errorf("%w: exchange is not accepted", apperrors.ErrInvalidTransition)
	ErrExchangeClosed      = fmt.Errorf("%w: exchange is already closed", apperrors.ErrInvalidTransition)
	ErrExchangeCompleted   = fmt.Errorf("%w: exchange is already completed", apperrors.ErrInvalidTransition)
	ErrAlreadyOffered      = fmt.Errorf("%w: an offered book is already attached", apperrors.ErrInvariantViolation)
	ErrOfferedBookNotOwned = fmt.Errorf("%w: offered book does not belong to the requester", apperrors.ErrInvariantViolation)
	ErrNoOfferedBook       = fmt.Errorf("%w: no offered book attached", apperrors.ErrInvariantViolation)
	ErrNoMeetingLocation   = fmt.Errorf("%w: no meeting location proposed", apperrors.ErrInvariantViolation)
	ErrAlreadyConfirmed    = fmt.Errorf("%w: participant has already confirmed", apperrors.ErrInvariantViolation)
)

// sideEffect is a deferred action queued during a transition and dispatched
// only after the state change has been persisted.
type sideEffect func(ctx context.Context)

// dispatcher runs queued side effects. The default implementation detaches
// from the request context and runs them in a goroutine.
type dispatcher func(ctx context.Context, effects []sideEffect)

type exchangeService struct {
	BaseService
	exchangeRepo repositories.ExchangeRepositoryFacade
	bookRepo     repositories.BookRepositoryFacade
	chatSvc      portssvc.ChatSvcFacade
	notifier     portssvc.NotifierSvc
	clock        func() time.Time
	dispatch     dispatcher
}

var _ portssvc.ExchangeSvcFacade = (*exchangeService)(nil)

// ExchangeServiceOption customizes the exchange service.
type ExchangeServiceOption func(*exchangeService)

// WithExchangeClock overrides the time source.
func WithExchangeClock(clock func() time.Time) ExchangeServiceOption {
	return func(s *exchangeService) { s.clock = clock }
}

// WithSynchronousSideEffects runs side effects inline instead of in a
// detached goroutine. Intended for tests.
func WithSynchronousSideEffects() ExchangeServiceOption {
	return func(s *exchangeService) {
		s.dispatch = func(ctx context.Context, effects []sideEffect) {
			for _, effect := range effects {
				effect(ctx)
			}
		}
	}
}

// NewExchangeService creates a new exchange negotiation service.
func NewExchangeService(
	exchangeRepo repositories.ExchangeRepositoryFacade,
	bookRepo repositories.BookRepositoryFacade,
	chatSvc portssvc.ChatSvcFacade,
	notifier portssvc.NotifierSvc,
	opts ...ExchangeServiceOption,
) portssvc.ExchangeSvcFacade {
	s := &exchangeService{
		exchangeRepo: exchangeRepo,
		bookRepo:     bookRepo,
		chatSvc:      chatSvc,
		notifier:     notifier,
		clock:        time.Now,
	}
	s.dispatch = func(ctx context.Context, effects []sideEffect) {
		detached := context.WithoutCancel(ctx)
		go func() {
			for _, effect := range effects {
				effect(detached)
			}
		}()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest opens a new pending exchange for the requested book. The
// receiver is fixed to the book's current owner and never recomputed.
func (s *exchangeService) CreateRequest(ctx context.Context, req dto.CreateExchangeRequest, requesterID string) (*domain.Exchange, error) {
	logger := s.GetLogger(ctx).With("op", "CreateRequest", "requestedBookID", req.RequestedBookID, "requesterID", requesterID)

	requestedBook, err := s.bookRepo.FindBookByID(ctx, req.RequestedBookID)
	if err != nil {
		logger.Warn("requested book lookup failed", "error", err)
		return nil, err
	}
	if requestedBook.OwnerID == requesterID {
		return nil, ErrOwnBookRequest
	}
	if !requestedBook.IsAvailable() {
		return nil, ErrBookNotAvailable
	}

	exists, err := s.exchangeRepo.HasPendingExchange(ctx, req.RequestedBookID, requesterID, requestedBook.OwnerID)
	if err != nil {
		logger.Error("pending exchange check failed", "error", err)
		return nil, fmt.Errorf("failed to check for pending exchange: %w", err)
	}
	if exists {
		return nil, ErrDuplicatePending
	}

	if req.OfferedBookID != nil {
		offeredBook, err := s.bookRepo.FindBookByID(ctx, *req.OfferedBookID)
		if err != nil {
			return nil, err
		}
		if offeredBook.OwnerID != requesterID {
			return nil, ErrOfferedBookNotOwned
		}
		if !offeredBook.IsAvailable() {
			return nil, ErrBookNotAvailable
		}
	}

	now := s.clock()
	exchange := domain.Exchange{
		ExchangeID:      uuid.NewString(),
		RequestedBookID: req.RequestedBookID,
		OfferedBookID:   req.OfferedBookID,
		RequesterID:     requesterID,
		ReceiverID:      requestedBook.OwnerID,
		Status:          domain.ExchangePending,
		ProposedAt:      now,
		Version:         1,
	}

	if err := s.exchangeRepo.SaveExchange(ctx, exchange); err != nil {
		logger.Error("failed to save exchange", "error", err)
		return nil, fmt.Errorf("failed to save exchange: %w", err)
	}

	s.dispatch(ctx, []sideEffect{
		s.notifyEffect(&exchange, requesterID, exchange.ReceiverID, domain.NotifExchangeRequested,
			"New exchange request", "Someone wants to swap for your book"),
	})

	logger.Info("exchange request created", "exchangeID", exchange.ExchangeID)
	return &exchange, nil
}

// Decide accepts or rejects a pending exchange. Only the receiver may call
// it; acceptance timestamps the agreement and ensures a chat channel.
func (s *exchangeService) Decide(ctx context.Context, exchangeID string, callerID string, decision portssvc.ExchangeDecision) (*domain.Exchange, error) {
	logger := s.GetLogger(ctx).With("op", "Decide", "exchangeID", exchangeID, "decision", decision)

	exchange, err := s.exchangeRepo.FindExchangeByID(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	role, ok := exchange.RoleOf(callerID)
	if !ok {
		return nil, ErrNotParticipant
	}
	if role != domain.RoleReceiver {
		return nil, ErrNotReceiver
	}
	if exchange.Status != domain.ExchangePending {
		if exchange.Status == domain.ExchangeCompleted {
			return nil, ErrExchangeCompleted
		}
		return nil, ErrExchangeNotPending
	}

	var effects []sideEffect
	switch decision {
	case portssvc.DecisionAccept:
		now := s.clock()
		exchange.Status = domain.ExchangeAccepted
		exchange.AgreedAt = &now
		effects = append(effects,
			s.ensureChannelEffect(exchange),
			s.notifyEffect(exchange, callerID, exchange.RequesterID, domain.NotifExchangeAccepted,
				"Exchange accepted", "Your exchange request was accepted"),
		)
	case portssvc.DecisionReject:
		exchange.Status = domain.ExchangeRejected
		effects = append(effects,
			s.notifyEffect(exchange, callerID, exchange.RequesterID, domain.NotifExchangeRejected,
				"Exchange rejected", "Your exchange request was rejected"),
		)
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", apperrors.ErrValidation, decision)
	}

	if err := s.exchangeRepo.UpdateExchange(ctx, *exchange); err != nil {
		logger.Error("failed to update exchange", "error", err)
		return nil, err
	}
	exchange.Version++

	s.dispatch(ctx, effects)
	logger.Info("exchange decided", "status", exchange.Status)
	return exchange, nil
}

// OfferBook attaches a book owned by the requester as the swap counterpart.
// Either participant may call it; the attachment is single-shot.
func (s *exchangeService) OfferBook(ctx context.Context, exchangeID string, callerID string, bookID string) (*domain.Exchange, error) {
	logger := s.GetLogger(ctx).With("op", "OfferBook", "exchangeID", exchangeID, "bookID", bookID)

	exchange, err := s.exchangeRepo.FindExchangeByID(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if _, ok := exchange.RoleOf(callerID); !ok {
		return nil, ErrNotParticipant
	}
	switch exchange.Status {
	case domain.ExchangePending, domain.ExchangeAccepted:
	case domain.ExchangeCompleted:
		return nil, ErrExchangeCompleted
	default:
		return nil, ErrExchangeClosed
	}
	if exchange.OfferedBookID != nil {
		return nil, ErrAlreadyOffered
	}

	book, err := s.bookRepo.FindBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != exchange.RequesterID {
		return nil, ErrOfferedBookNotOwned
	}
	if !book.IsAvailable() {
		return nil, ErrBookNotAvailable
	}

	exchange.OfferedBookID = &bookID
	if err := s.exchangeRepo.UpdateExchange(ctx, *exchange); err != nil {
		logger.Error("failed to update exchange", "error", err)
		return nil, err
	}
	exchange.Version++

	s.dispatch(ctx, []sideEffect{
		s.notifyEffect(exchange, callerID, exchange.CounterpartOf(callerID), domain.NotifBookOffered,
			"Book offered", "A book was offered for your exchange"),
	})

	logger.Info("book offered")
	return exchange, nil
}

// ProposeLocation sets the meeting point on an accepted exchange that has an
// offered book attached. Repeated proposals overwrite each other.
func (s *exchangeService) ProposeLocation(ctx context.Context, exchangeID string, callerID string, loc domain.MeetingLocation) (*domain.Exchange, error) {
	logger := s.GetLogger(ctx).With("op", "ProposeLocation", "exchangeID", exchangeID)

	exchange, err := s.exchangeRepo.FindExchangeByID(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if _, ok := exchange.RoleOf(callerID); !ok {
		return nil, ErrNotParticipant
	}
	if exchange.Status != domain.ExchangeAccepted {
		if exchange.Status == domain.ExchangeCompleted {
			return nil, ErrExchangeCompleted
		}
		return nil, ErrExchangeNotAccepted
	}
	if exchange.OfferedBookID == nil {
		return nil, ErrNoOfferedBook
	}

	exchange.MeetingLocation = &loc
	if err := s.exchangeRepo.UpdateExchange(ctx, *exchange); err != nil {
		logger.Error("failed to update exchange", "error", err)
		return nil, err
	}
	exchange.Version++

	s.dispatch(ctx, []sideEffect{
		s.notifyEffect(exchange, callerID, exchange.CounterpartOf(callerID), domain.NotifLocationProposed,
			"Meeting location proposed", loc.Name),
	})

	logger.Info("meeting location proposed", "location", loc.Name)
	return exchange, nil
}

// Confirm records the caller's confirmation. The second confirmation
// completes the exchange and marks both books exchanged in one transaction.
func (s *exchangeService) Confirm(ctx context.Context, exchangeID string, callerID string) (*domain.Exchange, bool, error) {
	logger := s.GetLogger(ctx).With("op", "Confirm", "exchangeID", exchangeID)

	exchange, err := s.exchangeRepo.FindExchangeByID(ctx, exchangeID)
	if err != nil {
		return nil, false, err
	}
	role, ok := exchange.RoleOf(callerID)
	if !ok {
		return nil, false, ErrNotParticipant
	}
	if exchange.Status != domain.ExchangeAccepted {
		if exchange.Status == domain.ExchangeCompleted {
			return nil, false, ErrExchangeCompleted
		}
		return nil, false, ErrExchangeNotAccepted
	}
	if exchange.OfferedBookID == nil {
		return nil, false, ErrNoOfferedBook
	}
	if exchange.MeetingLocation == nil {
		return nil, false, ErrNoMeetingLocation
	}
	if exchange.HasConfirmed(role) {
		return nil, false, ErrAlreadyConfirmed
	}

	if role == domain.RoleRequester {
		exchange.ConfirmedByRequester = true
	} else {
		exchange.ConfirmedByReceiver = true
	}

	if exchange.BothConfirmed() {
		now := s.clock()
		exchange.Status = domain.ExchangeCompleted
		exchange.AgreedAt = &now
		if err := s.exchangeRepo.CompleteExchange(ctx, *exchange, exchange.RequestedBookID, *exchange.OfferedBookID, now); err != nil {
			logger.Error("failed to complete exchange", "error", err)
			return nil, false, err
		}
		exchange.Version++

		s.dispatch(ctx, []sideEffect{
			s.notifyEffect(exchange, callerID, exchange.RequesterID, domain.NotifExchangeCompleted,
				"Exchange completed", "Your book exchange is complete"),
			s.notifyEffect(exchange, callerID, exchange.ReceiverID, domain.NotifExchangeCompleted,
				"Exchange completed", "Your book exchange is complete"),
		})

		logger.Info("exchange completed")
		return exchange, true, nil
	}

	if err := s.exchangeRepo.UpdateExchange(ctx, *exchange); err != nil {
		logger.Error("failed to update exchange", "error", err)
		return nil, false, err
	}
	exchange.Version++

	s.dispatch(ctx, []sideEffect{
		s.notifyEffect(exchange, callerID, exchange.CounterpartOf(callerID), domain.NotifExchangeConfirmed,
			"Exchange confirmed", "Your counterpart confirmed the exchange"),
	})

	logger.Info("exchange confirmed", "role", role)
	return exchange, false, nil
}

// Cancel aborts an exchange that has not yet completed. Either participant
// may call it, including on a rejected exchange; completed exchanges are
// immutable and cancellation is final.
func (s *exchangeService) Cancel(ctx context.Context, exchangeID string, callerID string) (*domain.Exchange, error) {
	logger := s.GetLogger(ctx).With("op", "Cancel", "exchangeID", exchangeID)

	exchange, err := s.exchangeRepo.FindExchangeByID(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if _, ok := exchange.RoleOf(callerID); !ok {
		return nil, ErrNotParticipant
	}
	switch exchange.Status {
	case domain.ExchangePending, domain.ExchangeAccepted, domain.ExchangeRejected:
	case domain.ExchangeCompleted:
		return nil, ErrExchangeCompleted
	default:
		return nil, ErrExchangeClosed
	}

	exchange.Status = domain.ExchangeCanceled
	if err := s.exchangeRepo.UpdateExchange(ctx, *exchange); err != nil {
		logger.Error("failed to update exchange", "error", err)
		return nil, err
	}
	exchange.Version++

	s.dispatch(ctx, []sideEffect{
		s.notifyEffect(exchange, callerID, exchange.CounterpartOf(callerID), domain.NotifExchangeCanceled,
			"Exchange canceled", "The exchange was canceled"),
	})

	logger.Info("exchange canceled")
	return exchange, nil
}

// GetByID retrieves an exchange snapshot.
func (s *exchangeService) GetByID(ctx context.Context, exchangeID string) (*domain.Exchange, error) {
	return s.exchangeRepo.FindExchangeByID(ctx, exchangeID)
}

// ListReceivedFor lists exchanges where the user is the receiver, newest
// proposal first.
func (s *exchangeService) ListReceivedFor(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error) {
	return s.exchangeRepo.ListExchangesByReceiver(ctx, userID, limit, offset)
}

// ListSentFor lists exchanges where the user is the requester, newest
// proposal first.
func (s *exchangeService) ListSentFor(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error) {
	return s.exchangeRepo.ListExchangesByRequester(ctx, userID, limit, offset)
}

// HasPendingBetween reports whether a pending request for the book already
// exists between the two users.
func (s *exchangeService) HasPendingBetween(ctx context.Context, bookID, requesterID, receiverID string) (bool, error) {
	return s.exchangeRepo.HasPendingExchange(ctx, bookID, requesterID, receiverID)
}

// notifyEffect builds a deferred notification. Notify swallows its own
// failures, so the transition outcome is never affected.
func (s *exchangeService) notifyEffect(exchange *domain.Exchange, senderID, recipientID string, kind domain.NotificationKind, title, body string) sideEffect {
	exchangeID := exchange.ExchangeID
	metadata := map[string]string{"exchangeID": exchangeID, "status": string(exchange.Status)}
	return func(ctx context.Context) {
		s.notifier.Notify(ctx, recipientID, senderID, &exchangeID, kind, title, body, metadata)
	}
}

// ensureChannelEffect builds a deferred chat channel creation for the two
// participants. Failures are logged and swallowed.
func (s *exchangeService) ensureChannelEffect(exchange *domain.Exchange) sideEffect {
	requesterID, receiverID, exchangeID := exchange.RequesterID, exchange.ReceiverID, exchange.ExchangeID
	return func(ctx context.Context) {
		if _, err := s.chatSvc.EnsureChannel(ctx, requesterID, receiverID, exchangeID); err != nil {
			s.LogError(ctx, err, "failed to ensure chat channel", "exchangeID", exchangeID)
		}
	}
}
