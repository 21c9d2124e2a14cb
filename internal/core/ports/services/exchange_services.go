package services

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/dto"
)

// ExchangeDecision is the receiver's verdict on a pending exchange.
type ExchangeDecision string

const (
	DecisionAccept ExchangeDecision = "accept"
	DecisionReject ExchangeDecision = "reject"
)

// ExchangeSvcFacade is the negotiation engine's operation surface. Every
// transition returns the updated exchange snapshot or a typed error
// (apperrors.ErrNotFound, ErrForbidden, ErrInvalidTransition,
// ErrInvariantViolation, ErrConflict).
type ExchangeSvcFacade interface {
	// CreateRequest opens a new pending exchange for an available book the
	// caller does not own. The receiver is fixed to the book's owner at
	// this moment and never recomputed.
	CreateRequest(ctx context.Context, req dto.CreateExchangeRequest, requesterID string) (*domain.Exchange, error)

	// Decide accepts or rejects a pending exchange; only the receiver may
	// call it. Acceptance timestamps the agreement and ensures a chat
	// channel for the participants.
	Decide(ctx context.Context, exchangeID string, callerID string, decision ExchangeDecision) (*domain.Exchange, error)

	// OfferBook attaches a book owned by the requester as the counterpart
	// of the swap. Single-shot: once attached it cannot be replaced.
	OfferBook(ctx context.Context, exchangeID string, callerID string, bookID string) (*domain.Exchange, error)

	// ProposeLocation sets the meeting point on an accepted exchange with
	// an offered book attached. Repeated proposals overwrite each other
	// until completion.
	ProposeLocation(ctx context.Context, exchangeID string, callerID string, loc domain.MeetingLocation) (*domain.Exchange, error)

	// Confirm records the caller's confirmation. When both participants
	// have confirmed, the exchange completes and both books become
	// permanently unavailable.
	Confirm(ctx context.Context, exchangeID string, callerID string) (*domain.Exchange, bool, error)

	// Cancel aborts a not-yet-completed exchange; either participant may
	// call it.
	Cancel(ctx context.Context, exchangeID string, callerID string) (*domain.Exchange, error)

	// GetByID retrieves an exchange snapshot.
	GetByID(ctx context.Context, exchangeID string) (*domain.Exchange, error)

	// ListReceivedFor lists exchanges where the user is the receiver.
	ListReceivedFor(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error)

	// ListSentFor lists exchanges where the user is the requester.
	ListSentFor(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error)

	// HasPendingBetween reports whether a pending request for the book
	// already exists between the requester and the book's owner.
	HasPendingBetween(ctx context.Context, bookID, requesterID, receiverID string) (bool, error)
}
