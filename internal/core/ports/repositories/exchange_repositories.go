package repositories

import (
	"context"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// ExchangeReader defines read operations for exchange records.
type ExchangeReader interface {
	// FindExchangeByID retrieves a specific exchange by its unique identifier.
	FindExchangeByID(ctx context.Context, exchangeID string) (*domain.Exchange, error)

	// ListExchangesByReceiver retrieves exchanges where the user is the
	// receiver, newest proposal first.
	ListExchangesByReceiver(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error)

	// ListExchangesByRequester retrieves exchanges where the user is the
	// requester, newest proposal first.
	ListExchangesByRequester(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error)

	// HasPendingExchange reports whether a pending exchange already exists
	// for the given requested book between this requester and receiver.
	HasPendingExchange(ctx context.Context, bookID, requesterID, receiverID string) (bool, error)
}

// ExchangeWriter defines write operations for exchange records.
type ExchangeWriter interface {
	// SaveExchange persists a new exchange in its initial state.
	SaveExchange(ctx context.Context, exchange domain.Exchange) error

	// UpdateExchange applies a non-completing transition. The update is
	// conditional on the version the exchange was read at; a version
	// mismatch yields apperrors.ErrConflict.
	UpdateExchange(ctx context.Context, exchange domain.Exchange) error

	// CompleteExchange atomically transitions the exchange to completed and
	// marks both referenced books exchanged. It locks the exchange and the
	// two book rows, re-checks that the exchange is still accepted at the
	// expected version and that neither book has been exchanged by a
	// concurrent completion, then commits all three writes together.
	CompleteExchange(ctx context.Context, exchange domain.Exchange, requestedBookID, offeredBookID string, now time.Time) error
}

// ExchangeRepositoryFacade combines all exchange repository interfaces.
type ExchangeRepositoryFacade interface {
	ExchangeReader
	ExchangeWriter
}
