package repositories

import (
	"context"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// BookReader defines read operations for book data.
type BookReader interface {
	// FindBookByID retrieves a specific book by its unique identifier.
	FindBookByID(ctx context.Context, bookID string) (*domain.Book, error)

	// ListBooksByOwner retrieves all books listed by a user.
	ListBooksByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Book, error)

	// ListAvailableBooks retrieves available books, optionally constrained
	// to a bounding box when a proximity filter is supplied.
	ListAvailableBooks(ctx context.Context, filter *domain.ProximityFilter, limit, offset int) ([]domain.Book, error)
}

// BookWriter defines write operations for book data.
type BookWriter interface {
	// SaveBook persists a new book.
	SaveBook(ctx context.Context, book domain.Book) error

	// UpdateBook updates a book's mutable fields.
	UpdateBook(ctx context.Context, book domain.Book) error
}

// BookTransactionSupport defines book operations used inside exchange
// completion transactions.
type BookTransactionSupport interface {
	// FindBooksByIDsForUpdate selects books and locks their rows for update
	// within the given transaction.
	FindBooksByIDsForUpdate(ctx context.Context, tx pgx.Tx, bookIDs []string) (map[string]domain.Book, error)

	// MarkBooksExchangedInTx downgrades the given books to exchanged within
	// the given transaction.
	MarkBooksExchangedInTx(ctx context.Context, tx pgx.Tx, bookIDs []string, now time.Time) error
}

// BookRepositoryFacade combines all book repository interfaces.
type BookRepositoryFacade interface {
	BookReader
	BookWriter
	BookTransactionSupport
}
