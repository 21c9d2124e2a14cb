package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portsrepo "github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `book_id, owner_id, title, author, description, status, latitude, longitude, created_at, updated_at`

type PgxBookRepository struct {
	BaseRepository
}

// newPgxBookRepository creates a new repository for book data.
func newPgxBookRepository(pool *pgxpool.Pool) *PgxBookRepository {
	return &PgxBookRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BookRepositoryFacade = (*PgxBookRepository)(nil)

func scanBook(row scannable) (*domain.Book, error) {
	var (
		book      domain.Book
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
	)
	err := row.Scan(
		&book.BookID, &book.OwnerID, &book.Title, &book.Author, &book.Description,
		&book.Status, &latitude, &longitude, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if latitude.Valid {
		book.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		book.Longitude = &longitude.Float64
	}
	return &book, nil
}

// FindBookByID retrieves a book by its identifier.
func (r *PgxBookRepository) FindBookByID(ctx context.Context, bookID string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE book_id = $1;`
	book, err := scanBook(r.Pool.QueryRow(ctx, query, bookID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: book with ID %s not found", apperrors.ErrNotFound, bookID)
		}
		return nil, fmt.Errorf("failed to find book %s: %w", bookID, err)
	}
	return book, nil
}

func (r *PgxBookRepository) queryBooks(ctx context.Context, query string, args ...any) ([]domain.Book, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	books := make([]domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book rows: %w", err)
	}
	return books, nil
}

// ListBooksByOwner retrieves all books listed by a user, newest first.
func (r *PgxBookRepository) ListBooksByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE owner_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3;`
	return r.queryBooks(ctx, query, ownerID, limit, offset)
}

// ListAvailableBooks retrieves available books, optionally constrained to a
// bounding box.
func (r *PgxBookRepository) ListAvailableBooks(ctx context.Context, filter *domain.ProximityFilter, limit, offset int) ([]domain.Book, error) {
	if filter == nil {
		query := `SELECT ` + bookColumns + ` FROM books WHERE status = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3;`
		return r.queryBooks(ctx, query, domain.BookAvailable, limit, offset)
	}
	query := `SELECT ` + bookColumns + ` FROM books
		WHERE status = $1
			AND latitude BETWEEN $2 AND $3
			AND longitude BETWEEN $4 AND $5
		ORDER BY created_at DESC LIMIT $6 OFFSET $7;`
	return r.queryBooks(ctx, query, domain.BookAvailable,
		filter.MinLatitude, filter.MaxLatitude, filter.MinLongitude, filter.MaxLongitude, limit, offset)
}

// SaveBook inserts a new book.
func (r *PgxBookRepository) SaveBook(ctx context.Context, book domain.Book) error {
	query := `
		INSERT INTO books (book_id, owner_id, title, author, description, status, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		book.BookID, book.OwnerID, book.Title, book.Author, book.Description,
		book.Status, book.Latitude, book.Longitude, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: book with ID %s already exists", apperrors.ErrDuplicate, book.BookID)
		}
		return fmt.Errorf("failed to save book %s: %w", book.BookID, err)
	}
	return nil
}

// UpdateBook updates a book's mutable fields.
func (r *PgxBookRepository) UpdateBook(ctx context.Context, book domain.Book) error {
	query := `
		UPDATE books
		SET title = $2, author = $3, description = $4, status = $5, latitude = $6, longitude = $7, updated_at = $8
		WHERE book_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		book.BookID, book.Title, book.Author, book.Description,
		book.Status, book.Latitude, book.Longitude, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update book %s: %w", book.BookID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: book with ID %s not found", apperrors.ErrNotFound, book.BookID)
	}
	return nil
}

// FindBooksByIDsForUpdate selects books and locks their rows for update
// within the given transaction.
func (r *PgxBookRepository) FindBooksByIDsForUpdate(ctx context.Context, tx pgx.Tx, bookIDs []string) (map[string]domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE book_id = ANY($1) ORDER BY book_id FOR UPDATE;`
	rows, err := tx.Query(ctx, query, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock book rows: %w", err)
	}
	defer rows.Close()

	books := make(map[string]domain.Book, len(bookIDs))
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked book row: %w", err)
		}
		books[book.BookID] = *book
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked book rows: %w", err)
	}
	return books, nil
}

// MarkBooksExchangedInTx downgrades the given books to exchanged within the
// given transaction.
func (r *PgxBookRepository) MarkBooksExchangedInTx(ctx context.Context, tx pgx.Tx, bookIDs []string, now time.Time) error {
	query := `UPDATE books SET status = $2, updated_at = $3 WHERE book_id = ANY($1);`
	tag, err := tx.Exec(ctx, query, bookIDs, domain.BookExchanged, now)
	if err != nil {
		return fmt.Errorf("failed to mark books exchanged: %w", err)
	}
	if int(tag.RowsAffected()) != len(bookIDs) {
		return fmt.Errorf("%w: expected to retire %d books, updated %d", apperrors.ErrInternal, len(bookIDs), tag.RowsAffected())
	}
	return nil
}
