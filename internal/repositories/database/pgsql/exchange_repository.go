package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portsrepo "github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const exchangeColumns = `exchange_id, requested_book_id, offered_book_id, requester_id, receiver_id,
	status, confirmed_by_requester, confirmed_by_receiver,
	meeting_latitude, meeting_longitude, meeting_name, meeting_address, meeting_place_id,
	proposed_at, agreed_at, version`

type PgxExchangeRepository struct {
	BaseRepository
	books portsrepo.BookTransactionSupport
}

// newPgxExchangeRepository creates a new repository for exchange data. The
// book transaction support is used to lock and downgrade book rows inside
// completion transactions.
func newPgxExchangeRepository(pool *pgxpool.Pool, books portsrepo.BookTransactionSupport) portsrepo.ExchangeRepositoryFacade {
	return &PgxExchangeRepository{BaseRepository: BaseRepository{Pool: pool}, books: books}
}

var _ portsrepo.ExchangeRepositoryFacade = (*PgxExchangeRepository)(nil)

type scannable interface {
	Scan(dest ...any) error
}

func scanExchange(row scannable) (*domain.Exchange, error) {
	var (
		ex             domain.Exchange
		offeredBookID  sql.NullString
		meetingLat     decimal.NullDecimal
		meetingLng     decimal.NullDecimal
		meetingName    sql.NullString
		meetingAddress sql.NullString
		meetingPlaceID sql.NullString
		agreedAt       sql.NullTime
	)
	err := row.Scan(
		&ex.ExchangeID, &ex.RequestedBookID, &offeredBookID, &ex.RequesterID, &ex.ReceiverID,
		&ex.Status, &ex.ConfirmedByRequester, &ex.ConfirmedByReceiver,
		&meetingLat, &meetingLng, &meetingName, &meetingAddress, &meetingPlaceID,
		&ex.ProposedAt, &agreedAt, &ex.Version,
	)
	if err != nil {
		return nil, err
	}
	if offeredBookID.Valid {
		ex.OfferedBookID = &offeredBookID.String
	}
	if meetingLat.Valid && meetingLng.Valid {
		ex.MeetingLocation = &domain.MeetingLocation{
			Latitude:  meetingLat.Decimal,
			Longitude: meetingLng.Decimal,
			Name:      meetingName.String,
			Address:   meetingAddress.String,
			PlaceID:   meetingPlaceID.String,
		}
	}
	if agreedAt.Valid {
		ex.AgreedAt = &agreedAt.Time
	}
	return &ex, nil
}

// exchangeWriteArgs flattens the mutable exchange fields into SQL arguments.
func exchangeWriteArgs(ex domain.Exchange) (offeredBookID sql.NullString, lat, lng decimal.NullDecimal, name, address, placeID sql.NullString, agreedAt sql.NullTime) {
	if ex.OfferedBookID != nil {
		offeredBookID = sql.NullString{String: *ex.OfferedBookID, Valid: true}
	}
	if loc := ex.MeetingLocation; loc != nil {
		lat = decimal.NullDecimal{Decimal: loc.Latitude, Valid: true}
		lng = decimal.NullDecimal{Decimal: loc.Longitude, Valid: true}
		name = sql.NullString{String: loc.Name, Valid: true}
		address = sql.NullString{String: loc.Address, Valid: true}
		if loc.PlaceID != "" {
			placeID = sql.NullString{String: loc.PlaceID, Valid: true}
		}
	}
	if ex.AgreedAt != nil {
		agreedAt = sql.NullTime{Time: *ex.AgreedAt, Valid: true}
	}
	return
}

// FindExchangeByID retrieves an exchange by its identifier.
func (r *PgxExchangeRepository) FindExchangeByID(ctx context.Context, exchangeID string) (*domain.Exchange, error) {
	query := `SELECT ` + exchangeColumns + ` FROM exchanges WHERE exchange_id = $1;`
	ex, err := scanExchange(r.Pool.QueryRow(ctx, query, exchangeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: exchange with ID %s not found", apperrors.ErrNotFound, exchangeID)
		}
		return nil, fmt.Errorf("failed to find exchange %s: %w", exchangeID, err)
	}
	return ex, nil
}

func (r *PgxExchangeRepository) listExchanges(ctx context.Context, column, userID string, limit, offset int) ([]domain.Exchange, error) {
	query := `SELECT ` + exchangeColumns + ` FROM exchanges WHERE ` + column + ` = $1
		ORDER BY proposed_at DESC LIMIT $2 OFFSET $3;`
	rows, err := r.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := make([]domain.Exchange, 0)
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange row: %w", err)
		}
		exchanges = append(exchanges, *ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange rows: %w", err)
	}
	return exchanges, nil
}

// ListExchangesByReceiver retrieves exchanges where the user is the
// receiver, newest proposal first.
func (r *PgxExchangeRepository) ListExchangesByReceiver(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error) {
	return r.listExchanges(ctx, "receiver_id", userID, limit, offset)
}

// ListExchangesByRequester retrieves exchanges where the user is the
// requester, newest proposal first.
func (r *PgxExchangeRepository) ListExchangesByRequester(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error) {
	return r.listExchanges(ctx, "requester_id", userID, limit, offset)
}

// HasPendingExchange reports whether a pending exchange already exists for
// the book between this requester and receiver.
func (r *PgxExchangeRepository) HasPendingExchange(ctx context.Context, bookID, requesterID, receiverID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM exchanges
		WHERE requested_book_id = $1 AND requester_id = $2 AND receiver_id = $3 AND status = $4
	);`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, bookID, requesterID, receiverID, domain.ExchangePending).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending exchange: %w", err)
	}
	return exists, nil
}

// SaveExchange inserts a new exchange.
func (r *PgxExchangeRepository) SaveExchange(ctx context.Context, exchange domain.Exchange) error {
	query := `
		INSERT INTO exchanges (exchange_id, requested_book_id, offered_book_id, requester_id, receiver_id,
			status, confirmed_by_requester, confirmed_by_receiver,
			meeting_latitude, meeting_longitude, meeting_name, meeting_address, meeting_place_id,
			proposed_at, agreed_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	offeredBookID, lat, lng, name, address, placeID, agreedAt := exchangeWriteArgs(exchange)
	_, err := r.Pool.Exec(ctx, query,
		exchange.ExchangeID, exchange.RequestedBookID, offeredBookID, exchange.RequesterID, exchange.ReceiverID,
		exchange.Status, exchange.ConfirmedByRequester, exchange.ConfirmedByReceiver,
		lat, lng, name, address, placeID,
		exchange.ProposedAt, agreedAt, exchange.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: exchange with ID %s already exists", apperrors.ErrDuplicate, exchange.ExchangeID)
		}
		return fmt.Errorf("failed to save exchange %s: %w", exchange.ExchangeID, err)
	}
	return nil
}

// UpdateExchange applies a non-completing transition. The write is
// conditional on the version the exchange was read at; losing the version
// race yields apperrors.ErrConflict.
func (r *PgxExchangeRepository) UpdateExchange(ctx context.Context, exchange domain.Exchange) error {
	query := `
		UPDATE exchanges
		SET offered_book_id = $2, status = $3, confirmed_by_requester = $4, confirmed_by_receiver = $5,
			meeting_latitude = $6, meeting_longitude = $7, meeting_name = $8, meeting_address = $9, meeting_place_id = $10,
			agreed_at = $11, version = version + 1
		WHERE exchange_id = $1 AND version = $12;
	`
	offeredBookID, lat, lng, name, address, placeID, agreedAt := exchangeWriteArgs(exchange)
	tag, err := r.Pool.Exec(ctx, query,
		exchange.ExchangeID, offeredBookID, exchange.Status,
		exchange.ConfirmedByRequester, exchange.ConfirmedByReceiver,
		lat, lng, name, address, placeID,
		agreedAt, exchange.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update exchange %s: %w", exchange.ExchangeID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMissedUpdate(ctx, exchange.ExchangeID)
	}
	return nil
}

// classifyMissedUpdate distinguishes a vanished row from a version race.
func (r *PgxExchangeRepository) classifyMissedUpdate(ctx context.Context, exchangeID string) error {
	var exists bool
	if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM exchanges WHERE exchange_id = $1);`, exchangeID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to classify missed update for exchange %s: %w", exchangeID, err)
	}
	if !exists {
		return fmt.Errorf("%w: exchange with ID %s not found", apperrors.ErrNotFound, exchangeID)
	}
	return fmt.Errorf("%w: exchange %s was modified concurrently", apperrors.ErrConflict, exchangeID)
}

// CompleteExchange atomically finalises the exchange and retires both books.
// It locks the exchange row first, then the book rows in ID order, re-checks
// the state under lock, and commits all writes together.
func (r *PgxExchangeRepository) CompleteExchange(ctx context.Context, exchange domain.Exchange, requestedBookID, offeredBookID string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Rollback(ctx, tx)
	}()

	var (
		dbStatus  domain.ExchangeStatus
		dbVersion int64
	)
	lockQuery := `SELECT status, version FROM exchanges WHERE exchange_id = $1 FOR UPDATE;`
	if err := tx.QueryRow(ctx, lockQuery, exchange.ExchangeID).Scan(&dbStatus, &dbVersion); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: exchange with ID %s not found", apperrors.ErrNotFound, exchange.ExchangeID)
		}
		return fmt.Errorf("failed to lock exchange %s: %w", exchange.ExchangeID, err)
	}
	if dbVersion != exchange.Version {
		return fmt.Errorf("%w: exchange %s was modified concurrently", apperrors.ErrConflict, exchange.ExchangeID)
	}
	if dbStatus != domain.ExchangeAccepted {
		return fmt.Errorf("%w: exchange %s is no longer accepted", apperrors.ErrConflict, exchange.ExchangeID)
	}

	bookIDs := []string{requestedBookID, offeredBookID}
	sort.Strings(bookIDs)
	books, err := r.books.FindBooksByIDsForUpdate(ctx, tx, bookIDs)
	if err != nil {
		return fmt.Errorf("failed to lock books for exchange %s: %w", exchange.ExchangeID, err)
	}
	for _, bookID := range bookIDs {
		book, found := books[bookID]
		if !found {
			return fmt.Errorf("%w: book with ID %s not found", apperrors.ErrNotFound, bookID)
		}
		if book.Status == domain.BookExchanged {
			return fmt.Errorf("%w: book %s was already exchanged", apperrors.ErrInvariantViolation, bookID)
		}
	}

	updateQuery := `
		UPDATE exchanges
		SET status = $2, confirmed_by_requester = TRUE, confirmed_by_receiver = TRUE, agreed_at = $3, version = version + 1
		WHERE exchange_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery, exchange.ExchangeID, domain.ExchangeCompleted, now); err != nil {
		return fmt.Errorf("failed to complete exchange %s: %w", exchange.ExchangeID, err)
	}

	if err := r.books.MarkBooksExchangedInTx(ctx, tx, bookIDs, now); err != nil {
		return fmt.Errorf("failed to retire books for exchange %s: %w", exchange.ExchangeID, err)
	}

	return r.Commit(ctx, tx)
}
