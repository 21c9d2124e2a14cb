package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portsrepo "github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ratingColumns = `exchange_id, rater_id, rated_id, stars, review, created_at`

type PgxRatingRepository struct {
	BaseRepository
}

// newPgxRatingRepository creates a new repository for exchange ratings.
func newPgxRatingRepository(pool *pgxpool.Pool) portsrepo.RatingRepository {
	return &PgxRatingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RatingRepository = (*PgxRatingRepository)(nil)

func scanRating(row scannable) (*domain.Rating, error) {
	var rating domain.Rating
	err := row.Scan(&rating.ExchangeID, &rating.RaterID, &rating.RatedID,
		&rating.Stars, &rating.Review, &rating.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// SaveRating inserts a new rating. The primary key on (exchange_id,
// rater_id) makes ratings single-shot per participant.
func (r *PgxRatingRepository) SaveRating(ctx context.Context, rating domain.Rating) error {
	query := `
		INSERT INTO ratings (exchange_id, rater_id, rated_id, stars, review, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query,
		rating.ExchangeID, rating.RaterID, rating.RatedID, rating.Stars, rating.Review, rating.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: exchange %s already rated by user %s", apperrors.ErrDuplicate, rating.ExchangeID, rating.RaterID)
		}
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

// FindRating retrieves the rating a user left on an exchange.
func (r *PgxRatingRepository) FindRating(ctx context.Context, exchangeID, raterID string) (*domain.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE exchange_id = $1 AND rater_id = $2;`
	rating, err := scanRating(r.Pool.QueryRow(ctx, query, exchangeID, raterID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: rating not found", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find rating: %w", err)
	}
	return rating, nil
}

// ListRatingsForUser lists the ratings a user has received, newest first,
// with the rater's display name joined in.
func (r *PgxRatingRepository) ListRatingsForUser(ctx context.Context, ratedID string) ([]domain.RatingWithRater, error) {
	query := `
		SELECT r.exchange_id, r.rater_id, r.rated_id, r.stars, r.review, r.created_at,
			COALESCE(u.name, '') AS rater_name
		FROM ratings r
		LEFT JOIN users u ON u.user_id = r.rater_id
		WHERE r.rated_id = $1
		ORDER BY r.created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, ratedID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]domain.RatingWithRater, 0)
	for rows.Next() {
		var rating domain.RatingWithRater
		if err := rows.Scan(&rating.ExchangeID, &rating.RaterID, &rating.RatedID,
			&rating.Stars, &rating.Review, &rating.CreatedAt, &rating.RaterName); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating rows: %w", err)
	}
	return ratings, nil
}

// ListRatingsForExchange lists the ratings left on an exchange.
func (r *PgxRatingRepository) ListRatingsForExchange(ctx context.Context, exchangeID string) ([]domain.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE exchange_id = $1;`
	rows, err := r.Pool.Query(ctx, query, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]domain.Rating, 0)
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		ratings = append(ratings, *rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating rows: %w", err)
	}
	return ratings, nil
}
