package repositories

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// RatingRepository defines persistence operations for exchange ratings.
type RatingRepository interface {
	// SaveRating persists a new rating. A second rating by the same user for
	// the same exchange yields apperrors.ErrDuplicate.
	SaveRating(ctx context.Context, rating domain.Rating) error

	// FindRating retrieves the rating a user left on an exchange.
	FindRating(ctx context.Context, exchangeID, raterID string) (*domain.Rating, error)

	// ListRatingsForUser lists the ratings a user has received, newest
	// first, with rater names attached.
	ListRatingsForUser(ctx context.Context, ratedID string) ([]domain.RatingWithRater, error)

	// ListRatingsForExchange lists the ratings left on an exchange.
	ListRatingsForExchange(ctx context.Context, exchangeID string) ([]domain.Rating, error)
}
