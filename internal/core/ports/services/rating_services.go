package services

import (
	"context"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/dto"
)

// RatingSvcFacade is the post-exchange rating surface. Only participants of
// a completed exchange may rate, each exactly once, always about their
// counterpart.
type RatingSvcFacade interface {
	// RateExchange records the caller's rating of the other participant.
	RateExchange(ctx context.Context, raterID string, req dto.CreateRatingRequest) (*domain.Rating, error)

	// GetUserRatings aggregates the ratings a user has received.
	GetUserRatings(ctx context.Context, userID string) (*domain.UserRatingSummary, error)

	// GetExchangeRatings retrieves both sides' ratings of an exchange.
	GetExchangeRatings(ctx context.Context, exchangeID string) (*domain.ExchangeRatings, error)

	// HasRated reports whether the user already rated the exchange.
	HasRated(ctx context.Context, exchangeID, userID string) (bool, error)
}
