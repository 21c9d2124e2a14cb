package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/bookswapp/bookswap_backend/internal/core/ports/repositories"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
)

// Named errors for rating operations.
var (
	ErrExchangeNotRateable = fmt.Errorf("%w: only completed exchanges can be rated", apperrors.ErrInvariantViolation)
	ErrAlreadyRated        = fmt.Errorf("%w: exchange already rated by this user", apperrors.ErrDuplicate)
)

type ratingService struct {
	BaseService
	ratingRepo   repositories.RatingRepository
	exchangeRepo repositories.ExchangeReader
	clock        func() time.Time
}

var _ portssvc.RatingSvcFacade = (*ratingService)(nil)

// RatingServiceOption customizes the rating service.
type RatingServiceOption func(*ratingService)

// WithRatingClock overrides the time source.
func WithRatingClock(clock func() time.Time) RatingServiceOption {
	return func(s *ratingService) { s.clock = clock }
}

// NewRatingService creates a new exchange rating service.
func NewRatingService(ratingRepo repositories.RatingRepository, exchangeRepo repositories.ExchangeReader, opts ...RatingServiceOption) portssvc.RatingSvcFacade {
	s := &ratingService{
		ratingRepo:   ratingRepo,
		exchangeRepo: exchangeRepo,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RateExchange records the caller's rating of their counterpart on a
// completed exchange. Single-shot per participant; the rated user is derived
// from the exchange, never taken from the client.
func (s *ratingService) RateExchange(ctx context.Context, raterID string, req dto.CreateRatingRequest) (*domain.Rating, error) {
	logger := s.GetLogger(ctx).With("op", "RateExchange", "exchangeID", req.ExchangeID, "raterID", raterID)

	exchange, err := s.exchangeRepo.FindExchangeByID(ctx, req.ExchangeID)
	if err != nil {
		return nil, err
	}
	if _, ok := exchange.RoleOf(raterID); !ok {
		return nil, ErrNotParticipant
	}
	if exchange.Status != domain.ExchangeCompleted {
		return nil, ErrExchangeNotRateable
	}

	if _, err := s.ratingRepo.FindRating(ctx, req.ExchangeID, raterID); err == nil {
		return nil, ErrAlreadyRated
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("failed to check existing rating", "error", err)
		return nil, fmt.Errorf("failed to check existing rating: %w", err)
	}

	rating := domain.Rating{
		ExchangeID: req.ExchangeID,
		RaterID:    raterID,
		RatedID:    exchange.CounterpartOf(raterID),
		Stars:      req.Stars,
		Review:     req.Review,
		CreatedAt:  s.clock(),
	}
	if err := s.ratingRepo.SaveRating(ctx, rating); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, ErrAlreadyRated
		}
		logger.Error("failed to save rating", "error", err)
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	logger.Info("exchange rated", "stars", rating.Stars)
	return &rating, nil
}

// GetUserRatings aggregates the ratings a user has received. The average is
// rounded to one decimal place.
func (s *ratingService) GetUserRatings(ctx context.Context, userID string) (*domain.UserRatingSummary, error) {
	ratings, err := s.ratingRepo.ListRatingsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}

	summary := domain.UserRatingSummary{Count: len(ratings), Ratings: ratings}
	if len(ratings) > 0 {
		var sum int
		for _, r := range ratings {
			sum += r.Stars
		}
		summary.Average = math.Round(float64(sum)/float64(len(ratings))*10) / 10
	}
	return &summary, nil
}

// GetExchangeRatings retrieves both sides' ratings of an exchange.
func (s *ratingService) GetExchangeRatings(ctx context.Context, exchangeID string) (*domain.ExchangeRatings, error) {
	exchange, err := s.exchangeRepo.FindExchangeByID(ctx, exchangeID)
	if err != nil {
		return nil, err
	}

	ratings, err := s.ratingRepo.ListRatingsForExchange(ctx, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange ratings: %w", err)
	}

	result := domain.ExchangeRatings{}
	for i := range ratings {
		switch ratings[i].RaterID {
		case exchange.RequesterID:
			result.ByRequester = &ratings[i]
		case exchange.ReceiverID:
			result.ByReceiver = &ratings[i]
		}
	}
	result.BothRated = result.ByRequester != nil && result.ByReceiver != nil
	return &result, nil
}

// HasRated reports whether the user already rated the exchange.
func (s *ratingService) HasRated(ctx context.Context, exchangeID, userID string) (bool, error) {
	_, err := s.ratingRepo.FindRating(ctx, exchangeID, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check rating: %w", err)
}
