package dto

import (
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// CreateRatingRequest is the payload for rating a completed exchange. The
// rated user is always the caller's counterpart and is not client-supplied.
type CreateRatingRequest struct {
	ExchangeID string `json:"exchangeID" binding:"required"`
	Stars      int    `json:"stars" binding:"required,min=1,max=5"`
	Review     string `json:"review" binding:"max=2000"`
}

// RatingResponse is a single rating returned to clients.
type RatingResponse struct {
	ExchangeID string    `json:"exchangeID"`
	RaterID    string    `json:"raterID"`
	RatedID    string    `json:"ratedID"`
	Stars      int       `json:"stars"`
	Review     string    `json:"review,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserRatingsResponse aggregates a user's received ratings.
type UserRatingsResponse struct {
	Average float64                  `json:"average"`
	Count   int                      `json:"count"`
	Ratings []domain.RatingWithRater `json:"ratings"`
}

// ExchangeRatingsResponse carries both sides' ratings of an exchange.
type ExchangeRatingsResponse struct {
	ByRequester *RatingResponse `json:"byRequester,omitempty"`
	ByReceiver  *RatingResponse `json:"byReceiver,omitempty"`
	BothRated   bool            `json:"bothRated"`
}

// ToRatingResponse converts a domain rating to its response DTO.
func ToRatingResponse(r *domain.Rating) RatingResponse {
	return RatingResponse{
		ExchangeID: r.ExchangeID,
		RaterID:    r.RaterID,
		RatedID:    r.RatedID,
		Stars:      r.Stars,
		Review:     r.Review,
		CreatedAt:  r.CreatedAt,
	}
}

// ToUserRatingsResponse converts a rating summary.
func ToUserRatingsResponse(s *domain.UserRatingSummary) UserRatingsResponse {
	return UserRatingsResponse{Average: s.Average, Count: s.Count, Ratings: s.Ratings}
}

// ToExchangeRatingsResponse converts an exchange's rating pair.
func ToExchangeRatingsResponse(r *domain.ExchangeRatings) ExchangeRatingsResponse {
	resp := ExchangeRatingsResponse{BothRated: r.BothRated}
	if r.ByRequester != nil {
		byRequester := ToRatingResponse(r.ByRequester)
		resp.ByRequester = &byRequester
	}
	if r.ByReceiver != nil {
		byReceiver := ToRatingResponse(r.ByReceiver)
		resp.ByReceiver = &byReceiver
	}
	return resp
}
