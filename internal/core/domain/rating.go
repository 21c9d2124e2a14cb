package domain

import "time"

// Rating is one participant's verdict on a completed exchange. Each
// participant may rate an exchange exactly once, always about the other
// participant.
type Rating struct {
	ExchangeID string    `json:"exchangeID"`
	RaterID    string    `json:"raterID"`
	RatedID    string    `json:"ratedID"`
	Stars      int       `json:"stars"`
	Review     string    `json:"review,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RatingWithRater is a rating joined with the rater's display name for
// profile listings.
type RatingWithRater struct {
	Rating
	RaterName string `json:"raterName"`
}

// UserRatingSummary aggregates the ratings a user has received.
type UserRatingSummary struct {
	Average float64           `json:"average"`
	Count   int               `json:"count"`
	Ratings []RatingWithRater `json:"ratings"`
}

// ExchangeRatings holds both sides' ratings of one exchange; either side may
// be nil while the other participant has not rated yet.
type ExchangeRatings struct {
	ByRequester *Rating `json:"byRequester,omitempty"`
	ByReceiver  *Rating `json:"byReceiver,omitempty"`
	BothRated   bool    `json:"bothRated"`
}
