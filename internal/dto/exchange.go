package dto

import (
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExchangeRequest is the payload for proposing a new exchange.
type CreateExchangeRequest struct {
	RequestedBookID string  `json:"requestedBookID" binding:"required"`
	OfferedBookID   *string `json:"offeredBookID,omitempty"`
}

// DecideExchangeRequest carries the receiver's accept/reject decision.
type DecideExchangeRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accept reject"`
}

// OfferBookRequest attaches the requester's book to the exchange.
type OfferBookRequest struct {
	BookID string `json:"bookID" binding:"required"`
}

// ProposeLocationRequest is the payload for proposing a meeting point.
// Coordinates are validated through the custom decimal latitude/longitude
// validators registered at startup.
type ProposeLocationRequest struct {
	Latitude  decimal.Decimal `json:"latitude" binding:"required,latitude"`
	Longitude decimal.Decimal `json:"longitude" binding:"required,longitude"`
	Name      string          `json:"name" binding:"required,max=255"`
	Address   string          `json:"address" binding:"max=500"`
	PlaceID   string          `json:"placeID,omitempty"`
}

// ToMeetingLocation converts the request into the domain value.
func (r ProposeLocationRequest) ToMeetingLocation() domain.MeetingLocation {
	return domain.MeetingLocation{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Name:      r.Name,
		Address:   r.Address,
		PlaceID:   r.PlaceID,
	}
}

// ExchangeResponse is the exchange snapshot returned by every transition and
// read operation.
type ExchangeResponse struct {
	ExchangeID           string                  `json:"exchangeID"`
	RequestedBookID      string                  `json:"requestedBookID"`
	OfferedBookID        *string                 `json:"offeredBookID,omitempty"`
	RequesterID          string                  `json:"requesterID"`
	ReceiverID           string                  `json:"receiverID"`
	Status               string                  `json:"status"`
	ConfirmedByRequester bool                    `json:"confirmedByRequester"`
	ConfirmedByReceiver  bool                    `json:"confirmedByReceiver"`
	MeetingLocation      *domain.MeetingLocation `json:"meetingLocation,omitempty"`
	ProposedAt           time.Time               `json:"proposedAt"`
	AgreedAt             *time.Time              `json:"agreedAt,omitempty"`
	ChannelID            string                  `json:"channelID,omitempty"`
}

// ConfirmExchangeResponse reports the confirmation outcome; Completed is
// false when the engine recorded a unilateral confirmation and is still
// waiting for the counterpart.
type ConfirmExchangeResponse struct {
	Exchange  ExchangeResponse `json:"exchange"`
	Completed bool             `json:"completed"`
}

// ToExchangeResponse converts a domain exchange to its response DTO.
func ToExchangeResponse(e *domain.Exchange) ExchangeResponse {
	return ExchangeResponse{
		ExchangeID:           e.ExchangeID,
		RequestedBookID:      e.RequestedBookID,
		OfferedBookID:        e.OfferedBookID,
		RequesterID:          e.RequesterID,
		ReceiverID:           e.ReceiverID,
		Status:               string(e.Status),
		ConfirmedByRequester: e.ConfirmedByRequester,
		ConfirmedByReceiver:  e.ConfirmedByReceiver,
		MeetingLocation:      e.MeetingLocation,
		ProposedAt:           e.ProposedAt,
		AgreedAt:             e.AgreedAt,
	}
}

// ToExchangeResponses converts a slice of domain exchanges.
func ToExchangeResponses(exchanges []domain.Exchange) []ExchangeResponse {
	responses := make([]ExchangeResponse, len(exchanges))
	for i := range exchanges {
		responses[i] = ToExchangeResponse(&exchanges[i])
	}
	return responses
}
