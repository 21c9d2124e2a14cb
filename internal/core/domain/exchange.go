package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeStatus is the negotiation state of an exchange.
type ExchangeStatus string

const (
	ExchangePending   ExchangeStatus = "pending"
	ExchangeAccepted  ExchangeStatus = "accepted"
	ExchangeRejected  ExchangeStatus = "rejected"
	ExchangeCanceled  ExchangeStatus = "canceled"
	ExchangeCompleted ExchangeStatus = "completed"
)

// ParticipantRole identifies which side of an exchange a user is on. The
// receiver is the owner of the requested book at proposal time and is never
// recomputed, even if the book changes hands afterwards.
type ParticipantRole string

const (
	RoleRequester ParticipantRole = "requester"
	RoleReceiver  ParticipantRole = "receiver"
)

// MeetingLocation is the proposed physical handoff point. Coordinates use
// decimal to match the numeric(10,7) storage and avoid float drift.
type MeetingLocation struct {
	Latitude  decimal.Decimal `json:"latitude"`
	Longitude decimal.Decimal `json:"longitude"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	PlaceID   string          `json:"placeID,omitempty"`
}

// Exchange is the aggregate root for a two-party book swap negotiation.
// All mutation goes through the exchange service transition operations;
// Version backs the optimistic concurrency check on every update.
type Exchange struct {
	ExchangeID           string           `json:"exchangeID"`
	RequestedBookID      string           `json:"requestedBookID"`
	OfferedBookID        *string          `json:"offeredBookID,omitempty"`
	RequesterID          string           `json:"requesterID"`
	ReceiverID           string           `json:"receiverID"`
	Status               ExchangeStatus   `json:"status"`
	ConfirmedByRequester bool             `json:"confirmedByRequester"`
	ConfirmedByReceiver  bool             `json:"confirmedByReceiver"`
	MeetingLocation      *MeetingLocation `json:"meetingLocation,omitempty"`
	ProposedAt           time.Time        `json:"proposedAt"`
	AgreedAt             *time.Time       `json:"agreedAt,omitempty"`
	Version              int64            `json:"-"`
}

// RoleOf resolves the caller's role on this exchange. The second return is
// false when the user is not a participant.
func (e *Exchange) RoleOf(userID string) (ParticipantRole, bool) {
	switch userID {
	case e.RequesterID:
		return RoleRequester, true
	case e.ReceiverID:
		return RoleReceiver, true
	default:
		return "", false
	}
}

// CounterpartOf returns the other participant's user ID. The caller must
// already be known to be a participant.
func (e *Exchange) CounterpartOf(userID string) string {
	if userID == e.RequesterID {
		return e.ReceiverID
	}
	return e.RequesterID
}

// HasConfirmed reports whether the participant with the given role has
// already confirmed. Confirmation flags are monotonic: they only ever go
// false -> true.
func (e *Exchange) HasConfirmed(role ParticipantRole) bool {
	if role == RoleRequester {
		return e.ConfirmedByRequester
	}
	return e.ConfirmedByReceiver
}

// BothConfirmed reports whether bilateral confirmation is complete.
func (e *Exchange) BothConfirmed() bool {
	return e.ConfirmedByRequester && e.ConfirmedByReceiver
}
