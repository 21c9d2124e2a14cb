package domain

import "time"

// NotificationKind categorises stored notifications.
type NotificationKind string

const (
	NotifExchangeRequested NotificationKind = "exchange_requested"
	NotifExchangeAccepted  NotificationKind = "exchange_accepted"
	NotifExchangeRejected  NotificationKind = "exchange_rejected"
	NotifExchangeCanceled  NotificationKind = "exchange_canceled"
	NotifExchangeConfirmed NotificationKind = "exchange_confirmed"
	NotifExchangeCompleted NotificationKind = "exchange_completed"
	NotifBookOffered       NotificationKind = "book_offered"
	NotifLocationProposed  NotificationKind = "location_proposed"
	NotifNewMessage        NotificationKind = "new_message"
)

// Notification is a stored in-app notification. Push delivery of the same
// event is best-effort and independent of this record.
type Notification struct {
	NotificationID string           `json:"notificationID"`
	RecipientID    string           `json:"recipientID"`
	SenderID       string           `json:"senderID,omitempty"`
	ExchangeID     *string          `json:"exchangeID,omitempty"`
	Kind           NotificationKind `json:"kind"`
	Message        string           `json:"message"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"createdAt"`
}
