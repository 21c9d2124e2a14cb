package dto

import (
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// NotificationResponse is a stored notification returned to clients.
type NotificationResponse struct {
	NotificationID string    `json:"notificationID"`
	SenderID       string    `json:"senderID,omitempty"`
	ExchangeID     *string   `json:"exchangeID,omitempty"`
	Kind           string    `json:"kind"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToNotificationResponse converts a domain notification to its response DTO.
func ToNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		NotificationID: n.NotificationID,
		SenderID:       n.SenderID,
		ExchangeID:     n.ExchangeID,
		Kind:           string(n.Kind),
		Message:        n.Message,
		Read:           n.Read,
		CreatedAt:      n.CreatedAt,
	}
}

// ToNotificationResponses converts a slice of domain notifications.
func ToNotificationResponses(notifications []domain.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, len(notifications))
	for i := range notifications {
		responses[i] = ToNotificationResponse(&notifications[i])
	}
	return responses
}
