package dto

import (
	"time"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
)

// SendMessageRequest is the payload for posting a chat message.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// MessageResponse is a chat message returned to clients.
type MessageResponse struct {
	MessageID string    `json:"messageID"`
	ChannelID string    `json:"channelID"`
	SenderID  string    `json:"senderID"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
}

// ToMessageResponse converts a domain chat message to its response DTO.
func ToMessageResponse(m *domain.ChatMessage) MessageResponse {
	return MessageResponse{
		MessageID: m.MessageID,
		ChannelID: m.ChannelID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		SentAt:    m.SentAt,
	}
}

// ToMessageResponses converts a slice of domain chat messages.
func ToMessageResponses(messages []domain.ChatMessage) []MessageResponse {
	responses := make([]MessageResponse, len(messages))
	for i := range messages {
		responses[i] = ToMessageResponse(&messages[i])
	}
	return responses
}
