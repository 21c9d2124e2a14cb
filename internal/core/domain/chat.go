package domain

import "time"

// ChatChannel is a conversation channel between the two participants of an
// exchange. Exactly one channel exists per user pair; channel creation is
// idempotent.
type ChatChannel struct {
	ChannelID  string    `json:"channelID"`
	UserAID    string    `json:"userAID"`
	UserBID    string    `json:"userBID"`
	ExchangeID string    `json:"exchangeID"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HasMember reports whether the user participates in the channel.
func (c *ChatChannel) HasMember(userID string) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// ChatMessage is a single message inside a channel.
type ChatMessage struct {
	MessageID string    `json:"messageID"`
	ChannelID string    `json:"channelID"`
	SenderID  string    `json:"senderID"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
}

// ChatPreview summarises a channel for the conversation list view.
type ChatPreview struct {
	ChannelID     string    `json:"channelID"`
	OtherUserID   string    `json:"otherUserID"`
	OtherUserName string    `json:"otherUserName"`
	LastMessage   string    `json:"lastMessage"`
	LastActivity  time.Time `json:"lastActivity"`
}
