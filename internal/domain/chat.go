package domain

import "time"

// GeneralChannel is the channel every connection joins on identify.
const GeneralChannel = "general"

// ChatMessage represents a message in a named chat channel.
// Per-channel history is capped; the store evicts oldest-first.
type ChatMessage struct {
	ID                string    `json:"id"`
	Channel           string    `json:"channel"`
	SenderID          string    `json:"sender_id"`
	SenderDisplayName string    `json:"sender_display_name"`
	Body              string    `json:"body"`
	CreatedAt         time.Time `json:"created_at"`
}

// SendChatInput carries the fields supplied when sending a chat message.
type SendChatInput struct {
	Channel string `json:"channel,omitempty"`
	Body    string `json:"body" validate:"required"`
}
