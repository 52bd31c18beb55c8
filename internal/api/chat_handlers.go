package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/campfireapp/campfire-server/internal/domain"
)

func (s *Server) registerChatRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getChatHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/chat/{channel}/messages",
		Summary:     "Get chat history",
		Description: "Returns the most recent retained messages for a channel, oldest first",
		Tags:        []string{"Chat"},
	}, s.handleChatHistory)
}

// === DTOs ===

// ChatMessageResponse contains chat message data in API responses.
type ChatMessageResponse struct {
	ID        string    `json:"id" doc:"Message ID"`
	Channel   string    `json:"channel" doc:"Channel name"`
	Sender    string    `json:"sender" doc:"Sender display name"`
	SenderID  string    `json:"sender_id" doc:"Sender participant ID"`
	Body      string    `json:"body" doc:"Message body"`
	CreatedAt time.Time `json:"created_at" doc:"Send time"`
}

// ChatHistoryInput contains parameters for fetching chat history.
type ChatHistoryInput struct {
	Channel string `path:"channel" doc:"Channel name"`
	Limit   int    `query:"limit" doc:"Maximum messages to return, 0 for all retained" minimum:"0"`
}

// ChatHistoryResponse contains a channel's recent messages.
type ChatHistoryResponse struct {
	Channel  string                `json:"channel" doc:"Channel name"`
	Messages []ChatMessageResponse `json:"messages" doc:"Messages oldest first"`
}

// ChatHistoryOutput wraps the chat history response for Huma.
type ChatHistoryOutput struct {
	Body ChatHistoryResponse
}

// === Handlers ===

func (s *Server) handleChatHistory(ctx context.Context, input *ChatHistoryInput) (*ChatHistoryOutput, error) {
	messages := s.svc.ChatHistory(ctx, input.Channel, input.Limit)

	resp := make([]ChatMessageResponse, len(messages))
	for i, m := range messages {
		resp[i] = chatMessageResponse(m)
	}

	channel := input.Channel
	if channel == "" {
		channel = domain.GeneralChannel
	}
	return &ChatHistoryOutput{Body: ChatHistoryResponse{
		Channel:  channel,
		Messages: resp,
	}}, nil
}

func chatMessageResponse(m domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		Channel:   m.Channel,
		Sender:    m.SenderDisplayName,
		SenderID:  m.SenderID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}
