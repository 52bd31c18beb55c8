// Package realtime implements the broadcast engine: a registry of channel
// subscriptions and a fan-out loop that delivers community events to
// connected clients.
package realtime

import (
	"time"

	"github.com/campfireapp/campfire-server/internal/domain"
)

// EventType represents the type of broadcast event.
type EventType string

const (
	// EventPostCreated announces a newly published post.
	EventPostCreated EventType = "post.created"
	// EventPostLiked announces a like count change on a post.
	EventPostLiked EventType = "post.liked"
	// EventCommentCreated announces a new comment on a post.
	EventCommentCreated EventType = "comment.created"

	// EventChatMessage carries a chat message to channel subscribers.
	EventChatMessage EventType = "chat.message"
	// EventTypingStart signals a participant started typing in a channel.
	EventTypingStart EventType = "chat.typing.start"
	// EventTypingStop signals a participant stopped typing in a channel.
	EventTypingStop EventType = "chat.typing.stop"

	// EventPresenceChanged announces a participant going online or offline.
	EventPresenceChanged EventType = "presence.changed"
	// EventPresenceCount carries the current online connection count.
	EventPresenceCount EventType = "presence.count"
)

// Event is a broadcast event delivered to clients.
// The Data field is the event payload, serialized as-is on the wire.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// Audience fields. Empty Channel means deliver to every connected
	// client; otherwise only subscribers of that channel receive the
	// event. ExcludeID skips one connection, used so a typing
	// participant does not echo their own indicator.
	Channel   string `json:"-"`
	ExcludeID string `json:"-"`
}

// PostCreatedData is the payload for post.created events.
type PostCreatedData struct {
	Post domain.Post `json:"post"`
}

// PostLikedData is the payload for post.liked events.
type PostLikedData struct {
	PostID    string `json:"postId"`
	LikeCount int    `json:"likeCount"`
}

// CommentCreatedData is the payload for comment.created events.
type CommentCreatedData struct {
	PostID  string         `json:"postId"`
	Comment domain.Comment `json:"comment"`
}

// ChatMessageData is the payload for chat.message events.
type ChatMessageData struct {
	Message domain.ChatMessage `json:"message"`
}

// TypingData is the payload for typing start/stop events.
type TypingData struct {
	Channel       string `json:"channel"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

// PresenceChangedData is the payload for presence.changed events.
type PresenceChangedData struct {
	ParticipantID string                `json:"participantId"`
	DisplayName   string                `json:"displayName"`
	Status        domain.PresenceStatus `json:"status"`
}

// PresenceCountData is the payload for presence.count events.
type PresenceCountData struct {
	Count int `json:"count"`
}

// NewPostCreatedEvent creates a post.created event for all clients.
func NewPostCreatedEvent(post domain.Post) Event {
	return Event{
		Type:      EventPostCreated,
		Data:      PostCreatedData{Post: post},
		Timestamp: time.Now(),
	}
}

// NewPostLikedEvent creates a post.liked event for all clients.
func NewPostLikedEvent(postID string, likeCount int) Event {
	return Event{
		Type: EventPostLiked,
		Data: PostLikedData{
			PostID:    postID,
			LikeCount: likeCount,
		},
		Timestamp: time.Now(),
	}
}

// NewCommentCreatedEvent creates a comment.created event for all clients.
func NewCommentCreatedEvent(comment domain.Comment) Event {
	return Event{
		Type: EventCommentCreated,
		Data: CommentCreatedData{
			PostID:  comment.PostID,
			Comment: comment,
		},
		Timestamp: time.Now(),
	}
}

// NewChatMessageEvent creates a chat.message event scoped to the
// message's channel.
func NewChatMessageEvent(msg domain.ChatMessage) Event {
	return Event{
		Type:      EventChatMessage,
		Data:      ChatMessageData{Message: msg},
		Timestamp: time.Now(),
		Channel:   msg.Channel,
	}
}

// NewTypingStartEvent creates a chat.typing.start event scoped to the
// channel, excluding the typing participant's own connection.
func NewTypingStartEvent(channel, connectionID string, p domain.Participant) Event {
	return Event{
		Type: EventTypingStart,
		Data: TypingData{
			Channel:       channel,
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
		},
		Timestamp: time.Now(),
		Channel:   channel,
		ExcludeID: connectionID,
	}
}

// NewTypingStopEvent creates a chat.typing.stop event scoped to the
// channel, excluding the typing participant's own connection.
func NewTypingStopEvent(channel, connectionID string, p domain.Participant) Event {
	return Event{
		Type: EventTypingStop,
		Data: TypingData{
			Channel:       channel,
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
		},
		Timestamp: time.Now(),
		Channel:   channel,
		ExcludeID: connectionID,
	}
}

// NewPresenceChangedEvent creates a presence.changed event for all clients.
func NewPresenceChangedEvent(p domain.Participant, status domain.PresenceStatus) Event {
	return Event{
		Type: EventPresenceChanged,
		Data: PresenceChangedData{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Status:        status,
		},
		Timestamp: time.Now(),
	}
}

// NewPresenceCountEvent creates a presence.count event for all clients.
func NewPresenceCountEvent(count int) Event {
	return Event{
		Type:      EventPresenceCount,
		Data:      PresenceCountData{Count: count},
		Timestamp: time.Now(),
	}
}
