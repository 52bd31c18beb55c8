// Package ws implements the WebSocket transport: connection upgrade,
// inbound command dispatch, and outbound event delivery for one session
// per socket.
package ws

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"time"

	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/realtime"
)

// MessageType identifies an inbound client command.
type MessageType string

const (
	// MessageJoin announces the participant and brings the session online.
	MessageJoin MessageType = "join"
	// MessageSubscribe adds the session to a chat channel.
	MessageSubscribe MessageType = "subscribe"
	// MessageUnsubscribe removes the session from a chat channel.
	MessageUnsubscribe MessageType = "unsubscribe"
	// MessageChatSend publishes a chat message.
	MessageChatSend MessageType = "chat.send"
	// MessageTypingStart signals the participant started typing.
	MessageTypingStart MessageType = "chat.typing.start"
	// MessageTypingStop signals the participant stopped typing.
	MessageTypingStop MessageType = "chat.typing.stop"
)

// InboundMessage is the wire envelope for client commands. The payload is
// decoded per message type after dispatch.
type InboundMessage struct {
	Type    MessageType    `json:"type"`
	Payload jsontext.Value `json:"payload,omitzero"`
}

// JoinPayload carries optional join parameters. Guests may pick a display
// name; authenticated participants keep the name from their token.
type JoinPayload struct {
	DisplayName string `json:"displayName,omitzero"`
}

// ChannelPayload carries a channel name for subscribe, unsubscribe, and
// typing commands.
type ChannelPayload struct {
	Channel string `json:"channel,omitzero"`
}

// ChatSendPayload carries an outgoing chat message.
type ChatSendPayload struct {
	Channel string `json:"channel,omitzero"`
	Body    string `json:"body"`
}

// Frame is the wire envelope for everything the server sends.
type Frame struct {
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitzero"`
	Type      string    `json:"type"`
}

// Server-originated frame types that are not broadcast events.
const (
	// FrameJoined acknowledges a successful join.
	FrameJoined = "joined"
	// FrameError reports a rejected command.
	FrameError = "error"
)

// JoinedData is the payload for the join acknowledgement.
type JoinedData struct {
	ConnectionID string             `json:"connectionId"`
	Participant  domain.Participant `json:"participant"`
	OnlineCount  int                `json:"onlineCount"`
	Channels     []string           `json:"channels"`
}

// ErrorData is the payload for error frames.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// eventFrame converts a broadcast event to its wire envelope.
func eventFrame(event realtime.Event) Frame {
	return Frame{
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Payload:   event.Data,
	}
}

// encodeFrame marshals a frame for the write pump. Payload types are all
// known structs, so a marshal failure is a programming error; callers log
// and drop the frame rather than killing the connection.
func encodeFrame(frame Frame) ([]byte, error) {
	return json.Marshal(frame)
}
