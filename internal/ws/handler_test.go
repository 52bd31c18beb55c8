package ws

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campfireapp/campfire-server/internal/config"
	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/identity"
	"github.com/campfireapp/campfire-server/internal/realtime"
	"github.com/campfireapp/campfire-server/internal/service"
	"github.com/campfireapp/campfire-server/internal/store"
)

type testEnv struct {
	server   *httptest.Server
	svc      *service.CommunityService
	resolver *identity.Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broadcaster := realtime.NewBroadcaster(config.RealtimeConfig{}, realtime.NewRegistry(), logger)
	st := store.New(store.DefaultHistoryLimit, logger, broadcaster)

	ctx, cancel := context.WithCancel(context.Background())
	go broadcaster.Start(ctx)
	t.Cleanup(cancel)

	svc := service.NewCommunityService(st, broadcaster, logger)
	resolver := identity.NewResolver("test-secret", logger)
	handler := NewHandler(svc, broadcaster, resolver, config.ChatConfig{
		HistoryLimit:         store.DefaultHistoryLimit,
		TypingTimeout:        100 * time.Millisecond,
		MessageRatePerSecond: 100,
		MessageBurst:         100,
	}, logger)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &testEnv{server: server, svc: svc, resolver: resolver}
}

func (e *testEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http")
	if token != "" {
		url += "?token=" + token
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type receivedFrame struct {
	Type    string         `json:"type"`
	Payload jsontext.Value `json:"payload"`
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType MessageType, payload any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// awaitFrame reads frames until one of the wanted type arrives, skipping
// unrelated broadcasts.
func awaitFrame(t *testing.T, conn *websocket.Conn, wantType string) receivedFrame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for frame %q", wantType)
		var frame receivedFrame
		require.NoError(t, json.Unmarshal(raw, &frame))
		if frame.Type == wantType {
			return frame
		}
	}
}

func decodeData[T any](t *testing.T, frame receivedFrame) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(frame.Payload, &out))
	return out
}

func join(t *testing.T, conn *websocket.Conn, displayName string) JoinedData {
	t.Helper()
	sendMessage(t, conn, MessageJoin, JoinPayload{DisplayName: displayName})
	frame := awaitFrame(t, conn, FrameJoined)
	return decodeData[JoinedData](t, frame)
}

func TestSession_JoinAck(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "")

	ack := join(t, conn, "Visitor")

	assert.NotEmpty(t, ack.ConnectionID)
	assert.Equal(t, domain.GuestID, ack.Participant.ID)
	assert.Equal(t, "Visitor", ack.Participant.DisplayName)
	assert.Equal(t, 1, ack.OnlineCount)
	assert.Contains(t, ack.Channels, domain.GeneralChannel)
}

func TestSession_AuthenticatedJoinKeepsTokenIdentity(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.resolver.Sign(domain.Participant{ID: "user-1", DisplayName: "Sarah Chen"})
	require.NoError(t, err)

	conn := env.dial(t, token)
	// The display name in the join payload must not override the token.
	ack := join(t, conn, "Impostor")

	assert.Equal(t, "user-1", ack.Participant.ID)
	assert.Equal(t, "Sarah Chen", ack.Participant.DisplayName)
}

func TestSession_CommandsBeforeJoinRejected(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "")

	sendMessage(t, conn, MessageChatSend, ChatSendPayload{Body: "hello"})
	frame := awaitFrame(t, conn, FrameError)
	errData := decodeData[ErrorData](t, frame)
	assert.Equal(t, "NOT_JOINED", errData.Code)

	sendMessage(t, conn, MessageTypingStart, ChannelPayload{Channel: "general"})
	frame = awaitFrame(t, conn, FrameError)
	errData = decodeData[ErrorData](t, frame)
	assert.Equal(t, "NOT_JOINED", errData.Code)

	// Nothing was stored.
	assert.Empty(t, env.svc.ChatHistory(context.Background(), "general", 0))
}

func TestSession_ChatMessageReachesSubscribers(t *testing.T) {
	env := newTestEnv(t)

	sender := env.dial(t, "")
	receiver := env.dial(t, "")
	join(t, sender, "Alice")
	join(t, receiver, "Bob")

	sendMessage(t, sender, MessageChatSend, ChatSendPayload{Body: "hello everyone"})

	frame := awaitFrame(t, receiver, string(realtime.EventChatMessage))
	data := decodeData[realtime.ChatMessageData](t, frame)
	assert.Equal(t, "hello everyone", data.Message.Body)
	assert.Equal(t, domain.GeneralChannel, data.Message.Channel)

	// The sender receives their own message too.
	frame = awaitFrame(t, sender, string(realtime.EventChatMessage))
	data = decodeData[realtime.ChatMessageData](t, frame)
	assert.Equal(t, "hello everyone", data.Message.Body)
}

func TestSession_EmptyChatBodyRejected(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "")
	join(t, conn, "Alice")

	sendMessage(t, conn, MessageChatSend, ChatSendPayload{Body: ""})
	frame := awaitFrame(t, conn, FrameError)
	errData := decodeData[ErrorData](t, frame)
	assert.Equal(t, "VALIDATION", errData.Code)
}

func TestSession_TypingAutoStops(t *testing.T) {
	env := newTestEnv(t)

	typist := env.dial(t, "")
	watcher := env.dial(t, "")
	join(t, typist, "Alice")
	join(t, watcher, "Bob")

	sendMessage(t, typist, MessageTypingStart, nil)

	frame := awaitFrame(t, watcher, string(realtime.EventTypingStart))
	data := decodeData[realtime.TypingData](t, frame)
	assert.Equal(t, domain.GeneralChannel, data.Channel)
	assert.Equal(t, "Alice", data.DisplayName)

	// No explicit stop: the timeout fires after 100ms.
	frame = awaitFrame(t, watcher, string(realtime.EventTypingStop))
	data = decodeData[realtime.TypingData](t, frame)
	assert.Equal(t, "Alice", data.DisplayName)
}

func TestSession_SendingStopsTyping(t *testing.T) {
	env := newTestEnv(t)

	typist := env.dial(t, "")
	watcher := env.dial(t, "")
	join(t, typist, "Alice")
	join(t, watcher, "Bob")

	sendMessage(t, typist, MessageTypingStart, nil)
	awaitFrame(t, watcher, string(realtime.EventTypingStart))

	sendMessage(t, typist, MessageChatSend, ChatSendPayload{Body: "done typing"})

	// The stop arrives before the message: sending implies typing ended.
	frame := awaitFrame(t, watcher, string(realtime.EventTypingStop))
	assert.Equal(t, string(realtime.EventTypingStop), frame.Type)
	awaitFrame(t, watcher, string(realtime.EventChatMessage))
}

func TestSession_DisconnectAnnouncesDeparture(t *testing.T) {
	env := newTestEnv(t)

	leaver := env.dial(t, "")
	watcher := env.dial(t, "")
	join(t, leaver, "Alice")
	join(t, watcher, "Bob")

	require.NoError(t, leaver.Close())

	frame := awaitFrame(t, watcher, string(realtime.EventPresenceChanged))
	data := decodeData[realtime.PresenceChangedData](t, frame)
	// Skip the online announcement from Alice's own join if it is still
	// queued; wait until the offline one arrives.
	for data.Status != domain.PresenceOffline {
		frame = awaitFrame(t, watcher, string(realtime.EventPresenceChanged))
		data = decodeData[realtime.PresenceChangedData](t, frame)
	}
	assert.Equal(t, "Alice", data.DisplayName)

	frame = awaitFrame(t, watcher, string(realtime.EventPresenceCount))
	countData := decodeData[realtime.PresenceCountData](t, frame)
	assert.Equal(t, 1, countData.Count)
}

func TestSession_SubscribeScopesChat(t *testing.T) {
	env := newTestEnv(t)

	sender := env.dial(t, "")
	insider := env.dial(t, "")
	outsider := env.dial(t, "")
	join(t, sender, "Alice")
	join(t, insider, "Bob")
	join(t, outsider, "Carol")

	sendMessage(t, sender, MessageSubscribe, ChannelPayload{Channel: "golang"})
	sendMessage(t, insider, MessageSubscribe, ChannelPayload{Channel: "golang"})

	// Let the subscriptions land before sending.
	time.Sleep(50 * time.Millisecond)
	sendMessage(t, sender, MessageChatSend, ChatSendPayload{Channel: "golang", Body: "scoped"})

	frame := awaitFrame(t, insider, string(realtime.EventChatMessage))
	data := decodeData[realtime.ChatMessageData](t, frame)
	assert.Equal(t, "golang", data.Message.Channel)

	// The outsider sees nothing on that channel.
	require.NoError(t, outsider.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	for {
		_, raw, err := outsider.ReadMessage()
		if err != nil {
			break // deadline: no scoped message arrived
		}
		var frame receivedFrame
		require.NoError(t, json.Unmarshal(raw, &frame))
		require.NotEqual(t, string(realtime.EventChatMessage), frame.Type,
			"outsider must not receive channel-scoped chat")
	}
}
