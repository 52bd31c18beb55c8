package ws

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"sync"
	"time"

	"github.com/campfireapp/campfire-server/internal/config"
	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/errors"
	"github.com/campfireapp/campfire-server/internal/ratelimit"
	"github.com/campfireapp/campfire-server/internal/realtime"
	"github.com/campfireapp/campfire-server/internal/service"

	"github.com/gorilla/websocket"
)

// sessionState tracks the connection lifecycle. Sessions start connecting,
// move to joined after a join command, and end closed. There is no path
// back from closed.
type sessionState int

const (
	stateConnecting sessionState = iota
	stateJoined
	stateClosed
)

// Session binds one WebSocket connection to one realtime client. The read
// pump dispatches inbound commands; the write pump serializes broadcast
// events and direct frames onto the socket.
type Session struct {
	conn     *websocket.Conn
	client   *realtime.Client
	svc      *service.CommunityService
	registry *realtime.Registry
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
	cfg      config.ChatConfig

	// Direct frames (acks, errors) bypass the broadcast engine.
	send chan []byte

	mu          sync.Mutex
	state       sessionState
	participant domain.Participant
	typing      map[string]*time.Timer // channel -> auto-stop timer

	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, client *realtime.Client, participant domain.Participant,
	svc *service.CommunityService, registry *realtime.Registry, limiter *ratelimit.KeyedRateLimiter,
	cfg config.ChatConfig, logger *slog.Logger) *Session {
	return &Session{
		conn:        conn,
		client:      client,
		svc:         svc,
		registry:    registry,
		limiter:     limiter,
		cfg:         cfg,
		logger:      logger.With(slog.String("connection_id", client.ID)),
		send:        make(chan []byte, 32),
		state:       stateConnecting,
		participant: participant,
		typing:      make(map[string]*time.Timer),
	}
}

// run starts the pumps and blocks until the connection ends.
func (s *Session) run() {
	go s.writePump()
	s.readPump()
}

// dispatch routes one inbound message. Errors are reported back to the
// client as error frames; none of them end the connection.
func (s *Session) dispatch(msg InboundMessage) {
	switch msg.Type {
	case MessageJoin:
		s.handleJoin(msg)
	case MessageSubscribe:
		s.handleSubscribe(msg, true)
	case MessageUnsubscribe:
		s.handleSubscribe(msg, false)
	case MessageChatSend:
		s.handleChatSend(msg)
	case MessageTypingStart:
		s.handleTyping(msg, true)
	case MessageTypingStop:
		s.handleTyping(msg, false)
	default:
		s.sendError(errors.Validationf("unknown message type %q", msg.Type))
	}
}

func (s *Session) handleJoin(msg InboundMessage) {
	var payload JoinPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			s.sendError(errors.Validation("malformed join payload"))
			return
		}
	}

	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	// Guests may pick a display name at join time. Authenticated
	// participants keep the identity from their token.
	if s.participant.IsGuest() && payload.DisplayName != "" {
		s.participant.DisplayName = payload.DisplayName
	}
	participant := s.participant
	alreadyJoined := s.state == stateJoined
	s.state = stateJoined
	s.mu.Unlock()

	// Joining replaces the presence entry, so a repeated join just
	// refreshes the roster rather than double-counting.
	s.svc.JoinPresence(s.client.ID, participant)
	if !alreadyJoined {
		s.registry.Subscribe(s.client.ID, domain.GeneralChannel)
	}

	s.sendFrame(Frame{
		Type:      FrameJoined,
		Timestamp: time.Now(),
		Payload: JoinedData{
			ConnectionID: s.client.ID,
			Participant:  participant,
			OnlineCount:  s.svc.PresenceCount(context.Background()),
			Channels:     s.registry.Channels(s.client.ID),
		},
	})

	s.logger.Info("session joined",
		slog.String("participant_id", participant.ID),
		slog.Bool("rejoin", alreadyJoined))
}

func (s *Session) handleSubscribe(msg InboundMessage, subscribe bool) {
	if !s.joined() {
		s.sendError(errors.NotJoined("join before managing channels"))
		return
	}

	var payload ChannelPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Channel == "" {
		s.sendError(errors.Validation("channel is required"))
		return
	}

	if subscribe {
		s.registry.Subscribe(s.client.ID, payload.Channel)
	} else {
		s.stopTypingIn(payload.Channel)
		s.registry.Unsubscribe(s.client.ID, payload.Channel)
	}
}

func (s *Session) handleChatSend(msg InboundMessage) {
	if !s.joined() {
		s.sendError(errors.NotJoined("join before sending messages"))
		return
	}

	if !s.limiter.Allow(s.client.ID) {
		s.sendError(errors.Validation("sending too fast, slow down"))
		return
	}

	var payload ChatSendPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.sendError(errors.Validation("malformed chat payload"))
		return
	}

	// Sending a message implies the participant stopped typing.
	channel := payload.Channel
	if channel == "" {
		channel = domain.GeneralChannel
	}
	s.stopTypingIn(channel)

	_, err := s.svc.SendChatMessage(context.Background(), s.participantSnapshot(), domain.SendChatInput{
		Channel: payload.Channel,
		Body:    payload.Body,
	})
	if err != nil {
		s.sendError(err)
	}
}

func (s *Session) handleTyping(msg InboundMessage, start bool) {
	if !s.joined() {
		s.sendError(errors.NotJoined("join before typing"))
		return
	}

	var payload ChannelPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			s.sendError(errors.Validation("malformed typing payload"))
			return
		}
	}
	channel := payload.Channel
	if channel == "" {
		channel = domain.GeneralChannel
	}

	if start {
		s.startTypingIn(channel)
	} else {
		s.stopTypingIn(channel)
	}
}

// startTypingIn announces typing and arms the auto-stop timer. A repeated
// start rearms the timer instead of stacking announcements.
func (s *Session) startTypingIn(channel string) {
	s.mu.Lock()
	if s.state != stateJoined {
		s.mu.Unlock()
		return
	}
	timer, active := s.typing[channel]
	if active {
		timer.Reset(s.cfg.TypingTimeout)
		s.mu.Unlock()
		return
	}
	s.typing[channel] = time.AfterFunc(s.cfg.TypingTimeout, func() {
		s.stopTypingIn(channel)
	})
	participant := s.participant
	s.mu.Unlock()

	s.svc.StartTyping(channel, s.client.ID, participant)
}

// stopTypingIn cancels the timer and announces the stop. Stopping when not
// typing is a no-op, so the explicit command, the auto-stop timer, and the
// implicit stop on message send never double-announce.
func (s *Session) stopTypingIn(channel string) {
	s.mu.Lock()
	timer, active := s.typing[channel]
	if active {
		timer.Stop()
		delete(s.typing, channel)
	}
	participant := s.participant
	s.mu.Unlock()

	if !active {
		return
	}
	s.svc.StopTyping(channel, s.client.ID, participant)
}

func (s *Session) joined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateJoined
}

func (s *Session) participantSnapshot() domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participant
}

// teardown releases everything the session holds. Safe to call from either
// pump; only the first call acts.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = stateClosed
		channels := make([]string, 0, len(s.typing))
		for channel, timer := range s.typing {
			timer.Stop()
			channels = append(channels, channel)
		}
		clear(s.typing)
		participant := s.participant
		s.mu.Unlock()

		// Other subscribers should not be left with a stuck indicator.
		for _, channel := range channels {
			s.svc.StopTyping(channel, s.client.ID, participant)
		}

		s.svc.LeavePresence(s.client.ID)
		s.limiter.Remove(s.client.ID)

		if err := s.conn.Close(); err != nil {
			s.logger.Debug("close connection", slog.String("error", err.Error()))
		}
		s.logger.Info("session closed")
	})
}

// sendFrame queues a direct frame for the write pump.
func (s *Session) sendFrame(frame Frame) {
	data, err := encodeFrame(frame)
	if err != nil {
		s.logger.Error("encode frame", slog.String("error", err.Error()))
		return
	}
	select {
	case s.send <- data:
	default:
		s.logger.Warn("direct frame buffer full, dropping frame",
			slog.String("frame_type", frame.Type))
	}
}

// sendError reports a rejected command to the client.
func (s *Session) sendError(err error) {
	code := errors.CodeInternal
	message := "internal error"

	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
	}

	s.sendFrame(Frame{
		Type:      FrameError,
		Timestamp: time.Now(),
		Payload: ErrorData{
			Code:    string(code),
			Message: message,
		},
	})
}
