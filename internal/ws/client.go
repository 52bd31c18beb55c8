package ws

import (
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	domainerrors "github.com/campfireapp/campfire-server/internal/errors"
)

const (
	// writeWait is the deadline for a single outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before declaring the peer dead.
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait so a ping is always in flight.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize caps inbound frames.
	maxMessageSize = 32 * 1024
)

// readPump consumes inbound frames until the connection drops, dispatching
// each command on the reader goroutine. Session teardown runs here.
func (s *Session) readPump() {
	defer s.teardown()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Debug("set read deadline", slog.String("error", err.Error()))
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendError(domainerrors.Validation("malformed message"))
			continue
		}
		s.dispatch(msg)
	}
}

// writePump serializes broadcast events, direct frames, and pings onto the
// socket. It ends when the broadcaster closes the client or a write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.teardown()
	}()

	for {
		select {
		case event, ok := <-s.client.Events:
			if !ok {
				// Broadcaster evicted or shut down this client.
				s.writeClose()
				return
			}
			data, err := encodeFrame(eventFrame(event))
			if err != nil {
				s.logger.Error("encode event", slog.String("error", err.Error()))
				continue
			}
			if !s.write(websocket.TextMessage, data) {
				return
			}

		case data := <-s.send:
			if !s.write(websocket.TextMessage, data) {
				return
			}

		case <-ticker.C:
			if !s.write(websocket.PingMessage, nil) {
				return
			}

		case <-s.client.Done:
			s.writeClose()
			return
		}
	}
}

// write sends one frame with a deadline and reports whether the pump
// should continue.
func (s *Session) write(messageType int, data []byte) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Debug("set write deadline", slog.String("error", err.Error()))
		return false
	}
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		s.logger.Debug("write message", slog.String("error", err.Error()))
		return false
	}
	return true
}

// writeClose sends a close frame on a best-effort basis.
func (s *Session) writeClose() {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
}

// logReadError distinguishes ordinary disconnects from real failures.
func (s *Session) logReadError(err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		s.logger.Debug("peer disconnected", slog.String("error", err.Error()))
	case errors.Is(err, websocket.ErrReadLimit):
		s.logger.Warn("inbound frame exceeded size limit")
	case errors.Is(err, io.EOF):
		s.logger.Debug("connection closed")
	default:
		s.logger.Warn("read error", slog.String("error", err.Error()))
	}
}
