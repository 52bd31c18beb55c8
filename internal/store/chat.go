package store

import (
	"slices"
	"time"

	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/errors"
	"github.com/campfireapp/campfire-server/internal/id"
	"github.com/campfireapp/campfire-server/internal/realtime"
)

// AppendChatMessage appends a message to a channel's sequence and emits it
// before releasing the channel lock, so subscribers see messages in append
// order. When the sequence exceeds the history limit the oldest messages
// are evicted before returning, so a channel never holds more than the
// limit.
func (s *Store) AppendChatMessage(channel string, sender domain.Participant, input domain.SendChatInput) (*domain.ChatMessage, error) {
	if channel == "" {
		channel = domain.GeneralChannel
	}

	msgID, err := id.Generate("msg")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate message id")
	}

	msg := domain.ChatMessage{
		ID:                msgID,
		Channel:           channel,
		SenderID:          sender.ID,
		SenderDisplayName: sender.DisplayName,
		Body:              input.Body,
		CreatedAt:         time.Now(),
	}

	s.chatMu.Lock()
	seq := append(s.chat[channel], msg)
	if excess := len(seq) - s.historyLimit; excess > 0 {
		// FIFO eviction: drop from the front, release the backing array.
		seq = slices.Clone(seq[excess:])
	}
	s.chat[channel] = seq
	s.emitter.Emit(realtime.NewChatMessageEvent(msg))
	s.chatMu.Unlock()

	return &msg, nil
}

// ChatHistory returns up to limit of the channel's most recent messages in
// chronological order. A limit <= 0 returns the full retained sequence.
func (s *Store) ChatHistory(channel string, limit int) []domain.ChatMessage {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	seq := s.chat[channel]
	if limit > 0 && len(seq) > limit {
		seq = seq[len(seq)-limit:]
	}
	return slices.Clone(seq)
}
