// Package store holds the authoritative in-memory model: posts, comments,
// chat messages, and presence. State is volatile and lives only in process
// memory; callers must go through the defined operations, never the maps.
//
// Each top-level collection is guarded by its own mutex. No operation spans
// two collections atomically, so there is no joint lock. Every mutation
// emits its event through the EventEmitter while still holding the
// collection's lock, so the emitter sees events in exactly the order the
// mutations were applied.
package store

import (
	"log/slog"
	"sync"

	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/realtime"
)

// DefaultHistoryLimit caps per-channel chat history when no limit is configured.
const DefaultHistoryLimit = 200

// EventEmitter receives the event paired with each store mutation. The
// store calls Emit while holding the mutated collection's lock, so
// implementations must not block and must not call back into the store.
type EventEmitter interface {
	Emit(event realtime.Event)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// NewNoopEmitter creates an emitter that discards all events.
func NewNoopEmitter() *NoopEmitter {
	return &NoopEmitter{}
}

// Emit discards the event.
func (n *NoopEmitter) Emit(event realtime.Event) {}

// Store is the in-memory state store.
type Store struct {
	logger  *slog.Logger
	emitter EventEmitter

	postsMu sync.Mutex
	posts   map[string]*domain.Post

	commentsMu sync.Mutex
	comments   map[string][]domain.Comment // postID -> chronological sequence

	chatMu       sync.Mutex
	chat         map[string][]domain.ChatMessage // channel -> chronological sequence
	historyLimit int

	presenceMu sync.Mutex
	presence   map[string]domain.PresenceEntry // connectionID -> entry
}

// New creates an empty store. historyLimit caps retained chat messages per
// channel; values <= 0 fall back to DefaultHistoryLimit. A nil emitter is
// replaced with a NoopEmitter.
func New(historyLimit int, logger *slog.Logger, emitter EventEmitter) *Store {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if emitter == nil {
		emitter = NewNoopEmitter()
	}
	return &Store{
		logger:       logger,
		emitter:      emitter,
		posts:        make(map[string]*domain.Post),
		comments:     make(map[string][]domain.Comment),
		chat:         make(map[string][]domain.ChatMessage),
		historyLimit: historyLimit,
		presence:     make(map[string]domain.PresenceEntry),
	}
}

// HistoryLimit returns the configured per-channel chat cap.
func (s *Store) HistoryLimit() int {
	return s.historyLimit
}
