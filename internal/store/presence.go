package store

import (
	"slices"
	"time"

	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/realtime"
)

// Join records a presence entry for the connection, emitting the change and
// the new online count before releasing the lock. A second Join for the
// same connection replaces the entry rather than duplicating it.
func (s *Store) Join(connectionID string, participant domain.Participant) domain.PresenceEntry {
	entry := domain.PresenceEntry{
		ConnectionID:  connectionID,
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
		JoinedAt:      time.Now(),
	}

	s.presenceMu.Lock()
	s.presence[connectionID] = entry
	count := len(s.presence)
	s.emitter.Emit(realtime.NewPresenceChangedEvent(participant, domain.PresenceOnline))
	s.emitter.Emit(realtime.NewPresenceCountEvent(count))
	s.presenceMu.Unlock()

	s.logger.Debug("participant joined", "connection_id", connectionID, "participant_id", participant.ID, "online", count)
	return entry
}

// Leave removes the connection's presence entry, emits the departure and
// the new online count, and returns the entry. Idempotent: a second Leave
// for an unknown connection is a no-op, not an error, since disconnect
// races are expected.
func (s *Store) Leave(connectionID string) (domain.PresenceEntry, bool) {
	s.presenceMu.Lock()
	entry, ok := s.presence[connectionID]
	if ok {
		delete(s.presence, connectionID)
	}
	count := len(s.presence)
	if ok {
		s.emitter.Emit(realtime.NewPresenceChangedEvent(domain.Participant{
			ID:          entry.ParticipantID,
			DisplayName: entry.DisplayName,
		}, domain.PresenceOffline))
		s.emitter.Emit(realtime.NewPresenceCountEvent(count))
	}
	s.presenceMu.Unlock()

	if ok {
		s.logger.Debug("participant left", "connection_id", connectionID, "participant_id", entry.ParticipantID, "online", count)
	}
	return entry, ok
}

// ActivePresence returns a snapshot of all live presence entries,
// ordered by join time.
func (s *Store) ActivePresence() []domain.PresenceEntry {
	s.presenceMu.Lock()
	entries := make([]domain.PresenceEntry, 0, len(s.presence))
	for _, entry := range s.presence {
		entries = append(entries, entry)
	}
	s.presenceMu.Unlock()

	slices.SortFunc(entries, func(a, b domain.PresenceEntry) int {
		return a.JoinedAt.Compare(b.JoinedAt)
	})
	return entries
}

// PresenceCount returns the number of live presence entries.
func (s *Store) PresenceCount() int {
	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	return len(s.presence)
}
