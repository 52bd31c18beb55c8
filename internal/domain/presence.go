package domain

import "time"

// PresenceEntry tracks one live connection's participant.
// Keyed by ConnectionID, not ParticipantID: one participant may hold
// multiple connections at once.
type PresenceEntry struct {
	ConnectionID  string    `json:"connection_id"`
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	JoinedAt      time.Time `json:"joined_at"`
}

// PresenceStatus is the online/offline state carried by presence events.
type PresenceStatus string

const (
	// PresenceOnline indicates the participant joined.
	PresenceOnline PresenceStatus = "online"
	// PresenceOffline indicates the participant's connection closed.
	PresenceOffline PresenceStatus = "offline"
)
