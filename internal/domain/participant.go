package domain

// Participant is the identity behind a connection: a registered user or a guest.
// Resolved by the identity layer; the core never parses credentials.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// GuestID is the sentinel identity for unauthenticated participants.
const GuestID = "guest"

// Guest returns the sentinel guest participant.
func Guest() Participant {
	return Participant{ID: GuestID, DisplayName: "Guest"}
}

// IsGuest reports whether the participant is the unauthenticated sentinel.
func (p Participant) IsGuest() bool {
	return p.ID == GuestID
}
