package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/campfireapp/campfire-server/internal/domain"
)

func (s *Server) registerPresenceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPresence",
		Method:      http.MethodGet,
		Path:        "/api/v1/presence",
		Summary:     "Get active participants",
		Description: "Returns the roster of currently joined participants and the online count",
		Tags:        []string{"Presence"},
	}, s.handlePresence)
}

// === DTOs ===

// PresenceEntryResponse contains one joined participant in API responses.
type PresenceEntryResponse struct {
	ParticipantID string    `json:"participant_id" doc:"Participant ID"`
	DisplayName   string    `json:"display_name" doc:"Display name"`
	JoinedAt      time.Time `json:"joined_at" doc:"Join time"`
}

// PresenceResponse contains the current presence roster.
type PresenceResponse struct {
	Participants []PresenceEntryResponse `json:"participants" doc:"Joined participants"`
	Count        int                     `json:"count" doc:"Number of joined participants"`
}

// PresenceOutput wraps the presence response for Huma.
type PresenceOutput struct {
	Body PresenceResponse
}

// === Handlers ===

func (s *Server) handlePresence(ctx context.Context, _ *struct{}) (*PresenceOutput, error) {
	entries := s.svc.ActiveParticipants(ctx)

	resp := make([]PresenceEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = presenceEntryResponse(e)
	}

	return &PresenceOutput{Body: PresenceResponse{
		Participants: resp,
		Count:        s.svc.PresenceCount(ctx),
	}}, nil
}

func presenceEntryResponse(e domain.PresenceEntry) PresenceEntryResponse {
	return PresenceEntryResponse{
		ParticipantID: e.ParticipantID,
		DisplayName:   e.DisplayName,
		JoinedAt:      e.JoinedAt,
	}
}
