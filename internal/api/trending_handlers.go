package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/campfireapp/campfire-server/internal/service"
)

func (s *Server) registerTrendingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTrending",
		Method:      http.MethodGet,
		Path:        "/api/v1/trending",
		Summary:     "Get trending topics",
		Description: "Returns the most active categories and tags from posts in the last 24 hours",
		Tags:        []string{"Trending"},
	}, s.handleTrending)
}

// === DTOs ===

// TrendingEntryResponse contains one ranked category or tag.
type TrendingEntryResponse struct {
	Name  string `json:"name" doc:"Category or tag name, lowercased"`
	Count int    `json:"count" doc:"Posts in the window"`
}

// TrendingResponse contains the trending categories and tags.
type TrendingResponse struct {
	Categories []TrendingEntryResponse `json:"categories" doc:"Top categories, most active first"`
	Tags       []TrendingEntryResponse `json:"tags" doc:"Top tags, most active first"`
}

// TrendingOutput wraps the trending response for Huma.
type TrendingOutput struct {
	Body TrendingResponse
}

// === Handlers ===

func (s *Server) handleTrending(ctx context.Context, _ *struct{}) (*TrendingOutput, error) {
	result := s.svc.Trending(ctx)

	return &TrendingOutput{Body: TrendingResponse{
		Categories: trendingEntries(result.Categories),
		Tags:       trendingEntries(result.Tags),
	}}, nil
}

func trendingEntries(entries []service.TrendingEntry) []TrendingEntryResponse {
	resp := make([]TrendingEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = TrendingEntryResponse{Name: e.Name, Count: e.Count}
	}
	return resp
}
