package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	svcHealth := s.checkService(ctx)
	components["service"] = svcHealth
	if svcHealth.Status != "healthy" {
		overall = "unhealthy"
	}

	rtHealth := s.checkBroadcaster()
	components["realtime"] = rtHealth
	if rtHealth.Status == "unhealthy" {
		overall = "unhealthy"
	} else if rtHealth.Status == "degraded" && overall == "healthy" {
		overall = "degraded"
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkService verifies the community service is wired and answering.
func (s *Server) checkService(ctx context.Context) ComponentHealth {
	// Handle nil service (e.g., in tests)
	if s.svc == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "community service not configured",
		}
	}

	// Any cheap read proves the in-memory store is reachable.
	_ = s.svc.PresenceCount(ctx)

	return ComponentHealth{Status: "healthy"}
}

// checkBroadcaster verifies the realtime event system is accepting connections.
func (s *Server) checkBroadcaster() ComponentHealth {
	// Handle nil broadcaster (e.g., in tests)
	if s.broadcaster == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "broadcaster not configured",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Message: formatClientStatus(s.broadcaster.ClientCount()),
	}
}

func formatClientStatus(count int) string {
	switch count {
	case 0:
		return "no connected clients"
	case 1:
		return "1 connected client"
	default:
		return strconv.Itoa(count) + " connected clients"
	}
}
