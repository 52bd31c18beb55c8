// Package api provides the HTTP API server and handlers for the Campfire
// community server.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/campfireapp/campfire-server/internal/domain"
	"github.com/campfireapp/campfire-server/internal/identity"
	"github.com/campfireapp/campfire-server/internal/realtime"
	"github.com/campfireapp/campfire-server/internal/service"
	"github.com/campfireapp/campfire-server/internal/ws"
)

// APIVersion is reported by the OpenAPI document and the health endpoint.
const APIVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc         *service.CommunityService
	broadcaster *realtime.Broadcaster
	resolver    *identity.Resolver
	wsHandler   *ws.Handler
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(svc *service.CommunityService, broadcaster *realtime.Broadcaster,
	resolver *identity.Resolver, wsHandler *ws.Handler, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("Campfire API", APIVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s := &Server{
		svc:         svc,
		broadcaster: broadcaster,
		resolver:    resolver,
		wsHandler:   wsHandler,
		router:      router,
		logger:      logger,
	}

	// chi requires all middleware to be registered before any route;
	// humachi.New registers the OpenAPI routes, so it must come after.
	s.setupMiddleware()

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerPostRoutes()
	s.registerChatRoutes()
	s.registerPresenceRoutes()
	s.registerTrendingRoutes()

	// WebSocket upgrade bypasses huma: it never returns a JSON body.
	if wsHandler != nil {
		router.Get("/ws", wsHandler.ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

// participantFromHeader resolves the request's participant, falling back to
// the guest identity when no usable token is present.
func (s *Server) participantFromHeader(authorization string) domain.Participant {
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok {
		token = authorization
	}
	return s.resolver.ResolveOrGuest(token)
}
