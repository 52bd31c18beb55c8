package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/campfireapp/campfire-server/internal/config"
	"github.com/campfireapp/campfire-server/internal/identity"
	"github.com/campfireapp/campfire-server/internal/ratelimit"
	"github.com/campfireapp/campfire-server/internal/realtime"
	"github.com/campfireapp/campfire-server/internal/service"
)

// Handler upgrades HTTP requests to WebSocket sessions at GET /ws.
type Handler struct {
	svc         *service.CommunityService
	broadcaster *realtime.Broadcaster
	resolver    *identity.Resolver
	limiter     *ratelimit.KeyedRateLimiter
	cfg         config.ChatConfig
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

// NewHandler creates a WebSocket handler.
func NewHandler(svc *service.CommunityService, broadcaster *realtime.Broadcaster,
	resolver *identity.Resolver, cfg config.ChatConfig, logger *slog.Logger) *Handler {
	return &Handler{
		svc:         svc,
		broadcaster: broadcaster,
		resolver:    resolver,
		limiter:     ratelimit.New(cfg.MessageRatePerSecond, cfg.MessageBurst),
		cfg:         cfg,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers connect from arbitrary origins; identity comes
			// from the bearer token, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and runs the session until it ends.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	participant := h.resolver.ResolveOrGuest(bearerToken(r))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client, err := h.broadcaster.Connect()
	if err != nil {
		h.logger.Error("register realtime client", slog.String("error", err.Error()))
		_ = conn.Close()
		return
	}

	session := newSession(conn, client, participant, h.svc, h.broadcaster.Registry(), h.limiter, h.cfg, h.logger)
	session.run()
}

// bearerToken extracts the access token from the Authorization header or,
// since browser WebSocket clients cannot set headers, the token query
// parameter.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("token")
}
