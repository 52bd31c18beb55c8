package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/campfireapp/campfire-server/internal/api"
	"github.com/campfireapp/campfire-server/internal/config"
	"github.com/campfireapp/campfire-server/internal/identity"
	"github.com/campfireapp/campfire-server/internal/logger"
	"github.com/campfireapp/campfire-server/internal/service"
	"github.com/campfireapp/campfire-server/internal/ws"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideWSHandler provides the WebSocket session handler.
func ProvideWSHandler(i do.Injector) (*ws.Handler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	svc := do.MustInvoke[*service.CommunityService](i)
	broadcasterHandle := do.MustInvoke[*BroadcasterHandle](i)
	resolver := do.MustInvoke[*identity.Resolver](i)
	log := do.MustInvoke[*logger.Logger](i)

	return ws.NewHandler(svc, broadcasterHandle.Broadcaster, resolver, cfg.Chat, log.Logger), nil
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	svc := do.MustInvoke[*service.CommunityService](i)
	broadcasterHandle := do.MustInvoke[*BroadcasterHandle](i)
	resolver := do.MustInvoke[*identity.Resolver](i)
	wsHandler := do.MustInvoke[*ws.Handler](i)
	log := do.MustInvoke[*logger.Logger](i)

	handler := api.NewServer(svc, broadcasterHandle.Broadcaster, resolver, wsHandler, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
