package providers

import (
	"github.com/samber/do/v2"

	"github.com/campfireapp/campfire-server/internal/config"
	"github.com/campfireapp/campfire-server/internal/identity"
	"github.com/campfireapp/campfire-server/internal/logger"
	"github.com/campfireapp/campfire-server/internal/service"
	"github.com/campfireapp/campfire-server/internal/store"
)

// ProvideIdentityResolver provides the JWT identity resolver.
func ProvideIdentityResolver(i do.Injector) (*identity.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.JWTSecret == "" {
		log.Warn("No JWT secret configured, all connections are treated as guests")
	}

	return identity.NewResolver(cfg.Auth.JWTSecret, log.Logger), nil
}

// ProvideCommunityService provides the community service.
func ProvideCommunityService(i do.Injector) (*service.CommunityService, error) {
	st := do.MustInvoke[*store.Store](i)
	broadcasterHandle := do.MustInvoke[*BroadcasterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommunityService(st, broadcasterHandle.Broadcaster, log.Logger), nil
}
