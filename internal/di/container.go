// Package di provides dependency injection configuration for the Campfire server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/campfireapp/campfire-server/internal/config"
	"github.com/campfireapp/campfire-server/internal/di/providers"
	"github.com/campfireapp/campfire-server/internal/identity"
	"github.com/campfireapp/campfire-server/internal/logger"
	"github.com/campfireapp/campfire-server/internal/service"
	"github.com/campfireapp/campfire-server/internal/store"
	"github.com/campfireapp/campfire-server/internal/ws"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// State and fan-out
	do.Provide(injector, providers.ProvideBroadcaster)
	do.Provide(injector, providers.ProvideStore)

	// Identity and business services
	do.Provide(injector, providers.ProvideIdentityResolver)
	do.Provide(injector, providers.ProvideCommunityService)

	// Server
	do.Provide(injector, providers.ProvideWSHandler)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.BroadcasterHandle](injector)
	_ = do.MustInvoke[*store.Store](injector)
	_ = do.MustInvoke[*identity.Resolver](injector)
	_ = do.MustInvoke[*service.CommunityService](injector)
	_ = do.MustInvoke[*ws.Handler](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
