// Package main provides the entry point for the Campfire server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/campfireapp/campfire-server/internal/di"
	"github.com/campfireapp/campfire-server/internal/di/providers"
	"github.com/campfireapp/campfire-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The broadcaster drains its queue with a deadline so in-flight events
	// still reach connected clients before the process exits.
	if handle, err := do.Invoke[*providers.BroadcasterHandle](injector); err == nil {
		if err := handle.Shutdown(); err != nil {
			log.Error("Broadcaster shutdown error", "error", err)
		}
	}

	log.Info("Goodnight, campers")
}
