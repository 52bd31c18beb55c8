package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/campfireapp/campfire-server/internal/config"
	"github.com/campfireapp/campfire-server/internal/logger"
	"github.com/campfireapp/campfire-server/internal/realtime"
	"github.com/campfireapp/campfire-server/internal/store"
)

// BroadcasterHandle wraps the broadcaster with its context for lifecycle management.
type BroadcasterHandle struct {
	*realtime.Broadcaster
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *BroadcasterHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Broadcaster.Shutdown(ctx)
}

// ProvideBroadcaster provides the realtime event broadcaster.
func ProvideBroadcaster(i do.Injector) (*BroadcasterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	registry := realtime.NewRegistry()
	broadcaster := realtime.NewBroadcaster(cfg.Realtime, registry, log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go broadcaster.Start(ctx)

	log.Info("Broadcaster started")

	return &BroadcasterHandle{
		Broadcaster: broadcaster,
		cancel:      cancel,
	}, nil
}

// ProvideStore provides the in-memory community store, wired to the
// broadcaster so every mutation is announced in apply order.
func ProvideStore(i do.Injector) (*store.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	broadcaster := do.MustInvoke[*BroadcasterHandle](i)

	st := store.New(cfg.Chat.HistoryLimit, log.Logger, broadcaster.Broadcaster)

	log.Info("Store initialized", "chat_history_limit", st.HistoryLimit())

	return st, nil
}
