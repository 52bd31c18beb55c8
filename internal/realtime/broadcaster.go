package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/campfireapp/campfire-server/internal/config"
	"github.com/campfireapp/campfire-server/internal/id"
)

// Client represents a connected realtime client. Events delivered to the
// client arrive on Events; Done is closed when the broadcaster evicts or
// disconnects the client.
type Client struct {
	ConnectedAt time.Time
	Events      chan Event
	Done        chan struct{}
	ID          string

	// Consecutive delivery failures. Reset to zero on every successful
	// send; the broadcaster evicts the client once this reaches the
	// configured threshold.
	failures atomic.Int32
}

// Broadcaster fans events out to connected clients. All deliveries flow
// through a single loop goroutine, so every client observes events for a
// given channel in the same order.
type Broadcaster struct {
	registry *Registry
	clients  map[string]*Client
	events   chan Event
	logger   *slog.Logger
	wg       sync.WaitGroup
	mu       sync.RWMutex

	clientBuffer     int
	failureThreshold int

	// Shutdown state, protected by shutdownMu.
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewBroadcaster creates a broadcaster with the given registry and limits.
func NewBroadcaster(cfg config.RealtimeConfig, registry *Registry, logger *slog.Logger) *Broadcaster {
	queueBuffer := cfg.QueueBuffer
	if queueBuffer <= 0 {
		queueBuffer = 1000
	}
	clientBuffer := cfg.ClientBuffer
	if clientBuffer <= 0 {
		clientBuffer = 100
	}
	failureThreshold := cfg.SendFailureThreshold
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	return &Broadcaster{
		registry:         registry,
		clients:          make(map[string]*Client),
		events:           make(chan Event, queueBuffer),
		logger:           logger,
		clientBuffer:     clientBuffer,
		failureThreshold: failureThreshold,
	}
}

// Registry returns the channel registry this broadcaster consults when
// scoping events.
func (b *Broadcaster) Registry() *Registry {
	return b.registry
}

// Start begins the fan-out loop. It should be called once at server
// startup in a goroutine and runs until the context is canceled.
func (b *Broadcaster) Start(ctx context.Context) {
	b.wg.Add(1)
	defer b.wg.Done()

	b.logger.Info("broadcaster starting")

	for {
		select {
		case event, ok := <-b.events:
			if !ok {
				// Shutdown closed the queue after draining.
				return
			}
			b.broadcast(event)

		case <-ctx.Done():
			b.logger.Info("broadcaster stopping")
			b.closeAllClients()
			return
		}
	}
}

// Shutdown gracefully shuts down the broadcaster. It stops accepting new
// events, drains the queue, and closes all clients.
func (b *Broadcaster) Shutdown(ctx context.Context) error {
	// Mark as shutdown and close the queue atomically under the lock.
	// Emit holds the read lock during its send, so this cannot race.
	b.shutdownMu.Lock()
	if b.shutdown {
		b.shutdownMu.Unlock()
		return nil
	}
	b.shutdown = true
	close(b.events)
	b.shutdownMu.Unlock()

	b.logger.Info("broadcaster shutdown initiated")

	done := make(chan struct{})
	go func() {
		for event := range b.events {
			b.broadcast(event)
		}
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("broadcast queue drained")
	case <-ctx.Done():
		b.logger.Warn("broadcast drain timeout, queued events lost")
	}

	b.wg.Wait()
	b.closeAllClients()

	b.logger.Info("broadcaster shutdown complete")
	return nil
}

// Emit queues an event for delivery. Events emitted after shutdown begins
// are silently dropped.
func (b *Broadcaster) Emit(event Event) {
	b.shutdownMu.RLock()
	defer b.shutdownMu.RUnlock()

	if b.shutdown {
		return
	}

	select {
	case b.events <- event:
	default:
		// Queue full. With a 1000-event buffer this means the fan-out
		// loop is badly behind; drop rather than block the caller.
		b.logger.Error("event queue full, dropping event",
			slog.String("event_type", string(event.Type)))
	}
}

// Connect registers a new client and returns it. The caller owns reading
// from the client's Events channel until Done closes.
func (b *Broadcaster) Connect() (*Client, error) {
	clientID, err := id.Generate("conn")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		Events:      make(chan Event, b.clientBuffer),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	b.mu.Lock()
	b.clients[client.ID] = client
	total := len(b.clients)
	b.mu.Unlock()

	b.logger.Info("realtime client connected",
		slog.String("client_id", clientID),
		slog.Int("total_clients", total))
	return client, nil
}

// Disconnect removes a client, drops its channel subscriptions, and closes
// its channels. Disconnecting an unknown client is a no-op.
func (b *Broadcaster) Disconnect(clientID string) {
	b.mu.Lock()
	client, ok := b.clients[clientID]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.clients, clientID)
	total := len(b.clients)
	b.mu.Unlock()

	b.registry.UnsubscribeAll(clientID)

	close(client.Done)
	close(client.Events)

	b.logger.Info("realtime client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", total))
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// broadcast delivers one event to its audience. A failed delivery to one
// client never affects delivery to the others; clients that fail too many
// times in a row are evicted.
func (b *Broadcaster) broadcast(event Event) {
	var delivered, dropped, filtered int
	var evict []string

	b.mu.RLock()
	for _, client := range b.clients {
		if client.ID == event.ExcludeID {
			filtered++
			continue
		}
		// Channel-scoped events only reach subscribers of that channel.
		if event.Channel != "" && !b.registry.Contains(client.ID, event.Channel) {
			filtered++
			continue
		}

		// Non-blocking send. A full buffer counts as a delivery failure
		// for this client only.
		select {
		case client.Events <- event:
			delivered++
			client.failures.Store(0)
		default:
			dropped++
			failures := client.failures.Add(1)
			b.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)),
				slog.Int("consecutive_failures", int(failures)))
			if int(failures) >= b.failureThreshold {
				evict = append(evict, client.ID)
			}
		}
	}
	b.mu.RUnlock()

	for _, clientID := range evict {
		b.logger.Warn("evicting unresponsive client",
			slog.String("client_id", clientID),
			slog.Int("failure_threshold", b.failureThreshold))
		b.Disconnect(clientID)
	}

	b.logger.Debug("event broadcast",
		slog.String("event_type", string(event.Type)),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("filtered", filtered),
			slog.Int("dropped", dropped)))
}

// closeAllClients closes every client connection, used during shutdown.
func (b *Broadcaster) closeAllClients() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, client := range b.clients {
		b.registry.UnsubscribeAll(client.ID)
		close(client.Done)
		close(client.Events)
	}
	b.clients = make(map[string]*Client)

	b.logger.Info("all realtime clients disconnected")
}
