package realtime

import "sync"

// Registry tracks which connections are subscribed to which chat channels.
// Subscribe and Unsubscribe are idempotent; subscribing twice is the same
// as subscribing once.
type Registry struct {
	mu     sync.RWMutex
	subs   map[string]map[string]struct{} // channel -> connection IDs
	byConn map[string]map[string]struct{} // connection ID -> channels
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{
		subs:   make(map[string]map[string]struct{}),
		byConn: make(map[string]map[string]struct{}),
	}
}

// Subscribe adds a connection to a channel's subscriber set.
func (r *Registry) Subscribe(connectionID, channel string) {
	if channel == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.subs[channel] == nil {
		r.subs[channel] = make(map[string]struct{})
	}
	r.subs[channel][connectionID] = struct{}{}

	if r.byConn[connectionID] == nil {
		r.byConn[connectionID] = make(map[string]struct{})
	}
	r.byConn[connectionID][channel] = struct{}{}
}

// Unsubscribe removes a connection from a channel's subscriber set.
// Removing a subscription that does not exist is a no-op.
func (r *Registry) Unsubscribe(connectionID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(connectionID, channel)
}

// UnsubscribeAll removes a connection from every channel it subscribed to.
func (r *Registry) UnsubscribeAll(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channel := range r.byConn[connectionID] {
		r.removeLocked(connectionID, channel)
	}
}

func (r *Registry) removeLocked(connectionID, channel string) {
	if set, ok := r.subs[channel]; ok {
		delete(set, connectionID)
		if len(set) == 0 {
			delete(r.subs, channel)
		}
	}
	if set, ok := r.byConn[connectionID]; ok {
		delete(set, channel)
		if len(set) == 0 {
			delete(r.byConn, connectionID)
		}
	}
}

// Contains reports whether a connection is subscribed to a channel.
func (r *Registry) Contains(connectionID, channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[channel][connectionID]
	return ok
}

// Channels returns the channels a connection is subscribed to.
func (r *Registry) Channels(connectionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]string, 0, len(r.byConn[connectionID]))
	for channel := range r.byConn[connectionID] {
		channels = append(channels, channel)
	}
	return channels
}

// SubscriberCount returns the number of connections subscribed to a channel.
func (r *Registry) SubscriberCount(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[channel])
}
