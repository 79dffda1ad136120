package websocket

import (
	"errors"
	"sync"

	"github.com/kanakku/kanakku/kanakku-backend/internal/metrics"
	"github.com/rs/zerolog/log"
)

var (
	// ErrClientClosed is returned when sending to a closed or saturated subscriber
	ErrClientClosed = errors.New("client is closed")

	// ErrWorkspaceFull is returned by Register when the workspace is at its connection cap
	ErrWorkspaceFull = errors.New("workspace has too many live connections")
)

// DefaultMaxClientsPerWorkspace caps concurrent connections for one lender
const DefaultMaxClientsPerWorkspace = 25

// Subscriber is a live connection that receives workspace events
type Subscriber interface {
	ID() string
	WorkspaceID() int32
	Wants(entity EntityType) bool
	Send(data []byte) error
	Close() error
}

// HubConfig tunes a Hub. Zero values fall back to defaults.
type HubConfig struct {
	MaxClientsPerWorkspace int
}

// Hub fans events out to the subscribers of each workspace
type Hub struct {
	mu         sync.RWMutex
	workspaces map[int32]map[string]Subscriber
	maxClients int
}

func NewHub() *Hub {
	return NewHubWithConfig(HubConfig{})
}

func NewHubWithConfig(cfg HubConfig) *Hub {
	if cfg.MaxClientsPerWorkspace <= 0 {
		cfg.MaxClientsPerWorkspace = DefaultMaxClientsPerWorkspace
	}
	return &Hub{
		workspaces: make(map[int32]map[string]Subscriber),
		maxClients: cfg.MaxClientsPerWorkspace,
	}
}

// HasCapacity reports whether one more subscriber fits in the workspace
func (h *Hub) HasCapacity(workspaceID int32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.workspaces[workspaceID]) < h.maxClients
}

// Register adds s under its workspace. Re-registering the same ID replaces it.
func (h *Hub) Register(s Subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := s.WorkspaceID()
	subs := h.workspaces[workspaceID]
	if subs == nil {
		subs = make(map[string]Subscriber)
		h.workspaces[workspaceID] = subs
	}
	if _, exists := subs[s.ID()]; !exists {
		if len(subs) >= h.maxClients {
			return ErrWorkspaceFull
		}
		metrics.WebSocketClients.Inc()
	}
	subs[s.ID()] = s

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", s.ID()).
		Int("workspace_clients", len(subs)).
		Msg("WebSocket client registered")
	return nil
}

// Unregister removes s. Unknown subscribers are ignored.
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s Subscriber) bool {
	subs, ok := h.workspaces[s.WorkspaceID()]
	if !ok {
		return false
	}
	current, ok := subs[s.ID()]
	if !ok || current != s {
		return false
	}
	delete(subs, s.ID())
	if len(subs) == 0 {
		delete(h.workspaces, s.WorkspaceID())
	}
	metrics.WebSocketClients.Dec()

	log.Debug().
		Int32("workspace_id", s.WorkspaceID()).
		Str("client_id", s.ID()).
		Msg("WebSocket client unregistered")
	return true
}

// Broadcast delivers event to every subscriber of the workspace that wants
// its entity. A subscriber whose Send fails is dropped and closed.
func (h *Hub) Broadcast(workspaceID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.workspaces[workspaceID]))
	for _, s := range h.workspaces[workspaceID] {
		if s.Wants(event.Entity) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	var failed []Subscriber
	for _, s := range targets {
		if err := s.Send(data); err != nil {
			failed = append(failed, s)
		}
	}

	for _, s := range failed {
		h.evict(s)
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("event_type", event.Type).
		Int("delivered", len(targets)-len(failed)).
		Int("evicted", len(failed)).
		Msg("Broadcast event")
}

func (h *Hub) evict(s Subscriber) {
	h.mu.Lock()
	removed := h.removeLocked(s)
	h.mu.Unlock()
	if !removed {
		return
	}

	metrics.WebSocketEvicted.Inc()
	log.Warn().
		Int32("workspace_id", s.WorkspaceID()).
		Str("client_id", s.ID()).
		Msg("Dropping slow WebSocket client")
	if err := s.Close(); err != nil {
		log.Debug().Err(err).Str("client_id", s.ID()).Msg("Error closing WebSocket client")
	}
}

// ClientCount returns the number of subscribers in a workspace
func (h *Hub) ClientCount(workspaceID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.workspaces[workspaceID])
}

// TotalClientCount returns the number of subscribers across all workspaces
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.workspaces {
		total += len(subs)
	}
	return total
}

// CloseAll disconnects every subscriber. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	var all []Subscriber
	for _, subs := range h.workspaces {
		for _, s := range subs {
			all = append(all, s)
		}
	}
	h.workspaces = make(map[int32]map[string]Subscriber)
	h.mu.Unlock()

	metrics.WebSocketClients.Sub(float64(len(all)))
	for _, s := range all {
		if err := s.Close(); err != nil {
			log.Debug().Err(err).Str("client_id", s.ID()).Msg("Error closing WebSocket client")
		}
	}
	log.Info().Int("client_count", len(all)).Msg("Closed WebSocket clients")
}
