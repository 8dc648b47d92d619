package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/models"
)

// Event types broadcast by the runner.
const (
	EventRunState     = "run_state"
	EventWalletDone   = "wallet_done"
	EventWalletFailed = "wallet_failed"
	EventRunComplete  = "run_complete"
)

// Event is one progress notification for stream subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WalletDoneData is the payload for wallet_done events.
type WalletDoneData struct {
	Wallet    string `json:"wallet"`
	Transfers int    `json:"transfers"`
	Remaining int    `json:"remaining"`
	Elapsed   string `json:"elapsed"`
}

// WalletFailedData is the payload for wallet_failed events.
type WalletFailedData struct {
	Wallet  string `json:"wallet"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RunCompleteData is the payload for run_complete events.
type RunCompleteData struct {
	Summary models.Summary `json:"summary"`
	Error   string         `json:"error,omitempty"`
}

// Hub fans events out to subscribers. Slow subscribers miss events rather
// than blocking the runner.
type Hub struct {
	clients map[chan Event]struct{}
	mu      sync.RWMutex
}

// NewHub creates an event hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan Event]struct{}),
	}
}

// Run blocks until ctx is cancelled, then closes every subscriber channel.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}

	slog.Debug("event hub stopped", "reason", ctx.Err())
}

// Subscribe registers a new client and returns a channel to receive events.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, config.SSEHubChannelBuffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	slog.Debug("event subscriber added", "totalClients", clientCount)
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	clientCount := len(h.clients)
	h.mu.Unlock()

	slog.Debug("event subscriber removed", "totalClients", clientCount)
}

// Broadcast sends an event to all subscribers without blocking.
// A nil hub drops every event.
func (h *Hub) Broadcast(event Event) {
	if h == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- event:
		default:
			slog.Warn("event dropped for slow subscriber", "eventType", event.Type)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
