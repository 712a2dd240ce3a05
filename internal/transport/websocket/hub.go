// Package websocket pushes shift store events to connected clients. Each
// client belongs to one worker and only receives that worker's messages.
package websocket

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"wagevo/internal/domain/shift"
	"wagevo/internal/platform/metrics"
)

const (
	MessageTypeEvent = "event"
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
)

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type delivery struct {
	ownerID string
	message Message
}

// Hub tracks connected clients. Register and Unregister are served by Run.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	broadcast chan delivery
	metrics   *metrics.Collector
	done      chan struct{}
	stopOnce  sync.Once

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(collector *metrics.Collector) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan delivery, 256),
		metrics:    collector,
		clients:    map[*Client]struct{}{},
		done:       make(chan struct{}),
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		// Lifecycle changes go first so a message never reaches a client
		// whose unregister is already queued.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

// Publish queues msg for the clients of ownerID. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) Publish(ownerID string, msg Message) {
	select {
	case h.broadcast <- delivery{ownerID: ownerID, message: msg}:
	default:
		slog.Warn("websocket broadcast queue full, dropping message", "owner", ownerID, "type", msg.Type)
	}
}

// PublishEvent forwards a shift store event to its worker's clients.
func (h *Hub) PublishEvent(evt shift.Event) {
	h.Publish(evt.OwnerID, Message{Type: MessageTypeEvent, Data: evt})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamConnected()
	}
	slog.Info("websocket client connected", "owner", client.ownerID, "totalClients", total)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		h.drop(client)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if ok {
		slog.Info("websocket client disconnected", "owner", client.ownerID, "totalClients", total)
	}
}

// drop must be called with mu held.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	if h.metrics != nil {
		h.metrics.StreamDisconnected()
	}
}

func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	targets := h.sortedClients(d.ownerID)
	for _, client := range targets {
		select {
		case client.send <- d.message:
			if h.metrics != nil {
				h.metrics.StreamDelivered()
			}
		default:
			slog.Warn("websocket client too slow, disconnecting", "owner", client.ownerID)
			h.drop(client)
		}
	}
}

// sortedClients must be called with mu held. An empty ownerID selects all
// clients.
func (h *Hub) sortedClients(ownerID string) []*Client {
	out := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if ownerID == "" || client.ownerID == ownerID {
			out = append(out, client)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() { close(h.done) })
	h.mu.Lock()
	clients := h.sortedClients("")
	for _, client := range clients {
		h.drop(client)
	}
	h.mu.Unlock()
	slog.Info("websocket hub stopped", "clientsClosed", len(clients))
}

// heartbeat is the payload of server-initiated pong replies.
type heartbeat struct {
	At time.Time `json:"at"`
}
