package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/utils/log"
)

// Observer is told about clients joining and leaving the hub.
type Observer interface {
	FeedClientConnected()
	FeedClientDisconnected()
}

type Hub struct {
	clients    map[*Client]struct{}
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	observer   Observer
}

func NewHub(observer Observer) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
		observer:   observer,
	}
}

// Run owns the client set until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			if h.observer != nil {
				h.observer.FeedClientConnected()
			}
			log.WithCtx(client.ctx).Debug("New client registered")

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			for _, client := range h.snapshot() {
				if err := client.SendMessage(message); err != nil {
					h.remove(client)
				}
			}

		case <-ctx.Done():
			for _, client := range h.snapshot() {
				h.remove(client)
			}
			log.With(zap.String("component", "hub")).Info("🔒 WebSocket hub stopped")
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if !ok {
		return
	}
	client.Close()
	if h.observer != nil {
		h.observer.FeedClientDisconnected()
	}
	log.WithCtx(client.ctx).Debug("Client unregistered")
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		out = append(out, client)
	}
	return out
}

// Register adds client; once the hub has stopped the client is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
