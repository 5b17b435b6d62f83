// Package websocket streams task audit events to connected clients. Each
// client is registered under the owner id its token resolved to, and only
// ever receives events for that owner's tasks.
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"tasktracker/internal/models"
)

type Client struct {
	Conn  *websocket.Conn
	Owner uuid.UUID
	Mu    sync.Mutex
}

type event struct {
	owner   uuid.UUID
	payload []byte
}

// Hub manages websocket connections and fans audit events out per owner.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	events     chan event
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		events:     make(chan event, 64),
	}
}

// Publish sends an audit entry to every client registered for its owner.
// Safe to call from request goroutines; drops the event if the hub's buffer
// is full rather than blocking a request.
func (h *Hub) Publish(owner uuid.UUID, entry models.TaskLog) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	select {
	case h.events <- event{owner: owner, payload: payload}:
	default:
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client] = true
		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
		case ev := <-h.events:
			for client := range h.Clients {
				if client.Owner != ev.owner {
					continue
				}
				client.Mu.Lock()
				err := client.Conn.WriteMessage(websocket.TextMessage, ev.payload)
				client.Mu.Unlock()
				if err != nil {
					delete(h.Clients, client)
					client.Conn.Close()
				}
			}
		}
	}
}
