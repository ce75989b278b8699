package sse

import (
	"fmt"
	"log"
	"sync"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// GlobalHub is the singleton SSE Hub instance
var GlobalHub = NewHub()

// NewHub creates a new SSE Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[SSE] Client registered: id=%s user=%s (total: %d)", client.ID, client.UserID, len(h.clients))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		log.Printf("[SSE] Client unregistered: id=%s (total: %d)", clientID, len(h.clients))
	}
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			log.Printf("[SSE] Client %s buffer full, skipping event", client.ID)
		}
	}
}

// PublishDemandUpdate tells approval-queue views that a demand record moved.
func PublishDemandUpdate(demandID, event, status string, fiscalYear int) {
	data := fmt.Sprintf(`{"demand_id":"%s","event":"%s","status":"%s","fiscal_year":%d}`, demandID, event, status, fiscalYear)
	GlobalHub.Broadcast(Event{
		EventType: "demand_update",
		Data:      data,
	})
	log.Printf("[SSE] Published demand_update: demand=%s event=%s status=%s", demandID, event, status)
}

// SendToUser sends an event to one user's clients instead of broadcasting.
func SendToUser(userID string, event Event) {
	GlobalHub.mu.RLock()
	defer GlobalHub.mu.RUnlock()
	for _, client := range GlobalHub.clients {
		if client.UserID == userID {
			select {
			case client.Events <- event:
			default:
				log.Printf("[SSE] Client %s buffer full, skipping user event", client.ID)
			}
		}
	}
}

// PublishUserDemandUpdate notifies the record creator about a decision on
// their submission.
func PublishUserDemandUpdate(userID, demandID, event, status string) {
	data := fmt.Sprintf(`{"demand_id":"%s","event":"%s","status":"%s"}`, demandID, event, status)
	SendToUser(userID, Event{
		EventType: "my_demand_update",
		Data:      data,
	})
	log.Printf("[SSE] Published my_demand_update to user=%s: demand=%s event=%s", userID, demandID, event)
}
