package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types pushed to connected review consoles
const (
	EventTypeSettlement   = "settlement"
	EventTypeAutopilotRun = "autopilot_run"
	EventTypeNotification = "notification"
)

// Event represents a message sent over WebSocket
type Event struct {
	Type         string      `json:"type"`
	Message      string      `json:"message"`
	Data         interface{} `json:"data,omitempty"`
	UserID       string      `json:"userID,omitempty"`
	RequiresAuth bool        `json:"requiresAuth,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID        primitive.ObjectID
	UserType      string
	Conn          *websocket.Conn
	Authenticated bool
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients                map[primitive.ObjectID]*Client
	unauthenticatedClients map[*Client]bool
	register               chan *Client
	unregister             chan *Client
	mu                     sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:                make(map[primitive.ObjectID]*Client),
		unauthenticatedClients: make(map[*Client]bool),
		register:               make(chan *Client),
		unregister:             make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.Authenticated && client.UserID != primitive.NilObjectID {
				h.clients[client.UserID] = client
			} else {
				h.unauthenticatedClients[client] = true
			}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if client.Authenticated && client.UserID != primitive.NilObjectID {
				if _, ok := h.clients[client.UserID]; ok {
					delete(h.clients, client.UserID)
				}
			} else {
				delete(h.unauthenticatedClients, client)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID primitive.ObjectID, event Event) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(event)
}

// AuthenticateClient moves a client from unauthenticated to authenticated state
func (h *Hub) AuthenticateClient(client *Client, userID primitive.ObjectID, userType string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Remove from unauthenticated clients
	if _, ok := h.unauthenticatedClients[client]; ok {
		delete(h.unauthenticatedClients, client)
	}

	// Set client as authenticated
	client.Authenticated = true
	client.UserID = userID
	client.UserType = userType

	// Add to authenticated clients
	h.clients[userID] = client

	return nil
}

// BroadcastToAdmins sends an event to every connected admin console
func (h *Hub) BroadcastToAdmins(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserType == "admin" {
			client.Conn.WriteJSON(event)
		}
	}
}

// NotifySettlement pushes a settlement outcome to connected admin
// consoles so pending lists refresh without polling.
func (h *Hub) NotifySettlement(result interface{}) {
	h.BroadcastToAdmins(Event{
		Type:    EventTypeSettlement,
		Message: "A request has been settled",
		Data:    result,
	})
}

// NotifyAutopilotRun pushes an autopilot run summary to connected admin consoles
func (h *Hub) NotifyAutopilotRun(run interface{}) {
	h.BroadcastToAdmins(Event{
		Type:    EventTypeAutopilotRun,
		Message: "An autopilot pass has completed",
		Data:    run,
	})
}

// NotifyUser pushes a settlement outcome to the affected member, if connected
func (h *Hub) NotifyUser(userID primitive.ObjectID, message string, data interface{}) error {
	return h.SendToUser(userID, Event{
		Type:    EventTypeNotification,
		Message: message,
		Data:    data,
	})
}
