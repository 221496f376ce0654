package websocket

import (
	"sync"

	"rockspotter/logger"
	"rockspotter/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// NotificationClient is one websocket connection of an authenticated user
type NotificationClient struct {
	ID      string
	Conn    *websocket.Conn
	UserID  string
	writeMu sync.Mutex
}

func NewNotificationClient(conn *websocket.Conn, userID string) *NotificationClient {
	return &NotificationClient{ID: uuid.NewString(), Conn: conn, UserID: userID}
}

// SafeWriteJSON serializes writes on the client's connection
func (nc *NotificationClient) SafeWriteJSON(v interface{}) error {
	nc.writeMu.Lock()
	defer nc.writeMu.Unlock()
	return nc.Conn.WriteJSON(v)
}

// Hub tracks connected clients and delivers notifications to the user they concern
type Hub struct {
	mu      sync.RWMutex
	clients map[*NotificationClient]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*NotificationClient]bool)}
}

// DefaultHub is the hub used by the HTTP handlers
var DefaultHub = NewHub()

func (h *Hub) Register(client *NotificationClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	logger.Debug("Notification client %s registered. Total clients: %d", client.ID, len(h.clients))
}

func (h *Hub) Unregister(client *NotificationClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.Conn.Close()
	logger.Debug("Notification client %s unregistered. Total clients: %d", client.ID, len(h.clients))
}

// Notify sends event to every connection of event.UserID. Writes happen
// outside the hub lock so a slow connection cannot stall Register.
func (h *Hub) Notify(event models.NotificationEvent) int {
	h.mu.RLock()
	var targets []*NotificationClient
	for client := range h.clients {
		if client.UserID == event.UserID {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range targets {
		if err := client.SafeWriteJSON(event); err != nil {
			logger.Warning("Error sending notification to client %s: %v", client.ID, err)
			h.Unregister(client)
			continue
		}
		sent++
	}
	return sent
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
