package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Envelope is the wire format for every outbound WebSocket message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client is a live WebSocket connection tracked by the hub. Writes are
// serialized per connection: broadcasts originate from many goroutines and
// the underlying conn does not tolerate concurrent writers.
type Client struct {
	ID      string
	Conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *Client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub is the delivery side of the broadcast relay. It only maps connection
// ids to sockets and writes bytes; room membership lives in the lobby store
// and callers pass explicit target lists. The transport is not assumed to
// provide multicast groups.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[hub] Client %s registered", client.ID)
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connID]; ok {
		delete(h.clients, connID)
		log.Printf("[hub] Client %s unregistered", connID)
	}
}

// Send delivers a typed message to a single connection.
func (h *Hub) Send(connID, msgType string, payload any) {
	data, ok := h.encode(msgType, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	client := h.clients[connID]
	h.mu.RUnlock()

	if client != nil {
		h.deliver(client, data)
	}
}

// SendError delivers an error message to a single connection. Errors are
// never broadcast; only the offending client hears about them.
func (h *Hub) SendError(connID, errMsg string) {
	data, err := json.Marshal(Envelope{Type: "error", Error: errMsg})
	if err != nil {
		log.Printf("[hub] Failed to marshal error message: %v", err)
		return
	}

	h.mu.RLock()
	client := h.clients[connID]
	h.mu.RUnlock()

	if client != nil {
		h.deliver(client, data)
	}
}

// Broadcast delivers a typed message to every listed connection. Targets the
// hub no longer knows (already disconnected) are skipped.
func (h *Hub) Broadcast(targets []string, msgType string, payload any) {
	data, ok := h.encode(msgType, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(targets))
	for _, id := range targets {
		if client, ok := h.clients[id]; ok {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.deliver(client, data)
	}
}

// BroadcastAll delivers a typed message to every connected client. Used only
// for the public room-listing refresh.
func (h *Hub) BroadcastAll(msgType string, payload any) {
	data, ok := h.encode(msgType, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.deliver(client, data)
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection and empties the hub.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
}

func (h *Hub) encode(msgType string, payload any) ([]byte, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[hub] Failed to marshal %s payload: %v", msgType, err)
		return nil, false
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		log.Printf("[hub] Failed to marshal %s envelope: %v", msgType, err)
		return nil, false
	}
	return data, true
}

func (h *Hub) deliver(client *Client, data []byte) {
	if err := client.write(data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}
