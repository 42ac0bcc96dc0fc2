package transport

import (
	"sync"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

const clientSendBuffer = 64

// Client is one transport participant. Writes go through a buffered
// channel drained by the connection's write pump so a stalled peer
// never blocks a broadcast.
type Client struct {
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func NewClient() *Client {
	return &Client{
		send: make(chan []byte, clientSendBuffer),
		done: make(chan struct{}),
	}
}

// Outbox exposes the channel the write pump drains.
func (c *Client) Outbox() <-chan []byte { return c.send }

// Done is closed when the client is dropped.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub manages the logical channels of active sessions. Interview
// sessions may have several participants (a supervisor observing a
// live interview); intake sessions have one.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool)}
}

// Subscribe adds a client to a session's channel.
func (h *Hub) Subscribe(sessionID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[sessionID] = room
	}
	room[client] = true
}

// Unsubscribe removes a client from a session's channel and reports
// how many participants remain.
func (h *Hub) Unsubscribe(sessionID string, client *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[sessionID]
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, sessionID)
		return 0
	}
	return len(room)
}

// SubscriberCount reports the number of participants on a session's
// channel.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// Broadcast sends an event to every participant of a session's
// channel. A client whose buffer is full is dropped rather than
// allowed to stall the rest of the room.
func (h *Hub) Broadcast(sessionID string, event Envelope) {
	data, err := event.Encode()
	if err != nil {
		logger.Error("Failed to encode broadcast event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[sessionID]))
	for client := range h.rooms[sessionID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.sendTo(client, data, sessionID)
	}
}

// SendTo delivers an event to a single client.
func (h *Hub) SendTo(client *Client, event Envelope) {
	data, err := event.Encode()
	if err != nil {
		logger.Error("Failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	h.sendTo(client, data, "")
}

func (h *Hub) sendTo(client *Client, data []byte, sessionID string) {
	select {
	case <-client.done:
	case client.send <- data:
	default:
		logger.Error("Dropping stalled transport client", zap.String("sessionId", sessionID))
		client.close()
	}
}
