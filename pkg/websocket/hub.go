package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// RoomAll receives every event.
	RoomAll = "all"

	MessageTypeWelcome = "welcome"
)

// SessionRoom is the room carrying events for one payment session.
func SessionRoom(sessionID string) string {
	return "session_" + sessionID
}

type Message struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id,omitempty"`
	Subject   string      `json:"subject,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub fans payment events out to subscribed websocket clients.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Publish queues an event for roomID. Publishing never blocks; when the
// queue is full the event is dropped and logged.
func (h *Hub) Publish(roomID, messageType string, data interface{}) {
	message := Message{
		Type:      messageType,
		RoomID:    roomID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.WithFields(logrus.Fields{"room_id": roomID, "type": messageType}).Warn("websocket broadcast queue full, dropping event")
	}
}

func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.joinRoom(client, RoomAll)
	h.logger.WithField("subject", client.Subject).Debug("websocket client registered")

	h.sendToClient(client, Message{
		Type:      MessageTypeWelcome,
		Subject:   client.Subject,
		Timestamp: time.Now().Unix(),
		Data:      map[string]interface{}{"message": "Connected successfully"},
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeClient(client)
}

// removeClient must be called with the write lock held.
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.logger.WithField("subject", client.Subject).Debug("websocket client unregistered")
}

func (h *Hub) deliver(message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	targets := h.rooms[RoomAll]
	if message.RoomID != "" && message.RoomID != RoomAll {
		targets = mergeRooms(h.rooms[message.RoomID], h.rooms[RoomAll])
	}

	for client := range targets {
		h.sendToClient(client, message)
	}
}

// sendToClient drops clients whose buffer is full. Write lock held.
func (h *Hub) sendToClient(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal websocket message")
		return
	}

	select {
	case client.send <- data:
	default:
		h.removeClient(client)
	}
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; ok {
		h.joinRoom(client, roomID)
	}
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		h.removeClient(client)
	}
}

func mergeRooms(rooms ...map[*Client]bool) map[*Client]bool {
	out := make(map[*Client]bool)
	for _, room := range rooms {
		for client := range room {
			out[client] = true
		}
	}
	return out
}
