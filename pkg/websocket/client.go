package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

// Client is one subscriber connection. Clients only subscribe; they never
// publish onto the feed.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	rooms      map[string]bool
	Subject    string
	pingPeriod time.Duration
	pongWait   time.Duration
}

type clientCommand struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

func NewClient(hub *Hub, conn *websocket.Conn, subject string, pingPeriod, pongWait time.Duration) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		rooms:      make(map[string]bool),
		Subject:    subject,
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).WithField("subject", c.Subject).Warn("websocket read error")
			}
			return
		}
		c.handleCommand(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleCommand(message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.hub.logger.WithError(err).WithField("subject", c.Subject).Debug("ignoring malformed websocket command")
		return
	}

	switch cmd.Type {
	case "subscribe":
		if cmd.RoomID != "" {
			c.hub.JoinRoom(c, SessionRoom(cmd.RoomID))
		}
	case "unsubscribe":
		if cmd.RoomID != "" {
			c.hub.LeaveRoom(c, SessionRoom(cmd.RoomID))
		}
	}
}
