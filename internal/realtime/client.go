package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// CloseUnauthorized rejects connections without a resolved identity.
	CloseUnauthorized = 4401
)

var pongReply = []byte(`{"event":"pong"}`)

// Client is one open websocket subscribed to its user's feed group. Pushes
// flow through the buffered send channel drained by writePump, keeping
// per-group delivery in order.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, sendBuf int) *Client {
	if sendBuf <= 0 {
		sendBuf = 32
	}
	return &Client{hub: hub, conn: conn, userID: userID, send: make(chan []byte, sendBuf)}
}

// run joins the group and starts both pumps; returns when the connection is
// gone and the group membership is released.
func (c *Client) run() {
	c.hub.join(FeedGroup(c.userID), c)
	go c.writePump()
	c.readPump()
}

func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// kill closes the send queue; writePump drains it and shuts the connection.
func (c *Client) kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

type clientMessage struct {
	Type string `json:"type"`
}

// readPump owns the read side. The only client-initiated semantic is the
// heartbeat: {"type":"ping"} is answered with {"event":"pong"}.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(FeedGroup(c.userID), c)
		c.kill()
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			if !c.enqueue(pongReply) {
				return
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
