package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dispatch/internal/core/domain/model/order"
)

const (
	// authTimeout bounds how long a fresh connection may take to present
	// its token.
	authTimeout = 5 * time.Second

	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 8192

	// sendQueueSize bounds the per-connection outbound queue. A client
	// that stops reading long enough to fill it is disconnected.
	sendQueueSize = 64
)

// Client is one authenticated WebSocket connection.
type Client struct {
	id    string
	actor order.Actor
	conn  *websocket.Conn
	hub   *Hub
	log   *slog.Logger

	// mu guards send against closeSend: forward goroutines may still be
	// enqueueing while the connection tears down.
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// enqueue hands a frame to the writer goroutine. It reports false when the
// queue is full, which marks the client as too slow to keep, or when the
// queue is already closed.
func (c *Client) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend shuts the queue down and releases the writer goroutine.
// Idempotent; after it returns no producer can reach the closed channel.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump consumes inbound frames until the connection dies, then
// unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read failed", "connId", c.id, "error", err)
			}
			return
		}

		var message envelope
		if err = json.Unmarshal(raw, &message); err != nil {
			c.enqueue(errorMessage("malformed message"))
			continue
		}

		c.hub.handleMessage(c, message)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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
