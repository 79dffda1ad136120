package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxCommandSize = 1024
	sendBuffer     = 64
)

// Client is one browser connection. Events reach it through the hub;
// subscribe, unsubscribe and ping commands arrive on the read side.
type Client struct {
	id          string
	workspaceID int32
	conn        *websocket.Conn
	hub         *Hub

	mu     sync.RWMutex
	topics Topics
	send   chan []byte
	closed bool
	once   sync.Once
}

// NewClient wraps conn for the workspace. An empty topic set receives every event.
func NewClient(conn *websocket.Conn, workspaceID int32, hub *Hub, topics Topics) *Client {
	if topics == nil {
		topics = Topics{}
	}
	return &Client{
		id:          uuid.NewString(),
		workspaceID: workspaceID,
		conn:        conn,
		hub:         hub,
		topics:      topics,
		send:        make(chan []byte, sendBuffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) WorkspaceID() int32 {
	return c.workspaceID
}

// Wants reports whether the client is subscribed to entity
func (c *Client) Wants(entity EntityType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics.Wants(entity)
}

// TopicNames lists the current subscription
func (c *Client) TopicNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics.Names()
}

// Send queues data without blocking. A full buffer counts as a failed send.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientClosed
	}
}

// SendEvent serializes and queues a single event for this client only
func (c *Client) SendEvent(event Event) error {
	data, err := event.ToJSON()
	if err != nil {
		return err
	}
	return c.Send(data)
}

// Close is idempotent
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// IsClosed reports whether Close has run
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// handleCommand applies one inbound frame and queues the reply
func (c *Client) handleCommand(data []byte) {
	cmd, err := ParseCommand(data)
	if err != nil {
		c.reply(CommandError(err.Error()))
		return
	}

	if cmd.Action == ActionPing {
		c.reply(Pong())
		return
	}

	c.mu.Lock()
	next, err := c.topics.apply(cmd)
	if err == nil {
		c.topics = next
	}
	names := c.topics.Names()
	c.mu.Unlock()

	if err != nil {
		c.reply(CommandError(err.Error()))
		return
	}
	c.reply(TopicsChanged(names))
}

func (c *Client) reply(event Event) {
	if err := c.SendEvent(event); err != nil {
		log.Debug().Err(err).Str("client_id", c.id).Str("event_type", event.Type).Msg("WebSocket reply dropped")
	}
}

// ReadPump reads commands until the peer goes away, then unregisters the client.
// Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxCommandSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Int32("workspace_id", c.workspaceID).
					Msg("WebSocket unexpected close")
			}
			return
		}
		if kind == websocket.TextMessage {
			c.handleCommand(data)
		}
	}
}

// WritePump drains the send buffer and keeps the connection alive with pings.
// Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Int32("workspace_id", c.workspaceID).
					Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
