package websocket

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

var clientIDCounter atomic.Uint64

// Client is one websocket connection of a worker.
type Client struct {
	id      uint64
	ownerID string
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	// pong carries replies from readPump. Only the hub closes send, so
	// readPump never writes to it.
	pong chan Message
}

func NewClient(hub *Hub, conn *websocket.Conn, ownerID string) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		ownerID: ownerID,
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, sendBuffer),
		pong:    make(chan Message, 1),
	}
}

func (c *Client) OwnerID() string {
	return c.ownerID
}

// Start registers the client and begins pumping. A stopped hub closes the
// connection instead.
func (c *Client) Start() {
	select {
	case c.hub.Register <- c:
	case <-c.hub.Done():
		_ = c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump only answers pings; clients have nothing else to say.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.Done():
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Error("set websocket read deadline failed", "err", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("unexpected websocket close", "owner", c.ownerID, "err", err)
			}
			return
		}
		var msg Message
		if json.Unmarshal(raw, &msg) != nil || msg.Type != MessageTypePing {
			continue
		}
		c.queuePong()
	}
}

// queuePong drops the reply when one is already pending.
func (c *Client) queuePong() {
	select {
	case c.pong <- Message{Type: MessageTypePong, Data: heartbeat{At: time.Now().UTC()}}:
	default:
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
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(msg); err != nil {
				return
			}
		case msg := <-c.pong:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.write(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("encode websocket message failed", "type", msg.Type, "err", err)
		return nil
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
