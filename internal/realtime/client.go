package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// sendBuffer bounds the per-connection outbound queue; a slow consumer
	// drops messages rather than blocking the broadcaster.
	sendBuffer = 256
)

// Client wraps one websocket connection with its verified identity. The
// identity is attached once at the handshake and trusted for the
// connection's lifetime.
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
}

func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) ConnectionID() string {
	return c.id
}

func (c *Client) UserID() string {
	return c.userID
}

// Send queues a message for delivery without blocking the caller.
func (c *Client) Send(message []byte) {
	select {
	case c.send <- message:
	case <-c.done:
	default:
		log.Warn().Str("connection", c.id).Str("user", c.userID).Msg("send buffer full, dropping message")
	}
}

// ReadLoop pumps inbound frames to handle until the connection closes.
// It runs on the connection's handler goroutine.
func (c *Client) ReadLoop(handle func(raw []byte)) {
	defer close(c.done)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info().Err(err).Str("connection", c.id).Msg("websocket read failed")
			}
			return
		}
		handle(raw)
	}
}

// WriteLoop drains the send queue and keeps the connection alive with
// pings. It owns all writes to the underlying connection.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
