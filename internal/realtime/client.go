package realtime

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var ErrClientDisconnected = errors.New("client disconnected")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			return true
		}
		if customOrigins := os.Getenv("ALLOWED_ORIGINS"); customOrigins != "" {
			for _, allowed := range strings.Split(customOrigins, ",") {
				if origin == strings.TrimSpace(allowed) {
					return true
				}
			}
		}
		return false
	},
}

// channel is the contract a Client holds against the channel it belongs to.
// The chat and notification channels implement it independently.
type channel interface {
	// detach is called exactly once per connection when the transport
	// closes, gracefully or not.
	detach(c *Client)

	// inbound hands a raw frame from the client to the channel.
	inbound(c *Client, data []byte)
}

// Client is one live duplex connection on one channel. Its identity is set
// during the handshake and never changes afterwards.
type Client struct {
	id       string
	identity Identity
	ch       channel
	conn     *websocket.Conn
	send     chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	closed int32
}

func newClient(ch channel, conn *websocket.Conn, identity Identity) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:       uuid.New().String(),
		identity: identity,
		ch:       ch,
		conn:     conn,
		send:     make(chan []byte, 256),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Identity() Identity {
	return c.identity
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// close marks the client closed and cancels its context. The send channel is
// never closed: concurrent emitters check the flag instead, so a snapshot
// taken just before a disconnect cannot panic on a closed channel.
func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
		slog.Debug("Client marked as closed", "clientID", c.id, "userID", c.identity.ID)
	}
}

// enqueue places an already-encoded frame in the client's send buffer, so a
// broadcast encodes once no matter how many members receive it. A full buffer
// means the peer stopped draining; the client is dropped rather than letting
// it stall the dispatcher.
func (c *Client) enqueue(data []byte) error {
	if c.isClosed() {
		return ErrClientDisconnected
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientDisconnected
	default:
		slog.Warn("Send buffer full, closing client", "clientID", c.id, "userID", c.identity.ID)
		c.close()
		return ErrClientDisconnected
	}
}

func (c *Client) readPump() {
	defer func() {
		c.close()
		c.ch.detach(c)
		if err := c.conn.Close(); err != nil {
			slog.Debug("Error closing connection", "clientID", c.id, "error", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "clientID", c.id, "userID", c.identity.ID, "error", err)
			} else {
				slog.Debug("WebSocket connection closed", "clientID", c.id, "userID", c.identity.ID)
			}
			return
		}

		c.ch.inbound(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		slog.Debug("WritePump finished", "clientID", c.id, "userID", c.identity.ID)
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("Error writing message", "clientID", c.id, "error", err)
				c.close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("Error sending ping", "clientID", c.id, "error", err)
				c.close()
				return
			}

		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
