package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// DefaultReadLimit bounds inbound frames; JSON-RPC lobby traffic is
	// small.
	DefaultReadLimit = 1024
)

// PayloadHandler receives one inbound text-frame payload.
type PayloadHandler func(client *Client, payload []byte)

// Client represents one connected WebSocket peer.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	SessionID string
	Send      chan []byte

	readLimit int64

	closeMu sync.Mutex
	closed  bool

	disconnectMu sync.Mutex
	onDisconnect func(*Client)
}

// NewClient creates a client. readLimit <= 0 falls back to
// DefaultReadLimit.
func NewClient(hub *Hub, conn *websocket.Conn, sessionID string, readLimit int64) *Client {
	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}
	return &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
		readLimit: readLimit,
	}
}

// SetOnDisconnect installs the teardown callback; it runs exactly once,
// when the read pump exits.
func (c *Client) SetOnDisconnect(callback func(*Client)) {
	c.disconnectMu.Lock()
	defer c.disconnectMu.Unlock()
	c.onDisconnect = callback
}

func (c *Client) disconnectCallback() func(*Client) {
	c.disconnectMu.Lock()
	defer c.disconnectMu.Unlock()
	return c.onDisconnect
}

// Close closes the client connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.Conn != nil {
		c.Conn.Close()
	}
}

// IsClosed returns whether the client is closed.
func (c *Client) IsClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

// SendPayload queues one text frame for the write pump.
func (c *Client) SendPayload(payload []byte) error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closeMu.Unlock()

	select {
	case c.Send <- payload:
		return nil
	default:
		return ErrChannelFull
	}
}

// WritePump pumps queued payloads to the websocket connection and keeps
// the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if c.Conn != nil {
			c.Conn.Close()
		}
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			if !ok {
				return
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("ws: error writing to client %s: %v", c.SessionID, err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump pumps inbound text frames to the handler. It owns teardown:
// when the peer goes away the disconnect callback fires, the client is
// unregistered and closed.
func (c *Client) ReadPump(handler PayloadHandler) {
	defer func() {
		if callback := c.disconnectCallback(); callback != nil {
			callback(c)
		}
		c.Hub.Unregister(c)
		c.Close()
	}()

	c.Conn.SetReadLimit(c.readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: error reading from client %s: %v", c.SessionID, err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handler(c, payload)
	}
}

// Error types
type HubError string

func (e HubError) Error() string { return string(e) }

const (
	ErrChannelFull HubError = "send channel full"
)
