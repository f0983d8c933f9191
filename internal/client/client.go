// Package client is a synchronous JSON-RPC 2.0 WebSocket client. The
// integration harness drives the server with it; it also works as a minimal
// standalone client. Not safe for concurrent use: one goroutine, one
// in-flight call.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"cardtable-online/internal/jsonrpc"
)

// DefaultReadTimeout bounds every blocking read.
const DefaultReadTimeout = 5 * time.Second

// RPCError is an error frame surfaced from a Call.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Notification is a buffered server-originated notification.
type Notification struct {
	Method string
	Params json.RawMessage
}

// Client wraps one WebSocket connection.
type Client struct {
	conn        *websocket.Conn
	nextID      int64
	readTimeout time.Duration
	pending     []Notification
}

// Dial connects to a ws:// URL.
func Dial(url string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, readTimeout: DefaultReadTimeout}, nil
}

// SetReadTimeout overrides the per-read deadline.
func (c *Client) SetReadTimeout(d time.Duration) {
	c.readTimeout = d
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes a raw payload; for exercising malformed frames.
func (c *Client) Send(payload []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Call sends a request and blocks until its response arrives. A result
// frame is decoded into out (which may be nil); an error frame is returned
// as *RPCError. Notifications arriving in between are buffered for
// NextNotification.
func (c *Client) Call(method string, params, out any) error {
	c.nextID++
	id := c.nextID

	payload, err := jsonrpc.EncodeRequest(id, method, params)
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}

	want, err := json.Marshal(id)
	if err != nil {
		return err
	}

	for {
		frame, err := c.readFrame()
		if err != nil {
			return err
		}
		switch frame.Kind {
		case jsonrpc.KindCall:
			// Server-originated notification (or stray call); buffer it.
			c.pending = append(c.pending, Notification{
				Method: frame.Call.Method,
				Params: frame.Call.Params,
			})
		case jsonrpc.KindResponse:
			if !idEqual(frame.Response.ID, want) {
				return fmt.Errorf("response id mismatch: got %s, want %s", frame.Response.ID, want)
			}
			if out == nil {
				return nil
			}
			return json.Unmarshal(frame.Response.Result, out)
		case jsonrpc.KindError:
			if frame.Error.ID != nil && !bytes.Equal(bytes.TrimSpace(frame.Error.ID), []byte("null")) && !idEqual(frame.Error.ID, want) {
				return fmt.Errorf("error id mismatch: got %s, want %s", frame.Error.ID, want)
			}
			return &RPCError{Code: frame.Error.Code, Message: frame.Error.Message}
		}
	}
}

// Notify sends a notification; no response is awaited.
func (c *Client) Notify(method string, params any) error {
	payload, err := jsonrpc.EncodeNotification(method, params)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// NextNotification returns the next buffered or arriving notification.
func (c *Client) NextNotification() (Notification, error) {
	if len(c.pending) > 0 {
		n := c.pending[0]
		c.pending = c.pending[1:]
		return n, nil
	}
	for {
		frame, err := c.readFrame()
		if err != nil {
			return Notification{}, err
		}
		if frame.Kind == jsonrpc.KindCall {
			return Notification{Method: frame.Call.Method, Params: frame.Call.Params}, nil
		}
		// Responses without a matching call are dropped.
	}
}

// NextError reads frames until an error frame arrives; for exercising
// protocol-level failures where no request id exists.
func (c *Client) NextError() (*RPCError, error) {
	for {
		frame, err := c.readFrame()
		if err != nil {
			return nil, err
		}
		switch frame.Kind {
		case jsonrpc.KindError:
			return &RPCError{Code: frame.Error.Code, Message: frame.Error.Message}, nil
		case jsonrpc.KindCall:
			c.pending = append(c.pending, Notification{
				Method: frame.Call.Method,
				Params: frame.Call.Params,
			})
		}
	}
}

func (c *Client) readFrame() (jsonrpc.Frame, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return jsonrpc.Frame{}, err
	}
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		return jsonrpc.Frame{}, err
	}
	return jsonrpc.Parse(payload)
}

func idEqual(a, b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
}
