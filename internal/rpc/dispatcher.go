// Package rpc is the per-connection dispatch fabric: a method-name to
// handler map, typed handler thunks, and the connect/call/disconnect
// lifecycle.
package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"cardtable-online/internal/jsonrpc"
)

// Error types
type DispatchError string

func (e DispatchError) Error() string { return string(e) }

const (
	// ErrHandlerExists rejects duplicate method registration.
	ErrHandlerExists DispatchError = "HandlerExists"

	// errInvalidParams marks a params-decoding failure inside a thunk.
	errInvalidParams DispatchError = "InvalidParams"
)

// Conn is the write half of a transport connection.
type Conn interface {
	SendPayload(payload []byte) error
}

// HandlerFunc is the uniform thunk signature every method is adapted to.
type HandlerFunc func(sess *Session, params json.RawMessage) (any, error)

// SystemNotice is the payload of server-originated system notifications.
type SystemNotice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Dispatcher owns the method map and the connection lifecycle. Methods are
// registered once at startup, before the server accepts connections;
// lookups after that need no locking.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc

	teardown func(*Session)
	observe  func(method string, errCode int)
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// SetTeardown installs the disconnect hook (releasing the user identity and
// evicting the user from their room).
func (d *Dispatcher) SetTeardown(fn func(*Session)) {
	d.teardown = fn
}

// SetObserver installs a per-call hook; errCode is 0 for success.
func (d *Dispatcher) SetObserver(fn func(method string, errCode int)) {
	d.observe = fn
}

// Register adds a typed handler for a method. The thunk decodes params into
// Req (unknown fields ignored, type mismatches rejected as invalid params),
// invokes the handler and hands back the response value.
func Register[Req, Resp any](d *Dispatcher, method string, handler func(sess *Session, req Req) (Resp, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[method]; exists {
		return ErrHandlerExists
	}
	d.handlers[method] = func(sess *Session, params json.RawMessage) (any, error) {
		var req Req
		if len(params) > 0 && !bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
			if err := json.Unmarshal(params, &req); err != nil {
				return nil, errInvalidParams
			}
		}
		return handler(sess, req)
	}
	return nil
}

// Methods returns the registered method names.
func (d *Dispatcher) Methods() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	return out
}

// OnConnect emits the welcome notification.
func (d *Dispatcher) OnConnect(conn Conn, sess *Session) {
	payload, err := jsonrpc.EncodeNotification("system", SystemNotice{
		Code:    "connected",
		Message: "Welcome to the game server",
	})
	if err != nil {
		log.Printf("rpc: failed to encode welcome for %s: %v", sess.ID, err)
		return
	}
	if err := conn.SendPayload(payload); err != nil {
		log.Printf("rpc: failed to send welcome to %s: %v", sess.ID, err)
	}
}

// OnCall routes one inbound call. Unknown methods answer requests with
// -32601 and drop notifications; handler errors become -32000 frames
// carrying the variant name, or are only logged for notifications.
func (d *Dispatcher) OnCall(conn Conn, sess *Session, call *jsonrpc.Call) {
	handler, ok := d.handlers[call.Method]
	if !ok {
		d.observeCall(call.Method, jsonrpc.CodeMethodNotFound)
		if call.IsNotification() {
			return
		}
		d.writeError(conn, sess, call.ID, jsonrpc.CodeMethodNotFound, "Method not found")
		return
	}

	result, err := handler(sess, call.Params)

	if call.IsNotification() {
		if err != nil {
			log.Printf("rpc: notification %q from %s failed: %v", call.Method, sess.ID, err)
		}
		d.observeCall(call.Method, errCode(err))
		return
	}

	if err != nil {
		code, message := toWireError(err)
		d.observeCall(call.Method, code)
		d.writeError(conn, sess, call.ID, code, message)
		return
	}

	payload, err := jsonrpc.EncodeResponse(call.ID, result)
	if err != nil {
		log.Printf("rpc: failed to encode response for %q: %v", call.Method, err)
		d.observeCall(call.Method, jsonrpc.CodeInternalError)
		d.writeError(conn, sess, call.ID, jsonrpc.CodeInternalError, "Internal error")
		return
	}
	d.observeCall(call.Method, 0)
	if err := conn.SendPayload(payload); err != nil {
		log.Printf("rpc: failed to send response to %s: %v", sess.ID, err)
	}
}

// OnDisconnect runs connection teardown exactly once per session.
func (d *Dispatcher) OnDisconnect(sess *Session) {
	if !sess.markDisconnected() {
		return
	}
	if d.teardown != nil {
		d.teardown(sess)
	}
	sess.UserID = 0
	sess.UserName = ""
	sess.RoomID = 0
}

// writeError sends an error frame; a write failure on an error response is
// logged and swallowed, the connection is already suspect.
func (d *Dispatcher) writeError(conn Conn, sess *Session, id json.RawMessage, code int, message string) {
	payload, err := jsonrpc.EncodeError(id, code, message)
	if err != nil {
		log.Printf("rpc: failed to encode error frame: %v", err)
		return
	}
	if err := conn.SendPayload(payload); err != nil {
		log.Printf("rpc: failed to send error to %s: %v", sess.ID, err)
	}
}

func (d *Dispatcher) observeCall(method string, code int) {
	if d.observe != nil {
		d.observe(method, code)
	}
}

func toWireError(err error) (int, string) {
	if errors.Is(err, errInvalidParams) {
		return jsonrpc.CodeInvalidParams, "Invalid params"
	}
	return jsonrpc.CodeServerError, err.Error()
}

func errCode(err error) int {
	if err == nil {
		return 0
	}
	code, _ := toWireError(err)
	return code
}
