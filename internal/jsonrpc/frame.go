package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// Version is the protocol version every envelope must carry.
const Version = "2.0"

// Kind tags the three frame shapes a peer can send.
type Kind int

const (
	KindCall Kind = iota + 1
	KindResponse
	KindError
)

// Call is a request or notification from the peer. ID is nil for
// notifications; Params is JSON null when the field was absent.
type Call struct {
	Method string
	Params json.RawMessage
	ID     json.RawMessage
}

// IsNotification reports whether the call carries no id and therefore
// expects no response.
func (c *Call) IsNotification() bool { return c.ID == nil }

// Response is a result frame.
type Response struct {
	ID     json.RawMessage
	Result json.RawMessage
}

// ErrorFrame is an error frame. ID may be nil when the peer could not
// recover the request id.
type ErrorFrame struct {
	ID      json.RawMessage
	Code    int
	Message string
	Data    json.RawMessage
}

// Frame is one parsed JSON-RPC envelope. Exactly one of Call, Response,
// Error is non-nil, matching Kind.
type Frame struct {
	Kind     Kind
	Call     *Call
	Response *Response
	Error    *ErrorFrame
}

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	jsonNull = []byte("null")
)

type envelope struct {
	Version *string         `json:"jsonrpc"`
	Method  *string         `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

type wireError struct {
	Code    *int            `json:"code"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Parse decodes one text-frame payload into a Frame. A single trailing NUL
// and a leading UTF-8 BOM are stripped before decoding; some clients emit
// both. Failures are ErrMalformedJSON (not JSON at all) or ErrInvalidRequest
// (JSON, but not a valid envelope).
func Parse(data []byte) (Frame, error) {
	if n := len(data); n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if !json.Valid(data) {
		return Frame{}, ErrMalformedJSON
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Valid JSON that is not an object.
		return Frame{}, ErrInvalidRequest
	}
	if env.Version == nil || *env.Version != Version {
		return Frame{}, ErrInvalidRequest
	}

	switch {
	case env.Method != nil:
		if !validID(env.ID) {
			return Frame{}, ErrInvalidRequest
		}
		params := env.Params
		if params == nil {
			params = jsonNull
		}
		return Frame{Kind: KindCall, Call: &Call{
			Method: *env.Method,
			Params: params,
			ID:     env.ID,
		}}, nil

	case env.Result != nil:
		if env.ID == nil || !validID(env.ID) {
			return Frame{}, ErrInvalidRequest
		}
		return Frame{Kind: KindResponse, Response: &Response{
			ID:     env.ID,
			Result: env.Result,
		}}, nil

	case env.Error != nil:
		var we wireError
		if err := json.Unmarshal(env.Error, &we); err != nil {
			return Frame{}, ErrInvalidRequest
		}
		if we.Code == nil || we.Message == nil || !validID(env.ID) {
			return Frame{}, ErrInvalidRequest
		}
		return Frame{Kind: KindError, Error: &ErrorFrame{
			ID:      env.ID,
			Code:    *we.Code,
			Message: *we.Message,
			Data:    we.Data,
		}}, nil
	}

	return Frame{}, ErrInvalidRequest
}

// validID accepts an absent id, JSON null, a string, or an integer.
func validID(raw json.RawMessage) bool {
	if raw == nil {
		return true
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	if bytes.Equal(trimmed, jsonNull) {
		return true
	}
	if trimmed[0] == '"' {
		var s string
		return json.Unmarshal(trimmed, &s) == nil
	}
	var i int64
	return json.Unmarshal(trimmed, &i) == nil
}
