package jsonrpc

import "errors"

// JSON-RPC 2.0 error codes used on the wire.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000
)

// CodecError classifies framing failures
type CodecError string

func (e CodecError) Error() string { return string(e) }

const (
	ErrMalformedJSON  CodecError = "malformed JSON"
	ErrInvalidRequest CodecError = "invalid request envelope"
)

// MapParseError converts a Parse failure into the JSON-RPC error code and
// message that should be sent back to the peer.
func MapParseError(err error) (int, string) {
	if errors.Is(err, ErrMalformedJSON) {
		return CodeParseError, "Parse error"
	}
	return CodeInvalidRequest, "Invalid Request"
}
