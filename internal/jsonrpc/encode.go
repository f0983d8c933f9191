package jsonrpc

import "encoding/json"

type wireRequest struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  any             `json:"params"`
}

type wireResponse struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
}

type wireErrorFrame struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   wireErrorBody   `json:"error"`
}

type wireErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EncodeRequest builds a request envelope with an integer id.
func EncodeRequest(id int64, method string, params any) ([]byte, error) {
	raw, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireRequest{Version: Version, ID: raw, Method: method, Params: params})
}

// EncodeNotification builds a request envelope without an id.
func EncodeNotification(method string, params any) ([]byte, error) {
	return json.Marshal(wireRequest{Version: Version, Method: method, Params: params})
}

// EncodeResponse builds a result envelope echoing the caller's id.
func EncodeResponse(id json.RawMessage, result any) ([]byte, error) {
	return json.Marshal(wireResponse{Version: Version, ID: normalizeID(id), Result: result})
}

// EncodeNullResponse builds a result envelope whose result is JSON null.
func EncodeNullResponse(id json.RawMessage) ([]byte, error) {
	return json.Marshal(wireResponse{Version: Version, ID: normalizeID(id), Result: nil})
}

// EncodeError builds an error envelope. A nil id is emitted as JSON null,
// matching the convention for requests whose id could not be recovered.
func EncodeError(id json.RawMessage, code int, message string) ([]byte, error) {
	return json.Marshal(wireErrorFrame{
		Version: Version,
		ID:      normalizeID(id),
		Error:   wireErrorBody{Code: code, Message: message},
	})
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if id == nil {
		return jsonNull
	}
	return id
}
