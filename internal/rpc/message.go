// Package rpc implements the JSON-RPC link between the dashboard and the
// visualization pipeline. Requests and responses are JSON text frames on a
// WebSocket connection; request ids are echoed back verbatim so clients can
// match replies to calls.
package rpc

import "encoding/json"

// Request is an incoming method call.
//
// The id is kept as raw JSON because dashboards send whatever id type their
// RPC client generates (numbers, strings, null) and the response must echo
// it unchanged.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the reply to a single Request. Exactly one of Result or Error
// is populated.
type Response struct {
	ID     json.RawMessage `json:"id"`
	Result interface{}     `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error reports a dispatch or transport failure. Handler-level failures are
// reported inside the result payload instead, with status "error".
type Error struct {
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// errorResponse builds a Response carrying an error message. A request that
// could not be parsed has no usable id; following the wire protocol the id
// defaults to 0 in that case.
func errorResponse(id json.RawMessage, msg string) *Response {
	if len(id) == 0 {
		id = json.RawMessage("0")
	}
	return &Response{ID: id, Error: &Error{Message: msg}}
}
