package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is a minimal WebSocket RPC client used by tests and command-line
// tooling. Calls are issued one at a time; the dashboard's own client lives
// in the frontend.
type Client struct {
	mu     sync.Mutex
	wc     *websocket.Conn
	nextID int64
}

// Dial connects to a server at the given ws:// URL.
func Dial(ctx context.Context, url string) (*Client, error) {
	wc, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("rpc dial %s: %w", url, err)
	}
	return &Client{wc: wc}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wc.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.wc.Close()
}

// Call invokes a method and waits for the matching response. The params
// value is marshaled as the request's params object; pass nil for no params.
// A response carrying error.message is returned as an *Error.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	req := Request{
		ID:     json.RawMessage(fmt.Sprintf("%d", id)),
		Method: method,
	}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("rpc marshal params: %w", err)
		}
		req.Params = b
	}

	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		c.wc.SetWriteDeadline(deadline)
		c.wc.SetReadDeadline(deadline)
	}
	if err := c.wc.WriteMessage(websocket.TextMessage, b); err != nil {
		return nil, fmt.Errorf("rpc write %s: %w", method, err)
	}

	// Read frames until the response with our id arrives. Pings and
	// unrelated frames are skipped.
	for {
		var resp struct {
			ID     json.RawMessage `json:"id"`
			Result json.RawMessage `json:"result"`
			Error  *Error          `json:"error"`
		}
		_, raw, err := c.wc.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("rpc read %s: %w", method, err)
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("rpc decode %s: %w", method, err)
		}
		var gotID int64
		if err := json.Unmarshal(resp.ID, &gotID); err != nil || gotID != id {
			continue
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}
