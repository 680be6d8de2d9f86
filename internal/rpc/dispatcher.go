package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/invincibleAntares/vtu-vtk/internal/monitoring"
	"github.com/invincibleAntares/vtu-vtk/internal/timeutil"
)

// HandlerFunc processes the params of a single method call and returns a
// JSON-serializable result. A returned error becomes an error.message reply.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// CallObserver is notified after every dispatched call. It is used to record
// an audit trail of RPC activity without coupling the dispatcher to storage.
type CallObserver func(method string, params json.RawMessage, result interface{}, err error, elapsed time.Duration)

// Dispatcher maps method names to handlers. Registration happens during
// startup, before any connection is served, so the map needs no locking.
type Dispatcher struct {
	handlers map[string]HandlerFunc

	// Fallback, when set, handles any method without a registered handler.
	// The mock server uses this to answer every method with a canned reply.
	Fallback func(ctx context.Context, method string, params json.RawMessage) (interface{}, error)

	observer CallObserver
	clock    timeutil.Clock
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		clock:    timeutil.RealClock{},
	}
}

// SetClock replaces the timing source used to measure call durations.
func (d *Dispatcher) SetClock(c timeutil.Clock) { d.clock = c }

// Register binds a handler to a method name, replacing any previous binding.
func (d *Dispatcher) Register(method string, h HandlerFunc) {
	d.handlers[method] = h
}

// Methods returns the registered method names in sorted order. The health
// endpoint reports them so a dashboard can see which surface it is talking
// to.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetObserver installs a call observer. Pass nil to remove it.
func (d *Dispatcher) SetObserver(obs CallObserver) { d.observer = obs }

// Dispatch parses one request frame and returns the response to send back.
// It never returns nil: malformed JSON and unknown methods produce
// error.message responses rather than dropping the frame.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(nil, fmt.Sprintf("invalid request: %v", err))
	}
	if req.Method == "" {
		return errorResponse(req.ID, "request has no method")
	}

	handler, ok := d.handlers[req.Method]
	if !ok && d.Fallback != nil {
		method := req.Method
		handler = func(ctx context.Context, params json.RawMessage) (interface{}, error) {
			return d.Fallback(ctx, method, params)
		}
	}
	if handler == nil {
		return errorResponse(req.ID, fmt.Sprintf("unknown method: %s", req.Method))
	}

	start := d.clock.Now()
	result, err := handler(ctx, req.Params)
	elapsed := d.clock.Since(start)

	if d.observer != nil {
		d.observer(req.Method, req.Params, result, err, elapsed)
	}

	if err != nil {
		monitoring.Logf("rpc: %s failed after %v: %v", req.Method, elapsed, err)
		return errorResponse(req.ID, err.Error())
	}
	return &Response{ID: req.ID, Result: result}
}

// DispatchBytes runs Dispatch and marshals the response. A response that
// fails to marshal is replaced by a plain error frame; handlers returning
// unmarshalable results are programming errors.
func (d *Dispatcher) DispatchBytes(ctx context.Context, raw []byte) []byte {
	resp := d.Dispatch(ctx, raw)
	b, err := json.Marshal(resp)
	if err != nil {
		monitoring.Logf("rpc: failed to marshal response: %v", err)
		b, _ = json.Marshal(errorResponse(resp.ID, "internal error: unserializable response"))
	}
	return b
}
