package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/invincibleAntares/vtu-vtk/internal/rpc"
)

func startTestServer(t *testing.T, d *rpc.Dispatcher) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/ws", rpc.NewServer(d))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestServerRoundTrip(t *testing.T) {
	d := rpc.NewDispatcher()
	d.Register("vtk.ping", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return map[string]string{"status": "success", "message": "pong"}, nil
	})
	url := startTestServer(t, d)

	ctx := testContext(t)
	client, err := rpc.Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	result, err := client.Call(ctx, "vtk.ping", nil)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal(result, &payload); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if payload["message"] != "pong" {
		t.Errorf("message = %q, want pong", payload["message"])
	}
}

func TestServerUnknownMethod(t *testing.T) {
	url := startTestServer(t, rpc.NewDispatcher())

	ctx := testContext(t)
	client, err := rpc.Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	_, err = client.Call(ctx, "vtk.nope", nil)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
	var rpcErr *rpc.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error type = %T, want *rpc.Error", err)
	}
	if rpcErr.Message != "unknown method: vtk.nope" {
		t.Errorf("message = %q", rpcErr.Message)
	}
}

func TestServerSequentialCalls(t *testing.T) {
	d := rpc.NewDispatcher()
	d.Register("count", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var args struct {
			N int `json:"n"`
		}
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, err
		}
		return args.N * 2, nil
	})
	url := startTestServer(t, d)

	ctx := testContext(t)
	client, err := rpc.Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	for n := 1; n <= 5; n++ {
		result, err := client.Call(ctx, "count", map[string]int{"n": n})
		if err != nil {
			t.Fatalf("call %d failed: %v", n, err)
		}
		var doubled int
		if err := json.Unmarshal(result, &doubled); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
		if doubled != n*2 {
			t.Errorf("count(%d) = %d, want %d", n, doubled, n*2)
		}
	}
}

func TestServerClientCount(t *testing.T) {
	d := rpc.NewDispatcher()
	srv := rpc.NewServer(d)
	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	ts := httptest.NewServer(mux)
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	ctx := testContext(t)
	client, err := rpc.Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	waitFor(t, func() bool { return srv.ClientCount() == 1 })
	client.Close()
	waitFor(t, func() bool { return srv.ClientCount() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
