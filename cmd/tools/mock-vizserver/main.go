// Command mock-vizserver runs the RPC surface with canned responses.
//
// This is useful for testing the dashboard connection without the rendering
// stack or a dataset: every vtk.* method answers with a fixed payload, and
// unknown methods get a generic success.
//
// Usage:
//
//	go run ./cmd/tools/mock-vizserver [flags]
//
// Flags:
//
//	-listen  Listen address (default: localhost:1234)
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/invincibleAntares/vtu-vtk/internal/api"
	"github.com/invincibleAntares/vtu-vtk/internal/rpc"
	"github.com/invincibleAntares/vtu-vtk/internal/viz"
)

func main() {
	listen := flag.String("listen", "localhost:1234", "Listen address")
	flag.Parse()

	dispatcher := rpc.NewDispatcher()
	viz.RegisterSyntheticHandlers(dispatcher)

	rpcServer := rpc.NewServer(dispatcher)
	apiServer := api.NewServer(rpcServer, nil, nil, "")

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(apiServer.ServeMux()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("mock server running on ws://%s/ws", *listen)
		log.Printf("the dashboard can now connect without the rendering stack")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("mock server stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)
}
