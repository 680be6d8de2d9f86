// Command vizserver runs the server-side visualization backend for the
// dashboard. It exposes the vtk.* RPC methods over a WebSocket endpoint,
// renders through gonum/plot, and keeps an audit trail in sqlite.
//
// Usage:
//
//	go run ./cmd/vizserver [flags]
//	go run ./cmd/vizserver migrate up|down|version|force <v>
//
// Flags:
//
//	-listen   Listen address (default: :1234)
//	-data     Legacy VTK dataset to visualize (default: public/Topology.vtk)
//	-db       Audit database path (default: vizserver.db)
//	-output   Directory for exported images (default: exports)
//	-config   Optional JSON render config (partial files are merged over defaults)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/invincibleAntares/vtu-vtk/internal/api"
	"github.com/invincibleAntares/vtu-vtk/internal/config"
	"github.com/invincibleAntares/vtu-vtk/internal/rpc"
	"github.com/invincibleAntares/vtu-vtk/internal/store"
	"github.com/invincibleAntares/vtu-vtk/internal/version"
	"github.com/invincibleAntares/vtu-vtk/internal/viz"
)

var (
	listen      = flag.String("listen", ":1234", "Listen address")
	dataFile    = flag.String("data", "public/Topology.vtk", "Legacy VTK dataset to visualize")
	dbFile      = flag.String("db", "vizserver.db", "Audit database path")
	outputDir   = flag.String("output", "exports", "Directory for exported images")
	configFile  = flag.String("config", "", "Optional JSON render config")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("vizserver %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		runMigrateCommand(args[1:], *dbFile)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg.Merge(loaded)
	}
	settings := cfg.Settings()

	db, err := store.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	pipeline := viz.NewPipeline(settings, *dataFile, *outputDir)
	pipeline.SetExportRecorder(db)
	if err := db.RecordSession(pipeline.SessionID(), *listen); err != nil {
		log.Printf("failed to record session: %v", err)
	}

	dispatcher := rpc.NewDispatcher()
	viz.RegisterHandlers(dispatcher, pipeline)
	dispatcher.SetObserver(auditObserver(db, pipeline.SessionID()))

	rpcServer := rpc.NewServer(dispatcher)
	apiServer := api.NewServer(rpcServer, db, pipeline, *outputDir)

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(apiServer.ServeMux()),
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("vizserver %s listening on %s (ws endpoint: /ws)", version.Version, *listen)
		log.Printf("dataset: %s, exports: %s, db: %s", *dataFile, *outputDir, *dbFile)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown failed: %v", err)
	}
	wg.Wait()
}

// auditObserver records every dispatched call in the store. The in-result
// status is recovered from the handler's payload; dispatch errors are
// recorded with status "error".
func auditObserver(db *store.DB, sessionID string) rpc.CallObserver {
	return func(method string, params json.RawMessage, result interface{}, err error, elapsed time.Duration) {
		status := "success"
		errMsg := ""
		if err != nil {
			status = "error"
			errMsg = err.Error()
		} else if s := resultStatus(result); s != "" {
			status = s
		}
		if recErr := db.RecordCall(sessionID, method, string(params), status, errMsg, elapsed); recErr != nil {
			log.Printf("failed to record call %s: %v", method, recErr)
		}
	}
}

func resultStatus(result interface{}) string {
	if result == nil {
		return ""
	}
	b, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return ""
	}
	return payload.Status
}

func runMigrateCommand(args []string, dbPath string) {
	if len(args) < 1 {
		printMigrateHelp()
		os.Exit(1)
	}

	db, err := store.OpenWithoutMigrations(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch args[0] {
	case "up":
		if err := db.MigrateUp(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Printf("Migrations applied")
	case "down":
		if err := db.MigrateDown(); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Printf("Rolled back one migration")
	case "version":
		v, dirty, err := db.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to read migration version: %v", err)
		}
		log.Printf("Migration version: %d (dirty: %v)", v, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal("force requires a version number")
		}
		var v int
		if _, err := fmt.Sscanf(args[1], "%d", &v); err != nil {
			log.Fatalf("Invalid version %q: %v", args[1], err)
		}
		if err := db.MigrateForce(v); err != nil {
			log.Fatalf("Force failed: %v", err)
		}
		log.Printf("Forced migration version to %d", v)
	default:
		printMigrateHelp()
		os.Exit(1)
	}
}

func printMigrateHelp() {
	fmt.Println("Usage: vizserver migrate <up|down|version|force <v>>")
}
