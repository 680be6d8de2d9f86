// Package api exposes the HTTP surface of the visualization server: the
// WebSocket RPC endpoint, health and audit endpoints, and debug charts.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/invincibleAntares/vtu-vtk/internal/httputil"
	"github.com/invincibleAntares/vtu-vtk/internal/store"
	"github.com/invincibleAntares/vtu-vtk/internal/version"
	"github.com/invincibleAntares/vtu-vtk/internal/viz"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server wires the RPC endpoint, the audit store, and the pipeline into one
// HTTP mux. The store and pipeline are optional; the mock server runs with
// neither.
type Server struct {
	rpc       http.Handler
	db        *store.DB
	pipeline  *viz.Pipeline
	exportDir string
}

// NewServer builds a Server. db, pipeline, and exportDir may be zero for the
// mock deployment.
func NewServer(rpc http.Handler, db *store.DB, pipeline *viz.Pipeline, exportDir string) *Server {
	return &Server{rpc: rpc, db: db, pipeline: pipeline, exportDir: exportDir}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.rpc)
	mux.HandleFunc("/healthz", s.showHealth)
	mux.HandleFunc("/api/colormaps", s.listColorMaps)
	if s.db != nil {
		mux.HandleFunc("/api/calls", s.listCalls)
		mux.HandleFunc("/api/exports", s.listExports)
	}
	if s.pipeline != nil {
		mux.HandleFunc("/api/charts/contours", s.showContourChart)
	}
	if s.exportDir != "" {
		mux.Handle("/exports/", http.StripPrefix("/exports/", http.FileServer(http.Dir(s.exportDir))))
	}
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration. The websocket
// endpoint bypasses the wrapper because the upgrader needs the raw
// http.Hijacker.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) showHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	health := map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
		"git_sha": version.GitSHA,
	}
	if ml, ok := s.rpc.(interface{ Methods() []string }); ok {
		health["methods"] = ml.Methods()
	}
	if s.pipeline != nil {
		health["session_id"] = s.pipeline.SessionID()
	}
	if s.db != nil {
		if stats, err := s.db.CallStats(); err == nil {
			health["calls"] = stats
		}
	}
	httputil.WriteJSONOK(w, health)
}

func (s *Server) listColorMaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"color_maps": viz.ColorMapPresets()})
}

func (s *Server) listCalls(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	calls, err := s.db.ListCalls(parseLimit(r, 100))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"calls": calls})
}

func (s *Server) listExports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	exports, err := s.db.ListExports(parseLimit(r, 100))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"exports": exports})
}

func parseLimit(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 10000 {
			return v
		}
	}
	return def
}
