// Package store persists the server's audit trail: sessions, RPC calls, and
// exported screenshots, in a local sqlite database.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and runs
// any pending migrations.
func Open(path string) (*DB, error) {
	db, err := OpenWithoutMigrations(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenWithoutMigrations opens the database without touching the schema.
// The migrate subcommand uses this to manage the schema explicitly.
func OpenWithoutMigrations(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; serializing through one connection
	// avoids SQLITE_BUSY under concurrent RPC audit writes.
	db.SetMaxOpenConns(1)
	return &DB{db}, nil
}

// RecordSession registers a pipeline session.
func (db *DB) RecordSession(sessionID, remoteAddr string) error {
	_, err := db.Exec(
		"INSERT OR IGNORE INTO sessions (session_id, remote_addr) VALUES (?, ?)",
		sessionID, remoteAddr,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RecordCall appends one RPC call to the audit log. errMsg is empty for
// successful dispatches; status is the in-result status when the handler
// produced one.
func (db *DB) RecordCall(sessionID, method, params, status, errMsg string, elapsed time.Duration) error {
	_, err := db.Exec(
		"INSERT INTO rpc_calls (session_id, method, params, status, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?)",
		sessionID, method, params, status, errMsg, float64(elapsed.Nanoseconds())/1e6,
	)
	if err != nil {
		return fmt.Errorf("failed to record call: %w", err)
	}
	return nil
}

// RecordExport appends one exported screenshot. It implements
// viz.ExportRecorder.
func (db *DB) RecordExport(sessionID, filename string, width, height int, sizeBytes int64) error {
	_, err := db.Exec(
		"INSERT INTO exports (session_id, filename, width, height, size_bytes) VALUES (?, ?, ?, ?, ?)",
		sessionID, filename, width, height, sizeBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

// CallRecord is one row of the RPC audit log.
type CallRecord struct {
	ID         int64   `json:"id"`
	SessionID  string  `json:"session_id"`
	Method     string  `json:"method"`
	Params     string  `json:"params,omitempty"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	DurationMs float64 `json:"duration_ms"`
	Timestamp  string  `json:"timestamp"`
}

// ListCalls returns the most recent RPC calls, newest first.
func (db *DB) ListCalls(limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		"SELECT call_id, session_id, method, params, status, error, duration_ms, timestamp FROM rpc_calls ORDER BY call_id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	var calls []CallRecord
	for rows.Next() {
		var c CallRecord
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Method, &c.Params, &c.Status, &c.Error, &c.DurationMs, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// ExportRecord is one exported screenshot.
type ExportRecord struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
	Timestamp string `json:"timestamp"`
}

// ListExports returns the most recent exports, newest first.
func (db *DB) ListExports(limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		"SELECT export_id, session_id, filename, width, height, size_bytes, timestamp FROM exports ORDER BY export_id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	var exports []ExportRecord
	for rows.Next() {
		var e ExportRecord
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Filename, &e.Width, &e.Height, &e.SizeBytes, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// MethodCount is the per-method call tally reported by /healthz.
type MethodCount struct {
	Method string `json:"method"`
	Count  int64  `json:"count"`
}

// CallStats returns call counts grouped by method.
func (db *DB) CallStats() ([]MethodCount, error) {
	rows, err := db.Query("SELECT method, COUNT(*) FROM rpc_calls GROUP BY method ORDER BY method")
	if err != nil {
		return nil, fmt.Errorf("failed to query call stats: %w", err)
	}
	defer rows.Close()

	var stats []MethodCount
	for rows.Next() {
		var mc MethodCount
		if err := rows.Scan(&mc.Method, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan call stats: %w", err)
		}
		stats = append(stats, mc)
	}
	return stats, rows.Err()
}
