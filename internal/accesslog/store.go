// Package accesslog records served requests in a SQLite database.
package accesslog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"simpleserver/internal/paths"
)

// Entry is one handled request
type Entry struct {
	ID         int64     `json:"id" yaml:"id"`
	Time       time.Time `json:"time" yaml:"time"`
	RequestID  string    `json:"requestId" yaml:"requestId"`
	Method     string    `json:"method" yaml:"method"`
	Path       string    `json:"path" yaml:"path"`
	Status     int       `json:"status" yaml:"status"`
	Encoding   string    `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Bytes      int64     `json:"bytes" yaml:"bytes"`
	DurationMs int64     `json:"durationMs" yaml:"durationMs"`
	RemoteAddr string    `json:"remoteAddr" yaml:"remoteAddr"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Store is an access-log database
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// Open opens or creates the access-log database at dbPath.
// The schema is created on first use and migrated on later opens.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if _, err := paths.EnsureDir(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create access log directory: %w", err)
	}

	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; requests are recorded in order
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}

	if !dbExists {
		logger.Info("Creating access log database", "path", dbPath)
	}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Record appends an entry
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO requests (time, request_id, method, path, status, encoding, bytes, duration_ms, remote_addr, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UTC().Format(time.RFC3339Nano),
		e.RequestID, e.Method, e.Path, e.Status, e.Encoding,
		e.Bytes, e.DurationMs, e.RemoteAddr, e.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, time, request_id, method, path, status, encoding, bytes, duration_ms, remote_addr, error
		FROM requests
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.RequestID, &e.Method, &e.Path, &e.Status,
			&e.Encoding, &e.Bytes, &e.DurationMs, &e.RemoteAddr, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		if e.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// StatusCounts returns the number of recorded requests per status code
func (s *Store) StatusCounts(ctx context.Context) (map[int]int64, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var status int
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
