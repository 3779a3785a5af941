package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

// DefaultSQLitePath is the database file used when none is configured.
const DefaultSQLitePath = "aqi_history.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS readings (
  id    INTEGER PRIMARY KEY AUTOINCREMENT,
  ts    TEXT    NOT NULL,
  pm25  REAL    NOT NULL,
  pm10  REAL    NOT NULL
);
`

const (
	selectReadingsSQL = `SELECT ts, pm25, pm10 FROM readings ORDER BY id`
	insertReadingSQL  = `INSERT INTO readings (ts, pm25, pm10) VALUES (?, ?, ?)`
)

// SQLiteStore keeps the history in a SQLite table. Unlike the CSV store an
// append inserts a single row; the id column preserves insertion order.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// One writer at a time; SQLite serialises anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (airquality.History, error) {
	rows, err := s.db.QueryContext(ctx, selectReadingsSQL)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()

	history := airquality.History{}
	for rows.Next() {
		var (
			ts         string
			pm25, pm10 float64
		)
		if err := rows.Scan(&ts, &pm25, &pm10); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		history = append(history, airquality.Reading{Time: t, PM25: &pm25, PM10: &pm10})
	}
	return history, rows.Err()
}

func (s *SQLiteStore) Append(ctx context.Context, h airquality.History, r airquality.Reading) (airquality.History, error) {
	if !r.Complete() {
		return h, nil
	}
	tsStr := r.Time.UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, insertReadingSQL, tsStr, *r.PM25, *r.PM10); err != nil {
		return h, fmt.Errorf("insert reading: %w", err)
	}
	return appendReading(h, r), nil
}

func buildDSN(path string) (string, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if path == ":memory:" {
		return path, nil
	}

	// Ensure directory exists for file-backed sqlite db
	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
