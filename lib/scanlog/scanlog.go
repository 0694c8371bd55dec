// Package scanlog keeps an append-only history of scan cycles in
// sqlite, either a local file or a remote libsql database.
package scanlog

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	start_time INTEGER NOT NULL,
	end_time INTEGER NOT NULL,
	duration_seconds REAL NOT NULL,
	urls_checked INTEGER NOT NULL,
	changes_detected INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	status TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_history_start_time ON scan_history(start_time);
`

type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Config) OpenDB() (*sql.DB, error) {
	if config.Url != "" {
		values := url.Values{}
		if config.AuthToken != "" {
			values.Add("authToken", config.AuthToken)
		}
		return sql.Open("libsql", config.Url+"?"+values.Encode())
	}

	if config.File == "" {
		return nil, fmt.Errorf("a database path was not specified")
	}
	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// sqlite permits a single writer at a time
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Open opens the configured database and applies the schema.
func Open(config Config) (Store, error) {
	db, err := config.OpenDB()
	if err != nil {
		return Store{}, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		return Store{}, fmt.Errorf("apply scan history schema: %w", err)
	}
	return NewStore(db), nil
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

// Record is one completed scan cycle.
type Record struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	UrlsChecked     int       `json:"urls_checked"`
	ChangesDetected int       `json:"changes_detected"`
	Errors          int       `json:"errors"`
	Status          string    `json:"status"`
}

func (s Store) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_history (start_time, end_time, duration_seconds, urls_checked, changes_detected, errors, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.StartTime.Unix(), rec.EndTime.Unix(), rec.DurationSeconds,
		rec.UrlsChecked, rec.ChangesDetected, rec.Errors, rec.Status,
	)
	return err
}

// Recent returns up to n records, newest first.
func (s Store) Recent(ctx context.Context, n int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT start_time, end_time, duration_seconds, urls_checked, changes_detected, errors, status
		FROM scan_history ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var start, end int64
		err := rows.Scan(
			&start, &end, &rec.DurationSeconds,
			&rec.UrlsChecked, &rec.ChangesDetected, &rec.Errors, &rec.Status,
		)
		if err != nil {
			return nil, err
		}
		rec.StartTime = time.Unix(start, 0)
		rec.EndTime = time.Unix(end, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s Store) Close() error {
	return s.db.Close()
}
