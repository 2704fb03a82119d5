package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteCollection keeps a collection as one JSON document row in SQLite.
// SaveAll replaces the document inside a transaction, so a reader never
// sees a half-written collection.
type SQLiteCollection[T any] struct {
	db   *sql.DB
	name string
}

// NewSQLiteCollection returns a collection stored under name in db.
func NewSQLiteCollection[T any](db *sql.DB, name string) *SQLiteCollection[T] {
	return &SQLiteCollection[T]{db: db, name: name}
}

func openSQLite(dbPath string) (*sql.DB, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// LoadAll reads the collection document. A missing or corrupt document is an empty collection.
func (c *SQLiteCollection[T]) LoadAll() ([]T, error) {
	var body string
	err := c.db.QueryRow(`SELECT body FROM collections WHERE name = ?`, c.name).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.name, err)
	}
	var items []T
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		slog.Warn("discarding unreadable collection document", "collection", c.name, "error", err)
		return nil, nil
	}
	return items, nil
}

// SaveAll replaces the collection document with items.
func (c *SQLiteCollection[T]) SaveAll(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.name, err)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO collections (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		c.name, string(data), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", c.name, err)
	}
	return tx.Commit()
}
