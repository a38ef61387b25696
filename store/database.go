// Package store provides durable per-visitor behavior and preference records.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"                      // SQLite driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver

	"github.com/paperbridge/bookstore-go/config"
)

// Database wraps the visitor-state database connection
type Database struct {
	Conn     *sql.DB
	UseTurso bool
}

// NewDatabase opens the visitor-state database. Turso is preferred when
// credentials are configured; local SQLite is the fallback.
func NewDatabase() (*Database, error) {
	var conn *sql.DB
	var err error
	var useTurso bool

	if config.TursoDatabase != "" && config.TursoToken != "" {
		connStr := config.TursoDatabase + "?authToken=" + config.TursoToken
		conn, err = sql.Open("libsql", connStr)
		if err == nil {
			if pingErr := conn.Ping(); pingErr == nil {
				useTurso = true
			} else {
				conn.Close()
				conn = nil
			}
		}
	}

	if conn == nil {
		dbDir := filepath.Dir(config.SQLitePath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		conn, err = sql.Open("sqlite3", config.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}

		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("SQLite database ping failed: %w", err)
		}
		useTurso = false
	}

	conn.SetMaxOpenConns(config.DBMaxOpenConns)
	conn.SetMaxIdleConns(config.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)

	db := &Database{Conn: conn, UseTurso: useTurso}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// NewTestDatabase opens an in-memory SQLite database for tests
func NewTestDatabase() (*Database, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// A pooled second connection would see its own empty in-memory database
	conn.SetMaxOpenConns(1)

	db := &Database{Conn: conn}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// createTables creates all required database tables
func (db *Database) createTables() error {
	tables := []struct {
		name string
		sql  string
	}{
		{"visitor_state", "CREATE TABLE IF NOT EXISTS visitor_state (visitor_id TEXT NOT NULL, record_key TEXT NOT NULL, payload TEXT NOT NULL, version INTEGER NOT NULL DEFAULT 1, updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, PRIMARY KEY (visitor_id, record_key))"},
		{"leads", "CREATE TABLE IF NOT EXISTS leads (id TEXT PRIMARY KEY, first_name TEXT NOT NULL, email TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)"},
		{"actions", "CREATE TABLE IF NOT EXISTS actions (id TEXT PRIMARY KEY, object_id TEXT NOT NULL, object_type TEXT NOT NULL, verb TEXT NOT NULL, duration INTEGER, session_id TEXT NOT NULL, visitor_id TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)"},
	}

	for _, t := range tables {
		var name string
		err := db.Conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, t.name).Scan(&name)
		if err == sql.ErrNoRows {
			if _, err := db.Conn.Exec(t.sql); err != nil {
				return fmt.Errorf("failed to create table %s: %w", t.name, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to check table %s existence: %w", t.name, err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_actions_visitor_id ON actions(visitor_id)",
		"CREATE INDEX IF NOT EXISTS idx_actions_created_at ON actions(created_at)",
	}
	for _, idx := range indexes {
		if _, err := db.Conn.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// GetConnectionInfo returns a string describing the database connection
func (db *Database) GetConnectionInfo() string {
	if db.UseTurso {
		return "Turso"
	}
	return fmt.Sprintf("SQLite (%s)", config.SQLitePath)
}
