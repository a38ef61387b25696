package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paperbridge/bookstore-go/models"
)

// Record keys in visitor_state. The version marker is a single global row.
const (
	RecordBehavior    = "behavior"
	RecordPreferences = "preferences"
	recordVersion     = "schema_version"
	markerVisitorID   = "_global"
)

// CurrentSchemaVersion gates the migration pass
const CurrentSchemaVersion = 1

// loadPayload reads the raw JSON payload for a visitor record.
// A missing row is not an error; it returns ok=false.
func loadPayload(db *Database, visitorID, recordKey string) (string, bool, error) {
	var payload string
	err := db.Conn.QueryRow(
		`SELECT payload FROM visitor_state WHERE visitor_id = ? AND record_key = ?`,
		visitorID, recordKey,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load %s record: %w", recordKey, err)
	}
	return payload, true, nil
}

// savePayload upserts the raw JSON payload for a visitor record
func savePayload(db *Database, visitorID, recordKey, payload string) error {
	_, err := db.Conn.Exec(
		`INSERT INTO visitor_state (visitor_id, record_key, payload, version, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (visitor_id, record_key) DO UPDATE SET payload = excluded.payload, version = excluded.version, updated_at = excluded.updated_at`,
		visitorID, recordKey, payload, CurrentSchemaVersion, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s record: %w", recordKey, err)
	}
	return nil
}

func marshalBehavior(behavior models.UserBehavior) (string, error) {
	data, err := json.Marshal(behavior)
	if err != nil {
		return "", fmt.Errorf("failed to marshal behavior record: %w", err)
	}
	return string(data), nil
}

func marshalPreferences(prefs models.UserPreferences) (string, error) {
	data, err := json.Marshal(prefs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal preferences record: %w", err)
	}
	return string(data), nil
}

// schemaVersion reads the global version marker; 0 means never migrated
func schemaVersion(db *Database) (int, error) {
	var version int
	err := db.Conn.QueryRow(
		`SELECT version FROM visitor_state WHERE visitor_id = ? AND record_key = ?`,
		markerVisitorID, recordVersion,
	).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// setSchemaVersion writes the global version marker
func setSchemaVersion(db *Database, version int) error {
	_, err := db.Conn.Exec(
		`INSERT INTO visitor_state (visitor_id, record_key, payload, version, updated_at)
		 VALUES (?, ?, '', ?, ?)
		 ON CONFLICT (visitor_id, record_key) DO UPDATE SET version = excluded.version, updated_at = excluded.updated_at`,
		markerVisitorID, recordVersion, version, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}
	return nil
}
