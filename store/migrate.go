package store

import (
	"fmt"
	"log"
)

// Migrate normalizes every persisted visitor record for the current schema
// version. The global version marker gates the pass; once migration has run
// for the current version, subsequent calls are no-ops. Safe to call at
// every startup.
func Migrate(db *Database) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if version >= CurrentSchemaVersion {
		return nil
	}

	log.Printf("Migrating visitor state to schema version %d", CurrentSchemaVersion)

	rows, err := db.Conn.Query(
		`SELECT visitor_id, record_key, payload FROM visitor_state WHERE record_key IN (?, ?)`,
		RecordBehavior, RecordPreferences,
	)
	if err != nil {
		return fmt.Errorf("failed to enumerate visitor records: %w", err)
	}
	defer rows.Close()

	type pending struct {
		visitorID string
		recordKey string
		payload   string
	}
	var repairs []pending

	for rows.Next() {
		var visitorID, recordKey, payload string
		if err := rows.Scan(&visitorID, &recordKey, &payload); err != nil {
			return fmt.Errorf("failed to scan visitor record: %w", err)
		}

		switch recordKey {
		case RecordBehavior:
			behavior, repaired := normalizeBehavior([]byte(payload), visitorID)
			if repaired {
				data, err := marshalBehavior(behavior)
				if err != nil {
					return err
				}
				repairs = append(repairs, pending{visitorID, recordKey, data})
			}
		case RecordPreferences:
			prefs, repaired := normalizePreferences([]byte(payload), visitorID)
			if repaired {
				data, err := marshalPreferences(prefs)
				if err != nil {
					return err
				}
				repairs = append(repairs, pending{visitorID, recordKey, data})
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate visitor records: %w", err)
	}

	for _, r := range repairs {
		if err := savePayload(db, r.visitorID, r.recordKey, r.payload); err != nil {
			return err
		}
		log.Printf("DEBUG: migration repaired %s record for %s", r.recordKey, r.visitorID)
	}

	return setSchemaVersion(db, CurrentSchemaVersion)
}
