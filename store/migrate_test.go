package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSetsVersionMarker(t *testing.T) {
	db := newTestDB(t)

	version, err := schemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, Migrate(db))

	version, err = schemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestMigrateIdempotentOnValidData(t *testing.T) {
	db := newTestDB(t)
	behaviors := NewBehaviorStore(db)
	prefs := NewPreferenceStore(db)

	require.NoError(t, behaviors.Save("v1", DefaultBehavior()))
	require.NoError(t, prefs.Save("v1", DefaultPreferences()))

	require.NoError(t, Migrate(db))

	first, found, err := loadPayload(db, "v1", RecordBehavior)
	require.NoError(t, err)
	require.True(t, found)
	firstPrefs, _, err := loadPayload(db, "v1", RecordPreferences)
	require.NoError(t, err)

	// Second run is gated by the version marker and leaves the persisted
	// bytes untouched
	require.NoError(t, Migrate(db))

	second, _, err := loadPayload(db, "v1", RecordBehavior)
	require.NoError(t, err)
	secondPrefs, _, err := loadPayload(db, "v1", RecordPreferences)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstPrefs, secondPrefs)
}

func TestMigrateRepairsMalformedRecords(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, savePayload(db, "v1", RecordBehavior, "{broken"))
	require.NoError(t, savePayload(db, "v2", RecordPreferences, `{"readingLevel":"wizard"}`))

	require.NoError(t, Migrate(db))

	behavior, err := NewBehaviorStore(db).Load("v1")
	require.NoError(t, err)
	assert.Equal(t, DefaultBehavior(), behavior)

	prefs, err := NewPreferenceStore(db).Load("v2")
	require.NoError(t, err)
	assert.Equal(t, "intermediate", prefs.ReadingLevel)
}
