package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbridge/bookstore-go/models"
)

func TestPreferencesLoadMissingReturnsDefaults(t *testing.T) {
	db := newTestDB(t)
	s := NewPreferenceStore(db)

	prefs, err := s.Load("v1")
	require.NoError(t, err)

	assert.Equal(t, "intermediate", prefs.ReadingLevel)
	assert.Equal(t, "adult", prefs.AgeGroup)
	assert.Equal(t, []string{"physical"}, prefs.PreferredFormats)
	assert.Equal(t, []string{"English"}, prefs.Languages)
	assert.Equal(t, models.PriceRange{Min: 0, Max: 100}, prefs.PriceRange)
}

func TestPreferencesSaveLoadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	s := NewPreferenceStore(db)

	original := models.UserPreferences{
		FavoriteGenres:   []string{"Fantasy", "War"},
		ReadingLevel:     "advanced",
		PriceRange:       models.PriceRange{Min: 5, Max: 40},
		PreferredAuthors: []string{"Tolkien"},
		PreferredFormats: []string{"ebook"},
		Languages:        []string{"English", "French"},
		AgeGroup:         "teen",
		ReadingGoals:     12,
	}

	require.NoError(t, s.Save("v1", original))
	loaded, err := s.Load("v1")
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestPreferencesInvalidEnumsRepaired(t *testing.T) {
	db := newTestDB(t)
	s := NewPreferenceStore(db)

	payload := `{"favoriteGenres":["War"],"readingLevel":"wizard","priceRange":{"min":1,"max":2},"preferredAuthors":[],"preferredFormats":["physical"],"languages":["English"],"ageGroup":"elder","readingGoals":-1}`
	require.NoError(t, savePayload(db, "v1", RecordPreferences, payload))

	prefs, err := s.Load("v1")
	require.NoError(t, err)

	assert.Equal(t, "intermediate", prefs.ReadingLevel)
	assert.Equal(t, "adult", prefs.AgeGroup)
	assert.Equal(t, 0, prefs.ReadingGoals)
	assert.Equal(t, []string{"War"}, prefs.FavoriteGenres)
}

func TestPreferencesInvertedPriceRangeSwapped(t *testing.T) {
	db := newTestDB(t)
	s := NewPreferenceStore(db)

	payload := `{"favoriteGenres":[],"readingLevel":"beginner","priceRange":{"min":50,"max":10},"preferredAuthors":[],"preferredFormats":["physical"],"languages":["English"],"ageGroup":"kids","readingGoals":0}`
	require.NoError(t, savePayload(db, "v1", RecordPreferences, payload))

	prefs, err := s.Load("v1")
	require.NoError(t, err)
	assert.Equal(t, models.PriceRange{Min: 10, Max: 50}, prefs.PriceRange)
}

func TestPreferencesEmptyFormatsAndLanguagesDefaulted(t *testing.T) {
	db := newTestDB(t)
	s := NewPreferenceStore(db)

	payload := `{"favoriteGenres":[],"readingLevel":"beginner","priceRange":{"min":0,"max":100},"preferredAuthors":[],"preferredFormats":[],"languages":null,"ageGroup":"adult","readingGoals":0}`
	require.NoError(t, savePayload(db, "v1", RecordPreferences, payload))

	prefs, err := s.Load("v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"physical"}, prefs.PreferredFormats)
	assert.Equal(t, []string{"English"}, prefs.Languages)
}

func TestFavoriteGenresDeduplicatedPreservingOrder(t *testing.T) {
	db := newTestDB(t)
	s := NewPreferenceStore(db)

	prefs := DefaultPreferences()
	prefs.FavoriteGenres = []string{"Fantasy", "War", "Fantasy", "Mystery", "War"}
	require.NoError(t, s.Save("v1", prefs))

	loaded, err := s.Load("v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fantasy", "War", "Mystery"}, loaded.FavoriteGenres)
}

func TestAddFavoriteGenre(t *testing.T) {
	db := newTestDB(t)
	s := NewPreferenceStore(db)

	require.NoError(t, s.AddFavoriteGenre("v1", "War"))
	require.NoError(t, s.AddFavoriteGenre("v1", "Fantasy"))
	require.NoError(t, s.AddFavoriteGenre("v1", "War"))

	prefs, err := s.Load("v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"War", "Fantasy"}, prefs.FavoriteGenres)
}
