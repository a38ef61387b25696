package store

import (
	"encoding/json"
	"log"

	"github.com/paperbridge/bookstore-go/models"
)

// PreferenceStore persists per-visitor declared preferences
type PreferenceStore struct {
	db *Database
}

// NewPreferenceStore creates a preference store
func NewPreferenceStore(db *Database) *PreferenceStore {
	return &PreferenceStore{db: db}
}

var (
	validReadingLevels = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}
	validAgeGroups     = map[string]bool{"kids": true, "teen": true, "adult": true}
)

// DefaultPreferences returns a fully-valid preference record
func DefaultPreferences() models.UserPreferences {
	return models.UserPreferences{
		FavoriteGenres:   []string{},
		ReadingLevel:     "intermediate",
		PriceRange:       models.PriceRange{Min: 0, Max: 100},
		PreferredAuthors: []string{},
		PreferredFormats: []string{"physical"},
		Languages:        []string{"English"},
		AgeGroup:         "adult",
		ReadingGoals:     0,
	}
}

// Load retrieves the preference record with the same repair-on-load
// discipline as the behavior store
func (s *PreferenceStore) Load(visitorID string) (models.UserPreferences, error) {
	payload, found, err := loadPayload(s.db, visitorID, RecordPreferences)
	if err != nil {
		return DefaultPreferences(), err
	}
	if !found {
		return DefaultPreferences(), nil
	}

	prefs, repaired := normalizePreferences([]byte(payload), visitorID)
	if repaired {
		if saveErr := s.Save(visitorID, prefs); saveErr != nil {
			log.Printf("ERROR: failed to re-persist repaired preferences for %s: %v", visitorID, saveErr)
		}
	}
	return prefs, nil
}

// Save persists the preference record. Favorite genres are deduplicated
// preserving first-seen order before write.
func (s *PreferenceStore) Save(visitorID string, prefs models.UserPreferences) error {
	prefs.FavoriteGenres = dedupeOrdered(prefs.FavoriteGenres)
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return savePayload(s.db, visitorID, RecordPreferences, string(data))
}

// AddFavoriteGenre appends a genre, keeping the sequence deduplicated
func (s *PreferenceStore) AddFavoriteGenre(visitorID, genre string) error {
	prefs, err := s.Load(visitorID)
	if err != nil {
		return err
	}
	prefs.FavoriteGenres = append(prefs.FavoriteGenres, genre)
	return s.Save(visitorID, prefs)
}

func dedupeOrdered(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

// normalizePreferences validates each field independently, replacing
// invalid values with documented defaults
func normalizePreferences(payload []byte, visitorID string) (models.UserPreferences, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		log.Printf("DEBUG: corrupt preferences payload for %s, resetting to defaults: %v", visitorID, err)
		return DefaultPreferences(), true
	}

	prefs := DefaultPreferences()
	repaired := false

	repairList := func(key string, dst *[]string) {
		raw, ok := fields[key]
		if !ok {
			repaired = true
			return
		}
		var val []string
		if err := json.Unmarshal(raw, &val); err != nil || val == nil {
			log.Printf("DEBUG: repaired preference field %s for %s", key, visitorID)
			repaired = true
			return
		}
		*dst = val
	}

	repairList("favoriteGenres", &prefs.FavoriteGenres)
	repairList("preferredAuthors", &prefs.PreferredAuthors)

	// Formats and languages fall back to non-empty documented defaults
	if raw, ok := fields["preferredFormats"]; ok {
		var val []string
		if err := json.Unmarshal(raw, &val); err != nil || len(val) == 0 {
			log.Printf("DEBUG: repaired preference field preferredFormats for %s", visitorID)
			repaired = true
		} else {
			prefs.PreferredFormats = val
		}
	} else {
		repaired = true
	}

	if raw, ok := fields["languages"]; ok {
		var val []string
		if err := json.Unmarshal(raw, &val); err != nil || len(val) == 0 {
			log.Printf("DEBUG: repaired preference field languages for %s", visitorID)
			repaired = true
		} else {
			prefs.Languages = val
		}
	} else {
		repaired = true
	}

	if raw, ok := fields["readingLevel"]; ok {
		var val string
		if err := json.Unmarshal(raw, &val); err != nil || !validReadingLevels[val] {
			log.Printf("DEBUG: repaired preference field readingLevel for %s", visitorID)
			repaired = true
		} else {
			prefs.ReadingLevel = val
		}
	} else {
		repaired = true
	}

	if raw, ok := fields["ageGroup"]; ok {
		var val string
		if err := json.Unmarshal(raw, &val); err != nil || !validAgeGroups[val] {
			log.Printf("DEBUG: repaired preference field ageGroup for %s", visitorID)
			repaired = true
		} else {
			prefs.AgeGroup = val
		}
	} else {
		repaired = true
	}

	if raw, ok := fields["priceRange"]; ok {
		var val models.PriceRange
		if err := json.Unmarshal(raw, &val); err != nil {
			log.Printf("DEBUG: repaired preference field priceRange for %s", visitorID)
			repaired = true
		} else {
			if val.Min > val.Max {
				log.Printf("DEBUG: repaired inverted priceRange for %s", visitorID)
				val.Min, val.Max = val.Max, val.Min
				repaired = true
			}
			prefs.PriceRange = val
		}
	} else {
		repaired = true
	}

	if raw, ok := fields["readingGoals"]; ok {
		var val int
		if err := json.Unmarshal(raw, &val); err != nil || val < 0 {
			log.Printf("DEBUG: repaired preference field readingGoals for %s", visitorID)
			repaired = true
		} else {
			prefs.ReadingGoals = val
		}
	} else {
		repaired = true
	}

	deduped := dedupeOrdered(prefs.FavoriteGenres)
	if len(deduped) != len(prefs.FavoriteGenres) {
		prefs.FavoriteGenres = deduped
		repaired = true
	}

	return prefs, repaired
}
