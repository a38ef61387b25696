package store

import (
	"encoding/json"
	"log"
	"time"

	"github.com/paperbridge/bookstore-go/models"
)

// BehaviorStore persists per-visitor observed actions
type BehaviorStore struct {
	db *Database
}

// NewBehaviorStore creates a behavior store
func NewBehaviorStore(db *Database) *BehaviorStore {
	return &BehaviorStore{db: db}
}

// DefaultBehavior returns a fully-valid empty behavior record
func DefaultBehavior() models.UserBehavior {
	return models.UserBehavior{
		ViewedBooks:     []string{},
		ViewedGenres:    []string{},
		SearchHistory:   []string{},
		PurchaseHistory: []string{},
		TimeOnPage:      map[string]int64{},
		ClickPatterns:   map[string]int{},
		SessionCount:    0,
	}
}

// Load retrieves the behavior record, repairing any malformed fields in
// place. Repairs are logged and the corrected record is re-persisted;
// the caller always receives a fully-valid record.
func (s *BehaviorStore) Load(visitorID string) (models.UserBehavior, error) {
	payload, found, err := loadPayload(s.db, visitorID, RecordBehavior)
	if err != nil {
		return DefaultBehavior(), err
	}
	if !found {
		return DefaultBehavior(), nil
	}

	behavior, repaired := normalizeBehavior([]byte(payload), visitorID)
	if repaired {
		if saveErr := s.Save(visitorID, behavior); saveErr != nil {
			log.Printf("ERROR: failed to re-persist repaired behavior for %s: %v", visitorID, saveErr)
		}
	}
	return behavior, nil
}

// Save persists the behavior record
func (s *BehaviorStore) Save(visitorID string, behavior models.UserBehavior) error {
	data, err := json.Marshal(behavior)
	if err != nil {
		return err
	}
	return savePayload(s.db, visitorID, RecordBehavior, string(data))
}

// BeginSession increments the session count and stamps the visit time
func (s *BehaviorStore) BeginSession(visitorID string) (models.UserBehavior, error) {
	behavior, err := s.Load(visitorID)
	if err != nil {
		return behavior, err
	}
	behavior.SessionCount++
	behavior.LastVisit = time.Now().UTC()
	return behavior, s.Save(visitorID, behavior)
}

// RecordBookView appends a viewed book and its genre
func (s *BehaviorStore) RecordBookView(visitorID, bookID, genre string) error {
	behavior, err := s.Load(visitorID)
	if err != nil {
		return err
	}
	behavior.ViewedBooks = append(behavior.ViewedBooks, bookID)
	if genre != "" {
		behavior.ViewedGenres = append(behavior.ViewedGenres, genre)
	}
	return s.Save(visitorID, behavior)
}

// RecordPageView accumulates time spent on a page
func (s *BehaviorStore) RecordPageView(visitorID, pageKey string, durationMs int64) error {
	behavior, err := s.Load(visitorID)
	if err != nil {
		return err
	}
	if durationMs > 0 {
		behavior.TimeOnPage[pageKey] += durationMs
	} else if _, exists := behavior.TimeOnPage[pageKey]; !exists {
		behavior.TimeOnPage[pageKey] = 0
	}
	return s.Save(visitorID, behavior)
}

// RecordSearch appends a search query
func (s *BehaviorStore) RecordSearch(visitorID, query string) error {
	behavior, err := s.Load(visitorID)
	if err != nil {
		return err
	}
	behavior.SearchHistory = append(behavior.SearchHistory, query)
	return s.Save(visitorID, behavior)
}

// RecordPurchase appends a purchased book
func (s *BehaviorStore) RecordPurchase(visitorID, bookID string) error {
	behavior, err := s.Load(visitorID)
	if err != nil {
		return err
	}
	behavior.PurchaseHistory = append(behavior.PurchaseHistory, bookID)
	return s.Save(visitorID, behavior)
}

// RecordClick increments an interaction counter
func (s *BehaviorStore) RecordClick(visitorID, interactionKey string) error {
	behavior, err := s.Load(visitorID)
	if err != nil {
		return err
	}
	behavior.ClickPatterns[interactionKey]++
	return s.Save(visitorID, behavior)
}

// normalizeBehavior validates each field independently against its declared
// shape. A field that fails validation is replaced with its default; total
// parse failure is treated as an absent record. Returns the repaired flag
// so callers can re-persist.
func normalizeBehavior(payload []byte, visitorID string) (models.UserBehavior, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		log.Printf("DEBUG: corrupt behavior payload for %s, resetting to defaults: %v", visitorID, err)
		return DefaultBehavior(), true
	}

	behavior := DefaultBehavior()
	repaired := false

	repairString := func(key string, dst *[]string) {
		raw, ok := fields[key]
		if !ok {
			repaired = true
			return
		}
		var val []string
		if err := json.Unmarshal(raw, &val); err != nil || val == nil {
			log.Printf("DEBUG: repaired behavior field %s for %s", key, visitorID)
			repaired = true
			return
		}
		*dst = val
	}

	repairString("viewedBooks", &behavior.ViewedBooks)
	repairString("viewedGenres", &behavior.ViewedGenres)
	repairString("searchHistory", &behavior.SearchHistory)
	repairString("purchaseHistory", &behavior.PurchaseHistory)

	if raw, ok := fields["timeOnPage"]; ok {
		var val map[string]int64
		if err := json.Unmarshal(raw, &val); err != nil || val == nil {
			log.Printf("DEBUG: repaired behavior field timeOnPage for %s", visitorID)
			repaired = true
		} else {
			behavior.TimeOnPage = val
		}
	} else {
		repaired = true
	}

	if raw, ok := fields["clickPatterns"]; ok {
		var val map[string]int
		if err := json.Unmarshal(raw, &val); err != nil || val == nil {
			log.Printf("DEBUG: repaired behavior field clickPatterns for %s", visitorID)
			repaired = true
		} else {
			behavior.ClickPatterns = val
		}
	} else {
		repaired = true
	}

	if raw, ok := fields["sessionCount"]; ok {
		var val int
		if err := json.Unmarshal(raw, &val); err != nil || val < 0 {
			log.Printf("DEBUG: repaired behavior field sessionCount for %s", visitorID)
			repaired = true
		} else {
			behavior.SessionCount = val
		}
	} else {
		repaired = true
	}

	if raw, ok := fields["lastVisit"]; ok {
		var val time.Time
		if err := json.Unmarshal(raw, &val); err != nil {
			log.Printf("DEBUG: repaired behavior field lastVisit for %s", visitorID)
			repaired = true
		} else {
			behavior.LastVisit = val
		}
	} else {
		repaired = true
	}

	return behavior, repaired
}
