package events

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/paperbridge/bookstore-go/bridge"
	"github.com/paperbridge/bookstore-go/models"
	"github.com/paperbridge/bookstore-go/personalization"
	"github.com/paperbridge/bookstore-go/store"
	"github.com/paperbridge/bookstore-go/utils"
)

// Receipt statuses returned to the caller. Duplicates are not errors.
const (
	StatusRecorded = "recorded"
	StatusIgnored  = "ignored"
)

// EventProcessor coordinates event processing for a single visitor session
type EventProcessor struct {
	visitorID   string
	sessionID   string
	db          *store.Database
	behaviors   *store.BehaviorStore
	preferences *store.PreferenceStore
	scorer      *personalization.Scorer
	bridge      *bridge.Service
	dedup       *DedupGate
}

// NewEventProcessor creates an event processor bound to a visitor session
func NewEventProcessor(visitorID, sessionID string, db *store.Database, personalize *bridge.Service, dedup *DedupGate) *EventProcessor {
	return &EventProcessor{
		visitorID:   visitorID,
		sessionID:   sessionID,
		db:          db,
		behaviors:   store.NewBehaviorStore(db),
		preferences: store.NewPreferenceStore(db),
		scorer:      personalization.NewScorer(),
		bridge:      personalize,
		dedup:       dedup,
	}
}

// ProcessEvents processes a batch of storefront events, updating the
// behavior record, recording analytics actions, and pushing derived
// attributes to the personalization service. Outbound pushes tied to a
// transient UI action are guarded by the dedup gate.
func (ep *EventProcessor) ProcessEvents(ctx context.Context, events []models.Event) ([]models.EventReceipt, error) {
	receipts := make([]models.EventReceipt, 0, len(events))
	behaviorChanged := false

	for _, event := range events {
		switch event.Type {
		case "BookView":
			receipt, err := ep.processBookView(ctx, event)
			if err != nil {
				log.Printf("ERROR: EventProcessor - error processing book view %+v: %v", event, err)
				continue
			}
			receipts = append(receipts, receipt)
			behaviorChanged = true

		case "PageView":
			if err := ep.processPageView(event); err != nil {
				log.Printf("ERROR: EventProcessor - error processing page view %+v: %v", event, err)
				continue
			}
			receipts = append(receipts, models.EventReceipt{Type: event.Type, Status: StatusRecorded})
			behaviorChanged = true

		case "Search":
			if err := ep.processSearch(event); err != nil {
				log.Printf("ERROR: EventProcessor - error processing search %+v: %v", event, err)
				continue
			}
			receipts = append(receipts, models.EventReceipt{Type: event.Type, Status: StatusRecorded})
			behaviorChanged = true

		case "Purchase":
			receipt, err := ep.processPurchase(ctx, event)
			if err != nil {
				log.Printf("ERROR: EventProcessor - error processing purchase %+v: %v", event, err)
				continue
			}
			receipts = append(receipts, receipt)
			behaviorChanged = true

		case "Click":
			if err := ep.behaviors.RecordClick(ep.visitorID, event.PageKey); err != nil {
				log.Printf("ERROR: EventProcessor - error recording click %+v: %v", event, err)
				continue
			}
			receipts = append(receipts, models.EventReceipt{Type: event.Type, Status: StatusRecorded})
			behaviorChanged = true

		default:
			log.Printf("WARNING: EventProcessor - unknown event type: %s for event: %+v", event.Type, event)
		}
	}

	if behaviorChanged {
		ep.syncAudience(ctx)
	}

	return receipts, nil
}

// processBookView records the view and pushes the genre attribute bundle
func (ep *EventProcessor) processBookView(ctx context.Context, event models.Event) (models.EventReceipt, error) {
	genre := personalization.DetectGenre(event.Title, event.Author)

	if err := ep.behaviors.RecordBookView(ep.visitorID, event.BookID, string(genre)); err != nil {
		return models.EventReceipt{}, err
	}

	var durationMs *int
	if event.Duration != nil {
		ms := int(*event.Duration * 1000)
		durationMs = &ms
	}
	if err := ep.insertAction(event.BookID, "Book", "VIEWED", durationMs); err != nil {
		return models.EventReceipt{}, err
	}

	if ep.dedup.ShouldSuppress("book_view", event.BookID, ep.sessionID, time.Now()) {
		return models.EventReceipt{Type: event.Type, BookID: event.BookID, Status: StatusIgnored}, nil
	}

	bundle := personalization.BuildAttributeBundle(genre, event.BookID)
	ep.bridge.PushAttributes(ctx, ep.visitorID, bundle)

	return models.EventReceipt{Type: event.Type, BookID: event.BookID, Status: StatusRecorded}, nil
}

func (ep *EventProcessor) processPageView(event models.Event) error {
	var durationMs int64
	if event.Duration != nil {
		durationMs = int64(*event.Duration * 1000)
	}
	if err := ep.behaviors.RecordPageView(ep.visitorID, event.PageKey, durationMs); err != nil {
		return err
	}

	var duration *int
	if event.Duration != nil {
		ms := int(*event.Duration * 1000)
		duration = &ms
	}
	return ep.insertAction(event.PageKey, "Page", "PAGEVIEWED", duration)
}

func (ep *EventProcessor) processSearch(event models.Event) error {
	if err := ep.behaviors.RecordSearch(ep.visitorID, event.Query); err != nil {
		return err
	}
	return ep.insertAction(event.Query, "Search", "SEARCHED", nil)
}

// processPurchase records the purchase and fires the conversion event
func (ep *EventProcessor) processPurchase(ctx context.Context, event models.Event) (models.EventReceipt, error) {
	if err := ep.behaviors.RecordPurchase(ep.visitorID, event.BookID); err != nil {
		return models.EventReceipt{}, err
	}
	if err := ep.insertAction(event.BookID, "Book", "PURCHASED", nil); err != nil {
		return models.EventReceipt{}, err
	}

	if ep.dedup.ShouldSuppress("purchase", event.BookID, ep.sessionID, time.Now()) {
		return models.EventReceipt{Type: event.Type, BookID: event.BookID, Status: StatusIgnored}, nil
	}

	ep.bridge.TriggerEvent(ctx, ep.visitorID, "book_purchase")
	return models.EventReceipt{Type: event.Type, BookID: event.BookID, Status: StatusRecorded}, nil
}

// syncAudience recomputes the audience match from the updated behavior
// record and pushes the derived tier and segment
func (ep *EventProcessor) syncAudience(ctx context.Context) {
	behavior, err := ep.behaviors.Load(ep.visitorID)
	if err != nil {
		log.Printf("ERROR: EventProcessor - failed to load behavior for audience sync: %v", err)
		return
	}

	result := ep.scorer.ScoreBehavior(behavior, 0)
	segment := personalization.SegmentFor(behavior, result.EngagementLevel)

	if ep.dedup.ShouldSuppress("audience_sync", string(result.EngagementLevel), ep.sessionID, time.Now()) {
		return
	}

	ep.bridge.PushAttributes(ctx, ep.visitorID, map[string]any{
		"engagement_tier":  string(result.EngagementLevel),
		"engagement_score": result.EngagementScore,
		"user_segment":     segment,
	})
}

// insertAction inserts an analytics record into the actions table
func (ep *EventProcessor) insertAction(objectID, objectType, verb string, durationMs *int) error {
	var query string
	var args []interface{}

	if durationMs != nil {
		query = `INSERT INTO actions
			(id, object_id, object_type, verb, duration, session_id, visitor_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{
			utils.GenerateULID(),
			objectID,
			objectType,
			verb,
			*durationMs,
			ep.sessionID,
			ep.visitorID,
			time.Now().UTC(),
		}
	} else {
		query = `INSERT INTO actions
			(id, object_id, object_type, verb, session_id, visitor_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{
			utils.GenerateULID(),
			objectID,
			objectType,
			verb,
			ep.sessionID,
			ep.visitorID,
			time.Now().UTC(),
		}
	}

	_, err := ep.db.Conn.Exec(query, args...)
	if err != nil {
		log.Printf("Failed to insert %s analytics event: %v", objectType, err)
		return fmt.Errorf("failed to insert %s action: %w", objectType, err)
	}

	return nil
}
