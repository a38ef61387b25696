package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbridge/bookstore-go/bridge"
	"github.com/paperbridge/bookstore-go/models"
	"github.com/paperbridge/bookstore-go/store"
)

type fakePersonalize struct {
	mu     sync.Mutex
	pushes []map[string]any
	events []string
}

func (f *fakePersonalize) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.URL.Path {
		case "/user-attributes":
			var body struct {
				Attributes map[string]any `json:"attributes"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.pushes = append(f.pushes, body.Attributes)
		case "/events":
			var body struct {
				EventKey string `json:"eventKey"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.events = append(f.events, body.EventKey)
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func (f *fakePersonalize) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func newTestProcessor(t *testing.T) (*EventProcessor, *store.Database, *fakePersonalize) {
	t.Helper()

	db, err := store.NewTestDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fake := &fakePersonalize{}
	srv := fake.server()
	t.Cleanup(srv.Close)

	personalize := bridge.NewServiceWith(srv.URL, "proj", "production", "", srv.Client())
	dedup := NewDedupGateWith(10*time.Second, 5*time.Minute)

	return NewEventProcessor("visitor-1", "session-1", db, personalize, dedup), db, fake
}

func countActions(t *testing.T, db *store.Database, verb string) int {
	t.Helper()
	var count int
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM actions WHERE verb = ?`, verb).Scan(&count))
	return count
}

func TestProcessBookView(t *testing.T) {
	processor, db, fake := newTestProcessor(t)

	receipts, err := processor.ProcessEvents(context.Background(), []models.Event{
		{Type: "BookView", BookID: "b1", Title: "Band of Brothers", Author: "Stephen E. Ambrose"},
	})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, StatusRecorded, receipts[0].Status)

	behavior, err := store.NewBehaviorStore(db).Load("visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, behavior.ViewedBooks)
	assert.Equal(t, []string{"War"}, behavior.ViewedGenres)

	assert.Equal(t, 1, countActions(t, db, "VIEWED"))

	// The genre bundle and the audience sync were both pushed
	require.Equal(t, 2, fake.pushCount())
	assert.Equal(t, true, fake.pushes[0]["war_enthusiast"])
	assert.Equal(t, "war", fake.pushes[0]["last_viewed_genre"])
	assert.Equal(t, "first_time", fake.pushes[1]["engagement_tier"])
}

func TestProcessBookViewDuplicateSuppressed(t *testing.T) {
	processor, db, fake := newTestProcessor(t)

	event := models.Event{Type: "BookView", BookID: "b1", Title: "Dune", Author: "Frank Herbert"}

	first, err := processor.ProcessEvents(context.Background(), []models.Event{event})
	require.NoError(t, err)
	second, err := processor.ProcessEvents(context.Background(), []models.Event{event})
	require.NoError(t, err)

	assert.Equal(t, StatusRecorded, first[0].Status)
	assert.Equal(t, StatusIgnored, second[0].Status)

	// Both views still land in the behavior record and actions table;
	// only the outbound push is suppressed
	behavior, err := store.NewBehaviorStore(db).Load("visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b1"}, behavior.ViewedBooks)
	assert.Equal(t, 2, countActions(t, db, "VIEWED"))
	assert.Equal(t, 2, fake.pushCount())
}

func TestProcessPurchaseTriggersConversionEvent(t *testing.T) {
	processor, db, fake := newTestProcessor(t)

	receipts, err := processor.ProcessEvents(context.Background(), []models.Event{
		{Type: "Purchase", BookID: "b1"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRecorded, receipts[0].Status)

	behavior, err := store.NewBehaviorStore(db).Load("visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, behavior.PurchaseHistory)
	assert.Equal(t, 1, countActions(t, db, "PURCHASED"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"book_purchase"}, fake.events)
}

func TestProcessPageViewAccumulatesTime(t *testing.T) {
	processor, db, _ := newTestProcessor(t)

	duration := 2.5
	_, err := processor.ProcessEvents(context.Background(), []models.Event{
		{Type: "PageView", PageKey: "home", Duration: &duration},
		{Type: "PageView", PageKey: "home", Duration: &duration},
	})
	require.NoError(t, err)

	behavior, err := store.NewBehaviorStore(db).Load("visitor-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), behavior.TimeOnPage["home"])
	assert.Equal(t, 2, countActions(t, db, "PAGEVIEWED"))
}

func TestProcessSearchAndClick(t *testing.T) {
	processor, db, _ := newTestProcessor(t)

	_, err := processor.ProcessEvents(context.Background(), []models.Event{
		{Type: "Search", Query: "dragons"},
		{Type: "Click", PageKey: "add_to_cart"},
	})
	require.NoError(t, err)

	behavior, err := store.NewBehaviorStore(db).Load("visitor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"dragons"}, behavior.SearchHistory)
	assert.Equal(t, 1, behavior.ClickPatterns["add_to_cart"])
}

func TestProcessUnknownEventTypeSkipped(t *testing.T) {
	processor, _, fake := newTestProcessor(t)

	receipts, err := processor.ProcessEvents(context.Background(), []models.Event{
		{Type: "Teleport", BookID: "b1"},
	})
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.Equal(t, 0, fake.pushCount())
}

func TestProcessEventsWorksWithoutPersonalizeService(t *testing.T) {
	db, err := store.NewTestDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// No project ID configured: bridge degrades, processing continues
	personalize := bridge.NewServiceWith("http://localhost", "", "production", "", nil)
	dedup := NewDedupGateWith(10*time.Second, 5*time.Minute)
	processor := NewEventProcessor("visitor-1", "session-1", db, personalize, dedup)

	receipts, err := processor.ProcessEvents(context.Background(), []models.Event{
		{Type: "BookView", BookID: "b1", Title: "Dune", Author: "Frank Herbert"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRecorded, receipts[0].Status)
}
