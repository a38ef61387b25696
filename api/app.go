// Package api provides HTTP handlers for the bookstore backend
package api

import (
	"github.com/paperbridge/bookstore-go/bridge"
	"github.com/paperbridge/bookstore-go/cache"
	"github.com/paperbridge/bookstore-go/catalog"
	"github.com/paperbridge/bookstore-go/email"
	"github.com/paperbridge/bookstore-go/events"
	"github.com/paperbridge/bookstore-go/store"
)

// App bundles the services handlers depend on. It is attached to every
// request by middleware in main so tests can substitute fakes.
type App struct {
	DB          *store.Database
	Sessions    *cache.Manager
	Bridge      *bridge.Service
	Dedup       *events.DedupGate
	Catalog     *catalog.Client
	Covers      *catalog.ImageProcessor
	Email       *email.Client
	Behaviors   *store.BehaviorStore
	Preferences *store.PreferenceStore
}

// NewApp wires an App from its services
func NewApp(db *store.Database, sessions *cache.Manager, personalize *bridge.Service, dedup *events.DedupGate, catalogClient *catalog.Client, covers *catalog.ImageProcessor, emailClient *email.Client) *App {
	return &App{
		DB:          db,
		Sessions:    sessions,
		Bridge:      personalize,
		Dedup:       dedup,
		Catalog:     catalogClient,
		Covers:      covers,
		Email:       emailClient,
		Behaviors:   store.NewBehaviorStore(db),
		Preferences: store.NewPreferenceStore(db),
	}
}
