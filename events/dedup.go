// Package events provides event processing for the bookstore storefront
package events

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/paperbridge/bookstore-go/config"
)

// DedupGate suppresses duplicate outbound events within a short window.
// State is process-wide and not persisted across restarts.
type DedupGate struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	window   time.Duration
	entryTTL time.Duration
}

// NewDedupGate creates a gate with the configured suppression window
func NewDedupGate() *DedupGate {
	return NewDedupGateWith(config.DedupWindow, config.DedupEntryTTL)
}

// NewDedupGateWith creates a gate with explicit windows, used by tests
func NewDedupGateWith(window, entryTTL time.Duration) *DedupGate {
	return &DedupGate{
		lastSeen: make(map[string]time.Time),
		window:   window,
		entryTTL: entryTTL,
	}
}

// ShouldSuppress reports whether an event with this composite identity fired
// within the suppression window. When allowed, the occurrence is recorded
// under the key.
func (g *DedupGate) ShouldSuppress(eventName, bookID, sessionID string, now time.Time) bool {
	key := fmt.Sprintf("%s:%s:%s", eventName, bookID, sessionID)

	g.mu.Lock()
	defer g.mu.Unlock()

	if last, exists := g.lastSeen[key]; exists && now.Sub(last) < g.window {
		return true
	}
	g.lastSeen[key] = now
	return false
}

// StartSweepRoutine starts a background goroutine that drops stale entries
// so the map stays bounded
func (g *DedupGate) StartSweepRoutine(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			removed := g.Sweep(time.Now())
			if removed > 0 {
				log.Printf("DEBUG: dedup sweep removed %d stale entries", removed)
			}
		}
	}()
}

// Sweep removes entries older than the entry TTL and returns the count removed
func (g *DedupGate) Sweep(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for key, last := range g.lastSeen {
		if now.Sub(last) >= g.entryTTL {
			delete(g.lastSeen, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (g *DedupGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.lastSeen)
}
