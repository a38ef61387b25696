// Package cache provides in-memory session tracking for the bookstore backend
package cache

import (
	"log"
	"sync"
	"time"

	"github.com/paperbridge/bookstore-go/config"
	"github.com/paperbridge/bookstore-go/models"
)

// Manager tracks active storefront sessions
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*models.SessionData
}

// NewManager creates a session cache manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*models.SessionData),
	}
}

// GetSession retrieves session data and refreshes its activity stamp
func (m *Manager) GetSession(sessionID string) (*models.SessionData, bool) {
	m.mu.RLock()
	session, exists := m.sessions[sessionID]
	m.mu.RUnlock()

	if !exists {
		return nil, false
	}

	m.mu.Lock()
	session.LastActivity = time.Now().UTC()
	m.mu.Unlock()

	return session, true
}

// SetSession stores session data, evicting the oldest session when at capacity
func (m *Manager) SetSession(session *models.SessionData) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= config.MaxSessions {
		m.evictOldestUnsafe()
	}
	m.sessions[session.SessionID] = session
}

// RemoveSession drops a session
func (m *Manager) RemoveSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// SessionCount returns the number of tracked sessions
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// evictOldestUnsafe assumes m.mu is already held
func (m *Manager) evictOldestUnsafe() {
	var oldestID string
	var oldest time.Time
	for id, session := range m.sessions {
		if oldestID == "" || session.LastActivity.Before(oldest) {
			oldestID = id
			oldest = session.LastActivity
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
	}
}

// StartCleanupRoutine starts a background goroutine that expires idle sessions
func StartCleanupRoutine(manager *Manager) {
	go func() {
		ticker := time.NewTicker(config.SessionSweep)
		defer ticker.Stop()

		for range ticker.C {
			removed := manager.CleanupExpired(time.Now().UTC())
			if removed > 0 {
				log.Printf("Session cleanup removed %d expired sessions", removed)
			}
		}
	}()
}

// CleanupExpired drops sessions idle beyond the session TTL
func (m *Manager) CleanupExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		if now.Sub(session.LastActivity) >= config.SessionTTL {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
