package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paperbridge/bookstore-go/bridge"
	"github.com/paperbridge/bookstore-go/events"
	"github.com/paperbridge/bookstore-go/models"
	"github.com/paperbridge/bookstore-go/personalization"
	"github.com/paperbridge/bookstore-go/utils"
)

// VisitHandler begins or resumes a storefront session
func VisitHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req models.VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("DEBUG: VisitHandler - JSON binding failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	visitorID := bridge.VisitorID(c)
	if req.VisitorID != nil && *req.VisitorID != "" {
		visitorID = *req.VisitorID
	}
	if visitorID == "" {
		visitorID = utils.GenerateULID()
	}

	// Resuming an existing session does not count as a new visit
	if req.SessionID != nil && *req.SessionID != "" {
		if session, exists := app.Sessions.GetSession(*req.SessionID); exists {
			c.JSON(http.StatusOK, gin.H{
				"visitorId": session.VisitorID,
				"sessionId": session.SessionID,
				"resumed":   true,
			})
			return
		}
	}

	behavior, err := app.Behaviors.BeginSession(visitorID)
	if err != nil {
		log.Printf("ERROR: VisitHandler - failed to begin session for %s: %v", visitorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to begin session"})
		return
	}

	session := &models.SessionData{
		SessionID:    utils.GenerateULID(),
		VisitorID:    visitorID,
		StartedAt:    time.Now().UTC(),
		LastActivity: time.Now().UTC(),
	}
	app.Sessions.SetSession(session)

	c.JSON(http.StatusOK, gin.H{
		"visitorId":    visitorID,
		"sessionId":    session.SessionID,
		"sessionCount": behavior.SessionCount,
		"resumed":      false,
	})
}

// EventsHandler ingests a batch of storefront events
func EventsHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	session, err := getSession(c, app)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var batch models.EventBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		log.Printf("DEBUG: EventsHandler - JSON binding failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	processor := events.NewEventProcessor(session.VisitorID, session.SessionID, app.DB, app.Bridge, app.Dedup)
	receipts, err := processor.ProcessEvents(c.Request.Context(), batch.Events)
	if err != nil {
		log.Printf("ERROR: EventsHandler - processing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}

// AudienceHandler evaluates the visitor's current audience match
func AudienceHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	session, err := getSession(c, app)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	behavior, err := app.Behaviors.Load(session.VisitorID)
	if err != nil {
		log.Printf("ERROR: AudienceHandler - failed to load behavior: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load behavior"})
		return
	}

	sessionDurationMs := time.Since(session.StartedAt).Milliseconds()
	result := personalization.NewScorer().ScoreBehavior(behavior, sessionDurationMs)
	segment := personalization.SegmentFor(behavior, result.EngagementLevel)

	c.JSON(http.StatusOK, gin.H{
		"audience": result,
		"segment":  segment,
	})
}

// GetPreferencesHandler returns the visitor's preference record
func GetPreferencesHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	session, err := getSession(c, app)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	prefs, err := app.Preferences.Load(session.VisitorID)
	if err != nil {
		log.Printf("ERROR: GetPreferencesHandler - failed to load preferences: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preferences"})
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// PutPreferencesHandler replaces the visitor's preference record
func PutPreferencesHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	session, err := getSession(c, app)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var prefs models.UserPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		log.Printf("DEBUG: PutPreferencesHandler - JSON binding failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	if err := app.Preferences.Save(session.VisitorID, prefs); err != nil {
		log.Printf("ERROR: PutPreferencesHandler - failed to save preferences: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preferences"})
		return
	}

	// Read back through the repair path so the caller sees the stored record
	saved, err := app.Preferences.Load(session.VisitorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preferences"})
		return
	}
	c.JSON(http.StatusOK, saved)
}

// DBStatusHandler reports database connectivity
func DBStatusHandler(c *gin.Context) {
	app, err := getApp(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := app.DB.Conn.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"connection": app.DB.GetConnectionInfo(),
	})
}
