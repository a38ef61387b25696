// Package models defines shared data structures for the bookstore backend
package models

import "time"

// AudienceTier is the discrete output of the engagement scorer
type AudienceTier string

const (
	TierFirstTime     AudienceTier = "first_time"
	TierRepeat        AudienceTier = "repeat"
	TierDeeplyEngaged AudienceTier = "deeply_engaged"
)

// GenreLabel is a book genre derived from title/author text
type GenreLabel string

const (
	GenreWar     GenreLabel = "War"
	GenreFantasy GenreLabel = "Fantasy"
	GenreMystery GenreLabel = "Mystery"
	GenreGeneral GenreLabel = "General"
)

// DeliveryStatus classifies the outcome of a best-effort outbound call
type DeliveryStatus string

const (
	DeliverySent       DeliveryStatus = "sent"
	DeliverySuppressed DeliveryStatus = "suppressed"
	DeliveryDegraded   DeliveryStatus = "degraded"
	DeliveryFailedSoft DeliveryStatus = "failed_soft"
)

// UserBehavior is the durable per-visitor record of observed actions
type UserBehavior struct {
	ViewedBooks     []string         `json:"viewedBooks"`
	ViewedGenres    []string         `json:"viewedGenres"`
	SearchHistory   []string         `json:"searchHistory"`
	PurchaseHistory []string         `json:"purchaseHistory"`
	TimeOnPage      map[string]int64 `json:"timeOnPage"`
	ClickPatterns   map[string]int   `json:"clickPatterns"`
	SessionCount    int              `json:"sessionCount"`
	LastVisit       time.Time        `json:"lastVisit"`
}

// PriceRange bounds a visitor's preferred spend
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// UserPreferences is the durable per-visitor record of declared preferences
type UserPreferences struct {
	FavoriteGenres   []string   `json:"favoriteGenres"`
	ReadingLevel     string     `json:"readingLevel"`
	PriceRange       PriceRange `json:"priceRange"`
	PreferredAuthors []string   `json:"preferredAuthors"`
	PreferredFormats []string   `json:"preferredFormats"`
	Languages        []string   `json:"languages"`
	AgeGroup         string     `json:"ageGroup"`
	ReadingGoals     int        `json:"readingGoals"`
}

// EngagementInput carries the session signals fed to the scorer
type EngagementInput struct {
	ViewedBooks       int
	SessionCount      int
	ClickPatterns     int
	SessionDurationMs int64
	PagesViewed       int
	HasPagesViewed    bool
}

// AudienceResult is the derived audience match, recomputed per evaluation
type AudienceResult struct {
	ID              string       `json:"id"`
	Slug            string       `json:"slug"`
	Name            string       `json:"name"`
	EngagementLevel AudienceTier `json:"engagement_level"`
	Confidence      float64      `json:"confidence"`
	Factors         []string     `json:"factors"`
	EngagementScore float64      `json:"engagement_score"`
}

// Event is a single storefront interaction submitted by the client
type Event struct {
	Type     string   `json:"type"`
	BookID   string   `json:"bookId,omitempty"`
	Title    string   `json:"title,omitempty"`
	Author   string   `json:"author,omitempty"`
	PageKey  string   `json:"pageKey,omitempty"`
	Query    string   `json:"query,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// EventBatch is the payload accepted by the events endpoint
type EventBatch struct {
	Events []Event `json:"events"`
}

// EventReceipt reports what happened to a single submitted event
type EventReceipt struct {
	Type   string `json:"type"`
	BookID string `json:"bookId,omitempty"`
	Status string `json:"status"`
}

// Profile holds a registered visitor's identity
type Profile struct {
	VisitorID string
	LeadID    string
	Firstname string
	Email     string
}

// VisitRequest begins or resumes a storefront session
type VisitRequest struct {
	VisitorID *string `json:"visitorId,omitempty"`
	SessionID *string `json:"sessionId,omitempty"`
	Consent   *string `json:"consent,omitempty"`
}

// SessionData links an active session to its visitor
type SessionData struct {
	SessionID    string
	VisitorID    string
	StartedAt    time.Time
	LastActivity time.Time
}

// CatalogBook is a catalog entry as served by the CMS, after defaulting
type CatalogBook struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genre       string   `json:"genre"`
	Price       float64  `json:"price"`
	Pages       int      `json:"pages"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Tags        []string `json:"tags"`
}
