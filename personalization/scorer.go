// Package personalization provides engagement scoring and audience
// segmentation for storefront visitors.
package personalization

import (
	"fmt"

	"github.com/paperbridge/bookstore-go/models"
)

// Scoring policy constants. These weights and thresholds are a compatibility
// contract with the storefront's existing audiences; do not re-derive.
const (
	weightViewedBooks    = 2.0
	weightSessionCount   = 5.0
	weightClickPatterns  = 1.5
	weightSessionMinutes = 0.5
	weightPagesViewed    = 1.0
	thresholdDeepScore   = 25.0
	thresholdRepeatScore = 10.0
	deepMinSessions      = 3
	deepMinViewedBooks   = 10
	repeatMinSessions    = 2
	repeatMinViewedBooks = 5
	confidenceDeep       = 0.9
	confidenceRepeat     = 0.8
	confidenceFirstTime  = 0.7
)

// tierRule pairs a match predicate with its result builder. Rules are
// evaluated in declaration order; the first match wins.
type tierRule struct {
	matches func(input models.EngagementInput, score float64) bool
	build   func(input models.EngagementInput, score float64) models.AudienceResult
}

var tierRules = []tierRule{
	{
		matches: func(input models.EngagementInput, score float64) bool {
			return input.SessionCount >= deepMinSessions &&
				input.ViewedBooks >= deepMinViewedBooks &&
				score >= thresholdDeepScore
		},
		build: func(input models.EngagementInput, score float64) models.AudienceResult {
			return models.AudienceResult{
				ID:              "aud-deeply-engaged",
				Slug:            "deeply-engaged",
				Name:            "Deeply Engaged Readers",
				EngagementLevel: models.TierDeeplyEngaged,
				Confidence:      confidenceDeep,
				Factors: []string{
					fmt.Sprintf("Returned for %d sessions", input.SessionCount),
					fmt.Sprintf("Explored %d books", input.ViewedBooks),
					"Strong engagement across sessions",
				},
				EngagementScore: score,
			}
		},
	},
	{
		matches: func(input models.EngagementInput, score float64) bool {
			return (input.SessionCount >= repeatMinSessions ||
				input.ViewedBooks >= repeatMinViewedBooks) &&
				score >= thresholdRepeatScore
		},
		build: func(input models.EngagementInput, score float64) models.AudienceResult {
			var reason string
			if input.SessionCount >= repeatMinSessions {
				reason = fmt.Sprintf("Returning visitor (%d sessions)", input.SessionCount)
			} else {
				reason = "Single-session explorer"
			}
			return models.AudienceResult{
				ID:              "aud-repeat",
				Slug:            "repeat",
				Name:            "Repeat Browsers",
				EngagementLevel: models.TierRepeat,
				Confidence:      confidenceRepeat,
				Factors: []string{
					reason,
					fmt.Sprintf("Viewed %d books", input.ViewedBooks),
					"Moderate engagement",
				},
				EngagementScore: score,
			}
		},
	},
}

// firstTimeResult is the default when no rule matches
func firstTimeResult(input models.EngagementInput, score float64) models.AudienceResult {
	factors := []string{
		"New or low-engagement user",
		fmt.Sprintf("Viewed %d books", input.ViewedBooks),
	}
	if input.SessionCount == 0 {
		factors = append(factors, "First visit")
	}
	return models.AudienceResult{
		ID:              "aud-first-time",
		Slug:            "first-time",
		Name:            "First Time Visitors",
		EngagementLevel: models.TierFirstTime,
		Confidence:      confidenceFirstTime,
		Factors:         factors,
		EngagementScore: score,
	}
}

// Scorer maps behavior and session signals into an audience match
type Scorer struct{}

// NewScorer creates an engagement scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the engagement score and assigns an audience tier. Missing
// inputs score as zero; this function always returns a tier and degrades to
// first_time on empty data.
func (s *Scorer) Score(input models.EngagementInput) models.AudienceResult {
	input = normalizeInput(input)
	score := computeScore(input)

	for _, rule := range tierRules {
		if rule.matches(input, score) {
			return rule.build(input, score)
		}
	}
	return firstTimeResult(input, score)
}

// ScoreBehavior derives the scorer input from a persisted behavior record
// plus the current session's duration
func (s *Scorer) ScoreBehavior(behavior models.UserBehavior, sessionDurationMs int64) models.AudienceResult {
	return s.Score(models.EngagementInput{
		ViewedBooks:       len(behavior.ViewedBooks),
		SessionCount:      behavior.SessionCount,
		ClickPatterns:     len(behavior.ClickPatterns),
		SessionDurationMs: sessionDurationMs,
	})
}

func normalizeInput(input models.EngagementInput) models.EngagementInput {
	if input.ViewedBooks < 0 {
		input.ViewedBooks = 0
	}
	if input.SessionCount < 0 {
		input.SessionCount = 0
	}
	if input.ClickPatterns < 0 {
		input.ClickPatterns = 0
	}
	if input.SessionDurationMs < 0 {
		input.SessionDurationMs = 0
	}
	// Pages viewed defaults to the viewed-book count when not reported
	if !input.HasPagesViewed || input.PagesViewed < 0 {
		input.PagesViewed = input.ViewedBooks
	}
	return input
}

func computeScore(input models.EngagementInput) float64 {
	return weightViewedBooks*float64(input.ViewedBooks) +
		weightSessionCount*float64(input.SessionCount) +
		weightClickPatterns*float64(input.ClickPatterns) +
		weightSessionMinutes*(float64(input.SessionDurationMs)/60000.0) +
		weightPagesViewed*float64(input.PagesViewed)
}
