package personalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbridge/bookstore-go/models"
)

func TestScoreEmptyBehaviorIsFirstTime(t *testing.T) {
	result := NewScorer().Score(models.EngagementInput{})

	assert.Equal(t, models.TierFirstTime, result.EngagementLevel)
	assert.Equal(t, 0.7, result.Confidence)
	assert.Equal(t, 0.0, result.EngagementScore)
	assert.Contains(t, result.Factors, "First visit")
}

func TestScoreDeeplyEngagedScenario(t *testing.T) {
	result := NewScorer().Score(models.EngagementInput{
		ViewedBooks:       12,
		SessionCount:      3,
		ClickPatterns:     4,
		SessionDurationMs: 120000,
		PagesViewed:       12,
		HasPagesViewed:    true,
	})

	// 2*12 + 5*3 + 1.5*4 + 0.5*2 + 1*12 = 58
	assert.Equal(t, 58.0, result.EngagementScore)
	assert.Equal(t, models.TierDeeplyEngaged, result.EngagementLevel)
	assert.Equal(t, 0.9, result.Confidence)
}

func TestScoreDeeplyEngagedBeatsRepeat(t *testing.T) {
	// Satisfies both the deep and repeat predicates; priority order must
	// pick the deep tier.
	input := models.EngagementInput{
		ViewedBooks:  10,
		SessionCount: 3,
	}
	result := NewScorer().Score(input)

	require.GreaterOrEqual(t, result.EngagementScore, 25.0)
	assert.Equal(t, models.TierDeeplyEngaged, result.EngagementLevel)
	assert.Equal(t, 0.9, result.Confidence)
}

func TestScoreRepeatFromReturnVisits(t *testing.T) {
	result := NewScorer().Score(models.EngagementInput{
		ViewedBooks:  3,
		SessionCount: 2,
	})

	assert.Equal(t, models.TierRepeat, result.EngagementLevel)
	assert.Equal(t, 0.8, result.Confidence)
	require.Len(t, result.Factors, 3)
	assert.Equal(t, "Returning visitor (2 sessions)", result.Factors[0])
	assert.Equal(t, "Viewed 3 books", result.Factors[1])
	assert.Equal(t, "Moderate engagement", result.Factors[2])
}

func TestScoreRepeatFromSingleSessionExploration(t *testing.T) {
	result := NewScorer().Score(models.EngagementInput{
		ViewedBooks:  6,
		SessionCount: 1,
	})

	assert.Equal(t, models.TierRepeat, result.EngagementLevel)
	assert.Equal(t, "Single-session explorer", result.Factors[0])
}

func TestScoreFirstTimeFactorOrder(t *testing.T) {
	result := NewScorer().Score(models.EngagementInput{ViewedBooks: 1, SessionCount: 0})

	require.Len(t, result.Factors, 3)
	assert.Equal(t, "New or low-engagement user", result.Factors[0])
	assert.Equal(t, "Viewed 1 books", result.Factors[1])
	assert.Equal(t, "First visit", result.Factors[2])
}

func TestScoreFirstTimeOmitsFirstVisitAfterASession(t *testing.T) {
	result := NewScorer().Score(models.EngagementInput{ViewedBooks: 1, SessionCount: 1})

	assert.Equal(t, models.TierFirstTime, result.EngagementLevel)
	assert.NotContains(t, result.Factors, "First visit")
}

func TestScorePagesViewedDefaultsToViewedBooks(t *testing.T) {
	withDefault := NewScorer().Score(models.EngagementInput{ViewedBooks: 4})
	explicit := NewScorer().Score(models.EngagementInput{ViewedBooks: 4, PagesViewed: 4, HasPagesViewed: true})

	assert.Equal(t, explicit.EngagementScore, withDefault.EngagementScore)
}

func TestScoreNegativeInputsTreatedAsZero(t *testing.T) {
	result := NewScorer().Score(models.EngagementInput{
		ViewedBooks:       -3,
		SessionCount:      -1,
		ClickPatterns:     -2,
		SessionDurationMs: -5000,
	})

	assert.Equal(t, models.TierFirstTime, result.EngagementLevel)
	assert.Equal(t, 0.0, result.EngagementScore)
	assert.Contains(t, result.Factors, "First visit")
}

func TestScoreBehaviorDerivesInputs(t *testing.T) {
	behavior := models.UserBehavior{
		ViewedBooks:   []string{"b1", "b2", "b3", "b4", "b5", "b6"},
		SessionCount:  2,
		ClickPatterns: map[string]int{"add_to_cart": 3, "open_preview": 1},
	}

	result := NewScorer().ScoreBehavior(behavior, 60000)

	// 2*6 + 5*2 + 1.5*2 + 0.5*1 + 1*6 = 31.5
	assert.Equal(t, 31.5, result.EngagementScore)
	assert.Equal(t, models.TierRepeat, result.EngagementLevel)
}
