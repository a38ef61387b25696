package personalization

import (
	"strings"

	"github.com/paperbridge/bookstore-go/models"
)

// SegmentFor names the visitor's user segment from their dominant viewed
// genre and audience tier
func SegmentFor(behavior models.UserBehavior, tier models.AudienceTier) string {
	genre := dominantGenre(behavior.ViewedGenres)

	switch tier {
	case models.TierDeeplyEngaged:
		return strings.ToLower(genre) + "_devotee"
	case models.TierRepeat:
		return strings.ToLower(genre) + "_reader"
	default:
		return "browsing_visitor"
	}
}

// dominantGenre returns the most frequent genre label, breaking ties by
// first appearance in view order
func dominantGenre(viewedGenres []string) string {
	if len(viewedGenres) == 0 {
		return string(models.GenreGeneral)
	}

	counts := make(map[string]int, len(viewedGenres))
	for _, genre := range viewedGenres {
		counts[genre]++
	}

	best := viewedGenres[0]
	for _, genre := range viewedGenres {
		if counts[genre] > counts[best] {
			best = genre
		}
	}
	return best
}
