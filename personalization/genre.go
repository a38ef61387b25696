package personalization

import (
	"strings"

	"github.com/paperbridge/bookstore-go/models"
)

// genreRule matches a genre by title/author keywords. Rules are evaluated
// in declaration order; the first match wins, so the priority contract
// (War > Fantasy > Mystery) is carried by this table, not by code order
// elsewhere.
type genreRule struct {
	genre          models.GenreLabel
	titleKeywords  []string
	authorKeywords []string
}

var genreRules = []genreRule{
	{
		genre:          models.GenreWar,
		titleKeywords:  []string{"war", "battle", "military", "brothers"},
		authorKeywords: []string{"ambrose"},
	},
	{
		genre:         models.GenreFantasy,
		titleKeywords: []string{"fantasy", "magic", "dragon", "wizard", "potter", "rings"},
	},
	{
		genre:          models.GenreMystery,
		titleKeywords:  []string{"mystery", "detective", "murder", "sherlock"},
		authorKeywords: []string{"christie", "doyle"},
	},
}

// DetectGenre classifies a book by case-insensitive substring matching on
// its title and author. Every (title, author) pair maps to exactly one
// genre; unmatched pairs fall through to General.
func DetectGenre(title, author string) models.GenreLabel {
	lowerTitle := strings.ToLower(title)
	lowerAuthor := strings.ToLower(author)

	for _, rule := range genreRules {
		for _, keyword := range rule.titleKeywords {
			if strings.Contains(lowerTitle, keyword) {
				return rule.genre
			}
		}
		for _, keyword := range rule.authorKeywords {
			if strings.Contains(lowerAuthor, keyword) {
				return rule.genre
			}
		}
	}
	return models.GenreGeneral
}

// BuildAttributeBundle builds the flat attribute map pushed to the
// personalization service for a viewed book. Genre-specific attributes are
// only ever present for their own genre.
func BuildAttributeBundle(genre models.GenreLabel, bookID string) map[string]any {
	lowered := strings.ToLower(string(genre))
	bundle := map[string]any{
		"book_genre_interest": lowered,
		"last_viewed_genre":   lowered,
		"reading_preference":  lowered,
	}
	if bookID != "" {
		bundle["last_viewed_book"] = bookID
	}

	switch genre {
	case models.GenreWar:
		bundle["war_enthusiast"] = true
		bundle["military_history_interest"] = true
		bundle["historical_content_preference"] = "military"
	case models.GenreFantasy:
		bundle["fantasy_lover"] = true
		bundle["fictional_content_preference"] = "fantasy"
	case models.GenreMystery:
		bundle["mystery_fan"] = true
		bundle["suspense_preference"] = true
	}

	return bundle
}
