// Package schedule implements the scheduling engine: content filtering,
// random content selection, schedule generation, and the rolling
// maintenance loop that keeps every channel's timeline topped up.
package schedule

import (
	"strings"

	"github.com/cablecast/cablecast/internal/models"
)

// Admits reports whether an item passes a channel's content filter.
// A nil filter admits everything. Otherwise the item must satisfy every
// configured inclusion axis and violate none of the exclusion axes.
// The check is total: absent item fields count as non-matching for
// inclusion axes and non-violating for exclusion axes.
//
// MinRating and MaxRating are intentionally not evaluated; rating
// scales carry no defined ordering.
func Admits(item *models.ContentItem, filter *models.ContentFilter) bool {
	if filter == nil {
		return true
	}

	if len(filter.IncludedGenres) > 0 && !anyGenreMatches(item.Genres, filter.IncludedGenres) {
		return false
	}
	if len(filter.ExcludedGenres) > 0 && anyGenreMatches(item.Genres, filter.ExcludedGenres) {
		return false
	}

	if len(filter.IncludedKinds) > 0 && !kindMatches(item.Kind, filter.IncludedKinds) {
		return false
	}
	if len(filter.ExcludedKinds) > 0 && kindMatches(item.Kind, filter.ExcludedKinds) {
		return false
	}

	if filter.MinReleaseYear != nil && (item.ReleaseYear == nil || *item.ReleaseYear < *filter.MinReleaseYear) {
		return false
	}
	if filter.MaxReleaseYear != nil && (item.ReleaseYear == nil || *item.ReleaseYear > *filter.MaxReleaseYear) {
		return false
	}

	if item.Adult && !filter.IncludeAdultContent {
		return false
	}

	return true
}

// anyGenreMatches reports whether any item genre appears in the set,
// case-insensitively.
func anyGenreMatches(genres, set []string) bool {
	for _, g := range genres {
		for _, s := range set {
			if strings.EqualFold(g, s) {
				return true
			}
		}
	}
	return false
}

func kindMatches(kind models.ContentKind, set []models.ContentKind) bool {
	for _, k := range set {
		if strings.EqualFold(string(kind), string(k)) {
			return true
		}
	}
	return false
}
