package schedule

import (
	"github.com/cablecast/cablecast/internal/models"
)

// preRollProbability is the fixed chance of a pre-roll preceding a
// content block. Unlike the commercial probability it is not
// configurable.
const preRollProbability = 0.2

// Rand is the injected randomness source. *math/rand.Rand satisfies it;
// tests substitute a scripted implementation for determinism.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Selector picks content and makes interstitial insertion decisions.
// It is the single point where randomness enters schedule generation.
type Selector struct {
	rng Rand
}

// NewSelector creates a selector over the given randomness source.
func NewSelector(rng Rand) *Selector {
	return &Selector{rng: rng}
}

// PickContent selects one item uniformly at random, preferring items
// whose duration lies within [minMinutes, maxMinutes]. When no item
// fits the window the whole pool is used instead, so selection never
// fails while any content exists. An empty pool yields nil.
func (s *Selector) PickContent(pool []*models.ContentItem, minMinutes, maxMinutes int) *models.ContentItem {
	if len(pool) == 0 {
		return nil
	}

	candidates := pool
	var windowed []*models.ContentItem
	for _, item := range pool {
		minutes := item.DurationSeconds / 60
		if minutes >= int64(minMinutes) && minutes <= int64(maxMinutes) {
			windowed = append(windowed, item)
		}
	}
	if len(windowed) > 0 {
		candidates = windowed
	}

	return candidates[s.rng.Intn(len(candidates))]
}

// ShouldInsertCommercial draws a weighted coin with the configured
// commercial probability.
func (s *Selector) ShouldInsertCommercial(probability float64) bool {
	return s.rng.Float64() < probability
}

// ShouldInsertPreRoll draws a weighted coin with the fixed pre-roll
// probability.
func (s *Selector) ShouldInsertPreRoll() bool {
	return s.rng.Float64() < preRollProbability
}
