package library

import (
	"context"
	"errors"

	"github.com/cablecast/cablecast/internal/models"
)

// Rand is the slice of randomness the Source needs. *math/rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
}

// Source resolves one interstitial item from a configured library.
// Resolution is best-effort: an unset library, an unknown library, or
// an empty library all resolve to no item, which callers treat as a
// normal branch rather than an error.
type Source struct {
	provider  Provider
	libraryID string
	rng       Rand
}

// NewSource creates an interstitial source over the given library.
// libraryID may be empty, in which case every resolve returns no item.
func NewSource(provider Provider, libraryID string, rng Rand) *Source {
	return &Source{
		provider:  provider,
		libraryID: libraryID,
		rng:       rng,
	}
}

// Resolve picks a random item from the source library, or returns
// (nil, nil) when the source is unavailable.
func (s *Source) Resolve(ctx context.Context) (*models.ContentItem, error) {
	if s == nil || s.libraryID == "" {
		return nil, nil
	}

	items, err := s.provider.Items(ctx, s.libraryID, nil)
	if err != nil {
		if errors.Is(err, ErrLibraryNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	return items[s.rng.Intn(len(items))], nil
}
