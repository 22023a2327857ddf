// Package library exposes the content library collaborators consumed by
// the scheduling engine: a Provider that lists the items of a library
// and a Source that resolves interstitial (commercial / pre-roll)
// items. Both are called outside any timeline lock; they may be slow
// and may legitimately come up empty.
package library

import (
	"context"
	"errors"

	"github.com/cablecast/cablecast/internal/db"
	"github.com/cablecast/cablecast/internal/models"
)

// ErrLibraryNotFound is returned when a library ID resolves to nothing.
var ErrLibraryNotFound = errors.New("library not found")

// Provider lists the content items of a library. Implementations must
// treat items as read-only snapshots.
type Provider interface {
	Items(ctx context.Context, libraryID string, kinds []models.ContentKind) ([]*models.ContentItem, error)
}

// DBProvider serves library items from the content item repository.
type DBProvider struct {
	items *db.ItemRepository
}

// NewDBProvider creates a repository-backed library provider.
func NewDBProvider(items *db.ItemRepository) *DBProvider {
	return &DBProvider{items: items}
}

// Items returns the items registered under libraryID, narrowed to the
// given kinds. A library no item was ever registered under is reported
// as ErrLibraryNotFound so callers can log and skip it.
func (p *DBProvider) Items(ctx context.Context, libraryID string, kinds []models.ContentKind) ([]*models.ContentItem, error) {
	exists, err := p.items.LibraryExists(ctx, libraryID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrLibraryNotFound
	}
	return p.items.ListByLibrary(ctx, libraryID, kinds)
}
