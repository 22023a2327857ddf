package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cablecast/cablecast/internal/models"
)

// ItemRepository handles database operations for library content items
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new content item into the database
func (r *ItemRepository) Create(ctx context.Context, item *models.ContentItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create item: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a content item by its UUID
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ContentItem, error) {
	var item models.ContentItem
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// ListByLibrary retrieves all items belonging to a library, optionally
// narrowed to the given kinds
func (r *ItemRepository) ListByLibrary(ctx context.Context, libraryID string, kinds []models.ContentKind) ([]*models.ContentItem, error) {
	query := r.db.WithContext(ctx).Where("library_id = ?", libraryID)
	if len(kinds) > 0 {
		query = query.Where("kind IN ?", kinds)
	}

	var items []*models.ContentItem
	result := query.Order("name ASC").Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// LibraryExists reports whether any item is registered under the library ID
func (r *ItemRepository) LibraryExists(ctx context.Context, libraryID string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.ContentItem{}).
		Where("library_id = ?", libraryID).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check library: %w", MapGormError(result.Error))
	}
	return count > 0, nil
}

// Delete removes a content item by its UUID
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.ContentItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
