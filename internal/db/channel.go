// Package db provides database connection management and repository interfaces.
package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cablecast/cablecast/internal/models"
)

// ChannelRepository handles database operations for channels
type ChannelRepository struct {
	db *DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Create inserts a new channel into the database
func (r *ChannelRepository) Create(ctx context.Context, channel *models.Channel) error {
	result := r.db.WithContext(ctx).Create(channel)
	if result.Error != nil {
		return fmt.Errorf("failed to create channel: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a channel by its ID
func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	var channel models.Channel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&channel)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &channel, nil
}

// List retrieves all channels ordered by channel number
func (r *ChannelRepository) List(ctx context.Context) ([]*models.Channel, error) {
	var channels []*models.Channel
	result := r.db.WithContext(ctx).Order("number ASC").Find(&channels)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list channels: %w", MapGormError(result.Error))
	}
	return channels, nil
}

// Update updates an existing channel's declarative configuration
func (r *ChannelRepository) Update(ctx context.Context, channel *models.Channel) error {
	channel.UpdatedAt = time.Now().UTC()

	// Use Select to explicitly update all fields including zero values
	result := r.db.WithContext(ctx).
		Where("id = ?", channel.ID).
		Select("name", "number", "description", "logo_url", "enabled", "mode", "library_ids", "filter", "updated_at").
		Updates(channel)
	if result.Error != nil {
		return fmt.Errorf("failed to update channel: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a channel by its ID (cascade delete to scheduled blocks)
func (r *ChannelRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Channel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete channel: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Save upserts a channel together with its full retained block history
// in one transaction. This is the persistence point called after every
// committed timeline mutation: the stored schedule always reflects the
// in-memory timeline as of the last successful save.
func (r *ChannelRepository) Save(ctx context.Context, channel *models.Channel, blocks []*models.ScheduledBlock) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(channel).Error; err != nil {
			return fmt.Errorf("failed to save channel: %w", MapGormError(err))
		}

		if err := tx.Where("channel_id = ?", channel.ID).Delete(&models.ScheduledBlock{}).Error; err != nil {
			return fmt.Errorf("failed to clear blocks: %w", MapGormError(err))
		}

		if len(blocks) > 0 {
			if err := tx.Create(blocks).Error; err != nil {
				return fmt.Errorf("failed to save blocks: %w", MapGormError(err))
			}
		}
		return nil
	})
}
