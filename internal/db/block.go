package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cablecast/cablecast/internal/models"
)

// BlockRepository handles database operations for scheduled blocks
type BlockRepository struct {
	db *DB
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// ListByChannel retrieves all blocks for a channel ordered by start time
func (r *BlockRepository) ListByChannel(ctx context.Context, channelID string) ([]*models.ScheduledBlock, error) {
	var blocks []*models.ScheduledBlock
	result := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("start_time ASC").
		Find(&blocks)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", MapGormError(result.Error))
	}
	return blocks, nil
}

// DeleteEndedBefore removes blocks whose end time falls before the cutoff
func (r *BlockRepository) DeleteEndedBefore(ctx context.Context, channelID string, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("channel_id = ? AND end_time < ?", channelID, cutoff).
		Delete(&models.ScheduledBlock{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune blocks: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}
