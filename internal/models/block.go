package models

import (
	"time"

	"github.com/google/uuid"
)

// BlockKind classifies a scheduled block.
type BlockKind string

const (
	BlockContent    BlockKind = "content"
	BlockCommercial BlockKind = "commercial"
	BlockPreRoll    BlockKind = "preroll"

	// BlockFiller is declared for completeness; the builder does not
	// currently emit filler blocks.
	BlockFiller BlockKind = "filler"
)

// ScheduledBlock is one contiguous unit of programming time on a
// channel's timeline, covering the half-open interval
// [StartTime, EndTime). Blocks are immutable once created; regeneration
// replaces blocks, it never edits them. Title and description are
// copied from the source item at emission time, so a later rename of
// the item does not retroactively change past blocks.
type ScheduledBlock struct {
	ID               uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID        string    `json:"channel_id" gorm:"type:text;not null;index;column:channel_id"`
	ItemID           uuid.UUID `json:"item_id" gorm:"type:text;not null;column:item_id"`
	Title            string    `json:"title" gorm:"type:text;not null;column:title"`
	Description      *string   `json:"description,omitempty" gorm:"type:text;column:description"`
	StartTime        time.Time `json:"start_time" gorm:"type:datetime;not null;index;column:start_time"`
	EndTime          time.Time `json:"end_time" gorm:"type:datetime;not null;column:end_time"`
	Kind             BlockKind `json:"kind" gorm:"type:text;not null;column:kind"`
	AllowCommercials bool      `json:"allow_commercials" gorm:"type:integer;not null;column:allow_commercials"`
	AllowPreRoll     bool      `json:"allow_pre_roll" gorm:"type:integer;not null;column:allow_pre_roll"`
}

// NewScheduledBlock snapshots an item into a block starting at start.
// Only content blocks are eligible for attached interstitials.
func NewScheduledBlock(item *ContentItem, start time.Time, kind BlockKind, channelID string, duration time.Duration) *ScheduledBlock {
	return &ScheduledBlock{
		ID:               uuid.New(),
		ChannelID:        channelID,
		ItemID:           item.ID,
		Title:            item.Name,
		Description:      item.Description,
		StartTime:        start,
		EndTime:          start.Add(duration),
		Kind:             kind,
		AllowCommercials: kind == BlockContent,
		AllowPreRoll:     kind == BlockContent,
	}
}

// Duration returns the block length.
func (b *ScheduledBlock) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// Contains reports whether t falls within the block's half-open
// interval [StartTime, EndTime).
func (b *ScheduledBlock) Contains(t time.Time) bool {
	return !t.Before(b.StartTime) && t.Before(b.EndTime)
}
