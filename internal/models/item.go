package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentKind classifies a library item.
type ContentKind string

const (
	KindMovie      ContentKind = "movie"
	KindEpisode    ContentKind = "episode"
	KindCommercial ContentKind = "commercial"
	KindPreRoll    ContentKind = "preroll"
)

// ContentItem is a read-only metadata snapshot of a library item. The
// scheduling engine never mutates items; it only copies their fields
// into scheduled blocks at emission time.
type ContentItem struct {
	ID              uuid.UUID   `json:"id" gorm:"type:text;primaryKey;column:id"`
	LibraryID       string      `json:"library_id" gorm:"type:text;not null;index;column:library_id" validate:"required"`
	Name            string      `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	Description     *string     `json:"description,omitempty" gorm:"type:text;column:description"`
	DurationSeconds int64       `json:"duration_seconds" gorm:"type:integer;not null;column:duration_seconds"`
	Genres          []string    `json:"genres,omitempty" gorm:"serializer:json;column:genres"`
	Kind            ContentKind `json:"kind" gorm:"type:text;not null;column:kind"`
	ReleaseYear     *int        `json:"release_year,omitempty" gorm:"type:integer;column:release_year"`
	Rating          *string     `json:"rating,omitempty" gorm:"type:text;column:rating"`
	Adult           bool        `json:"adult" gorm:"type:integer;not null;default:0;column:adult"`
	CreatedAt       time.Time   `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewContentItem creates a ContentItem with a generated UUID and timestamp.
func NewContentItem(libraryID, name string, durationSeconds int64, kind ContentKind) *ContentItem {
	return &ContentItem{
		ID:              uuid.New(),
		LibraryID:       libraryID,
		Name:            name,
		DurationSeconds: durationSeconds,
		Kind:            kind,
		CreatedAt:       time.Now().UTC(),
	}
}

// Duration returns the item runtime as a time.Duration.
func (i *ContentItem) Duration() time.Duration {
	return time.Duration(i.DurationSeconds) * time.Second
}
