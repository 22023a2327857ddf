// Package models defines the core domain entities shared across the service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgrammingMode defines how a channel fills its timeline.
type ProgrammingMode string

const (
	// ProgrammingContinuous loops randomly selected content back-to-back.
	ProgrammingContinuous ProgrammingMode = "continuous"

	// ProgrammingScheduled follows a generated forward schedule.
	ProgrammingScheduled ProgrammingMode = "scheduled"
)

// Channel represents a virtual broadcast channel. The channel owns its
// timeline exclusively; scheduled blocks are only ever mutated by the
// schedule builder and the maintenance loop.
type Channel struct {
	ID          string          `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name        string          `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	Number      int             `json:"number" gorm:"type:integer;not null;column:number"`
	Description *string         `json:"description,omitempty" gorm:"type:text;column:description"`
	LogoURL     *string         `json:"logo_url,omitempty" gorm:"type:text;column:logo_url"`
	Enabled     bool            `json:"enabled" gorm:"type:integer;not null;default:1;column:enabled"`
	Mode        ProgrammingMode `json:"mode" gorm:"type:text;not null;default:continuous;column:mode"`
	LibraryIDs  []string        `json:"library_ids" gorm:"serializer:json;column:library_ids"`
	Filter      *ContentFilter  `json:"filter,omitempty" gorm:"serializer:json;column:filter"`
	CreatedAt   time.Time       `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewChannel creates an enabled continuous channel with a generated ID.
func NewChannel(name string, number int, libraryIDs []string) *Channel {
	now := time.Now().UTC()
	return &Channel{
		ID:         uuid.NewString(),
		Name:       name,
		Number:     number,
		Enabled:    true,
		Mode:       ProgrammingContinuous,
		LibraryIDs: libraryIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ContentFilter is a declarative predicate evaluated per candidate item.
// An absent criterion (empty set or nil bound) places no constraint on
// that axis. An item is admissible only when it satisfies every
// configured inclusion axis and violates none of the exclusion axes.
type ContentFilter struct {
	IncludedGenres []string `json:"included_genres,omitempty"`
	ExcludedGenres []string `json:"excluded_genres,omitempty"`

	IncludedKinds []ContentKind `json:"included_kinds,omitempty"`
	ExcludedKinds []ContentKind `json:"excluded_kinds,omitempty"`

	// MinRating and MaxRating are carried for forward compatibility but
	// are not evaluated: rating scales have no defined ordering.
	MinRating *string `json:"min_rating,omitempty"`
	MaxRating *string `json:"max_rating,omitempty"`

	MinReleaseYear *int `json:"min_release_year,omitempty"`
	MaxReleaseYear *int `json:"max_release_year,omitempty"`

	IncludeAdultContent bool `json:"include_adult_content"`
}
