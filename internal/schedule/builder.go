package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cablecast/cablecast/internal/config"
	"github.com/cablecast/cablecast/internal/library"
	"github.com/cablecast/cablecast/internal/logger"
	"github.com/cablecast/cablecast/internal/metrics"
	"github.com/cablecast/cablecast/internal/models"
)

// FallbackBlockDuration is assigned to items with unknown or zero
// duration so a block is never zero-length.
const FallbackBlockDuration = 30 * time.Minute

// mainContentKinds are the item kinds eligible for main content blocks.
var mainContentKinds = []models.ContentKind{models.KindMovie, models.KindEpisode}

// Builder generates contiguous block sequences for a channel. One Build
// call is a single forward pass over the time axis with no
// backtracking: blocks are placed back-to-back from the start instant
// until the requested span is covered or the content pool runs dry.
// Builder performs no locking of its own; callers commit the returned
// batch to the timeline store.
type Builder struct {
	provider    library.Provider
	selector    *Selector
	commercials *library.Source
	preRolls    *library.Source
	cfg         config.SchedulingConfig
}

// NewBuilder creates a schedule builder. commercials and preRolls may
// be nil sources; the corresponding insertions then simply never
// resolve an item.
func NewBuilder(provider library.Provider, selector *Selector, commercials, preRolls *library.Source, cfg config.SchedulingConfig) *Builder {
	return &Builder{
		provider:    provider,
		selector:    selector,
		commercials: commercials,
		preRolls:    preRolls,
		cfg:         cfg,
	}
}

// Build generates a schedule for the channel starting at start and
// covering span. The returned blocks are contiguous (each block starts
// exactly where the previous one ends) and whole: the final block may
// end past start+span because blocks are never truncated to fit.
//
// An empty admissible pool is not an error: the result is an empty
// (or partial) schedule, logged as a warning, and maintenance retries
// later. Only collaborator failures return an error.
func (b *Builder) Build(ctx context.Context, ch *models.Channel, start time.Time, span time.Duration) ([]*models.ScheduledBlock, error) {
	buildStart := time.Now()
	defer func() {
		metrics.ObserveBuildDuration(time.Since(buildStart))
	}()

	pool, err := b.resolvePool(ctx, ch)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		logger.Log.Warn().
			Str("channel_id", ch.ID).
			Str("channel_name", ch.Name).
			Msg("No content available for channel")
		return nil, nil
	}

	var blocks []*models.ScheduledBlock
	cursor := start
	limit := start.Add(span)

	for cursor.Before(limit) {
		if b.cfg.EnablePreRoll && b.selector.ShouldInsertPreRoll() {
			if item := b.resolveInterstitial(ctx, b.preRolls, ch.ID, "preroll"); item != nil {
				block := b.emit(item, cursor, models.BlockPreRoll, ch.ID)
				blocks = append(blocks, block)
				cursor = block.EndTime
			}
		}

		item := b.selector.PickContent(pool, b.cfg.MinContentMinutes, b.cfg.MaxContentMinutes)
		if item == nil {
			// Content exhausted; a partial schedule is acceptable.
			break
		}
		block := b.emit(item, cursor, models.BlockContent, ch.ID)
		blocks = append(blocks, block)
		cursor = block.EndTime

		if b.cfg.EnableCommercials && b.selector.ShouldInsertCommercial(b.cfg.CommercialProbability) {
			if item := b.resolveInterstitial(ctx, b.commercials, ch.ID, "commercial"); item != nil {
				block := b.emit(item, cursor, models.BlockCommercial, ch.ID)
				blocks = append(blocks, block)
				cursor = block.EndTime
			}
		}
	}

	logger.Log.Info().
		Str("channel_id", ch.ID).
		Str("channel_name", ch.Name).
		Int("block_count", len(blocks)).
		Time("start", start).
		Time("end", cursor).
		Msg("Generated schedule")

	return blocks, nil
}

// resolvePool gathers the channel's admissible content pool: the union
// of all configured libraries (not deduplicated), filtered through the
// channel's content filter. A missing library is logged and skipped;
// the remaining libraries still contribute.
func (b *Builder) resolvePool(ctx context.Context, ch *models.Channel) ([]*models.ContentItem, error) {
	var pool []*models.ContentItem
	for _, libraryID := range ch.LibraryIDs {
		items, err := b.provider.Items(ctx, libraryID, mainContentKinds)
		if err != nil {
			if errors.Is(err, library.ErrLibraryNotFound) {
				logger.Log.Warn().
					Str("channel_id", ch.ID).
					Str("library_id", libraryID).
					Msg("Library not found, skipping")
				continue
			}
			return nil, fmt.Errorf("failed to resolve library %s: %w", libraryID, err)
		}

		for _, item := range items {
			if Admits(item, ch.Filter) {
				pool = append(pool, item)
			}
		}
	}
	return pool, nil
}

// resolveInterstitial resolves one commercial or pre-roll item.
// Unavailability is a normal branch; only collaborator failures are
// logged, and both cases yield nil.
func (b *Builder) resolveInterstitial(ctx context.Context, source *library.Source, channelID, kind string) *models.ContentItem {
	item, err := source.Resolve(ctx)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID).
			Str("kind", kind).
			Msg("Failed to resolve interstitial content")
		return nil
	}
	return item
}

// emit snapshots an item into a block at the cursor, applying the
// fallback duration for items with unknown runtime.
func (b *Builder) emit(item *models.ContentItem, start time.Time, kind models.BlockKind, channelID string) *models.ScheduledBlock {
	duration := item.Duration()
	if duration <= 0 {
		duration = FallbackBlockDuration
	}
	metrics.RecordBlocks(string(kind), 1)
	return models.NewScheduledBlock(item, start, kind, channelID, duration)
}
