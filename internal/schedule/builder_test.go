package schedule

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cablecast/cablecast/internal/config"
	"github.com/cablecast/cablecast/internal/library"
	"github.com/cablecast/cablecast/internal/models"
)

// fakeProvider serves in-memory libraries keyed by ID.
type fakeProvider struct {
	libraries map[string][]*models.ContentItem
	err       error
}

func (p *fakeProvider) Items(_ context.Context, libraryID string, kinds []models.ContentKind) ([]*models.ContentItem, error) {
	if p.err != nil {
		return nil, p.err
	}
	items, ok := p.libraries[libraryID]
	if !ok {
		return nil, library.ErrLibraryNotFound
	}
	if len(kinds) == 0 {
		return items, nil
	}
	var filtered []*models.ContentItem
	for _, item := range items {
		for _, kind := range kinds {
			if item.Kind == kind {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered, nil
}

func testSchedulingConfig() config.SchedulingConfig {
	return config.SchedulingConfig{
		MaintenanceSchedule:   "*/30 * * * *",
		LookaheadHours:        24,
		BufferMinutes:         60,
		Retention:             time.Hour,
		EnableCommercials:     false,
		CommercialProbability: 0.3,
		EnablePreRoll:         false,
		MinContentMinutes:     5,
		MaxContentMinutes:     180,
	}
}

func contentOnlyBuilder(provider library.Provider, rng Rand) *Builder {
	return NewBuilder(provider, NewSelector(rng), nil, nil, testSchedulingConfig())
}

func TestBuild_BlocksAreContiguous(t *testing.T) {
	provider := &fakeProvider{libraries: map[string][]*models.ContentItem{
		"lib-1": {
			itemWithDuration("Half Hour", 30),
			itemWithDuration("Feature", 45),
			itemWithDuration("Long Feature", 60),
		},
	}}
	builder := contentOnlyBuilder(provider, rand.New(rand.NewSource(1)))
	ch := models.NewChannel("Movies", 1, []string{"lib-1"})

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	blocks, err := builder.Build(context.Background(), ch, start, 2*time.Hour)

	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	assert.Equal(t, start, blocks[0].StartTime)
	for i := 1; i < len(blocks); i++ {
		assert.Equal(t, blocks[i-1].EndTime, blocks[i].StartTime,
			"block %d must start where block %d ends", i, i-1)
	}
	for _, block := range blocks {
		assert.True(t, block.EndTime.After(block.StartTime))
		assert.Equal(t, ch.ID, block.ChannelID)
		assert.Equal(t, models.BlockContent, block.Kind)
	}
}

func TestBuild_CoversSpanWithWholeBlocks(t *testing.T) {
	provider := &fakeProvider{libraries: map[string][]*models.ContentItem{
		"lib-1": {
			itemWithDuration("A", 30),
			itemWithDuration("B", 45),
			itemWithDuration("C", 60),
		},
	}}
	builder := contentOnlyBuilder(provider, rand.New(rand.NewSource(7)))
	ch := models.NewChannel("Movies", 1, []string{"lib-1"})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	span := 2 * time.Hour
	blocks, err := builder.Build(context.Background(), ch, start, span)

	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	// The last block must cross the span boundary but never by more than
	// one whole block (the longest pool item is 60 minutes).
	tail := blocks[len(blocks)-1].EndTime
	assert.False(t, tail.Before(start.Add(span)), "schedule must cover the span")
	assert.True(t, tail.Before(start.Add(span+time.Hour)), "overrun is at most one block")
}

func TestBuild_EmptyPoolIsNotAnError(t *testing.T) {
	provider := &fakeProvider{libraries: map[string][]*models.ContentItem{
		"lib-1": {},
	}}
	builder := contentOnlyBuilder(provider, rand.New(rand.NewSource(1)))
	ch := models.NewChannel("Movies", 1, []string{"lib-1"})

	blocks, err := builder.Build(context.Background(), ch, time.Now().UTC(), time.Hour)

	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestBuild_MissingLibraryIsSkipped(t *testing.T) {
	provider := &fakeProvider{libraries: map[string][]*models.ContentItem{
		"lib-real": {itemWithDuration("Only", 30)},
	}}
	builder := contentOnlyBuilder(provider, rand.New(rand.NewSource(1)))
	ch := models.NewChannel("Movies", 1, []string{"lib-gone", "lib-real"})

	blocks, err := builder.Build(context.Background(), ch, time.Now().UTC(), time.Hour)

	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	for _, block := range blocks {
		assert.Equal(t, "Only", block.Title)
	}
}

func TestBuild_ProviderFailurePropagates(t *testing.T) {
	provider := &fakeProvider{err: errors.New("backend down")}
	builder := contentOnlyBuilder(provider, rand.New(rand.NewSource(1)))
	ch := models.NewChannel("Movies", 1, []string{"lib-1"})

	blocks, err := builder.Build(context.Background(), ch, time.Now().UTC(), time.Hour)

	require.Error(t, err)
	assert.Nil(t, blocks)
}

func TestBuild_FilterNarrowsPool(t *testing.T) {
	drama := itemWithDuration("Drama", 30)
	drama.Genres = []string{"Drama"}
	comedy := itemWithDuration("Comedy", 30)
	comedy.Genres = []string{"Comedy"}

	provider := &fakeProvider{libraries: map[string][]*models.ContentItem{
		"lib-1": {drama, comedy},
	}}
	builder := contentOnlyBuilder(provider, rand.New(rand.NewSource(1)))
	ch := models.NewChannel("Drama Channel", 1, []string{"lib-1"})
	ch.Filter = &models.ContentFilter{IncludedGenres: []string{"drama"}}

	blocks, err := builder.Build(context.Background(), ch, time.Now().UTC(), time.Hour)

	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	for _, block := range blocks {
		assert.Equal(t, "Drama", block.Title)
	}
}

func TestBuild_ZeroDurationItemGetsFallback(t *testing.T) {
	unknown := itemWithDuration("Unknown Runtime", 0)

	provider := &fakeProvider{libraries: map[string][]*models.ContentItem{
		"lib-1": {unknown},
	}}
	builder := contentOnlyBuilder(provider, rand.New(rand.NewSource(1)))
	ch := models.NewChannel("Movies", 1, []string{"lib-1"})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	blocks, err := builder.Build(context.Background(), ch, start, time.Hour)

	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	assert.Equal(t, FallbackBlockDuration, blocks[0].EndTime.Sub(blocks[0].StartTime))
}

func TestBuild_CommercialsInterleaveWhenEnabled(t *testing.T) {
	spot := models.NewContentItem("lib-ads", "Spot", 30, models.KindCommercial)
	provider := &fakeProvider{libraries: map[string][]*models.ContentItem{
		"lib-1":   {itemWithDuration("Feature", 30)},
		"lib-ads": {spot},
	}}

	cfg := testSchedulingConfig()
	cfg.EnableCommercials = true
	cfg.CommercialProbability = 1.0
	cfg.CommercialLibraryID = "lib-ads"

	// Float64 always below both thresholds would also fire pre-rolls, so
	// keep pre-roll disabled and drive the commercial coin to certainty.
	rng := &scriptedRand{
		ints:   []int{0, 0, 0, 0, 0, 0, 0, 0},
		floats: []float64{0.5, 0.5, 0.5, 0.5},
	}
	commercials := library.NewSource(provider, "lib-ads", rng)
	builder := NewBuilder(provider, NewSelector(rng), commercials, nil, cfg)

	ch := models.NewChannel("Movies", 1, []string{"lib-1"})
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	blocks, err := builder.Build(context.Background(), ch, start, time.Hour)

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(blocks), 2)

	var sawCommercial bool
	for i, block := range blocks {
		if block.Kind == models.BlockCommercial {
			sawCommercial = true
			require.Greater(t, i, 0, "commercial never leads the schedule")
			assert.Equal(t, models.BlockContent, blocks[i-1].Kind)
			assert.False(t, block.AllowCommercials)
			assert.False(t, block.AllowPreRoll)
		}
	}
	assert.True(t, sawCommercial)
}

func TestBuild_PreRollPrecedesContent(t *testing.T) {
	bumper := models.NewContentItem("lib-bumpers", "Bumper", 15, models.KindPreRoll)
	provider := &fakeProvider{libraries: map[string][]*models.ContentItem{
		"lib-1":       {itemWithDuration("Feature", 30)},
		"lib-bumpers": {bumper},
	}}

	cfg := testSchedulingConfig()
	cfg.EnablePreRoll = true
	cfg.PreRollLibraryID = "lib-bumpers"

	// First coin fires the pre-roll, the rest stay quiet.
	rng := &scriptedRand{
		ints:   []int{0, 0, 0, 0, 0, 0},
		floats: []float64{0.1, 0.9, 0.9, 0.9, 0.9},
	}
	preRolls := library.NewSource(provider, "lib-bumpers", rng)
	builder := NewBuilder(provider, NewSelector(rng), nil, preRolls, cfg)

	ch := models.NewChannel("Movies", 1, []string{"lib-1"})
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	blocks, err := builder.Build(context.Background(), ch, start, time.Hour)

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(blocks), 2)
	assert.Equal(t, models.BlockPreRoll, blocks[0].Kind)
	assert.Equal(t, models.BlockContent, blocks[1].Kind)
	assert.Equal(t, blocks[0].EndTime, blocks[1].StartTime)
}

func TestBuild_MissingInterstitialLibraryDegradesGracefully(t *testing.T) {
	provider := &fakeProvider{libraries: map[string][]*models.ContentItem{
		"lib-1": {itemWithDuration("Feature", 30)},
	}}

	cfg := testSchedulingConfig()
	cfg.EnableCommercials = true
	cfg.CommercialProbability = 1.0
	cfg.CommercialLibraryID = "lib-gone"

	rng := rand.New(rand.NewSource(3))
	commercials := library.NewSource(provider, "lib-gone", rng)
	builder := NewBuilder(provider, NewSelector(rng), commercials, nil, cfg)

	ch := models.NewChannel("Movies", 1, []string{"lib-1"})
	blocks, err := builder.Build(context.Background(), ch, time.Now().UTC(), time.Hour)

	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	for _, block := range blocks {
		assert.Equal(t, models.BlockContent, block.Kind)
	}
}
