package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cablecast/cablecast/internal/models"
)

func block(channelID string, start time.Time, duration time.Duration) *models.ScheduledBlock {
	item := models.NewContentItem("lib-1", "Feature", int64(duration/time.Second), models.KindMovie)
	return models.NewScheduledBlock(item, start, models.BlockContent, channelID, duration)
}

func seededStore(t *testing.T, channelID string, blocks ...*models.ScheduledBlock) *Store {
	t.Helper()
	s := NewStore()
	s.Register(channelID)
	require.NoError(t, s.AppendIfTail(channelID, time.Time{}, blocks))
	return s
}

func TestCurrentBlock_HalfOpenIntervals(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := block("ch-1", base, 30*time.Minute)
	second := block("ch-1", first.EndTime, 30*time.Minute)
	s := seededStore(t, "ch-1", first, second)

	// At a block boundary exactly one block is current: the one
	// starting there, never the one ending there.
	got, err := s.CurrentBlock("ch-1", base)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = s.CurrentBlock("ch-1", first.EndTime)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	got, err = s.CurrentBlock("ch-1", second.EndTime.Add(-time.Nanosecond))
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = s.CurrentBlock("ch-1", second.EndTime)
	assert.ErrorIs(t, err, ErrNoCurrentBlock)
}

func TestCurrentBlock_UnknownChannel(t *testing.T) {
	s := NewStore()

	_, err := s.CurrentBlock("nope", time.Now())

	assert.ErrorIs(t, err, ErrChannelUnknown)
}

func TestCurrentBlock_ReturnsCopy(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := seededStore(t, "ch-1", block("ch-1", base, 30*time.Minute))

	got, err := s.CurrentBlock("ch-1", base)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := s.CurrentBlock("ch-1", base)
	require.NoError(t, err)
	assert.Equal(t, "Feature", again.Title)
}

func TestRange_HalfOpenOnStartTimes(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := block("ch-1", base, 30*time.Minute)
	second := block("ch-1", first.EndTime, 30*time.Minute)
	third := block("ch-1", second.EndTime, 30*time.Minute)
	s := seededStore(t, "ch-1", first, second, third)

	got, err := s.Range("ch-1", first.EndTime, third.StartTime)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)
}

func TestTailEnd(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.Register("ch-1")

	tail, err := s.TailEnd("ch-1")
	require.NoError(t, err)
	assert.True(t, tail.IsZero())

	b := block("ch-1", base, 30*time.Minute)
	require.NoError(t, s.AppendIfTail("ch-1", time.Time{}, []*models.ScheduledBlock{b}))

	tail, err = s.TailEnd("ch-1")
	require.NoError(t, err)
	assert.Equal(t, b.EndTime, tail)
}

func TestAppendIfTail_RejectsStaleTail(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := block("ch-1", base, 30*time.Minute)
	s := seededStore(t, "ch-1", first)

	// A writer that planned from the empty timeline loses to the one
	// that already appended.
	stale := block("ch-1", base, 30*time.Minute)
	err := s.AppendIfTail("ch-1", time.Time{}, []*models.ScheduledBlock{stale})
	assert.ErrorIs(t, err, ErrStaleTail)

	// Planning from the real tail succeeds.
	next := block("ch-1", first.EndTime, 30*time.Minute)
	require.NoError(t, s.AppendIfTail("ch-1", first.EndTime, []*models.ScheduledBlock{next}))

	blocks, err := s.Blocks("ch-1")
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}

func TestAppendIfTail_RejectsMalformedBatch(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		batch []*models.ScheduledBlock
	}{
		{"zero length block", func() []*models.ScheduledBlock {
			b := block("ch-1", base, 30*time.Minute)
			b.EndTime = b.StartTime
			return []*models.ScheduledBlock{b}
		}()},
		{"inverted block", func() []*models.ScheduledBlock {
			b := block("ch-1", base, 30*time.Minute)
			b.EndTime = b.StartTime.Add(-time.Minute)
			return []*models.ScheduledBlock{b}
		}()},
		{"overlapping blocks", []*models.ScheduledBlock{
			block("ch-1", base, 30*time.Minute),
			block("ch-1", base.Add(15*time.Minute), 30*time.Minute),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore()
			s.Register("ch-1")

			err := s.AppendIfTail("ch-1", time.Time{}, tc.batch)
			assert.ErrorIs(t, err, ErrContractViolation)

			// A rejected batch leaves the timeline untouched.
			blocks, err := s.Blocks("ch-1")
			require.NoError(t, err)
			assert.Empty(t, blocks)
		})
	}
}

func TestAppendIfTail_RejectsBatchBeforeTail(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := block("ch-1", base, 30*time.Minute)
	s := seededStore(t, "ch-1", first)

	overlapping := block("ch-1", first.EndTime.Add(-time.Minute), 30*time.Minute)
	err := s.AppendIfTail("ch-1", first.EndTime, []*models.ScheduledBlock{overlapping})

	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestAppendIfTail_EmptyBatchIsNoOp(t *testing.T) {
	s := NewStore()
	s.Register("ch-1")

	require.NoError(t, s.AppendIfTail("ch-1", time.Time{}, nil))
}

func TestAppendIfTail_AllowsGapAfterTail(t *testing.T) {
	// A channel that ran dry extends from a tail in the past; the new
	// batch may start later than the old tail.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := block("ch-1", base, 30*time.Minute)
	s := seededStore(t, "ch-1", first)

	later := block("ch-1", first.EndTime.Add(2*time.Hour), 30*time.Minute)
	require.NoError(t, s.AppendIfTail("ch-1", first.EndTime, []*models.ScheduledBlock{later}))
}

func TestReplace(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := seededStore(t, "ch-1", block("ch-1", base, 30*time.Minute))

	replacement := block("ch-1", base.Add(time.Hour), time.Hour)
	require.NoError(t, s.Replace("ch-1", []*models.ScheduledBlock{replacement}))

	blocks, err := s.Blocks("ch-1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, replacement.ID, blocks[0].ID)
}

func TestPrune_Idempotent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	old := block("ch-1", base.Add(-3*time.Hour), time.Hour)
	current := block("ch-1", base, time.Hour)
	s := seededStore(t, "ch-1", old, current)

	removed, err := s.Prune("ch-1", base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = s.Prune("ch-1", base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	blocks, err := s.Blocks("ch-1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, current.ID, blocks[0].ID)
}

func TestPrune_KeepsBlockEndingAtCutoff(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := block("ch-1", base, time.Hour)
	s := seededStore(t, "ch-1", b)

	removed, err := s.Prune("ch-1", b.EndTime)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestRegisterAndRemove(t *testing.T) {
	s := NewStore()
	s.Register("ch-1")
	s.Register("ch-2")
	s.Register("ch-1") // no-op

	assert.Equal(t, []string{"ch-1", "ch-2"}, s.ChannelIDs())

	s.Remove("ch-1")
	assert.Equal(t, []string{"ch-2"}, s.ChannelIDs())

	_, err := s.TailEnd("ch-1")
	assert.ErrorIs(t, err, ErrChannelUnknown)
}
