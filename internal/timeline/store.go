// Package timeline owns the per-channel sequences of scheduled blocks
// and answers point and range queries against them, creating the
// illusion of a continuously broadcasting channel.
//
// Each channel's timeline is guarded by its own lock: mutations on one
// channel never block queries or mutations on another, and readers
// always observe either the pre- or post-mutation timeline, never a
// partially appended batch. Schedule generation runs outside these
// locks; writers commit a finished batch with a compare-and-append
// against the tail they planned from.
package timeline

import (
	"sort"
	"sync"
	"time"

	"github.com/cablecast/cablecast/internal/models"
)

// Store holds the timelines of all channels, indexed by channel ID.
type Store struct {
	mu        sync.RWMutex
	timelines map[string]*channelTimeline
}

// channelTimeline is one channel's ordered block sequence. blocks is
// ascending by start time at all times.
type channelTimeline struct {
	mu     sync.RWMutex
	blocks []*models.ScheduledBlock
}

// NewStore creates an empty timeline store.
func NewStore() *Store {
	return &Store{
		timelines: make(map[string]*channelTimeline),
	}
}

// Register creates an empty timeline for a channel. Registering an
// already-registered channel is a no-op.
func (s *Store) Register(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timelines[channelID]; !ok {
		s.timelines[channelID] = &channelTimeline{}
	}
}

// Remove discards a channel's timeline entirely.
func (s *Store) Remove(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timelines, channelID)
}

// ChannelIDs returns the IDs of all registered channels.
func (s *Store) ChannelIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.timelines))
	for id := range s.timelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) timeline(channelID string) (*channelTimeline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tl, ok := s.timelines[channelID]
	return tl, ok
}

// CurrentBlock returns the block covering now, using half-open interval
// semantics: a block is current from its start instant up to but not
// including its end instant.
func (s *Store) CurrentBlock(channelID string, now time.Time) (*models.ScheduledBlock, error) {
	tl, ok := s.timeline(channelID)
	if !ok {
		return nil, ErrChannelUnknown
	}

	tl.mu.RLock()
	defer tl.mu.RUnlock()

	for _, b := range tl.blocks {
		if b.Contains(now) {
			copied := *b
			return &copied, nil
		}
		if b.StartTime.After(now) {
			break
		}
	}
	return nil, ErrNoCurrentBlock
}

// Range returns copies of all blocks whose start time falls in
// [from, to), ascending by start time.
func (s *Store) Range(channelID string, from, to time.Time) ([]*models.ScheduledBlock, error) {
	tl, ok := s.timeline(channelID)
	if !ok {
		return nil, ErrChannelUnknown
	}

	tl.mu.RLock()
	defer tl.mu.RUnlock()

	var out []*models.ScheduledBlock
	for _, b := range tl.blocks {
		if b.StartTime.Before(from) {
			continue
		}
		if !b.StartTime.Before(to) {
			break
		}
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

// Upcoming returns the blocks starting within horizon of now.
func (s *Store) Upcoming(channelID string, now time.Time, horizon time.Duration) ([]*models.ScheduledBlock, error) {
	return s.Range(channelID, now, now.Add(horizon))
}

// TailEnd returns the end time of the channel's last block. An empty
// timeline reports the zero time.
func (s *Store) TailEnd(channelID string) (time.Time, error) {
	tl, ok := s.timeline(channelID)
	if !ok {
		return time.Time{}, ErrChannelUnknown
	}

	tl.mu.RLock()
	defer tl.mu.RUnlock()

	if len(tl.blocks) == 0 {
		return time.Time{}, nil
	}
	return tl.blocks[len(tl.blocks)-1].EndTime, nil
}

// AppendIfTail atomically appends a batch of blocks, but only if the
// timeline tail still equals expectedTail. This is the idempotence
// guard for overlapping maintenance passes: the batch was built from a
// tail read earlier, and if another writer extended the timeline in
// the meantime the batch would duplicate content, so it is rejected
// with ErrStaleTail and the caller skips.
//
// The batch must be internally ordered (ascending, start < end, no
// overlaps) and must not start before expectedTail; a batch breaking
// these invariants is rejected whole with ErrContractViolation.
func (s *Store) AppendIfTail(channelID string, expectedTail time.Time, blocks []*models.ScheduledBlock) error {
	tl, ok := s.timeline(channelID)
	if !ok {
		return ErrChannelUnknown
	}
	if len(blocks) == 0 {
		return nil
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	tail := time.Time{}
	if len(tl.blocks) > 0 {
		tail = tl.blocks[len(tl.blocks)-1].EndTime
	}
	if !tail.Equal(expectedTail) {
		return ErrStaleTail
	}

	if err := validateBatch(tail, blocks); err != nil {
		return err
	}

	tl.blocks = append(tl.blocks, copyBlocks(blocks)...)
	return nil
}

// Replace swaps the channel's entire timeline for the given batch.
// Used by explicit schedule regeneration. The same batch invariants
// apply as for AppendIfTail.
func (s *Store) Replace(channelID string, blocks []*models.ScheduledBlock) error {
	tl, ok := s.timeline(channelID)
	if !ok {
		return ErrChannelUnknown
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if err := validateBatch(time.Time{}, blocks); err != nil {
		return err
	}

	tl.blocks = copyBlocks(blocks)
	return nil
}

// Prune removes every block whose end time falls before the cutoff and
// returns how many were removed. Pruning is idempotent: a second prune
// with the same cutoff removes nothing.
func (s *Store) Prune(channelID string, cutoff time.Time) (int, error) {
	tl, ok := s.timeline(channelID)
	if !ok {
		return 0, ErrChannelUnknown
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	// Blocks are ascending by start but pruning is by end time, so scan
	// rather than binary-search.
	kept := tl.blocks[:0]
	removed := 0
	for _, b := range tl.blocks {
		if b.EndTime.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	tl.blocks = kept
	return removed, nil
}

// Blocks returns a copy of the channel's full timeline, ascending by
// start time. Used to persist the retained schedule.
func (s *Store) Blocks(channelID string) ([]*models.ScheduledBlock, error) {
	tl, ok := s.timeline(channelID)
	if !ok {
		return nil, ErrChannelUnknown
	}

	tl.mu.RLock()
	defer tl.mu.RUnlock()

	return copyBlocks(tl.blocks), nil
}

// validateBatch checks the block ordering invariants for a batch that
// is about to follow the given tail.
func validateBatch(tail time.Time, blocks []*models.ScheduledBlock) error {
	prevEnd := tail
	for _, b := range blocks {
		if !b.StartTime.Before(b.EndTime) {
			return ErrContractViolation
		}
		if b.StartTime.Before(prevEnd) {
			return ErrContractViolation
		}
		prevEnd = b.EndTime
	}
	return nil
}

func copyBlocks(blocks []*models.ScheduledBlock) []*models.ScheduledBlock {
	out := make([]*models.ScheduledBlock, len(blocks))
	for i, b := range blocks {
		copied := *b
		out[i] = &copied
	}
	return out
}
