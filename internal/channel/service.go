// Package channel provides the channel registry and business logic for
// channel operations. The in-memory registry and timeline store are
// authoritative at runtime; the database is a best-effort durability
// layer written after every committed mutation.
package channel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cablecast/cablecast/internal/db"
	"github.com/cablecast/cablecast/internal/logger"
	"github.com/cablecast/cablecast/internal/models"
	"github.com/cablecast/cablecast/internal/schedule"
	"github.com/cablecast/cablecast/internal/timeline"
)

// Service handles business logic for channel operations
type Service struct {
	repos   *db.Repositories
	store   *timeline.Store
	builder *schedule.Builder

	mu       sync.RWMutex
	channels map[string]*models.Channel

	nowFn func() time.Time
}

// NewService creates a new channel service instance. repos may be nil,
// in which case the service runs purely in memory (used by tests).
func NewService(repos *db.Repositories, store *timeline.Store, builder *schedule.Builder) *Service {
	return &Service{
		repos:    repos,
		store:    store,
		builder:  builder,
		channels: make(map[string]*models.Channel),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// LoadAll populates the registry and timeline store from the database.
// Called once at process start. A load failure leaves the service
// empty but usable; channels can still be created through the API.
func (s *Service) LoadAll(ctx context.Context) error {
	if s.repos == nil {
		return nil
	}

	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load channels: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range channels {
		s.channels[ch.ID] = ch
		s.store.Register(ch.ID)

		blocks, err := s.repos.Blocks.ListByChannel(ctx, ch.ID)
		if err != nil {
			logger.Log.Error().
				Err(err).
				Str("channel_id", ch.ID).
				Msg("Failed to load channel timeline, starting empty")
			continue
		}
		if err := s.store.Replace(ch.ID, blocks); err != nil {
			logger.Log.Error().
				Err(err).
				Str("channel_id", ch.ID).
				Int("block_count", len(blocks)).
				Msg("Persisted timeline violates ordering invariants, starting empty")
		}
	}

	logger.Log.Info().
		Int("channel_count", len(channels)).
		Msg("Loaded channels from storage")

	return nil
}

// List returns all channels ordered by channel number.
func (s *Service) List() []*models.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		copied := *ch
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Get retrieves a channel by its ID.
func (s *Service) Get(id string) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[id]
	if !ok {
		return nil, ErrChannelNotFound
	}
	copied := *ch
	return &copied, nil
}

// EnabledChannels returns all enabled channels. It implements
// schedule.ChannelSource for the maintenance loop.
func (s *Service) EnabledChannels() []*models.Channel {
	var out []*models.Channel
	for _, ch := range s.List() {
		if ch.Enabled {
			out = append(out, ch)
		}
	}
	return out
}

// Create validates and registers a new channel. An absent ID is
// generated. The persisted copy is written best-effort.
func (s *Service) Create(ctx context.Context, ch *models.Channel) error {
	if strings.TrimSpace(ch.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidChannel)
	}
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if ch.Mode == "" {
		ch.Mode = models.ProgrammingContinuous
	}

	now := s.nowFn()
	ch.CreatedAt = now
	ch.UpdatedAt = now

	s.mu.Lock()
	if _, exists := s.channels[ch.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: id %s already in use", ErrInvalidChannel, ch.ID)
	}
	if s.nameTakenLocked(ch.Name, ch.ID) {
		s.mu.Unlock()
		logger.Log.Warn().
			Str("name", ch.Name).
			Msg("Channel creation failed: duplicate name")
		return ErrDuplicateChannelName
	}
	copied := *ch
	s.channels[ch.ID] = &copied
	s.mu.Unlock()

	s.store.Register(ch.ID)
	s.persist(ctx, ch.ID)

	logger.Log.Info().
		Str("channel_id", ch.ID).
		Str("name", ch.Name).
		Int("number", ch.Number).
		Msg("Channel created")

	return nil
}

// Update replaces a channel's declarative configuration. The timeline
// is left untouched; callers regenerate explicitly when the new
// configuration should take effect immediately.
func (s *Service) Update(ctx context.Context, ch *models.Channel) error {
	s.mu.Lock()
	existing, ok := s.channels[ch.ID]
	if !ok {
		s.mu.Unlock()
		return ErrChannelNotFound
	}
	if s.nameTakenLocked(ch.Name, ch.ID) {
		s.mu.Unlock()
		return ErrDuplicateChannelName
	}

	ch.CreatedAt = existing.CreatedAt
	ch.UpdatedAt = s.nowFn()
	copied := *ch
	s.channels[ch.ID] = &copied
	s.mu.Unlock()

	s.persist(ctx, ch.ID)

	logger.Log.Info().
		Str("channel_id", ch.ID).
		Str("name", ch.Name).
		Msg("Channel updated")

	return nil
}

// Delete removes a channel, its timeline, and its persisted state.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.channels[id]; !ok {
		s.mu.Unlock()
		return ErrChannelNotFound
	}
	delete(s.channels, id)
	s.mu.Unlock()

	s.store.Remove(id)

	if s.repos != nil {
		if err := s.repos.Channels.Delete(ctx, id); err != nil && !db.IsNotFound(err) {
			logger.Log.Error().
				Err(err).
				Str("channel_id", id).
				Msg("Failed to delete persisted channel")
		}
	}

	logger.Log.Info().
		Str("channel_id", id).
		Msg("Channel deleted")

	return nil
}

// CurrentProgram returns the block on air at now, using half-open
// interval semantics. timeline.ErrNoCurrentBlock is passed through
// when nothing is scheduled at that instant.
func (s *Service) CurrentProgram(id string, now time.Time) (*models.ScheduledBlock, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	block, err := s.store.CurrentBlock(id, now)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// Schedule returns the blocks starting within [from, from+hours).
func (s *Service) Schedule(id string, from time.Time, hours int) ([]*models.ScheduledBlock, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	return s.store.Range(id, from, from.Add(time.Duration(hours)*time.Hour))
}

// Regenerate discards the channel's timeline and rebuilds it from now
// for the requested span. The new schedule replaces the old one
// atomically; readers observe either the full old or the full new
// timeline.
func (s *Service) Regenerate(ctx context.Context, id string, hours int) ([]*models.ScheduledBlock, error) {
	ch, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	blocks, err := s.builder.Build(ctx, ch, s.nowFn(), time.Duration(hours)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate schedule: %w", err)
	}

	if err := s.store.Replace(id, blocks); err != nil {
		return nil, fmt.Errorf("failed to install regenerated schedule: %w", err)
	}

	s.persist(ctx, id)

	logger.Log.Info().
		Str("channel_id", id).
		Int("block_count", len(blocks)).
		Int("hours", hours).
		Msg("Schedule regenerated")

	return blocks, nil
}

// PersistTimeline saves a channel's configuration and full retained
// timeline. It implements schedule.Persister for the maintenance loop.
func (s *Service) PersistTimeline(ctx context.Context, channelID string) error {
	if s.repos == nil {
		return nil
	}

	ch, err := s.Get(channelID)
	if err != nil {
		return err
	}
	blocks, err := s.store.Blocks(channelID)
	if err != nil {
		return err
	}
	return s.repos.Channels.Save(ctx, ch, blocks)
}

// persist writes the channel best-effort; a failure is logged and the
// in-memory state stays authoritative.
func (s *Service) persist(ctx context.Context, channelID string) {
	if err := s.PersistTimeline(ctx, channelID); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID).
			Msg("Failed to persist channel, in-memory state remains authoritative")
	}
}

// nameTakenLocked checks name uniqueness case-insensitively. Caller
// holds s.mu.
func (s *Service) nameTakenLocked(name, excludeID string) bool {
	nameLower := strings.ToLower(strings.TrimSpace(name))
	for _, existing := range s.channels {
		if existing.ID == excludeID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(existing.Name)) == nameLower {
			return true
		}
	}
	return false
}
