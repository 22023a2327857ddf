package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/cablecast/cablecast/internal/config"
	"github.com/cablecast/cablecast/internal/logger"
	"github.com/cablecast/cablecast/internal/metrics"
	"github.com/cablecast/cablecast/internal/models"
	"github.com/cablecast/cablecast/internal/timeline"
)

// maintenanceConcurrency bounds how many channels are maintained in
// parallel during one pass.
const maintenanceConcurrency = 4

// ChannelSource supplies the channels the maintenance loop operates on.
type ChannelSource interface {
	EnabledChannels() []*models.Channel
}

// Persister saves a channel's timeline after a committed mutation.
// Persistence is best-effort: failures are logged by the maintainer and
// never roll back the in-memory mutation.
type Persister interface {
	PersistTimeline(ctx context.Context, channelID string) error
}

// Maintainer is the rolling maintenance loop. On each activation it
// measures every enabled channel's remaining buffered time, extends
// timelines that run low, and prunes blocks past the retention cutoff.
// Overlapping passes for the same channel are safe: the timeline
// store's compare-and-append lets exactly one extension win while the
// others detect the moved tail and skip.
type Maintainer struct {
	channels  ChannelSource
	store     *timeline.Store
	builder   *Builder
	persister Persister
	cfg       config.SchedulingConfig

	schedule cron.Schedule
	nowFn    func() time.Time

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopChan chan struct{}
	done     chan struct{}
	started  bool
}

// NewMaintainer creates a maintainer. The maintenance cadence comes
// from cfg.MaintenanceSchedule, a standard 5-field cron spec.
func NewMaintainer(channels ChannelSource, store *timeline.Store, builder *Builder, persister Persister, cfg config.SchedulingConfig) (*Maintainer, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(cfg.MaintenanceSchedule)
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", cfg.MaintenanceSchedule, err)
	}

	return &Maintainer{
		channels:  channels,
		store:     store,
		builder:   builder,
		persister: persister,
		cfg:       cfg,
		schedule:  sched,
		nowFn:     func() time.Time { return time.Now().UTC() },
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Start runs an immediate maintenance pass and then begins the
// background loop.
func (m *Maintainer) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New("maintainer already started")
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.RunOnce(ctx)

	go m.run(ctx)

	logger.Log.Info().
		Str("schedule", m.cfg.MaintenanceSchedule).
		Int("lookahead_hours", m.cfg.LookaheadHours).
		Int("buffer_minutes", m.cfg.BufferMinutes).
		Msg("Maintenance loop started")

	return nil
}

// Stop shuts the loop down. In-flight builds are cancelled via context;
// committed appends are never left half-applied because the store
// applies each batch atomically.
func (m *Maintainer) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel := m.cancel
	m.mu.Unlock()

	close(m.stopChan)
	cancel()
	<-m.done

	logger.Log.Info().Msg("Maintenance loop stopped")
}

// run sleeps until each next cron activation and triggers a pass.
func (m *Maintainer) run(ctx context.Context) {
	defer close(m.done)

	for {
		next := m.schedule.Next(m.nowFn())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-m.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce executes one maintenance pass over all enabled channels.
// Channels are independent and processed in parallel.
func (m *Maintainer) RunOnce(ctx context.Context) {
	channels := m.channels.EnabledChannels()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maintenanceConcurrency)
	for _, ch := range channels {
		ch := ch
		g.Go(func() error {
			m.MaintainChannel(ctx, ch)
			return nil
		})
	}
	_ = g.Wait() // per-channel failures are logged, never propagated

	logger.Log.Debug().
		Int("channel_count", len(channels)).
		Msg("Maintenance pass complete")
}

// MaintainChannel tops up and prunes one channel's timeline. The
// schedule build runs outside any timeline lock; the commit is a
// compare-and-append against the tail the build started from, so a
// concurrent pass that already extended the channel causes this one to
// skip rather than append duplicate content.
func (m *Maintainer) MaintainChannel(ctx context.Context, ch *models.Channel) {
	now := m.nowFn()
	m.store.Register(ch.ID)

	tail, err := m.store.TailEnd(ch.ID)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", ch.ID).
			Msg("Failed to read timeline tail")
		metrics.MaintenanceRuns.WithLabelValues(metrics.ResultError).Inc()
		return
	}

	bufferRemaining := time.Duration(0)
	if !tail.IsZero() && tail.After(now) {
		bufferRemaining = tail.Sub(now)
	}

	if bufferRemaining >= time.Duration(m.cfg.BufferMinutes)*time.Minute {
		m.prune(ch.ID, now)
		metrics.MaintenanceRuns.WithLabelValues(metrics.ResultSkipped).Inc()
		return
	}

	// Extend from the current tail so the timeline stays gapless even
	// when it ran dry in the past; an empty timeline starts from now.
	start := tail
	if tail.IsZero() {
		start = now
	}

	blocks, err := m.builder.Build(ctx, ch, start, time.Duration(m.cfg.LookaheadHours)*time.Hour)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", ch.ID).
			Msg("Schedule build failed")
		metrics.MaintenanceRuns.WithLabelValues(metrics.ResultError).Inc()
		return
	}
	if len(blocks) == 0 {
		// Empty content pool; maintenance will retry on the next pass.
		m.prune(ch.ID, now)
		metrics.MaintenanceRuns.WithLabelValues(metrics.ResultSkipped).Inc()
		return
	}

	if err := m.store.AppendIfTail(ch.ID, tail, blocks); err != nil {
		switch {
		case errors.Is(err, timeline.ErrStaleTail):
			logger.Log.Debug().
				Str("channel_id", ch.ID).
				Msg("Timeline already extended by concurrent pass, skipping")
			metrics.MaintenanceRuns.WithLabelValues(metrics.ResultLostRace).Inc()
		default:
			logger.Log.Error().
				Err(err).
				Str("channel_id", ch.ID).
				Int("block_count", len(blocks)).
				Msg("Rejected schedule extension batch")
			metrics.MaintenanceRuns.WithLabelValues(metrics.ResultError).Inc()
		}
		return
	}

	m.prune(ch.ID, now)
	metrics.MaintenanceRuns.WithLabelValues(metrics.ResultExtended).Inc()

	logger.Log.Info().
		Str("channel_id", ch.ID).
		Str("channel_name", ch.Name).
		Int("block_count", len(blocks)).
		Dur("buffer_remaining", bufferRemaining).
		Msg("Extended channel timeline")

	if m.persister != nil {
		if err := m.persister.PersistTimeline(ctx, ch.ID); err != nil {
			logger.Log.Warn().
				Err(err).
				Str("channel_id", ch.ID).
				Msg("Failed to persist timeline, in-memory schedule remains authoritative")
		}
	}
}

func (m *Maintainer) prune(channelID string, now time.Time) {
	removed, err := m.store.Prune(channelID, now.Add(-m.cfg.Retention))
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID).
			Msg("Failed to prune timeline")
		return
	}
	if removed > 0 {
		metrics.BlocksPruned.Add(float64(removed))
		logger.Log.Debug().
			Str("channel_id", channelID).
			Int("pruned", removed).
			Msg("Pruned elapsed blocks")
	}
}
