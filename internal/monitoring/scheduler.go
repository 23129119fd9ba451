package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// EventPruner deletes activity events older than a cutoff.
type EventPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// pruneTimeout bounds a single retention run.
const pruneTimeout = time.Minute

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron      *cron.Cron
	events    EventPruner
	retention time.Duration
	now       func() time.Time
}

// NewScheduler creates a scheduler that prunes events older than retention
// on the given standard cron spec.
func NewScheduler(events EventPruner, spec string, retention time.Duration) (*Scheduler, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("event retention must be positive, got %s", retention)
	}

	s := &Scheduler{
		cron:      cron.New(),
		events:    events,
		retention: retention,
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.pruneEvents); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the scheduler in its own goroutine.
func (s *Scheduler) Run() {
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Starting background scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler")
}

// PruneNow deletes events older than the retention window.
func (s *Scheduler) PruneNow(ctx context.Context) (int64, error) {
	return s.events.PruneBefore(ctx, s.now().Add(-s.retention))
}

func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	n, err := s.PruneNow(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to prune events")
		return
	}
	log.Info().Int64("deleted", n).Dur("retention", s.retention).Msg("Scheduler: Pruned old events")
}
