package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/mandi-price-sync/internal/market"
)

// jobTimeout bounds one sync of one state.
const jobTimeout = 2 * time.Minute

// Syncer runs one external sync; *market.Service implements it.
type Syncer interface {
	Sync(ctx context.Context, f market.SyncFilter) market.SyncReport
}

// Scheduler periodically syncs external prices into the store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Syncer
	states    []string
	interval  time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler. With no states, each run syncs unfiltered.
func New(states []string, interval time.Duration, service Syncer, log zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		states:    states,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// A non-positive interval leaves the scheduler idle.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info().Msg("scheduler: sync interval not set; background sync disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().Dur("interval", s.interval).Strs("states", s.states).Msg("scheduler: started")
	return nil
}

// RunOnce syncs every configured state in turn.
func (s *Scheduler) RunOnce() {
	s.log.Info().Msg("scheduler: running price sync job")

	filters := []market.SyncFilter{{}}
	if len(s.states) > 0 {
		filters = filters[:0]
		for _, st := range s.states {
			filters = append(filters, market.SyncFilter{State: st})
		}
	}

	for _, f := range filters {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		report := s.service.Sync(ctx, f)
		cancel()

		s.log.Info().
			Str("state", f.State).
			Bool("success", report.Success).
			Int("created", report.Created).
			Int("updated", report.Updated).
			Int("errors", len(report.Errors)).
			Msg("scheduler: sync finished")
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
