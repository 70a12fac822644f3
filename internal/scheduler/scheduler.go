// Package scheduler runs periodic maintenance jobs with gocron: purging
// expired magic-link tokens and pruning the webhook delivery log.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
)

// Job names.
const (
	JobPurgeTokens     = "purge-expired-tokens"
	JobPruneDeliveries = "prune-delivery-log"
)

const defaultInterval = time.Hour

// Config holds the scheduler configuration.
type Config struct {
	Tokens     storage.VerificationTokenStore
	Deliveries storage.DeliveryStore
	// Retention is how long delivery log entries are kept. Zero disables pruning.
	Retention time.Duration
	// Interval between runs of each job. Defaults to one hour.
	Interval time.Duration
	Logger   *slog.Logger
	// Now overrides the clock used to compute cutoffs.
	Now func() time.Time
}

// Scheduler manages the maintenance jobs using gocron.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	tasks  map[string]func(context.Context) error
	jobs   map[string]uuid.UUID // job name → gocron job UUID
	logger *slog.Logger
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Scheduler{
		cron:   cron,
		cfg:    cfg,
		tasks:  make(map[string]func(context.Context) error),
		jobs:   make(map[string]uuid.UUID),
		logger: cfg.Logger.With("component", "scheduler"),
	}
	if cfg.Tokens != nil {
		s.tasks[JobPurgeTokens] = s.purgeExpiredTokens
	}
	if cfg.Deliveries != nil && cfg.Retention > 0 {
		s.tasks[JobPruneDeliveries] = s.pruneDeliveryLog
	}
	return s, nil
}

// Jobs returns the names of the configured jobs in sorted order.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start schedules every configured job to run immediately and then every
// Interval, and starts the gocron scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, name := range s.Jobs() {
		jobName := name
		job, err := s.cron.NewJob(
			gocron.DurationJob(s.cfg.Interval),
			gocron.NewTask(func() {
				if err := s.RunJob(ctx, jobName); err != nil {
					s.logger.Error("maintenance job failed", "job", jobName, "error", err)
				}
			}),
			gocron.WithName(jobName),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return fmt.Errorf("scheduling job %q: %w", jobName, err)
		}
		s.jobs[jobName] = job.ID()
	}

	s.cron.Start()
	s.logger.Info("maintenance scheduler started", "jobs", len(s.jobs), "interval", s.cfg.Interval)
	return nil
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// RunJob executes the named job synchronously.
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	task, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return task(ctx)
}

func (s *Scheduler) purgeExpiredTokens(ctx context.Context) error {
	n, err := s.cfg.Tokens.DeleteExpiredVerificationTokens(ctx, s.cfg.Now().UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("purged expired verification tokens", "count", n)
	}
	return nil
}

func (s *Scheduler) pruneDeliveryLog(ctx context.Context) error {
	cutoff := s.cfg.Now().UTC().Add(-s.cfg.Retention)
	n, err := s.cfg.Deliveries.PruneDeliveries(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("pruned webhook delivery log", "count", n, "cutoff", cutoff)
	}
	return nil
}
