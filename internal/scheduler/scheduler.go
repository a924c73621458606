// Package scheduler runs periodic maintenance jobs on cron schedules while the
// ingestor is serving.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
)

// Disabled turns a schedule off.
const Disabled = "off"

// ErrDuplicateJob is returned when a job name is registered twice.
var ErrDuplicateJob = errors.New("job already scheduled")

// JobFunc is one scheduled unit of work.
type JobFunc func(ctx context.Context) error

// Scheduler wraps a cron.Cron. Runs of the same job never overlap.
type Scheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	log    logger.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped scheduler. Specs use the standard five fields plus
// descriptors such as "@hourly" and "@every 30m".
func New(log logger.Logger) *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		parser:  parser,
		log:     log,
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add schedules fn under name. An empty or "off" spec is skipped and reports
// false.
func (s *Scheduler) Add(name, spec string, fn JobFunc) (bool, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, Disabled) {
		s.log.Info("Scheduled job disabled", logger.String("job", name))
		return false, nil
	}

	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return false, fmt.Errorf("parse schedule for %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return false, fmt.Errorf("%s: %w", name, ErrDuplicateJob)
	}
	s.entries[name] = s.cron.Schedule(schedule, cron.FuncJob(func() { s.run(name, fn) }))

	s.log.Info("Scheduled job",
		logger.String("job", name),
		logger.String("schedule", spec),
	)
	return true, nil
}

func (s *Scheduler) run(name string, fn JobFunc) {
	start := time.Now()
	log := s.log.With(logger.String("job", name))

	if err := fn(s.ctx); err != nil {
		log.Error("Scheduled job failed",
			logger.Error(err),
			logger.Duration("duration", time.Since(start)),
		)
		return
	}
	log.Info("Scheduled job finished", logger.Duration("duration", time.Since(start)))
}

// Next reports when name runs next.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}
