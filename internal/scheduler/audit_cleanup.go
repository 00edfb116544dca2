// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/stockcast/internal/logging"
	"github.com/mrlokans/stockcast/internal/tasks"
)

// DefaultAuditCleanupSchedule runs the cleanup daily at 03:00.
const DefaultAuditCleanupSchedule = "0 3 * * *"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CleanupEnqueuer hands an audit cleanup off for execution.
type CleanupEnqueuer interface {
	EnqueueAuditCleanup(ctx context.Context, retentionDays int) error
}

// InlineCleanup runs the cleanup in the calling goroutine. It is used when
// the task queue is disabled.
type InlineCleanup struct {
	Cleaner tasks.AuditEventCleaner
	Logger  logging.Logger
}

func (i InlineCleanup) EnqueueAuditCleanup(ctx context.Context, retentionDays int) error {
	process := tasks.CleanupAuditEventsProcessor(i.Cleaner, i.Logger)
	return process(ctx, tasks.CleanupAuditEventsTask{RetentionDays: retentionDays})
}

// AuditCleanupScheduler periodically prunes audit events older than the
// retention period.
type AuditCleanupScheduler struct {
	enqueuer      CleanupEnqueuer
	schedule      string
	retentionDays int
	logger        logging.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	parsed     cron.Schedule
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewAuditCleanupScheduler creates a new scheduler instance. An empty
// schedule uses DefaultAuditCleanupSchedule.
func NewAuditCleanupScheduler(enqueuer CleanupEnqueuer, schedule string, retentionDays int, logger logging.Logger) *AuditCleanupScheduler {
	if schedule == "" {
		schedule = DefaultAuditCleanupSchedule
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &AuditCleanupScheduler{
		enqueuer:      enqueuer,
		schedule:      schedule,
		retentionDays: retentionDays,
		logger:        logger.With("component", "scheduler", "job", "audit_cleanup"),
		cron:          cron.New(cron.WithParser(parser)),
	}
}

// ValidateSchedule checks that schedule is a valid 5-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Start registers the job and starts the cron runner. It stops when ctx is
// cancelled.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	parsed, err := parser.Parse(s.schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	s.entryID = s.cron.Schedule(parsed, cron.FuncJob(func() {
		s.run(context.Background())
	}))
	s.parsed = parsed

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.logger.Info(ctx, "scheduler started",
		"schedule", s.schedule,
		"retention_days", s.retentionDays,
		"next_run", parsed.Next(time.Now()))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	s.logger.Info(context.Background(), "scheduler stopped")
}

// RunNow triggers an immediate cleanup.
func (s *AuditCleanupScheduler) RunNow(ctx context.Context) error {
	return s.enqueuer.EnqueueAuditCleanup(ctx, s.retentionDays)
}

// IsRunning returns whether the scheduler is active
func (s *AuditCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next cleanup will occur, or nil when stopped.
func (s *AuditCleanupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	// Entry.Next is filled asynchronously by the cron runner.
	next := s.parsed.Next(time.Now())
	return &next
}

func (s *AuditCleanupScheduler) run(ctx context.Context) {
	start := time.Now()
	if err := s.RunNow(ctx); err != nil {
		s.logger.Error(ctx, "audit cleanup failed", "error", err)
		return
	}
	s.logger.Info(ctx, "audit cleanup dispatched", "duration", time.Since(start).Round(time.Millisecond))
}
