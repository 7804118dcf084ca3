package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/olehkravets/satzwerk/internal/service"
	"github.com/olehkravets/satzwerk/pkg/config"
)

// Scheduler runs the time-based sweeps: the end-of-day session finalizer,
// the weekly summary precompute and the export cleanup.
type Scheduler struct {
	cron     *gocron.Scheduler
	sessions *service.SessionService
	stats    *service.StatsService
	jobs     config.JobsConfig
	exports  config.ExportsConfig
	logger   *zap.Logger
}

// New builds the scheduler. Jobs run in the server's local time zone so
// "end of day" matches the calendar day used by the attempt gate.
func New(sessions *service.SessionService, stats *service.StatsService, jobs config.JobsConfig, exports config.ExportsConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     gocron.NewScheduler(time.Local),
		sessions: sessions,
		stats:    stats,
		jobs:     jobs,
		exports:  exports,
		logger:   logger,
	}
}

// Start registers the enabled jobs and launches the scheduler loop.
func (s *Scheduler) Start() error {
	if s.jobs.FinalizeEnabled {
		if _, err := s.cron.Every(1).Day().At(s.jobs.FinalizeAt).Do(s.finalizeSessions); err != nil {
			return err
		}
		s.logger.Info("scheduled end-of-day session finalizer", zap.String("at", s.jobs.FinalizeAt))
	}

	if s.jobs.WeeklyEnabled {
		if _, err := s.cron.Every(1).Week().Weekday(weekday(s.jobs.WeeklyDay)).At(s.jobs.WeeklyAt).Do(s.precomputeWeekly); err != nil {
			return err
		}
		s.logger.Info("scheduled weekly summary precompute",
			zap.String("day", s.jobs.WeeklyDay),
			zap.String("at", s.jobs.WeeklyAt))
	}

	if s.exports.CleanupInterval > 0 {
		if _, err := s.cron.Every(s.exports.CleanupInterval).Do(s.cleanupExports); err != nil {
			return err
		}
	}

	s.cron.StartAsync()
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) finalizeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	closed, err := s.sessions.FinalizeOpenBefore(ctx, time.Now())
	if err != nil {
		s.logger.Error("end-of-day finalizer failed", zap.Error(err))
		return
	}
	s.logger.Info("end-of-day finalizer done", zap.Int64("closed", closed))
}

func (s *Scheduler) precomputeWeekly() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	exported, err := s.stats.PrecomputeWeekly(ctx, time.Now())
	if err != nil {
		s.logger.Error("weekly precompute failed", zap.Error(err))
		return
	}
	s.logger.Info("weekly precompute done", zap.Int("exported", exported))
}

func (s *Scheduler) cleanupExports() {
	if _, err := s.stats.CleanupExports(s.exports.SignedURLTTL); err != nil {
		s.logger.Error("export cleanup failed", zap.Error(err))
	}
}

func weekday(name string) time.Weekday {
	switch strings.ToLower(name) {
	case "sunday":
		return time.Sunday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	default:
		return time.Monday
	}
}
