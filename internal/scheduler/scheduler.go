package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/construction-aqi-dashboard/internal/airquality"
)

// Cycler runs one refresh cycle. *airquality.Service satisfies it.
type Cycler interface {
	RunCycle(ctx context.Context) (airquality.Report, error)
}

// Scheduler periodically runs the refresh pipeline.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cycler    Cycler
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, cycler Cycler, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// A cycle that outlives the interval must not overlap with the next one.
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		cycler:    cycler,
		interval:  interval,
		timeout:   time.Minute,
		logger:    logger,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
// The first cycle runs immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "every_minutes", minutes)
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.cycler.RunCycle(ctx)
	if err != nil {
		s.logger.Error("refresh cycle failed", "error", err)
		return
	}
	s.logger.Info("refresh cycle completed",
		"appended", report.Appended,
		"window", len(report.Window),
		"fetch_error", report.ErrorKind(),
	)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
