package airquality

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Service runs the refresh pipeline: fetch, conditionally append, window,
// forecast. It keeps the last report for the UI; all other state lives in
// the history store.
type Service struct {
	provider  Provider
	store     HistoryStore
	publisher Publisher
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu     sync.RWMutex
	latest *Report
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher sends every appended reading to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger (slog.Default otherwise).
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new Service. retention is the trend window, 24h in production.
func NewService(provider Provider, store HistoryStore, retention time.Duration, opts ...Option) *Service {
	s := &Service{
		provider:  provider,
		store:     store,
		retention: retention,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retention returns the configured trend window.
func (s *Service) Retention() time.Duration {
	return s.retention
}

// RunCycle executes one refresh cycle. Fetch failures do not fail the cycle:
// they are recorded on the report and the reading stays empty. Only storage
// failures are returned, and even then the report reflects what was possible.
func (s *Service) RunCycle(ctx context.Context) (Report, error) {
	now := s.now()
	report := Report{At: now}

	reading, err := s.provider.Fetch(ctx)
	if err != nil {
		s.logger.Warn("fetch failed",
			"provider", s.provider.Name(),
			"kind", FetchErrorKind(err),
			"error", err,
		)
		reading = Reading{}
	}
	reading.Time = now
	report.Reading = reading
	report.FetchErr = err

	history, err := s.store.Load(ctx)
	if err != nil {
		s.setLatest(report)
		return report, fmt.Errorf("load history: %w", err)
	}

	updated, err := s.store.Append(ctx, history, reading)
	if err != nil {
		s.logger.Error("append reading failed", "error", err)
		updated = history
	} else {
		report.Appended = len(updated) > len(history)
	}

	report.Window = Window(updated, now, s.retention)
	report.Forecast = ForecastFrom(report.Window)

	if report.Appended && s.publisher != nil {
		if pubErr := s.publisher.Publish(ctx, reading); pubErr != nil {
			s.logger.Warn("publish reading failed", "error", pubErr)
		}
	}

	s.logger.Debug("cycle completed",
		"appended", report.Appended,
		"window", len(report.Window),
	)

	s.setLatest(report)
	if err != nil {
		return report, fmt.Errorf("append reading: %w", err)
	}
	return report, nil
}

// Latest returns the report of the most recent cycle.
func (s *Service) Latest() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Report{}, false
	}
	return *s.latest, true
}

// History reads the store and returns the readings of the last d.
func (s *Service) History(ctx context.Context, d time.Duration) (History, error) {
	h, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Window(h, s.now(), d), nil
}

func (s *Service) setLatest(r Report) {
	s.mu.Lock()
	s.latest = &r
	s.mu.Unlock()
}
