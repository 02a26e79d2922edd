// Package backup exports the library on a cron schedule.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/starford/shelf/internal/library"
)

// Exporter copies the library into a destination root.
type Exporter interface {
	Export(ctx context.Context, destRoot string) (*library.ExportResult, error)
}

// Scheduler runs exports on a cron schedule.
type Scheduler struct {
	exporter Exporter
	schedule cron.Schedule
	dest     string
	logger   *slog.Logger

	mu      sync.Mutex
	last    *library.ExportResult
	lastErr error
}

// New validates schedule (standard five-field cron or a descriptor such as
// "@daily") and returns a scheduler writing under dest.
func New(exporter Exporter, schedule, dest string, logger *slog.Logger) (*Scheduler, error) {
	if dest == "" {
		return nil, fmt.Errorf("backup: destination is required")
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("backup: invalid schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{exporter: exporter, schedule: sched, dest: dest, logger: logger}, nil
}

// Next returns the first run after t.
func (s *Scheduler) Next(t time.Time) time.Time { return s.schedule.Next(t) }

// RunOnce performs a single export and records its outcome.
func (s *Scheduler) RunOnce(ctx context.Context) (*library.ExportResult, error) {
	start := time.Now()
	res, err := s.exporter.Export(ctx, s.dest)

	s.mu.Lock()
	s.last, s.lastErr = res, err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("backup: export failed", slog.String("dest", s.dest), slog.String("error", err.Error()))
		return res, err
	}
	attrs := []any{slog.Duration("took", time.Since(start))}
	if res.Works != nil {
		attrs = append(attrs, slog.String("works_dir", res.Works.Dir), slog.Int("works", res.Works.Copied))
	}
	if res.Notes != nil {
		attrs = append(attrs, slog.String("notes_dir", res.Notes.Dir), slog.Int("notes", res.Notes.Copied))
	}
	s.logger.Info("backup: export finished", attrs...)
	return res, nil
}

// Last returns the outcome of the most recent export.
func (s *Scheduler) Last() (*library.ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastErr
}

// Run starts the cron loop and blocks until ctx is cancelled. A run still
// in progress when the next one is due is not overlapped.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_, _ = s.RunOnce(ctx)
	}))
	c.Start()
	s.logger.Info("backup: scheduler started", slog.String("dest", s.dest), slog.Time("next", s.Next(time.Now())))

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	s.logger.Info("backup: scheduler stopped")
	return nil
}
