package drift

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs Detector.CheckAll on a cron schedule.
type Scheduler struct {
	detector *Detector
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler for the standard five-field cron
// expression schedule.
func NewScheduler(detector *Detector, schedule string) *Scheduler {
	return &Scheduler{
		detector: detector,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "drift.scheduler"),
	}
}

// Start schedules the checks. An empty schedule disables the scheduler.
// The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("drift schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("drift scheduler already running")
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.run(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule drift checks: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("drift scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	start := time.Now()
	reports := s.detector.CheckAll(ctx)

	drifted := 0
	for _, r := range reports {
		if r.Drifted() {
			drifted++
		}
	}
	s.logger.Info("scheduled drift check completed",
		"environments", len(reports),
		"drifted", drifted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Stop stops the scheduler and waits for a running check to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("drift scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled check, or nil when not scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
