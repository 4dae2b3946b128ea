package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	log "github.com/sirupsen/logrus"
)

// SchedulerService runs a reconciliation of every workspace on a cron schedule
type SchedulerService struct {
	runner   *WorkspaceRunner
	schedule string
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	runMu    sync.Mutex // held while a run is in progress
	mu       sync.Mutex
	running  bool
	stopped  bool
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(runner *WorkspaceRunner, schedule string) *SchedulerService {
	return &SchedulerService{
		runner:   runner,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the schedule and starts the cron loop in the background
func (s *SchedulerService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true
	s.cron.Start()
	log.Printf("⏰ Scheduler service started (%s)", s.schedule)
	return nil
}

// Stop cancels any run in progress and waits for it to return
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	log.Println("⏰ Scheduler service stopping...")
	s.cancel()
	<-s.cron.Stop().Done()
	log.Println("⏰ Scheduler service stopped")
}

// tick runs one reconciliation unless the previous one is still in progress
func (s *SchedulerService) tick() {
	if !s.runMu.TryLock() {
		log.Println("⏭️  Previous reconciliation still running, skipping tick")
		return
	}
	defer s.runMu.Unlock()

	if _, err := s.RunOnce(s.ctx); err != nil {
		log.Errorf("❌ Scheduled reconciliation failed: %v", err)
	}
}

// RunOnce reconciles every workspace once
func (s *SchedulerService) RunOnce(ctx context.Context) (int, error) {
	report, err := s.runner.SyncAll(ctx, nil)
	if err != nil {
		return 0, err
	}
	return len(report.Failed()), nil
}
