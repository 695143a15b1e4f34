// Package scheduler runs the periodic housekeeping jobs of the server process.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// Job is one periodic task.
type Job interface {
	Name() string
	Definition() gocron.JobDefinition
	Execute(ctx context.Context)
}

type Manager struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewManager(logger *slog.Logger, opts ...gocron.SchedulerOption) (*Manager, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		scheduler: s,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Register adds a job that never overlaps itself; a run that is still busy when the
// next one is due pushes the next one back.
func (m *Manager) Register(job Job) error {
	_, err := m.scheduler.NewJob(
		job.Definition(),
		gocron.NewTask(func() { job.Execute(m.ctx) }),
		gocron.WithName(job.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}
	m.logger.Info("job registered", "job", job.Name())
	return nil
}

func (m *Manager) Start() {
	m.scheduler.Start()
	m.logger.Info("scheduler started", "jobs", len(m.scheduler.Jobs()))
}

// Stop cancels running jobs and waits for them to return.
func (m *Manager) Stop() error {
	m.cancel()
	if err := m.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	m.logger.Info("scheduler stopped")
	return nil
}
