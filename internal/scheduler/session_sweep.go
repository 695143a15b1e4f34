package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type SessionSweeper interface {
	Sweep(ctx context.Context) int
}

type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, retention time.Duration) (int64, error)
}

// SessionSweepJob drops expired and profile-less sessions from memory, then deletes
// expired session rows older than the retention.
type SessionSweepJob struct {
	sweeper   SessionSweeper
	purger    SessionPurger
	interval  time.Duration
	retention time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

func NewSessionSweepJob(sweeper SessionSweeper, purger SessionPurger, interval, retention time.Duration, logger *slog.Logger) *SessionSweepJob {
	return &SessionSweepJob{
		sweeper:   sweeper,
		purger:    purger,
		interval:  interval,
		retention: retention,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

func (j *SessionSweepJob) Definition() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *SessionSweepJob) Execute(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	signedOut := j.sweeper.Sweep(ctx)

	purged, err := j.purger.PurgeExpiredSessions(ctx, j.retention)
	if err != nil {
		j.logger.Error("session purge failed", "job", j.Name(), "error", err)
		return
	}
	if signedOut > 0 || purged > 0 {
		j.logger.Info("sessions swept", "job", j.Name(), "signed_out", signedOut, "purged", purged)
	}
}
