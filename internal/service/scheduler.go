package service

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// RunSyncScheduler submits a sync job every interval until ctx is done.
// Runs never overlap: a tick that finds the previous run still going is rescheduled.
func RunSyncScheduler(ctx context.Context, interval time.Duration, jobs *Jobs, logger *zap.Logger) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			job := jobs.RunNow(ctx, "schedule")
			if job.State == JobFailed {
				logger.Warn("Scheduled sync failed", zap.String("job_id", job.ID.String()), zap.String("error", job.Error))
			}
		}),
		gocron.WithName("ledger-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	logger.Info("Starting sync scheduler", zap.Duration("interval", interval))
	scheduler.Start()

	<-ctx.Done()

	logger.Info("Stopping sync scheduler")
	return scheduler.Shutdown()
}
