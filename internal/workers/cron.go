package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 5 * time.Minute

// StartCron schedules the background jobs: the temp-file sweep and the
// meeting reminders, both every 10 minutes. The returned cron is already
// running; stop it on shutdown.
func StartCron(sweeper *Sweeper, reminder *Reminder, logger *zap.Logger) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("*/10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := sweeper.SweepTempFiles(ctx); err != nil {
			logger.Error("temp file sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Error("failed to schedule temp file sweep", zap.Error(err))
	}

	_, err = c.AddFunc("*/10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := reminder.SendDue(ctx); err != nil {
			logger.Error("meeting reminders failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Error("failed to schedule meeting reminders", zap.Error(err))
	}

	c.Start()
	return c
}
