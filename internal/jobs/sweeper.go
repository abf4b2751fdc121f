package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StartSweeper schedules Sweep on spec ("@hourly", "0 3 * * *", ...).
// Stop the returned cron on shutdown.
func StartSweeper(spec string, p Purger, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		Sweep(ctx, p, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule session sweep %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

// Sweep deletes expired sessions once.
func Sweep(ctx context.Context, p Purger, logger *zap.Logger) {
	n, err := p.PurgeExpired(ctx)
	if err != nil {
		logger.Error("expired session sweep failed", zap.Error(err))
		return
	}
	logger.Info("expired session sweep done", zap.Int64("sessions_deleted", n))
}
