package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

// DefaultRetention is how long history rows and finished notifications are kept.
const DefaultRetention = 30 * 24 * time.Hour

// Purger deletes finished rows older than a cutoff.
type Purger interface {
	PurgeFinished(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically removes old notification history and
// scheduled notifications that already reached a terminal status.
type RetentionSweeper struct {
	store     Purger
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
	now       func() time.Time
}

func NewRetentionSweeper(store Purger, log logger.Logger, interval, retention time.Duration) *RetentionSweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionSweeper{
		store:     store,
		logger:    log,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
}

// Start sweeps once, then on every interval.
func (rs *RetentionSweeper) Start(ctx context.Context) error {
	if err := rs.Sweep(ctx); err != nil {
		rs.logger.Warn("initial retention sweep failed", logger.Error(err))
	}

	ticker := time.NewTicker(rs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := rs.Sweep(ctx); err != nil {
					rs.logger.Error("retention sweep failed", logger.Error(err))
				}
			case <-rs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (rs *RetentionSweeper) Stop() {
	close(rs.stopCh)
}

// Sweep deletes everything older than the retention period. Both purges
// run even when one fails.
func (rs *RetentionSweeper) Sweep(ctx context.Context) error {
	cutoff := rs.now().Add(-rs.retention)

	notifications, errN := rs.store.PurgeFinished(ctx, cutoff)
	if errN != nil {
		errN = fmt.Errorf("purge finished notifications: %w", errN)
	}
	history, errH := rs.store.PurgeHistory(ctx, cutoff)
	if errH != nil {
		errH = fmt.Errorf("purge notification history: %w", errH)
	}

	if notifications+history > 0 {
		rs.logger.Info("retention sweep completed",
			logger.Int("notifications_deleted", int(notifications)),
			logger.Int("history_deleted", int(history)),
			logger.Time("cutoff", cutoff))
	} else {
		rs.logger.Debug("nothing to sweep")
	}

	return errors.Join(errN, errH)
}
