package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

// RetryOptions controls how long a backend is pinged before giving up.
type RetryOptions struct {
	ConnectTimeout time.Duration // total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // initial wait between retries, doubled each attempt
	MaxWait        time.Duration // cap between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt
	WarnThreshold  int           // warn (instead of error) for this many attempts
}

func (o RetryOptions) validate() error {
	switch {
	case o.ConnectTimeout <= 0:
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout)
	case o.RetryInterval <= 0:
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	case o.MaxWait <= 0:
		return fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait)
	case o.PingTimeout <= 0:
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	case o.WarnThreshold < 0:
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

// pingFunc checks one backend once.
type pingFunc func(ctx context.Context) error

// waitUntilReachable pings until success or until ConnectTimeout expires,
// backing off exponentially between attempts.
func waitUntilReachable(ctx context.Context, name, addr string, ping pingFunc, opts RetryOptions, log logger.Logger) error {
	if err := opts.validate(); err != nil {
		log.Error("invalid connect options",
			logger.String("backend", name),
			logger.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	log = log.With(logger.String("backend", name), logger.String("addr", addr))
	log.Info("connecting", logger.Duration("timeout", opts.ConnectTimeout))

	start := time.Now()
	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected after retry",
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected")
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("unavailable after timeout",
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("%s unavailable at %s after %d attempts (timeout: %v): %w",
				name, addr, attempt, opts.ConnectTimeout, err)
		case <-timer.C:
			logRetry(log, attempt, timeLeft(ctx), wait, opts.WarnThreshold, err)
			wait *= 2
			if wait > opts.MaxWait {
				wait = opts.MaxWait
			}
		}
	}
}

func logRetry(log logger.Logger, attempt int, remaining, next time.Duration, warnThreshold int, err error) {
	fields := []zap.Field{
		logger.Int("attempt", attempt),
		logger.Duration("next_retry_in", next),
		logger.Error(err),
	}
	switch {
	case remaining < 10*time.Second:
		log.Error("still down, timeout approaching", append(fields, logger.Duration("remaining", remaining))...)
	case attempt <= warnThreshold:
		log.Warn("connection failed, retrying", fields...)
	default:
		log.Error("still unavailable, connection attempts failing", fields...)
	}
}

// timeLeft returns the remaining time before the context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
