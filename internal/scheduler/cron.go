package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

// Executor is a job the cron runner can fire.
type Executor interface {
	Execute(ctx context.Context, trigger string) (Summary, error)
}

// CronRunner fires the reminder job on a cron schedule inside the process.
// A tick that lands while the previous run is still going is skipped.
type CronRunner struct {
	job      Executor
	schedule cron.Schedule
	expr     string
	cron     *cron.Cron
	logger   logger.Logger
	stopCh   chan struct{}
	stopWait time.Duration
}

// NewCronRunner validates expr (standard five-field syntax) in loc.
func NewCronRunner(job Executor, expr string, loc *time.Location, log logger.Logger) (*CronRunner, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &CronRunner{
		job:      job,
		schedule: schedule,
		expr:     expr,
		cron:     c,
		logger:   log,
		stopCh:   make(chan struct{}),
		stopWait: 30 * time.Second,
	}, nil
}

// Start schedules the job and returns immediately.
func (r *CronRunner) Start(ctx context.Context) error {
	r.cron.Schedule(r.schedule, cron.FuncJob(func() {
		_, _ = r.job.Execute(ctx, TriggerCron)
	}))
	r.cron.Start()

	r.logger.Info("⏰ reminder cron started",
		logger.String("schedule", r.expr),
		logger.Time("next_run", r.Next()))

	go func() {
		select {
		case <-r.stopCh:
		case <-ctx.Done():
			r.halt()
		}
	}()
	return nil
}

// Stop halts the schedule and waits for a running job, bounded by stopWait.
func (r *CronRunner) Stop() {
	close(r.stopCh)
	r.halt()
}

func (r *CronRunner) halt() {
	done := r.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(r.stopWait):
		r.logger.Warn("reminder job still running after stop timeout")
	}
}

// Next is the next scheduled fire time, zero before Start.
func (r *CronRunner) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger routes robfig/cron logs through our logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
