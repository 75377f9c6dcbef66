package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
	"github.com/MrSnakeDoc/weddingday/internal/metrics"
	"github.com/MrSnakeDoc/weddingday/internal/push"
)

const (
	StatusOK       = "ok"
	StatusDisabled = "disabled"
	StatusError    = "error"

	TriggerCron   = "cron"
	TriggerHTTP   = "http"
	TriggerManual = "manual"
)

// ReminderSettings holds the admin toggle, the notified ledger and per-event claims.
type ReminderSettings interface {
	RemindersEnabled(ctx context.Context) (bool, error)
	Ledger(ctx context.Context) (domain.Ledger, error)
	AppendLedger(ctx context.Context, ids []string, limit int) error
	ClaimReminder(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	ReleaseReminder(ctx context.Context, eventID string) error
}

// Timeline answers range queries over official events.
type Timeline interface {
	EventsBetween(ctx context.Context, path string, from, to time.Time) ([]domain.Event, error)
}

// NotificationQueue is the admin-scheduled one-off notifications.
type NotificationQueue interface {
	DueNotifications(ctx context.Context, now time.Time) ([]domain.ScheduledNotification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string) error
}

// Notifier fans one payload out to devices.
type Notifier interface {
	Send(ctx context.Context, payload domain.Payload, scope domain.Scope, source domain.Source) (push.Result, error)
}

type ReminderOptions struct {
	OfficialPath string
	Lookahead    time.Duration
	LedgerSize   int
	ClaimMargin  time.Duration // claim TTL past the event start
	GatesDrain   bool          // a disabled toggle also skips the scheduled drain
	Template     domain.ReminderTemplate
}

// Summary reports one job run.
type Summary struct {
	Status           string        `json:"status"`
	RemindersEnabled bool          `json:"reminders_enabled"`
	Due              int           `json:"due"`
	Sent             int           `json:"sent"`
	Failed           int           `json:"failed"`
	Unrecorded       int           `json:"unrecorded"` // rows whose terminal status could not be saved
	Reminders        int           `json:"reminders"`
	RemindedIDs      []string      `json:"reminded_ids"`
	SkippedIDs       []string      `json:"skipped_ids,omitempty"`
	Duration         time.Duration `json:"duration_ns"`
}

// ReminderJob drains due scheduled notifications and sends starting-soon
// reminders for upcoming official events.
type ReminderJob struct {
	settings ReminderSettings
	timeline Timeline
	queue    NotificationQueue
	notifier Notifier
	logger   logger.Logger
	opts     ReminderOptions
	now      func() time.Time
}

func NewReminderJob(
	settings ReminderSettings,
	timeline Timeline,
	queue NotificationQueue,
	notifier Notifier,
	log logger.Logger,
	opts ReminderOptions,
) *ReminderJob {
	if opts.Lookahead <= 0 {
		opts.Lookahead = 45 * time.Minute
	}
	if opts.LedgerSize < 1 {
		opts.LedgerSize = domain.DefaultLedgerSize
	}
	if opts.ClaimMargin <= 0 {
		opts.ClaimMargin = 2 * time.Hour
	}
	if opts.OfficialPath == "" {
		opts.OfficialPath = "timeline"
	}
	return &ReminderJob{
		settings: settings,
		timeline: timeline,
		queue:    queue,
		notifier: notifier,
		logger:   log,
		opts:     opts,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock used by Execute.
func (j *ReminderJob) WithClock(now func() time.Time) *ReminderJob {
	j.now = now
	return j
}

// Execute runs the job at the current time and records the outcome.
func (j *ReminderJob) Execute(ctx context.Context, trigger string) (Summary, error) {
	sum, err := j.Run(ctx, j.now())

	outcome := sum.Status
	if err != nil {
		outcome = StatusError
		j.logger.Error("reminder job failed",
			logger.String("trigger", trigger),
			logger.Error(err))
	} else {
		j.logger.Info("reminder job finished",
			logger.String("trigger", trigger),
			logger.String("status", sum.Status),
			logger.Int("due", sum.Due),
			logger.Int("sent", sum.Sent),
			logger.Int("failed", sum.Failed),
			logger.Int("reminders", sum.Reminders),
			logger.Duration("duration", sum.Duration))
	}
	metrics.ReminderJobRuns.WithLabelValues(outcome, trigger).Inc()
	metrics.ReminderJobDuration.Observe(sum.Duration.Seconds())
	return sum, err
}

// Run performs one invocation. Per-item failures end up in the summary;
// only failures before per-item work starts are returned as errors.
func (j *ReminderJob) Run(ctx context.Context, now time.Time) (Summary, error) {
	start := time.Now()
	sum := Summary{Status: StatusOK, RemindedIDs: []string{}}

	enabled, err := j.settings.RemindersEnabled(ctx)
	if err != nil {
		sum.Status = StatusError
		return finish(sum, start), fmt.Errorf("load reminder toggle: %w", err)
	}
	sum.RemindersEnabled = enabled

	if !enabled && j.opts.GatesDrain {
		sum.Status = StatusDisabled
		return finish(sum, start), nil
	}

	if err := j.drainScheduled(ctx, now, &sum); err != nil {
		sum.Status = StatusError
		return finish(sum, start), err
	}

	if enabled {
		if err := j.remindUpcoming(ctx, now, &sum); err != nil {
			sum.Status = StatusError
			return finish(sum, start), err
		}
	}

	return finish(sum, start), nil
}

func finish(sum Summary, start time.Time) Summary {
	sum.Duration = time.Since(start)
	return sum
}

// drainScheduled moves every due pending notification to sent or failed.
func (j *ReminderJob) drainScheduled(ctx context.Context, now time.Time, sum *Summary) error {
	due, err := j.queue.DueNotifications(ctx, now)
	if err != nil {
		return fmt.Errorf("load due notifications: %w", err)
	}
	sum.Due = len(due)

	for _, n := range due {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("drain interrupted: %w", err)
		}

		res, sendErr := j.notifier.Send(ctx, n.Payload, domain.Scope{}, domain.SourceScheduled)
		delivered := sendErr == nil && !res.AllFailed()

		var markErr error
		if delivered {
			sum.Sent++
			markErr = j.queue.MarkSent(ctx, n.ID, now)
			metrics.ScheduledProcessed.WithLabelValues(string(domain.StatusSent)).Inc()
		} else {
			sum.Failed++
			markErr = j.queue.MarkFailed(ctx, n.ID)
			metrics.ScheduledProcessed.WithLabelValues(string(domain.StatusFailed)).Inc()
			j.logger.Warn("scheduled notification failed",
				logger.String("notification_id", n.ID),
				logger.Int("attempted", res.Attempted),
				logger.Error(sendErr))
		}

		if markErr != nil {
			sum.Unrecorded++
			j.logger.Error("failed to record scheduled notification status",
				logger.String("notification_id", n.ID),
				logger.Bool("delivered", delivered),
				logger.Error(markErr))
		}
	}
	return nil
}

// remindUpcoming sends one reminder per official event starting within the
// lookahead window that is neither in the ledger nor claimed by a concurrent run.
func (j *ReminderJob) remindUpcoming(ctx context.Context, now time.Time, sum *Summary) error {
	events, err := j.timeline.EventsBetween(ctx, j.opts.OfficialPath, now, now.Add(j.opts.Lookahead))
	if err != nil {
		return fmt.Errorf("load upcoming events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	ledger, err := j.settings.Ledger(ctx)
	if err != nil {
		return fmt.Errorf("load notified ledger: %w", err)
	}

	var notified []string
	for _, ev := range events {
		if ledger.Contains(ev.ID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}

		ttl := ev.FullDate.Sub(now) + j.opts.ClaimMargin
		claimed, err := j.settings.ClaimReminder(ctx, ev.ID, ttl)
		if err != nil {
			j.logger.Warn("failed to claim reminder", logger.String("event_id", ev.ID), logger.Error(err))
			sum.SkippedIDs = append(sum.SkippedIDs, ev.ID)
			continue
		}
		if !claimed {
			j.logger.Debug("reminder already claimed", logger.String("event_id", ev.ID))
			sum.SkippedIDs = append(sum.SkippedIDs, ev.ID)
			continue
		}

		if _, err := j.notifier.Send(ctx, j.opts.Template.Reminder(ev), domain.Scope{}, domain.SourceReminder); err != nil {
			j.logger.Warn("reminder fan-out failed",
				logger.String("event_id", ev.ID),
				logger.Error(err))
			if rerr := j.settings.ReleaseReminder(ctx, ev.ID); rerr != nil {
				j.logger.Warn("failed to release reminder claim", logger.String("event_id", ev.ID), logger.Error(rerr))
			}
			sum.SkippedIDs = append(sum.SkippedIDs, ev.ID)
			continue
		}

		notified = append(notified, ev.ID)
		metrics.RemindersSent.Inc()
	}

	sum.Reminders = len(notified)
	if len(notified) > 0 {
		sum.RemindedIDs = notified
	}

	if err := j.settings.AppendLedger(context.WithoutCancel(ctx), notified, j.opts.LedgerSize); err != nil {
		// Claims still block a resend until they expire.
		j.logger.Error("failed to persist notified ledger",
			logger.Strings("event_ids", notified),
			logger.Error(err))
	}
	return nil
}
