package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
	"github.com/MrSnakeDoc/weddingday/internal/metrics"
)

// SubscriptionStore is where device registrations live.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context, scope domain.Scope) ([]domain.PushSubscription, error)
	PruneSubscription(ctx context.Context, endpoint string) error
}

// HistoryRecorder keeps an audit row per fan-out.
type HistoryRecorder interface {
	RecordHistory(ctx context.Context, e *domain.HistoryEntry) error
}

type Options struct {
	Concurrency    int           // parallel deliveries, default 16
	Icon           string        // default icon when the payload has none
	Badge          string        // default badge when the payload has none
	HistoryTimeout time.Duration // bound on the background history write
}

// Failure describes one endpoint that did not accept the push.
type Failure struct {
	Endpoint string `json:"endpoint"`
	UserID   string `json:"user_id"`
	Error    string `json:"error"`
	Gone     bool   `json:"gone"`
}

// Result aggregates one fan-out.
type Result struct {
	Attempted  int       `json:"attempted"`
	Delivered  int       `json:"delivered"`
	Failed     int       `json:"failed"`
	Recipients int       `json:"recipients"` // distinct users with at least one delivery
	Failures   []Failure `json:"failures,omitempty"`
}

// AllFailed reports a fan-out that reached devices but delivered to none.
func (r Result) AllFailed() bool { return r.Attempted > 0 && r.Delivered == 0 }

// Fanout delivers one payload to every subscription in a scope.
type Fanout struct {
	subs    SubscriptionStore
	sender  Sender
	history HistoryRecorder
	logger  logger.Logger
	opts    Options
	pending sync.WaitGroup
}

func NewFanout(subs SubscriptionStore, sender Sender, history HistoryRecorder, log logger.Logger, opts Options) *Fanout {
	if opts.Concurrency < 1 {
		opts.Concurrency = 16
	}
	if opts.HistoryTimeout <= 0 {
		opts.HistoryTimeout = 5 * time.Second
	}
	return &Fanout{subs: subs, sender: sender, history: history, logger: log, opts: opts}
}

// Send delivers payload to every subscription in scope. Individual endpoint
// failures are collected in the result; only a failed lookup returns an error.
func (f *Fanout) Send(ctx context.Context, payload domain.Payload, scope domain.Scope, source domain.Source) (Result, error) {
	payload = payload.WithDefaults(f.opts.Icon, f.opts.Badge)
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode payload: %w", err)
	}

	subs, err := f.subs.ListSubscriptions(ctx, scope)
	if err != nil {
		return Result{}, fmt.Errorf("load subscriptions: %w", err)
	}

	outcomes := f.deliverAll(ctx, subs, body)

	res := Result{Attempted: len(subs)}
	users := make(map[string]struct{}, len(subs))
	for i, err := range outcomes {
		sub := subs[i]
		if err == nil {
			res.Delivered++
			users[sub.UserID] = struct{}{}
			continue
		}
		res.Failed++
		res.Failures = append(res.Failures, Failure{
			Endpoint: sub.Endpoint,
			UserID:   sub.UserID,
			Error:    err.Error(),
			Gone:     errors.Is(err, ErrSubscriptionGone),
		})
	}
	res.Recipients = len(users)

	f.logger.Info("push fan-out finished",
		logger.String("source", string(source)),
		logger.String("target", scope.Target()),
		logger.Int("attempted", res.Attempted),
		logger.Int("delivered", res.Delivered),
		logger.Int("failed", res.Failed))

	f.recordHistory(ctx, payload, scope, source, res)
	return res, nil
}

func (f *Fanout) deliverAll(ctx context.Context, subs []domain.PushSubscription, body []byte) []error {
	outcomes := make([]error, len(subs))
	sem := make(chan struct{}, f.opts.Concurrency)
	var wg sync.WaitGroup

	for i := range subs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = f.deliverOne(ctx, subs[i], body)
		}(i)
	}
	wg.Wait()
	return outcomes
}

func (f *Fanout) deliverOne(ctx context.Context, sub domain.PushSubscription, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("push transport panicked: %v", r)
		}
	}()

	transport := transportFor(f.sender, sub)
	err = f.sender.Send(ctx, sub, body)
	switch {
	case err == nil:
		metrics.PushDeliveries.WithLabelValues("delivered", transport).Inc()
	case errors.Is(err, ErrSubscriptionGone):
		metrics.PushDeliveries.WithLabelValues("gone", transport).Inc()
		if perr := f.subs.PruneSubscription(ctx, sub.Endpoint); perr != nil {
			f.logger.Warn("failed to prune gone subscription",
				logger.String("user_id", sub.UserID),
				logger.Error(perr))
		} else {
			f.logger.Info("pruned gone subscription", logger.String("user_id", sub.UserID))
		}
	default:
		metrics.PushDeliveries.WithLabelValues("failed", transport).Inc()
		f.logger.Debug("push delivery failed",
			logger.String("user_id", sub.UserID),
			logger.String("transport", transport),
			logger.Error(err))
	}
	return err
}

// recordHistory writes the audit row in the background.
func (f *Fanout) recordHistory(ctx context.Context, p domain.Payload, scope domain.Scope, source domain.Source, res Result) {
	if f.history == nil {
		return
	}
	entry := &domain.HistoryEntry{
		Title:     p.Title,
		Body:      p.Body,
		URL:       p.Data.URL,
		Source:    source,
		Target:    scope.Target(),
		Attempted: res.Attempted,
		Delivered: res.Delivered,
		Failed:    res.Failed,
	}

	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.opts.HistoryTimeout)
		defer cancel()
		if err := f.history.RecordHistory(hctx, entry); err != nil {
			metrics.HistoryWriteFailures.Inc()
			f.logger.Warn("failed to record notification history", logger.Error(err))
		}
	}()
}

// Flush waits for background history writes.
func (f *Fanout) Flush() { f.pending.Wait() }
