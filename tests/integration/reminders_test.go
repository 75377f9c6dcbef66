package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
	"github.com/MrSnakeDoc/weddingday/internal/push"
	"github.com/MrSnakeDoc/weddingday/internal/scheduler"
	"github.com/MrSnakeDoc/weddingday/internal/sources/timeline"
	redisstore "github.com/MrSnakeDoc/weddingday/internal/store/redis"
)

const timelineYAML = `events:
  - id: ceremony
    title: Ceremony
    location: Town hall
    fullDate: 2026-06-20T14:00:00Z
    country: France
  - id: dinner
    title: Dinner
    fullDate: 2026-06-20T19:30:00Z
    country: France
`

// devices is an in-memory subscription table.
type devices struct {
	mu   sync.Mutex
	subs []domain.PushSubscription
}

func (d *devices) ListSubscriptions(_ context.Context, scope domain.Scope) ([]domain.PushSubscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.PushSubscription
	for _, s := range d.subs {
		if scope.UserID == "" || s.UserID == scope.UserID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *devices) PruneSubscription(_ context.Context, endpoint string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.subs {
		if s.Endpoint == endpoint {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			break
		}
	}
	return nil
}

func (d *devices) endpoints() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.subs))
	for i, s := range d.subs {
		out[i] = s.Endpoint
	}
	return out
}

// outbox records every delivery; endpoints listed in gone answer 410.
type outbox struct {
	mu       sync.Mutex
	gone     map[string]bool
	payloads map[string][]domain.Payload
}

func (o *outbox) Name() string { return "fake" }

func (o *outbox) Send(_ context.Context, sub domain.PushSubscription, body []byte) error {
	if o.gone[sub.Endpoint] {
		return push.ErrSubscriptionGone
	}
	var p domain.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.payloads[sub.Endpoint] = append(o.payloads[sub.Endpoint], p)
	return nil
}

type history struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (h *history) RecordHistory(_ context.Context, e *domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, *e)
	return nil
}

type queue struct {
	mu     sync.Mutex
	items  []domain.ScheduledNotification
	sentAt map[string]time.Time
}

func (q *queue) DueNotifications(_ context.Context, now time.Time) ([]domain.ScheduledNotification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due []domain.ScheduledNotification
	for _, n := range q.items {
		if n.Due(now) {
			due = append(due, n)
		}
	}
	return due, nil
}

func (q *queue) setStatus(id string, s domain.Status) {
	for i := range q.items {
		if q.items[i].ID == id {
			q.items[i].Status = s
		}
	}
}

func (q *queue) MarkSent(_ context.Context, id string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.setStatus(id, domain.StatusSent)
	q.sentAt[id] = at
	return nil
}

func (q *queue) MarkFailed(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.setStatus(id, domain.StatusFailed)
	return nil
}

// TestReminderPipeline seeds the timeline from YAML and runs the job twice
// against real Redis semantics and the real fan-out.
func TestReminderPipeline(t *testing.T) {
	ctx := context.Background()
	log := logger.New("error", false)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := redisstore.NewStore(client)

	seedPath := filepath.Join(t.TempDir(), "timeline.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(timelineYAML), 0o644))
	n, err := timeline.Seed(ctx,
		timeline.NewLoader(seedPath),
		timeline.NewMapper([]string{"France", "Morocco"}, time.UTC),
		store, redisstore.OfficialCollection, log)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, store.SetRemindersEnabled(ctx, true))

	subs := &devices{subs: []domain.PushSubscription{
		{Endpoint: "https://push.example/alice", UserID: "alice"},
		{Endpoint: "https://push.example/bob", UserID: "bob"},
		{Endpoint: "https://push.example/stale", UserID: "bob"},
	}}
	box := &outbox{gone: map[string]bool{"https://push.example/stale": true}, payloads: map[string][]domain.Payload{}}
	hist := &history{}
	fanout := push.NewFanout(subs, box, hist, log, push.Options{Concurrency: 2, Icon: "/icon.png"})

	now := time.Date(2026, 6, 20, 13, 30, 0, 0, time.UTC)
	q := &queue{
		sentAt: map[string]time.Time{},
		items: []domain.ScheduledNotification{{
			ID:           "bus",
			Payload:      domain.Payload{Title: "Shuttle", Body: "The bus leaves in 10 minutes", Data: domain.PayloadData{URL: "/agenda"}},
			ScheduledFor: now.Add(-5 * time.Minute),
			Status:       domain.StatusPending,
		}},
	}

	job := scheduler.NewReminderJob(store, store, q, fanout, log, scheduler.ReminderOptions{
		OfficialPath: redisstore.OfficialCollection,
		Template:     domain.ReminderTemplate{Title: "Starting soon", BaseURL: "/agenda", Location: time.UTC},
	})

	summary, err := job.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusOK, summary.Status)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, []string{"ceremony"}, summary.RemindedIDs)
	assert.Equal(t, domain.StatusSent, q.items[0].Status)
	assert.Equal(t, now, q.sentAt["bus"])

	assert.Equal(t, []string{"https://push.example/alice", "https://push.example/bob"}, subs.endpoints(),
		"the gone endpoint is pruned")

	alice := box.payloads["https://push.example/alice"]
	require.Len(t, alice, 2)
	assert.Equal(t, "Shuttle", alice[0].Title)
	assert.Equal(t, "/icon.png", alice[0].Icon)
	assert.Equal(t, "Starting soon", alice[1].Title)
	assert.Equal(t, "Ceremony starts at 14:00 at Town hall", alice[1].Body)
	assert.Equal(t, "/agenda#event-ceremony", alice[1].Data.URL)

	// A later run inside the same window must not remind again.
	summary, err = job.Run(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, summary.Due)
	assert.Empty(t, summary.RemindedIDs)
	assert.Len(t, box.payloads["https://push.example/alice"], 2)

	ledger, err := store.Ledger(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Ledger{"ceremony"}, ledger)

	fanout.Flush()
	require.Len(t, hist.entries, 2)
	attempted := map[domain.Source]int{}
	for _, e := range hist.entries {
		attempted[e.Source] = e.Attempted
	}
	assert.Equal(t, map[domain.Source]int{domain.SourceScheduled: 3, domain.SourceReminder: 2}, attempted)
}
