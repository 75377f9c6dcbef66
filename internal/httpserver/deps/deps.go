package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/agenda"
	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
	"github.com/MrSnakeDoc/weddingday/internal/push"
	"github.com/MrSnakeDoc/weddingday/internal/scheduler"
)

// EventStore holds the official timeline and every personal itinerary.
type EventStore interface {
	agenda.Feed
	ListEvents(ctx context.Context, path string) ([]domain.Event, error)
	GetEvent(ctx context.Context, path, id string) (*domain.Event, error)
	CreateEvent(ctx context.Context, path string, ev *domain.Event) error
	UpdateEvent(ctx context.Context, path string, ev *domain.Event) error
	DeleteEvent(ctx context.Context, path, id string) error
}

// Settings is the admin reminder toggle.
type Settings interface {
	RemindersEnabled(ctx context.Context) (bool, error)
	SetRemindersEnabled(ctx context.Context, enabled bool) error
}

// NotificationStore is the relational side: scheduled notifications,
// device subscriptions and the history log.
type NotificationStore interface {
	CreateScheduled(ctx context.Context, n *domain.ScheduledNotification) error
	ListPending(ctx context.Context) ([]domain.ScheduledNotification, error)
	DeleteScheduled(ctx context.Context, id string) error
	UpsertSubscription(ctx context.Context, sub *domain.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint, userID string) error
	ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// Notifier fans a payload out to devices.
type Notifier interface {
	Send(ctx context.Context, payload domain.Payload, scope domain.Scope, source domain.Source) (push.Result, error)
}

// Pinger reports backend reachability for /readyz.
type Pinger func(ctx context.Context) error

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Production          bool          // enforce the cron secret
	RequestTimeout      time.Duration // applied to every non-streaming route
	AllowedCIDRS        []string      // IPs allowed to access readyz/metrics
	AllowedHosts        []string      // Host headers allowed on admin and cron routes
	TrustProxy          bool          // true if running behind a trusted reverse proxy (e.g., cloudflared)
	JWTSecret           []byte
	CronSecret          string
	RateLimitBurst      int
	RateLimitPerMin     int
	RateLimitMaxEntries int

	Venues         []string
	Timezone       *time.Location
	CalendarName   string
	AgendaURL      string // deep-link base used in calendar exports
	VAPIDPublicKey string
	OfficialPath   string
	PersonalPath   func(userID string) string

	Events        EventStore
	Settings      Settings
	Notifications NotificationStore
	Notifier      Notifier
	Job           scheduler.Executor
	Pingers       map[string]Pinger

	// StreamsDone is closed on shutdown so open agenda streams return.
	StreamsDone <-chan struct{}
}

// Now returns TimeNow or the wall clock.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
