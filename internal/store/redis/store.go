package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the document side of the app: timeline and itinerary collections,
// their live feed, and the reminder settings.
type Store struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewStore creates a new Redis store
func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client, now: time.Now}
}

// WithClock overrides the clock used for audit timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func score(t time.Time) float64 { return float64(t.UnixMilli()) }
