package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

// RemindersEnabled reads the admin toggle. An unset toggle is disabled.
func (s *Store) RemindersEnabled(ctx context.Context) (bool, error) {
	v, err := s.client.Get(ctx, KeyRemindersEnabled).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load reminder toggle: %w", err)
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("corrupt reminder toggle %q: %w", v, err)
	}
	return enabled, nil
}

func (s *Store) SetRemindersEnabled(ctx context.Context, enabled bool) error {
	if err := s.client.Set(ctx, KeyRemindersEnabled, strconv.FormatBool(enabled), 0).Err(); err != nil {
		return fmt.Errorf("failed to save reminder toggle: %w", err)
	}
	return nil
}

// Ledger returns the reminded event ids, oldest first.
func (s *Store) Ledger(ctx context.Context) (domain.Ledger, error) {
	ids, err := s.client.LRange(ctx, KeyNotifiedLedger, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load notified ledger: %w", err)
	}
	return domain.Ledger(ids), nil
}

// AppendLedger adds ids and trims to the newest limit entries atomically.
func (s *Store) AppendLedger(ctx context.Context, ids []string, limit int) error {
	if len(ids) == 0 {
		return nil
	}
	if limit < 1 {
		limit = domain.DefaultLedgerSize
	}

	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, KeyNotifiedLedger, members...)
		pipe.LTrim(ctx, KeyNotifiedLedger, int64(-limit), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append notified ledger: %w", err)
	}
	return nil
}

// ClaimReminder returns true for the first caller only, until ttl expires.
func (s *Store) ClaimReminder(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if ttl < time.Minute {
		ttl = time.Minute
	}
	ok, err := s.client.SetNX(ctx, ClaimKey(eventID), s.now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder %s: %w", eventID, err)
	}
	return ok, nil
}

// ReleaseReminder drops a claim so a later run may retry the event.
func (s *Store) ReleaseReminder(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, ClaimKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to release reminder %s: %w", eventID, err)
	}
	return nil
}

// Ping reports whether Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
