package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

// ListEvents returns every document of a collection ordered by fullDate.
func (s *Store) ListEvents(ctx context.Context, path string) ([]domain.Event, error) {
	return s.eventsByScore(ctx, path, "-inf", "+inf")
}

// EventsBetween returns documents with from <= fullDate <= to, ordered by fullDate.
func (s *Store) EventsBetween(ctx context.Context, path string, from, to time.Time) ([]domain.Event, error) {
	return s.eventsByScore(ctx, path,
		strconv.FormatInt(from.UnixMilli(), 10),
		strconv.FormatInt(to.UnixMilli(), 10))
}

func (s *Store) eventsByScore(ctx context.Context, path, min, max string) ([]domain.Event, error) {
	if !validCollection(path) {
		return nil, fmt.Errorf("invalid collection %q: %w", path, domain.ErrInvalid)
	}

	ids, err := s.client.ZRangeByScore(ctx, OrderKey(path), &redis.ZRangeBy{Min: min, Max: max}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", path, err)
	}
	if len(ids) == 0 {
		return []domain.Event{}, nil
	}

	raw, err := s.client.HMGet(ctx, DocsKey(path), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s documents: %w", path, err)
	}

	events := make([]domain.Event, 0, len(raw))
	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			// index entry without a document, removed concurrently
			continue
		}
		var ev domain.Event
		if err := json.Unmarshal([]byte(str), &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", path, ids[i], err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// GetEvent loads one document.
func (s *Store) GetEvent(ctx context.Context, path, id string) (*domain.Event, error) {
	data, err := s.client.HGet(ctx, DocsKey(path), id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("event %s/%s: %w", path, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	var ev domain.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &ev, nil
}

// CreateEvent assigns an id and audit timestamps, then saves.
func (s *Store) CreateEvent(ctx context.Context, path string, ev *domain.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	now := s.now().UTC()
	ev.CreatedAt = now
	ev.UpdatedAt = now
	return s.SaveEventsMany(ctx, path, []domain.Event{*ev})
}

// UpdateEvent replaces an existing document, keeping its creation time.
func (s *Store) UpdateEvent(ctx context.Context, path string, ev *domain.Event) error {
	existing, err := s.GetEvent(ctx, path, ev.ID)
	if err != nil {
		return err
	}
	ev.CreatedAt = existing.CreatedAt
	ev.UpdatedAt = s.now().UTC()
	return s.SaveEventsMany(ctx, path, []domain.Event{*ev})
}

// SaveEventsMany writes documents as-is and notifies subscribers once.
func (s *Store) SaveEventsMany(ctx context.Context, path string, events []domain.Event) error {
	if !validCollection(path) {
		return fmt.Errorf("invalid collection %q: %w", path, domain.ErrInvalid)
	}
	if len(events) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("failed to marshal event %s: %w", ev.ID, err)
			}
			pipe.HSet(ctx, DocsKey(path), ev.ID, data)
			pipe.ZAdd(ctx, OrderKey(path), redis.Z{Score: score(ev.FullDate), Member: ev.ID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}

	return s.publishChange(ctx, path)
}

// DeleteEvent removes a document; missing ids report ErrNotFound.
func (s *Store) DeleteEvent(ctx context.Context, path, id string) error {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, DocsKey(path), id)
		pipe.ZRem(ctx, OrderKey(path), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if removed.Val() == 0 {
		return fmt.Errorf("event %s/%s: %w", path, id, domain.ErrNotFound)
	}

	return s.publishChange(ctx, path)
}

func (s *Store) publishChange(ctx context.Context, path string) error {
	if err := s.client.Publish(ctx, ChangesChannel(path), "changed").Err(); err != nil {
		return fmt.Errorf("failed to publish change for %s: %w", path, err)
	}
	return nil
}
