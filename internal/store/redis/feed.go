package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

// Subscribe delivers the full ordered snapshot of path now and after every change.
// Snapshots for one path are delivered sequentially from a single goroutine.
// A failed reload is reported through onError and ends the subscription.
// The returned cancel func is idempotent and does not wait for in-flight callbacks.
func (s *Store) Subscribe(
	ctx context.Context,
	path string,
	onSnapshot func([]domain.Event),
	onError func(error),
) (func(), error) {
	if !validCollection(path) {
		return nil, fmt.Errorf("invalid collection %q: %w", path, domain.ErrInvalid)
	}

	ps := s.client.Subscribe(ctx, ChangesChannel(path))
	// Wait for the subscription to be live so no write between here and the
	// first snapshot goes unnoticed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			_ = ps.Close()
		})
	}

	changes := ps.Channel()
	go func() {
		defer stop()

		deliver := func() bool {
			events, err := s.ListEvents(ctx, path)
			if ctx.Err() != nil {
				return false
			}
			if err != nil {
				onError(err)
				return false
			}
			onSnapshot(events)
			return true
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				drain(changes)
				if !deliver() {
					return
				}
			}
		}
	}()

	return stop, nil
}

// drain coalesces queued notifications; one reload covers them all.
func drain[T any](ch <-chan T) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
