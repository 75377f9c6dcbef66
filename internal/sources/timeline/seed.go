package timeline

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

// EventWriter stores a batch of events in one collection.
type EventWriter interface {
	SaveEventsMany(ctx context.Context, path string, events []domain.Event) error
}

// Seed loads the file, maps it and upserts the events into path.
func Seed(ctx context.Context, l *Loader, m *Mapper, w EventWriter, path string, log logger.Logger) (int, error) {
	seed, err := l.Load()
	if err != nil {
		return 0, err
	}
	events, err := m.MapEvents(seed)
	if err != nil {
		return 0, fmt.Errorf("failed to map timeline seed: %w", err)
	}
	if err := w.SaveEventsMany(ctx, path, events); err != nil {
		return 0, fmt.Errorf("failed to save timeline seed: %w", err)
	}

	log.Info("🌱 timeline seeded", logger.Int("count", len(events)), logger.String("collection", path))
	return len(events), nil
}
