package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

const defaultHistoryLimit = 50

func (s *Store) RecordHistory(ctx context.Context, e *domain.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO notification_history
			(id, title, body, url, source, target, attempted, delivered, failed, created_at)
		VALUES
			(:id, :title, :body, :url, :source, :target, :attempted, :delivered, :failed, :created_at)`, e)
	if err != nil {
		return fmt.Errorf("failed to record notification history: %w", err)
	}
	return nil
}

// ListHistory returns the newest entries first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}
	out := []domain.HistoryEntry{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, title, body, url, source, target, attempted, delivered, failed, created_at
		FROM notification_history
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification history: %w", err)
	}
	return out, nil
}

// PurgeHistory deletes entries created before cutoff.
func (s *Store) PurgeHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notification_history WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge notification history: %w", err)
	}
	return res.RowsAffected()
}
