package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS scheduled_notifications (
		id            UUID PRIMARY KEY,
		payload       JSONB NOT NULL,
		scheduled_for TIMESTAMPTZ NOT NULL,
		status        TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'sent', 'failed')),
		sent_at       TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS scheduled_notifications_due_idx
		ON scheduled_notifications (scheduled_for) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS push_subscriptions (
		endpoint   TEXT PRIMARY KEY,
		p256dh     TEXT NOT NULL DEFAULT '',
		auth       TEXT NOT NULL DEFAULT '',
		user_id    TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS push_subscriptions_user_idx ON push_subscriptions (user_id)`,
	`CREATE TABLE IF NOT EXISTS notification_history (
		id         UUID PRIMARY KEY,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		url        TEXT NOT NULL DEFAULT '',
		source     TEXT NOT NULL,
		target     TEXT NOT NULL,
		attempted  INTEGER NOT NULL,
		delivered  INTEGER NOT NULL,
		failed     INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
