package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

const notificationColumns = `id, payload, scheduled_for, status, sent_at, created_at`

// CreateScheduled persists a new pending notification and fills its id.
func (s *Store) CreateScheduled(ctx context.Context, n *domain.ScheduledNotification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Status = domain.StatusPending
	n.SentAt = nil
	n.CreatedAt = s.now().UTC()
	n.ScheduledFor = n.ScheduledFor.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO scheduled_notifications (id, payload, scheduled_for, status, created_at)
		VALUES (:id, :payload, :scheduled_for, :status, :created_at)`, n)
	if err != nil {
		return fmt.Errorf("failed to create scheduled notification: %w", err)
	}
	return nil
}

// ListPending returns every pending notification, soonest first.
func (s *Store) ListPending(ctx context.Context) ([]domain.ScheduledNotification, error) {
	out := []domain.ScheduledNotification{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+notificationColumns+`
		FROM scheduled_notifications
		WHERE status = 'pending'
		ORDER BY scheduled_for ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	return out, nil
}

// DueNotifications returns pending notifications with scheduled_for <= now.
func (s *Store) DueNotifications(ctx context.Context, now time.Time) ([]domain.ScheduledNotification, error) {
	out := []domain.ScheduledNotification{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+notificationColumns+`
		FROM scheduled_notifications
		WHERE status = 'pending' AND scheduled_for <= $1
		ORDER BY scheduled_for ASC`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list due notifications: %w", err)
	}
	return out, nil
}

// GetScheduled loads one notification.
func (s *Store) GetScheduled(ctx context.Context, id string) (*domain.ScheduledNotification, error) {
	if err := checkID(id, "scheduled notification"); err != nil {
		return nil, err
	}
	var n domain.ScheduledNotification
	err := s.db.GetContext(ctx, &n, `
		SELECT `+notificationColumns+` FROM scheduled_notifications WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "scheduled notification "+id)
	}
	return &n, nil
}

// MarkSent moves a pending notification to sent. Non-pending rows are left untouched.
func (s *Store) MarkSent(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_notifications SET status = 'sent', sent_at = $2
		WHERE id = $1 AND status = 'pending'`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark %s sent: %w", id, err)
	}
	return expectOne(res, "pending notification "+id)
}

// MarkFailed moves a pending notification to failed. Non-pending rows are left untouched.
func (s *Store) MarkFailed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_notifications SET status = 'failed'
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("failed to mark %s failed: %w", id, err)
	}
	return expectOne(res, "pending notification "+id)
}

// DeleteScheduled removes a notification whatever its status.
func (s *Store) DeleteScheduled(ctx context.Context, id string) error {
	if err := checkID(id, "scheduled notification"); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled notification: %w", err)
	}
	return expectOne(res, "scheduled notification "+id)
}

// PurgeFinished deletes sent and failed notifications created before cutoff.
func (s *Store) PurgeFinished(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scheduled_notifications
		WHERE status <> 'pending' AND created_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge scheduled notifications: %w", err)
	}
	return res.RowsAffected()
}

// checkID rejects ids that cannot match the uuid column, so Postgres never
// sees a malformed value.
func checkID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %q: %w", what, id, domain.ErrNotFound)
	}
	return nil
}
