package postgres

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

// UpsertSubscription registers a device or refreshes its keys and owner.
func (s *Store) UpsertSubscription(ctx context.Context, sub *domain.PushSubscription) error {
	sub.UpdatedAt = s.now().UTC()
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO push_subscriptions (endpoint, p256dh, auth, user_id, updated_at)
		VALUES (:endpoint, :p256dh, :auth, :user_id, :updated_at)
		ON CONFLICT (endpoint) DO UPDATE SET
			p256dh     = EXCLUDED.p256dh,
			auth       = EXCLUDED.auth,
			user_id    = EXCLUDED.user_id,
			updated_at = EXCLUDED.updated_at`, sub)
	if err != nil {
		return fmt.Errorf("failed to upsert push subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes an endpoint owned by userID.
func (s *Store) DeleteSubscription(ctx context.Context, endpoint, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE endpoint = $1 AND user_id = $2`, endpoint, userID)
	if err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return expectOne(res, "push subscription")
}

// PruneSubscription removes an endpoint the push service reported as gone.
func (s *Store) PruneSubscription(ctx context.Context, endpoint string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint); err != nil {
		return fmt.Errorf("failed to prune push subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns the subscriptions reached by scope.
func (s *Store) ListSubscriptions(ctx context.Context, scope domain.Scope) ([]domain.PushSubscription, error) {
	out := []domain.PushSubscription{}
	var err error
	if scope.UserID == "" {
		err = s.db.SelectContext(ctx, &out,
			`SELECT endpoint, p256dh, auth, user_id, updated_at FROM push_subscriptions`)
	} else {
		err = s.db.SelectContext(ctx, &out,
			`SELECT endpoint, p256dh, auth, user_id, updated_at FROM push_subscriptions WHERE user_id = $1`,
			scope.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	return out, nil
}
