package database

import (
	"context"
	"errors"
	"fmt"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	// Один токен на пользователя: новый токен перезаписывает старый.
	upsertSubscriptionQuery = `
		INSERT INTO push_subscriptions (user_id, token, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			token = EXCLUDED.token,
			updated_at = NOW()
		RETURNING user_id, token, updated_at`
	listSubscriptionsQuery        = `SELECT user_id, token, updated_at FROM push_subscriptions ORDER BY updated_at DESC`
	deleteSubscriptionByTokenQuery = `DELETE FROM push_subscriptions WHERE token = $1`

	pgForeignKeyViolation = "23503"
)

// Убедимся, что pgPushSubscriptionRepository реализует интерфейс
var _ interfaces.SubscriptionStore = (*pgPushSubscriptionRepository)(nil)

type pgPushSubscriptionRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgPushSubscriptionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.SubscriptionStore {
	return &pgPushSubscriptionRepository{
		db:     db,
		logger: logger.Named("push_subscription_repo"),
	}
}

// UpsertSubscription сохраняет или заменяет токен пользователя.
func (r *pgPushSubscriptionRepository) UpsertSubscription(ctx context.Context, userID uuid.UUID, token string) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	if err := pgxscan.Get(ctx, r.db, &sub, upsertSubscriptionQuery, userID, token); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			r.logger.Warn("Push token for unknown user", zap.String("userID", userID.String()))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to upsert push subscription", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error saving push subscription: %w", err)
	}
	r.logger.Debug("Push subscription saved", zap.String("userID", userID.String()))
	return &sub, nil
}

// ListActiveSubscriptions возвращает все сохраненные подписки.
func (r *pgPushSubscriptionRepository) ListActiveSubscriptions(ctx context.Context) ([]models.PushSubscription, error) {
	subs := make([]models.PushSubscription, 0)
	if err := pgxscan.Select(ctx, r.db, &subs, listSubscriptionsQuery); err != nil {
		r.logger.Error("Failed to list push subscriptions", zap.Error(err))
		return nil, fmt.Errorf("db error listing push subscriptions: %w", err)
	}
	return subs, nil
}

// DeleteSubscriptionByToken удаляет подписку, например когда шлюз сообщил, что токен больше не действует.
func (r *pgPushSubscriptionRepository) DeleteSubscriptionByToken(ctx context.Context, token string) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, deleteSubscriptionByTokenQuery, token)
	if err != nil {
		r.logger.Error("Failed to delete push subscription", zap.String("token", token), zap.Error(err))
		return 0, fmt.Errorf("db error deleting push subscription: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete non-existent push subscription", zap.String("token", token))
	}
	return cmdTag.RowsAffected(), nil
}
