package interfaces

import (
	"context"

	"event-server/shared/models"

	"github.com/google/uuid"
)

// SubscriptionStore определяет методы для работы с push-подписками.
type SubscriptionStore interface {
	// UpsertSubscription сохраняет токен пользователя, перезаписывая предыдущий.
	UpsertSubscription(ctx context.Context, userID uuid.UUID, token string) (*models.PushSubscription, error)
	// ListActiveSubscriptions возвращает все подписки.
	ListActiveSubscriptions(ctx context.Context) ([]models.PushSubscription, error)
	// DeleteSubscriptionByToken удаляет подписку с данным токеном.
	DeleteSubscriptionByToken(ctx context.Context, token string) (int64, error)
}
