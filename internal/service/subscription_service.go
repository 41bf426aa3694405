package service

import (
	"context"
	"fmt"
	"strings"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ SubscriptionService = (*subscriptionService)(nil)

type subscriptionService struct {
	subs   interfaces.SubscriptionStore
	logger *zap.Logger
}

func NewSubscriptionService(subs interfaces.SubscriptionStore, logger *zap.Logger) SubscriptionService {
	return &subscriptionService{subs: subs, logger: logger.Named("subscription_service")}
}

// SaveToken сохраняет токен пользователя, заменяя предыдущий.
// Формат токена здесь не проверяется: непригодные токены отсеиваются при рассылке.
func (s *subscriptionService) SaveToken(ctx context.Context, userID uuid.UUID, token string) (*models.PushSubscription, error) {
	token = strings.TrimSpace(token)
	if userID == uuid.Nil || token == "" {
		return nil, fmt.Errorf("%w: userId and expoPushToken are required", models.ErrInvalidInput)
	}
	sub, err := s.subs.UpsertSubscription(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Push token saved", zap.String("userID", userID.String()))
	return sub, nil
}

func (s *subscriptionService) RemoveToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", models.ErrInvalidInput)
	}
	n, err := s.subs.DeleteSubscriptionByToken(ctx, token)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: push token", models.ErrNotFound)
	}
	s.logger.Info("Push token removed", zap.Int64("rows", n))
	return nil
}
