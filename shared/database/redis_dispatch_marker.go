package database

import (
	"context"
	"fmt"
	"time"

	"event-server/shared/interfaces"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dispatchMarkerKeyPrefix = "event_dispatched:"

// Compile-time check to ensure redisDispatchMarker implements DispatchMarker
var _ interfaces.DispatchMarker = (*redisDispatchMarker)(nil)

type redisDispatchMarker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDispatchMarker stores markers as event_dispatched:{eventID} with a TTL.
func NewRedisDispatchMarker(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.DispatchMarker {
	return &redisDispatchMarker{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisDispatchMarker"),
	}
}

func (r *redisDispatchMarker) MarkDispatched(ctx context.Context, eventID uuid.UUID) (bool, error) {
	claimed, err := r.client.SetNX(ctx, dispatchMarkerKeyPrefix+eventID.String(), time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		r.logger.Error("Failed to set dispatch marker", zap.String("eventID", eventID.String()), zap.Error(err))
		return false, fmt.Errorf("failed to set dispatch marker in redis: %w", err)
	}
	if !claimed {
		r.logger.Debug("Dispatch marker already set", zap.String("eventID", eventID.String()))
	}
	return claimed, nil
}
