package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ticketKeyPrefix   = "push_ticket:"
	pendingTicketsKey = "push_tickets:pending"
)

// Compile-time check to ensure redisTicketStore implements TicketStore
var _ interfaces.TicketStore = (*redisTicketStore)(nil)

type redisTicketStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTicketStore creates a Redis-backed TicketStore.
// Each ticket lives under push_ticket:{id} for ttl. IDs awaiting a receipt are kept in push_tickets:pending.
func NewRedisTicketStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.TicketStore {
	return &redisTicketStore{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisTicketStore"),
	}
}

func ticketKey(id string) string {
	return ticketKeyPrefix + id
}

// SaveTickets stores tickets in one pipeline. Tickets without an ID cannot be looked up later and are skipped.
func (r *redisTicketStore) SaveTickets(ctx context.Context, tickets []models.TrackedTicket) error {
	pipe := r.client.Pipeline()
	queued := 0
	for _, t := range tickets {
		if t.ID == "" {
			continue
		}
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal ticket %s: %w", t.ID, err)
		}
		pipe.Set(ctx, ticketKey(t.ID), payload, r.ttl)
		if t.ReceiptStatus == models.ReceiptStatusPending {
			pipe.SAdd(ctx, pendingTicketsKey, t.ID)
		}
		queued++
	}
	if queued == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save tickets in redis", zap.Error(err), zap.Int("count", queued))
		return fmt.Errorf("failed to save tickets in redis: %w", err)
	}
	r.logger.Debug("Tickets saved in redis", zap.Int("count", queued))
	return nil
}

func (r *redisTicketStore) GetTicket(ctx context.Context, id string) (*models.TrackedTicket, error) {
	raw, err := r.client.Get(ctx, ticketKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrTicketNotFound
		}
		r.logger.Error("Failed to get ticket from redis", zap.Error(err), zap.String("ticketID", id))
		return nil, fmt.Errorf("failed to get ticket from redis: %w", err)
	}
	var t models.TrackedTicket
	if err := json.Unmarshal(raw, &t); err != nil {
		r.logger.Error("Corrupted ticket data in redis", zap.Error(err), zap.String("ticketID", id))
		return nil, fmt.Errorf("corrupted ticket data in redis for %s: %w", id, err)
	}
	return &t, nil
}

// ListPending returns up to limit pending tickets ordered by SentAt.
// IDs whose ticket key has already expired are dropped from the pending set.
func (r *redisTicketStore) ListPending(ctx context.Context, limit int) ([]models.TrackedTicket, error) {
	ids, err := r.client.SMembers(ctx, pendingTicketsKey).Result()
	if err != nil {
		r.logger.Error("Failed to read pending ticket set", zap.Error(err))
		return nil, fmt.Errorf("failed to read pending tickets: %w", err)
	}
	if len(ids) == 0 {
		return []models.TrackedTicket{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ticketKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.Error("Failed to load pending tickets", zap.Error(err))
		return nil, fmt.Errorf("failed to load pending tickets: %w", err)
	}

	tickets := make([]models.TrackedTicket, 0, len(ids))
	var expired []any
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var t models.TrackedTicket
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			r.logger.Warn("Skipping corrupted pending ticket", zap.String("ticketID", ids[i]), zap.Error(err))
			continue
		}
		tickets = append(tickets, t)
	}
	if len(expired) > 0 {
		if err := r.client.SRem(ctx, pendingTicketsKey, expired...).Err(); err != nil {
			r.logger.Warn("Failed to drop expired ticket IDs from pending set", zap.Error(err))
		}
	}

	sortBySentAt(tickets)
	if limit > 0 && len(tickets) > limit {
		tickets = tickets[:limit]
	}
	return tickets, nil
}

// UpdateReceipt stores the final delivery outcome under WATCH so a concurrent update is not lost.
func (r *redisTicketStore) UpdateReceipt(ctx context.Context, receipt models.Receipt) error {
	key := ticketKey(receipt.TicketID)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return models.ErrTicketNotFound
			}
			return err
		}
		var t models.TrackedTicket
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("corrupted ticket data in redis for %s: %w", receipt.TicketID, err)
		}
		t.ReceiptStatus = receipt.Status
		t.ReceiptError = receipt.Error
		payload, err := json.Marshal(t)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, payload, redis.SetArgs{KeepTTL: true})
			if receipt.Status != models.ReceiptStatusPending {
				pipe.SRem(ctx, pendingTicketsKey, receipt.TicketID)
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.Is(err, models.ErrTicketNotFound) {
			return err
		}
		r.logger.Error("Failed to update ticket receipt", zap.Error(err), zap.String("ticketID", receipt.TicketID))
		return fmt.Errorf("failed to update ticket receipt: %w", err)
	}
	return nil
}
