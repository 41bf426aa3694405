package service

import (
	"context"
	"fmt"
	"time"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptReconciler запрашивает у шлюза итог доставки по тикетам.
// Реализация и политика повторов подключаются отдельно; трекер только хранит данные для нее.
type ReceiptReconciler interface {
	FetchReceipts(ctx context.Context, tickets []models.TrackedTicket) ([]models.Receipt, error)
}

var _ TicketService = (*DeliveryTracker)(nil)

// DeliveryTracker хранит тикеты, выданные шлюзом, до сверки квитанций.
type DeliveryTracker struct {
	store  interfaces.TicketStore
	now    func() time.Time
	logger *zap.Logger
}

func NewDeliveryTracker(store interfaces.TicketStore, logger *zap.Logger) *DeliveryTracker {
	return &DeliveryTracker{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.Named("delivery_tracker"),
	}
}

// Record сохраняет тикеты одного цикла рассылки. Тикеты без ID сохранить нельзя, они только логируются.
// Принятые шлюзом тикеты ждут квитанцию, отклоненные сразу получают итог failed.
func (t *DeliveryTracker) Record(ctx context.Context, eventID uuid.UUID, tickets []models.DeliveryTicket) (int, error) {
	sentAt := t.now()
	tracked := make([]models.TrackedTicket, 0, len(tickets))
	for _, dt := range tickets {
		if dt.ID == "" {
			continue
		}
		tt := models.TrackedTicket{
			ID:            dt.ID,
			Token:         dt.Token,
			EventID:       eventID,
			SentAt:        sentAt,
			Status:        dt.Status,
			Error:         dt.Error,
			ReceiptStatus: models.ReceiptStatusPending,
		}
		if dt.Status != models.TicketStatusOK {
			tt.ReceiptStatus = models.ReceiptStatusFailed
			tt.ReceiptError = dt.Error
		}
		tracked = append(tracked, tt)
	}
	if len(tracked) == 0 {
		return 0, nil
	}
	if err := t.store.SaveTickets(ctx, tracked); err != nil {
		t.logger.Error("Failed to persist delivery tickets",
			zap.String("eventID", eventID.String()),
			zap.Int("count", len(tracked)),
			zap.Error(err),
		)
		return 0, fmt.Errorf("failed to record delivery tickets: %w", err)
	}
	return len(tracked), nil
}

// GetTicket возвращает тикет по ID или models.ErrTicketNotFound.
func (t *DeliveryTracker) GetTicket(ctx context.Context, id string) (*models.TrackedTicket, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: ticket id is required", models.ErrInvalidInput)
	}
	return t.store.GetTicket(ctx, id)
}

// Pending возвращает тикеты без квитанции, самые старые первыми.
func (t *DeliveryTracker) Pending(ctx context.Context, limit int) ([]models.TrackedTicket, error) {
	return t.store.ListPending(ctx, limit)
}

// ApplyReceipt записывает итог доставки. Квитанция со статусом pending ничего не меняет и отклоняется.
func (t *DeliveryTracker) ApplyReceipt(ctx context.Context, receipt models.Receipt) error {
	switch receipt.Status {
	case models.ReceiptStatusDelivered, models.ReceiptStatusFailed:
	default:
		return fmt.Errorf("%w: receipt status %q", models.ErrInvalidInput, receipt.Status)
	}
	if receipt.TicketID == "" {
		return fmt.Errorf("%w: receipt without ticket id", models.ErrInvalidInput)
	}
	return t.store.UpdateReceipt(ctx, receipt)
}

// ReconcileOnce проводит один проход сверки: берет до limit ожидающих тикетов,
// спрашивает квитанции у reconciler и применяет их. Возвращает число примененных квитанций.
// Расписание и повторы остаются за вызывающим.
func (t *DeliveryTracker) ReconcileOnce(ctx context.Context, reconciler ReceiptReconciler, limit int) (int, error) {
	pending, err := t.Pending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending tickets: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	receipts, err := reconciler.FetchReceipts(ctx, pending)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch receipts: %w", err)
	}

	applied := 0
	for _, r := range receipts {
		if err := t.ApplyReceipt(ctx, r); err != nil {
			t.logger.Warn("Skipping receipt", zap.String("ticketID", r.TicketID), zap.Error(err))
			continue
		}
		applied++
	}
	t.logger.Info("Receipts reconciled", zap.Int("pending", len(pending)), zap.Int("applied", applied))
	return applied, nil
}
