package interfaces

import (
	"context"

	"event-server/shared/models"
)

// TicketStore хранит тикеты шлюза до сверки квитанций.
type TicketStore interface {
	SaveTickets(ctx context.Context, tickets []models.TrackedTicket) error
	GetTicket(ctx context.Context, id string) (*models.TrackedTicket, error)
	// ListPending возвращает тикеты, по которым еще нет квитанции.
	ListPending(ctx context.Context, limit int) ([]models.TrackedTicket, error)
	// UpdateReceipt записывает итог доставки и убирает тикет из ожидающих.
	UpdateReceipt(ctx context.Context, receipt models.Receipt) error
}
