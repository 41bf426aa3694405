package database

import (
	"context"
	"slices"
	"sync"

	"event-server/shared/interfaces"
	"event-server/shared/models"
)

var _ interfaces.TicketStore = (*MemoryTicketStore)(nil)

// MemoryTicketStore - TicketStore в памяти процесса.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]models.TrackedTicket
}

func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{tickets: make(map[string]models.TrackedTicket)}
}

func (s *MemoryTicketStore) SaveTickets(_ context.Context, tickets []models.TrackedTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tickets {
		if t.ID == "" {
			continue
		}
		s.tickets[t.ID] = t
	}
	return nil
}

func (s *MemoryTicketStore) GetTicket(_ context.Context, id string) (*models.TrackedTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	return &t, nil
}

func (s *MemoryTicketStore) ListPending(_ context.Context, limit int) ([]models.TrackedTicket, error) {
	s.mu.RLock()
	pending := make([]models.TrackedTicket, 0)
	for _, t := range s.tickets {
		if t.ReceiptStatus == models.ReceiptStatusPending {
			pending = append(pending, t)
		}
	}
	s.mu.RUnlock()

	sortBySentAt(pending)
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *MemoryTicketStore) UpdateReceipt(_ context.Context, receipt models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[receipt.TicketID]
	if !ok {
		return models.ErrTicketNotFound
	}
	t.ReceiptStatus = receipt.Status
	t.ReceiptError = receipt.Error
	s.tickets[receipt.TicketID] = t
	return nil
}

func sortBySentAt(tickets []models.TrackedTicket) {
	slices.SortFunc(tickets, func(a, b models.TrackedTicket) int {
		if c := a.SentAt.Compare(b.SentAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
