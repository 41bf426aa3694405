package database

import (
	"context"
	"sync"
	"time"

	"event-server/shared/interfaces"

	"github.com/google/uuid"
)

var _ interfaces.DispatchMarker = (*MemoryDispatchMarker)(nil)

// MemoryDispatchMarker - DispatchMarker в памяти процесса. Просроченные отметки удаляются при обращении.
type MemoryDispatchMarker struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	expires map[uuid.UUID]time.Time
}

func NewMemoryDispatchMarker(ttl time.Duration) *MemoryDispatchMarker {
	return &MemoryDispatchMarker{
		ttl:     ttl,
		now:     time.Now,
		expires: make(map[uuid.UUID]time.Time),
	}
}

func (m *MemoryDispatchMarker) MarkDispatched(_ context.Context, eventID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.expires {
		if !now.Before(exp) {
			delete(m.expires, id)
		}
	}
	if _, ok := m.expires[eventID]; ok {
		return false, nil
	}
	m.expires[eventID] = now.Add(m.ttl)
	return true, nil
}
