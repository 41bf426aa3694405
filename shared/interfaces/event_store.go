package interfaces

import (
	"context"

	"event-server/shared/models"

	"github.com/google/uuid"
)

// EventStore определяет методы хранилища событий.
type EventStore interface {
	// CreateEvent сохраняет новое событие и заполняет ID и CreatedAt.
	CreateEvent(ctx context.Context, event *models.Event) error
	// GetEvent возвращает событие или models.ErrEventNotFound.
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	// UpdateEvent заменяет все поля, кроме assignes.
	UpdateEvent(ctx context.Context, id uuid.UUID, input models.EventInput) (*models.Event, error)
	// DeleteEvent удаляет событие. Не блокируется против параллельных записей.
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// TryRegister атомарно добавляет userID в assignes, если пользователя там нет
	// и есть свободное место. Возвращает новое число участников.
	// При нарушении условия возвращает *models.RegistrationConflict.
	TryRegister(ctx context.Context, eventID, userID uuid.UUID) (int, error)

	// ListAssignees возвращает участников события, новые первыми.
	ListAssignees(ctx context.Context, eventID uuid.UUID) ([]models.User, error)
	// ListEventsForUser возвращает события пользователя, новые первыми.
	ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
}
