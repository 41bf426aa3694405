package service

import (
	"context"

	"event-server/shared/models"

	"github.com/google/uuid"
)

// Ledger - запись пользователей на события и проекции по записям.
type Ledger interface {
	// Register записывает пользователя на событие.
	// Ошибки: ErrInvalidInput, ErrEventNotFound, ErrEventPast, ErrEventFull, ErrAlreadyRegistered, ErrUserNotFound.
	Register(ctx context.Context, eventID, userID uuid.UUID) (*models.RegistrationResult, error)
	ListAssignees(ctx context.Context, eventID uuid.UUID) ([]models.User, error)
	ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
}

// EventService - административные операции над событиями.
type EventService interface {
	CreateEvent(ctx context.Context, input models.EventInput) (*models.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, input models.EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// SubscriptionService управляет push-токенами пользователей.
type SubscriptionService interface {
	SaveToken(ctx context.Context, userID uuid.UUID, token string) (*models.PushSubscription, error)
	RemoveToken(ctx context.Context, token string) error
}

// UserService - минимальный профиль пользователя.
type UserService interface {
	CreateUser(ctx context.Context, input models.CreateUserInput) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TicketService - чтение тикетов доставки.
type TicketService interface {
	GetTicket(ctx context.Context, id string) (*models.TrackedTicket, error)
}
