package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Убедимся, что registrationLedger реализует интерфейс
var _ Ledger = (*registrationLedger)(nil)

type registrationLedger struct {
	events interfaces.EventStore
	users  interfaces.UserRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewRegistrationLedger(events interfaces.EventStore, users interfaces.UserRepository, logger *zap.Logger) Ledger {
	return newRegistrationLedger(events, users, time.Now, logger)
}

func newRegistrationLedger(events interfaces.EventStore, users interfaces.UserRepository, now func() time.Time, logger *zap.Logger) *registrationLedger {
	return &registrationLedger{
		events: events,
		users:  users,
		now:    now,
		logger: logger.Named("registration_ledger"),
	}
}

// Register проверяет событие и пользователя, затем делегирует запись атомарному TryRegister.
// Проверки до TryRegister нужны только для точной ошибки: место и членство окончательно
// решает условное обновление в хранилище.
func (l *registrationLedger) Register(ctx context.Context, eventID, userID uuid.UUID) (*models.RegistrationResult, error) {
	result, err := l.register(ctx, eventID, userID)
	registrationsTotal.WithLabelValues(registrationOutcome(err)).Inc()
	return result, err
}

func (l *registrationLedger) register(ctx context.Context, eventID, userID uuid.UUID) (*models.RegistrationResult, error) {
	if eventID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: event and user identifiers are required", models.ErrInvalidInput)
	}
	log := l.logger.With(zap.String("eventID", eventID.String()), zap.String("userID", userID.String()))

	event, err := l.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsPast(l.now()) {
		log.Debug("Registration rejected: event is in the past", zap.Time("date", event.Date))
		return nil, models.ErrEventPast
	}
	if event.IsFull() {
		return nil, &models.RegistrationConflict{Reason: models.ConflictFull, EventID: eventID, UserID: userID}
	}
	if event.HasAssignee(userID) {
		return nil, &models.RegistrationConflict{Reason: models.ConflictAlreadyRegistered, EventID: eventID, UserID: userID}
	}
	if _, err := l.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	count, err := l.events.TryRegister(ctx, eventID, userID)
	if err != nil {
		var conflict *models.RegistrationConflict
		if errors.As(err, &conflict) {
			log.Info("Registration lost a race", zap.String("reason", string(conflict.Reason)))
		}
		return nil, err
	}

	log.Info("User registered for event", zap.Int("assigneeCount", count), zap.Int("capacity", event.Capacity))
	return &models.RegistrationResult{EventID: eventID, UserID: userID, AssigneeCount: count}, nil
}

// ListAssignees возвращает участников события, новые первыми.
func (l *registrationLedger) ListAssignees(ctx context.Context, eventID uuid.UUID) ([]models.User, error) {
	if eventID == uuid.Nil {
		return nil, fmt.Errorf("%w: event identifier is required", models.ErrInvalidInput)
	}
	if _, err := l.events.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return l.events.ListAssignees(ctx, eventID)
}

// ListEventsForUser возвращает события пользователя, новые первыми.
func (l *registrationLedger) ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user identifier is required", models.ErrInvalidInput)
	}
	if _, err := l.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return l.events.ListEventsForUser(ctx, userID)
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, models.ErrEventFull):
		return outcomeFull
	case errors.Is(err, models.ErrAlreadyRegistered):
		return outcomeAlreadyRegistered
	case errors.Is(err, models.ErrEventPast):
		return outcomePast
	case models.IsNotFound(err):
		return outcomeNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return outcomeInvalid
	default:
		return outcomeError
	}
}
