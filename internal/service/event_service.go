package service

import (
	"context"
	"fmt"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ EventService = (*eventService)(nil)

type eventService struct {
	events   interfaces.EventStore
	notifier interfaces.NewEventNotifier
	logger   *zap.Logger
}

// NewEventService создает сервис администрирования событий.
// notifier получает каждое созданное событие; его ошибки не влияют на результат создания.
func NewEventService(events interfaces.EventStore, notifier interfaces.NewEventNotifier, logger *zap.Logger) EventService {
	return &eventService{
		events:   events,
		notifier: notifier,
		logger:   logger.Named("event_service"),
	}
}

func (s *eventService) CreateEvent(ctx context.Context, input models.EventInput) (*models.Event, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	event := &models.Event{Assignes: []uuid.UUID{}}
	input.Apply(event)
	if err := s.events.CreateEvent(ctx, event); err != nil {
		s.logger.Error("Failed to create event", zap.String("title", input.Title), zap.Error(err))
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	eventsCreatedTotal.Inc()
	s.logger.Info("Event created",
		zap.String("eventID", event.ID.String()),
		zap.String("category", string(event.Category)),
		zap.Int("capacity", event.Capacity),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyEventCreated(ctx, event); err != nil {
			s.logger.Warn("New event notification was not submitted",
				zap.String("eventID", event.ID.String()),
				zap.Error(err),
			)
		}
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: event identifier is required", models.ErrInvalidInput)
	}
	return s.events.GetEvent(ctx, id)
}

// UpdateEvent заменяет все поля события, кроме assignes.
func (s *eventService) UpdateEvent(ctx context.Context, id uuid.UUID, input models.EventInput) (*models.Event, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: event identifier is required", models.ErrInvalidInput)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	event, err := s.events.UpdateEvent(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Event updated", zap.String("eventID", id.String()))
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: event identifier is required", models.ErrInvalidInput)
	}
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Event deleted", zap.String("eventID", id.String()))
	return nil
}
