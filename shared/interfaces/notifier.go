package interfaces

import (
	"context"

	"event-server/shared/models"
)

// NewEventNotifier принимает созданное событие для фоновой рассылки.
// Реализации не должны блокировать и не возвращают ошибок доставки вызывающему.
type NewEventNotifier interface {
	NotifyEventCreated(ctx context.Context, event *models.Event) error
}

// EventDispatcher - ядро рассылки уведомлений о новом событии.
type EventDispatcher interface {
	NotifyNewEvent(ctx context.Context, event *models.Event) models.DispatchReport
}
