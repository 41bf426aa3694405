package models

import (
	"time"

	"github.com/google/uuid"
)

// EventCreatedMessage - сообщение в очереди event_created.
// Содержит только то, что нужно для рассылки, чтобы воркер не ходил в БД за событием.
type EventCreatedMessage struct {
	EventID     uuid.UUID `json:"event_id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// ToEvent rebuilds the minimal event needed by the dispatcher.
func (m EventCreatedMessage) ToEvent() *Event {
	return &Event{ID: m.EventID, Title: m.Title}
}

// NewEventCreatedMessage builds the queue payload for a freshly created event.
func NewEventCreatedMessage(e *Event) EventCreatedMessage {
	return EventCreatedMessage{
		EventID:     e.ID,
		Title:       e.Title,
		PublishedAt: time.Now().UTC(),
	}
}
