package notifications

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"event-server/shared/constants"
	"event-server/shared/models"

	"github.com/google/uuid"
)

type eventCreatedTexts struct {
	title        string
	bodyTemplate string // %s - название события
}

var eventCreatedLocales = map[string]eventCreatedTexts{
	"fr": {title: "Nouvel événement", bodyTemplate: "« %s » vient d'être publié. Inscrivez-vous !"},
	"en": {title: "New event", bodyTemplate: "\"%s\" has just been published. Sign up now!"},
}

// SupportedLocales returns the locales BuildNewEventContent has texts for, sorted.
func SupportedLocales() []string {
	return slices.Sorted(maps.Keys(eventCreatedLocales))
}

// NewEventContent - общая часть уведомления о новом событии, одинаковая для всех получателей.
type NewEventContent struct {
	Title string
	Body  string
	Data  map[string]string
}

// BuildNewEventContent готовит заголовок, текст и data payload уведомления.
// Неизвестная локаль заменяется на constants.PushDefaultLocale.
func BuildNewEventContent(event *models.Event, locale string) (*NewEventContent, error) {
	if event == nil {
		return nil, fmt.Errorf("cannot build new event push payload for nil event")
	}
	if event.ID == uuid.Nil {
		return nil, fmt.Errorf("cannot build new event push payload for nil event ID")
	}

	texts, ok := eventCreatedLocales[strings.ToLower(locale)]
	if !ok {
		texts = eventCreatedLocales[constants.PushDefaultLocale]
	}
	body := fmt.Sprintf(texts.bodyTemplate, event.Title)

	return &NewEventContent{
		Title: texts.title,
		Body:  body,
		Data: map[string]string{
			constants.PushDataEventIDKey:   event.ID.String(),
			constants.PushDataEventTypeKey: constants.PushEventTypeEventCreated,
			constants.PushLocKey:           constants.PushLocKeyEventCreated,
			constants.PushLocArgEventTitle: event.Title,
			constants.PushFallbackTitleKey: texts.title,
			constants.PushFallbackBodyKey:  body,
		},
	}, nil
}

// Message builds the push message for one token. Data is shared between messages and must not be mutated.
func (c *NewEventContent) Message(token string) models.PushMessage {
	return models.PushMessage{
		To:    token,
		Sound: constants.PushDefaultSound,
		Title: c.Title,
		Body:  c.Body,
		Data:  c.Data,
	}
}
