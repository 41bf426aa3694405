package constants

// Основной ключ для локализации в data payload
const PushLocKey = "loc_key"

// Типы событий в data payload
const (
	PushEventTypeEventCreated = "event_created" // Опубликовано новое событие
)

// Ключи локализации для Push-уведомлений (для поля loc_key в data payload)
const (
	PushLocKeyEventCreated = "notification_event_created"
)

// Ключи data payload
const (
	PushDataEventIDKey    = "eventId"
	PushDataEventTypeKey  = "event_type"
	PushLocArgEventTitle  = "eventTitle"
	PushFallbackTitleKey  = "fallback_title"
	PushFallbackBodyKey   = "fallback_body"
	PushDefaultSound      = "default"
	PushDefaultLocale     = "fr"
	PushEventCreatedQueue = "event_created"
)
