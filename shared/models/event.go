package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// EventCategory - закрытый набор категорий события.
type EventCategory string

const (
	CategoryInvitation EventCategory = "invitation"
	CategoryCommunique EventCategory = "communiqué"
	CategoryPressKit   EventCategory = "dossier de presse"
)

// AllEventCategories возвращает все допустимые категории.
func AllEventCategories() []EventCategory {
	return []EventCategory{
		CategoryInvitation,
		CategoryCommunique,
		CategoryPressKit,
	}
}

// ParseEventCategory проверяет строку на принадлежность к списку категорий.
func ParseEventCategory(s string) (EventCategory, error) {
	c := EventCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories.
func (c EventCategory) Valid() bool {
	return slices.Contains(AllEventCategories(), c)
}

// UnmarshalJSON rejects categories outside the closed set.
func (c *EventCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseEventCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Event - событие, на которое пользователи могут записаться.
// JSON-имена полей совпадают с теми, что ждет мобильный клиент.
type Event struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	Title       string        `db:"titre" json:"titre"`
	Description string        `db:"description" json:"description"`
	Content     string        `db:"content" json:"content"`
	Image       string        `db:"image" json:"image"`
	Image2      string        `db:"image2" json:"image2"`
	Video       string        `db:"video" json:"video"`
	Category    EventCategory `db:"category" json:"category"`
	Capacity    int           `db:"capacity" json:"nombreDeParticipants"` // 0 = без ограничений
	Assignes    []uuid.UUID   `db:"assignes" json:"assignes"`
	Location    string        `db:"location" json:"location"`
	Date        time.Time     `db:"event_date" json:"date"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
}

// IsUnlimited reports whether the event accepts any number of assignees.
func (e *Event) IsUnlimited() bool {
	return e.Capacity == 0
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return !e.IsUnlimited() && len(e.Assignes) >= e.Capacity
}

// HasAssignee reports whether userID is already registered.
func (e *Event) HasAssignee(userID uuid.UUID) bool {
	return slices.Contains(e.Assignes, userID)
}

// IsPast reports whether the event date is before now.
func (e *Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}

// EventInput - редактируемые поля события (все, кроме assignes).
type EventInput struct {
	Title       string
	Description string
	Content     string
	Image       string
	Image2      string
	Video       string
	Category    EventCategory
	Capacity    int
	Location    string
	Date        time.Time
}

// Validate проверяет обязательные поля.
func (in EventInput) Validate() error {
	if in.Title == "" {
		return fmt.Errorf("%w: titre is required", ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}
	if in.Capacity < 0 {
		return fmt.Errorf("%w: nombreDeParticipants must not be negative", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return nil
}

// Apply copies the editable fields onto e, leaving Assignes untouched.
func (in EventInput) Apply(e *Event) {
	e.Title = in.Title
	e.Description = in.Description
	e.Content = in.Content
	e.Image = in.Image
	e.Image2 = in.Image2
	e.Video = in.Video
	e.Category = in.Category
	e.Capacity = in.Capacity
	e.Location = in.Location
	e.Date = in.Date
}

// RegistrationResult - результат успешной записи на событие.
type RegistrationResult struct {
	EventID       uuid.UUID `json:"eventId"`
	UserID        uuid.UUID `json:"userId"`
	AssigneeCount int       `json:"assigneeCount"`
}
