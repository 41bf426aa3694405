package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound       = errors.New("resource not found") // General not found
	ErrEventNotFound  = errors.New("event not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrTicketNotFound = errors.New("delivery ticket not found")

	// Registration conflicts
	ErrEventFull          = errors.New("event is full")
	ErrAlreadyRegistered  = errors.New("user is already registered for this event")
	ErrEventPast          = errors.New("event date has already passed")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")

	// Validation
	ErrInvalidInput    = errors.New("invalid input data")
	ErrInvalidCategory = errors.New("invalid event category")

	// Push gateway
	ErrGatewayTransport = errors.New("push gateway transport error")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
)

// ConflictReason объясняет, почему атомарная запись на событие не прошла.
type ConflictReason string

const (
	ConflictFull              ConflictReason = "full"
	ConflictAlreadyRegistered ConflictReason = "already_registered"
)

// RegistrationConflict возвращается хранилищем из TryRegister,
// когда условие атомарного обновления не выполнено.
type RegistrationConflict struct {
	Reason  ConflictReason
	EventID uuid.UUID
	UserID  uuid.UUID
}

func (e *RegistrationConflict) Error() string {
	return fmt.Sprintf("registration conflict (%s): event %s, user %s", e.Reason, e.EventID, e.UserID)
}

// Unwrap maps the reason onto the matching sentinel so callers can use errors.Is.
func (e *RegistrationConflict) Unwrap() error {
	switch e.Reason {
	case ConflictFull:
		return ErrEventFull
	case ConflictAlreadyRegistered:
		return ErrAlreadyRegistered
	default:
		return nil
	}
}

// IsConflict reports whether err is one of the registration conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrEventPast) ||
		errors.Is(err, ErrEmailAlreadyExists)
}

// IsNotFound reports whether err means that a requested entity is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTicketNotFound)
}
