package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system.
// Интересы используются только для фильтрации на клиенте, ядро их не трогает.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Fullname  string    `db:"fullname" json:"fullname"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	IsAdmin   bool      `db:"is_admin" json:"isAdmin"`
	Interests []string  `db:"interests" json:"interests"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CreateUserInput - поля, которые клиент передает при создании пользователя.
type CreateUserInput struct {
	Fullname  string
	Email     string
	Phone     string
	Interests []string
}

// Normalize trims whitespace and lowercases the email so uniqueness is case-insensitive.
func (in *CreateUserInput) Normalize() {
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
}

// Validate проверяет обязательные поля.
func (in CreateUserInput) Validate() error {
	if in.Fullname == "" {
		return fmt.Errorf("%w: fullname is required", ErrInvalidInput)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return nil
}
