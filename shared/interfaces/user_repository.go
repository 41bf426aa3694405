package interfaces

import (
	"context"

	"event-server/shared/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	// CreateUser inserts a new user and fills ID and CreatedAt.
	// Returns models.ErrEmailAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByID returns models.ErrUserNotFound when the user is absent.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
