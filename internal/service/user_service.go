package service

import (
	"context"
	"fmt"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ UserService = (*userService)(nil)

type userService struct {
	users  interfaces.UserRepository
	logger *zap.Logger
}

func NewUserService(users interfaces.UserRepository, logger *zap.Logger) UserService {
	return &userService{users: users, logger: logger.Named("user_service")}
}

func (s *userService) CreateUser(ctx context.Context, input models.CreateUserInput) (*models.User, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}
	interests := input.Interests
	if interests == nil {
		interests = []string{}
	}
	user := &models.User{
		Fullname:  input.Fullname,
		Email:     input.Email,
		Phone:     input.Phone,
		Interests: interests,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User created", zap.String("userID", user.ID.String()))
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: user identifier is required", models.ErrInvalidInput)
	}
	return s.users.GetUserByID(ctx, id)
}
