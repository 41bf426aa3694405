package database

import (
	"context"
	"errors"
	"fmt"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	createUserQuery  = `INSERT INTO users (fullname, email, phone, is_admin, interests) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	getUserByIDQuery = `SELECT id, fullname, email, phone, is_admin, interests, created_at FROM users WHERE id = $1`

	pgUniqueViolation = "23505"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

// CreateUser inserts a new user into the database.
func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.Interests == nil {
		user.Interests = []string{}
	}
	r.logger.Debug("Executing query", zap.String("query", createUserQuery), zap.String("email", user.Email))
	err := r.db.QueryRow(ctx, createUserQuery, user.Fullname, user.Email, user.Phone, user.IsAdmin, user.Interests).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if pgErr.ConstraintName == "users_email_key" {
				r.logger.Warn("Attempted to create duplicate user by email", zap.String("email", user.Email))
				return models.ErrEmailAlreadyExists
			}
			r.logger.Warn("Unique constraint violation on user create", zap.String("constraint", pgErr.ConstraintName))
			return fmt.Errorf("%w: %s", models.ErrInvalidInput, pgErr.ConstraintName)
		}
		r.logger.Error("Failed to create user in postgres", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}
	r.logger.Info("User created successfully", zap.String("userID", user.ID.String()), zap.String("email", user.Email))
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(ctx, getUserByIDQuery, id).
		Scan(&user.ID, &user.Fullname, &user.Email, &user.Phone, &user.IsAdmin, &user.Interests, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by ID", zap.String("id", id.String()))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by id from postgres", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get user by id from postgres: %w", err)
	}
	return user, nil
}
