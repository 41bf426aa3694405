package database

import (
	"context"
	"errors"
	"fmt"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	eventColumns = `id, titre, description, content, image, image2, video, category, capacity, assignes, location, event_date, created_at`

	createEventQuery = `
		INSERT INTO events (titre, description, content, image, image2, video, category, capacity, assignes, location, event_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`
	getEventQuery    = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	updateEventQuery = `
		UPDATE events SET
			titre = $2, description = $3, content = $4, image = $5, image2 = $6, video = $7,
			category = $8, capacity = $9, location = $10, event_date = $11
		WHERE id = $1
		RETURNING ` + eventColumns
	deleteEventQuery = `DELETE FROM events WHERE id = $1`

	// Проверка членства, проверка места и добавление выполняются одним UPDATE.
	// Под READ COMMITTED Postgres перепроверяет WHERE на последней версии строки,
	// поэтому две конкурирующие записи не могут обе занять последнее место.
	tryRegisterQuery = `
		UPDATE events
		SET assignes = array_append(assignes, $2::uuid)
		WHERE id = $1
		  AND NOT ($2::uuid = ANY(assignes))
		  AND (capacity = 0 OR cardinality(assignes) < capacity)
		RETURNING cardinality(assignes)`
	registrationStateQuery = `SELECT capacity, cardinality(assignes), $2::uuid = ANY(assignes) FROM events WHERE id = $1`

	listAssigneesQuery = `
		SELECT u.id, u.fullname, u.email, u.phone, u.is_admin, u.interests, u.created_at
		FROM events e
		JOIN users u ON u.id = ANY(e.assignes)
		WHERE e.id = $1
		ORDER BY u.created_at DESC`
	listEventsForUserQuery = `SELECT ` + eventColumns + ` FROM events WHERE $1::uuid = ANY(assignes) ORDER BY created_at DESC`

	pgCheckViolation = "23514"

	// Сколько раз перечитывать состояние, если UPDATE не прошел, а причина не видна.
	tryRegisterMaxAttempts = 3
)

// Compile-time check to ensure pgEventRepository implements EventStore
var _ interfaces.EventStore = (*pgEventRepository)(nil)

type pgEventRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgEventRepository creates a new PostgreSQL-backed EventStore.
func NewPgEventRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.EventStore {
	return &pgEventRepository{
		db:     db,
		logger: logger.Named("PgEventRepo"),
	}
}

// CreateEvent inserts a new event.
func (r *pgEventRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.Assignes == nil {
		event.Assignes = []uuid.UUID{}
	}
	err := r.db.QueryRow(ctx, createEventQuery,
		event.Title, event.Description, event.Content, event.Image, event.Image2, event.Video,
		event.Category, event.Capacity, event.Assignes, event.Location, event.Date,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			r.logger.Warn("Event violates a check constraint", zap.String("constraint", pgErr.ConstraintName))
			return fmt.Errorf("%w: %s", models.ErrInvalidInput, pgErr.ConstraintName)
		}
		r.logger.Error("Failed to create event in postgres", zap.Error(err), zap.String("title", event.Title))
		return fmt.Errorf("failed to create event in postgres: %w", err)
	}
	r.logger.Info("Event created", zap.String("eventID", event.ID.String()), zap.Int("capacity", event.Capacity))
	return nil
}

// GetEvent retrieves an event by its ID.
func (r *pgEventRepository) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := pgxscan.Get(ctx, r.db, &event, getEventQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Event not found", zap.String("eventID", id.String()))
			return nil, models.ErrEventNotFound
		}
		r.logger.Error("Failed to get event from postgres", zap.Error(err), zap.String("eventID", id.String()))
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return &event, nil
}

// UpdateEvent replaces every editable field. Assignes are never touched here.
// Lowering the capacity under the current number of assignees is rejected by events_capacity_check.
func (r *pgEventRepository) UpdateEvent(ctx context.Context, id uuid.UUID, input models.EventInput) (*models.Event, error) {
	var event models.Event
	err := pgxscan.Get(ctx, r.db, &event, updateEventQuery, id,
		input.Title, input.Description, input.Content, input.Image, input.Image2, input.Video,
		input.Category, input.Capacity, input.Location, input.Date,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrEventNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			r.logger.Warn("Event update violates a check constraint",
				zap.String("eventID", id.String()),
				zap.String("constraint", pgErr.ConstraintName),
			)
			return nil, fmt.Errorf("%w: %s", models.ErrInvalidInput, pgErr.ConstraintName)
		}
		r.logger.Error("Failed to update event in postgres", zap.Error(err), zap.String("eventID", id.String()))
		return nil, fmt.Errorf("failed to update event %s: %w", id, err)
	}
	r.logger.Info("Event updated", zap.String("eventID", id.String()))
	return &event, nil
}

// DeleteEvent removes an event.
func (r *pgEventRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, deleteEventQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete event", zap.Error(err), zap.String("eventID", id.String()))
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrEventNotFound
	}
	r.logger.Info("Event deleted", zap.String("eventID", id.String()))
	return nil
}

// TryRegister appends userID to the assignee set in a single conditional UPDATE.
func (r *pgEventRepository) TryRegister(ctx context.Context, eventID, userID uuid.UUID) (int, error) {
	log := r.logger.With(zap.String("eventID", eventID.String()), zap.String("userID", userID.String()))

	for attempt := 1; attempt <= tryRegisterMaxAttempts; attempt++ {
		var newCount int
		err := r.db.QueryRow(ctx, tryRegisterQuery, eventID, userID).Scan(&newCount)
		if err == nil {
			log.Debug("Registration committed", zap.Int("assigneeCount", newCount))
			return newCount, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Error("Failed to execute conditional registration update", zap.Error(err))
			return 0, fmt.Errorf("failed to register user for event: %w", err)
		}

		// UPDATE не затронул строку: выясняем почему.
		var capacity, count int
		var isMember bool
		err = r.db.QueryRow(ctx, registrationStateQuery, eventID, userID).Scan(&capacity, &count, &isMember)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, models.ErrEventNotFound
			}
			log.Error("Failed to read registration state", zap.Error(err))
			return 0, fmt.Errorf("failed to read registration state: %w", err)
		}
		switch {
		case capacity != 0 && count >= capacity:
			return 0, &models.RegistrationConflict{Reason: models.ConflictFull, EventID: eventID, UserID: userID}
		case isMember:
			return 0, &models.RegistrationConflict{Reason: models.ConflictAlreadyRegistered, EventID: eventID, UserID: userID}
		}
		// Вместимость успели увеличить между UPDATE и SELECT - пробуем еще раз.
		log.Warn("Registration state changed between update and check, retrying", zap.Int("attempt", attempt))
	}
	return 0, fmt.Errorf("registration for event %s did not settle after %d attempts", eventID, tryRegisterMaxAttempts)
}

// ListAssignees returns the users registered to the event, newest first.
func (r *pgEventRepository) ListAssignees(ctx context.Context, eventID uuid.UUID) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := pgxscan.Select(ctx, r.db, &users, listAssigneesQuery, eventID); err != nil {
		r.logger.Error("Failed to list assignees", zap.Error(err), zap.String("eventID", eventID.String()))
		return nil, fmt.Errorf("failed to list assignees for event %s: %w", eventID, err)
	}
	return users, nil
}

// ListEventsForUser returns events the user is assigned to, newest first.
func (r *pgEventRepository) ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	events := make([]models.Event, 0)
	if err := pgxscan.Select(ctx, r.db, &events, listEventsForUserQuery, userID); err != nil {
		r.logger.Error("Failed to list events for user", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list events for user %s: %w", userID, err)
	}
	return events, nil
}
