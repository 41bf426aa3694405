package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"event-server/shared/database"
	repoMocks "event-server/shared/interfaces/mocks"
	"event-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validEventInput() models.EventInput {
	return models.EventInput{
		Title:    "Lancement du rapport annuel",
		Category: models.CategoryPressKit,
		Capacity: 2,
		Location: "Abidjan",
		Date:     time.Now().Add(72 * time.Hour),
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates and submits notification", func(t *testing.T) {
		store := database.NewMemoryStore(zap.NewNop())
		notifier := new(repoMocks.NewEventNotifier)
		svc := NewEventService(store, notifier, zap.NewNop())

		notifier.On("NotifyEventCreated", mock.Anything, mock.MatchedBy(func(e *models.Event) bool {
			return e.ID != uuid.Nil && e.Title == "Lancement du rapport annuel"
		})).Return(nil).Once()

		event, err := svc.CreateEvent(ctx, validEventInput())
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, event.ID)
		assert.Empty(t, event.Assignes)
		notifier.AssertExpectations(t)
	})

	t.Run("Notifier failure does not fail creation", func(t *testing.T) {
		store := database.NewMemoryStore(zap.NewNop())
		notifier := new(repoMocks.NewEventNotifier)
		svc := NewEventService(store, notifier, zap.NewNop())
		notifier.On("NotifyEventCreated", mock.Anything, mock.Anything).Return(errors.New("queue full")).Once()

		event, err := svc.CreateEvent(ctx, validEventInput())
		require.NoError(t, err)
		_, err = store.GetEvent(ctx, event.ID)
		assert.NoError(t, err)
	})

	t.Run("Invalid category is rejected before the store", func(t *testing.T) {
		events := new(repoMocks.EventStore)
		svc := NewEventService(events, nil, zap.NewNop())
		in := validEventInput()
		in.Category = "soirée"

		_, err := svc.CreateEvent(ctx, in)
		assert.ErrorIs(t, err, models.ErrInvalidCategory)
		events.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
	})

	t.Run("Store failure", func(t *testing.T) {
		events := new(repoMocks.EventStore)
		notifier := new(repoMocks.NewEventNotifier)
		svc := NewEventService(events, notifier, zap.NewNop())
		events.On("CreateEvent", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		_, err := svc.CreateEvent(ctx, validEventInput())
		assert.Error(t, err)
		notifier.AssertNotCalled(t, "NotifyEventCreated", mock.Anything, mock.Anything)
	})
}

func TestEventService_UpdateKeepsAssignees(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(zap.NewNop())
	svc := NewEventService(store, nil, zap.NewNop())
	ledger := NewRegistrationLedger(store, store, zap.NewNop())

	event, err := svc.CreateEvent(ctx, validEventInput())
	require.NoError(t, err)
	user := &models.User{Fullname: "Awa", Email: "awa@example.org"}
	require.NoError(t, store.CreateUser(ctx, user))
	_, err = ledger.Register(ctx, event.ID, user.ID)
	require.NoError(t, err)

	in := validEventInput()
	in.Title = "Nouveau titre"
	in.Capacity = 5
	updated, err := svc.UpdateEvent(ctx, event.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Nouveau titre", updated.Title)
	assert.Equal(t, []uuid.UUID{user.ID}, updated.Assignes)

	t.Run("Capacity below assignee count", func(t *testing.T) {
		_, err := svc.UpdateEvent(ctx, event.ID, models.EventInput{
			Title: "x", Category: models.CategoryInvitation, Capacity: 0, Date: in.Date,
		})
		require.NoError(t, err, "unlimited capacity is always allowed")

		store2 := database.NewMemoryStore(zap.NewNop())
		svc2 := NewEventService(store2, nil, zap.NewNop())
		ledger2 := NewRegistrationLedger(store2, store2, zap.NewNop())
		e, err := svc2.CreateEvent(ctx, validEventInput())
		require.NoError(t, err)
		for _, email := range []string{"a@example.org", "b@example.org"} {
			u := &models.User{Fullname: "U", Email: email}
			require.NoError(t, store2.CreateUser(ctx, u))
			_, err = ledger2.Register(ctx, e.ID, u.ID)
			require.NoError(t, err)
		}
		lowered := validEventInput()
		lowered.Capacity = 1
		_, err = svc2.UpdateEvent(ctx, e.ID, lowered)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Delete then get", func(t *testing.T) {
		require.NoError(t, svc.DeleteEvent(ctx, event.ID))
		_, err := svc.GetEvent(ctx, event.ID)
		assert.ErrorIs(t, err, models.ErrEventNotFound)
		assert.ErrorIs(t, svc.DeleteEvent(ctx, event.ID), models.ErrEventNotFound)
	})
}

func TestSubscriptionService(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(zap.NewNop())
	svc := NewSubscriptionService(store, zap.NewNop())
	user := &models.User{Fullname: "Kofi", Email: "kofi@example.org"}
	require.NoError(t, store.CreateUser(ctx, user))

	_, err := svc.SaveToken(ctx, user.ID, "ExponentPushToken[first]")
	require.NoError(t, err)
	sub, err := svc.SaveToken(ctx, user.ID, "  ExponentPushToken[second]  ")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[second]", sub.Token)

	subs, err := store.ListActiveSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "ExponentPushToken[second]", subs[0].Token)

	_, err = svc.SaveToken(ctx, user.ID, "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = svc.SaveToken(ctx, uuid.Nil, "tok")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = svc.SaveToken(ctx, uuid.New(), "tok")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	require.NoError(t, svc.RemoveToken(ctx, "ExponentPushToken[second]"))
	assert.ErrorIs(t, svc.RemoveToken(ctx, "ExponentPushToken[second]"), models.ErrNotFound)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(database.NewMemoryStore(zap.NewNop()), zap.NewNop())

	user, err := svc.CreateUser(ctx, models.CreateUserInput{Fullname: " Ana ", Email: "Ana@Example.org"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.org", user.Email)
	assert.Equal(t, "Ana", user.Fullname)
	assert.NotNil(t, user.Interests)

	_, err = svc.CreateUser(ctx, models.CreateUserInput{Fullname: "Other", Email: "ANA@example.org"})
	assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)

	_, err = svc.CreateUser(ctx, models.CreateUserInput{Fullname: "No mail"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
