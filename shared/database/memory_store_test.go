package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"event-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEvent(capacity int) *models.Event {
	return &models.Event{
		Title:    "Soirée de lancement",
		Category: models.CategoryInvitation,
		Capacity: capacity,
		Date:     time.Now().Add(24 * time.Hour),
	}
}

func TestMemoryStore_TryRegister(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	event := newTestEvent(2)
	require.NoError(t, store.CreateEvent(ctx, event))

	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()

	count, err := store.TryRegister(ctx, event.ID, u1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = store.TryRegister(ctx, event.ID, u1)
	var conflict *models.RegistrationConflict
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictAlreadyRegistered, conflict.Reason)
	assert.ErrorIs(t, err, models.ErrAlreadyRegistered)

	count, err = store.TryRegister(ctx, event.ID, u2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = store.TryRegister(ctx, event.ID, u3)
	assert.ErrorIs(t, err, models.ErrEventFull)

	_, err = store.TryRegister(ctx, uuid.New(), u3)
	assert.ErrorIs(t, err, models.ErrEventNotFound)

	got, err := store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{u1, u2}, got.Assignes)
}

func TestMemoryStore_TryRegister_FullBeforeDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	event := newTestEvent(1)
	require.NoError(t, store.CreateEvent(ctx, event))

	userID := uuid.New()
	_, err := store.TryRegister(ctx, event.ID, userID)
	require.NoError(t, err)

	_, err = store.TryRegister(ctx, event.ID, userID)
	var conflict *models.RegistrationConflict
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ConflictFull, conflict.Reason)
}

func TestMemoryStore_TryRegister_ConcurrentLastSeat(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	for range 50 {
		event := newTestEvent(1)
		require.NoError(t, store.CreateEvent(ctx, event))

		var wg sync.WaitGroup
		var wins, full atomic.Int32
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.TryRegister(ctx, event.ID, uuid.New())
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, models.ErrEventFull):
					full.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(1), full.Load())
		got, err := store.GetEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Len(t, got.Assignes, 1)
	}
}

func TestMemoryStore_TryRegister_ConcurrentSameUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	event := newTestEvent(0)
	require.NoError(t, store.CreateEvent(ctx, event))

	userID := uuid.New()
	var wg sync.WaitGroup
	var wins atomic.Int32
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.TryRegister(ctx, event.ID, userID); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	got, err := store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{userID}, got.Assignes)
}

func TestMemoryStore_UnlimitedCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	event := newTestEvent(0)
	require.NoError(t, store.CreateEvent(ctx, event))

	for i := 1; i <= 500; i++ {
		count, err := store.TryRegister(ctx, event.ID, uuid.New())
		require.NoError(t, err)
		require.Equal(t, i, count)
	}
}

func TestMemoryStore_RegisterAfterDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	event := newTestEvent(5)
	require.NoError(t, store.CreateEvent(ctx, event))

	require.NoError(t, store.DeleteEvent(ctx, event.ID))
	_, err := store.TryRegister(ctx, event.ID, uuid.New())
	assert.ErrorIs(t, err, models.ErrEventNotFound)
	assert.ErrorIs(t, store.DeleteEvent(ctx, event.ID), models.ErrEventNotFound)
}

func TestMemoryStore_UpdateEvent_CapacityBelowAssignees(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	event := newTestEvent(3)
	require.NoError(t, store.CreateEvent(ctx, event))
	for range 2 {
		_, err := store.TryRegister(ctx, event.ID, uuid.New())
		require.NoError(t, err)
	}

	input := models.EventInput{
		Title:    "Nouvel intitulé",
		Category: models.CategoryCommunique,
		Capacity: 1,
		Date:     event.Date,
	}
	_, err := store.UpdateEvent(ctx, event.ID, input)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	input.Capacity = 2
	updated, err := store.UpdateEvent(ctx, event.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Nouvel intitulé", updated.Title)
	assert.Len(t, updated.Assignes, 2)
	assert.True(t, updated.IsFull())
}

func TestMemoryStore_GetEventReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	event := newTestEvent(0)
	require.NoError(t, store.CreateEvent(ctx, event))
	_, err := store.TryRegister(ctx, event.ID, uuid.New())
	require.NoError(t, err)

	got, err := store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	got.Assignes[0] = uuid.Nil

	again, err := store.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, again.Assignes[0])
}

func TestMemoryStore_ListProjections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	alice := &models.User{Fullname: "Alice", Email: "alice@example.com"}
	bob := &models.User{Fullname: "Bob", Email: "bob@example.com"}
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	older := newTestEvent(0)
	newer := newTestEvent(0)
	require.NoError(t, store.CreateEvent(ctx, older))
	require.NoError(t, store.CreateEvent(ctx, newer))

	for _, e := range []*models.Event{older, newer} {
		_, err := store.TryRegister(ctx, e.ID, alice.ID)
		require.NoError(t, err)
	}
	_, err := store.TryRegister(ctx, older.ID, bob.ID)
	require.NoError(t, err)
	// Неизвестный пользователь в assignes не попадает в выдачу.
	_, err = store.TryRegister(ctx, older.ID, uuid.New())
	require.NoError(t, err)

	events, err := store.ListEventsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, newer.ID, events[0].ID)
	assert.Equal(t, older.ID, events[1].ID)

	assignees, err := store.ListAssignees(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, assignees, 2)
	assert.Equal(t, bob.ID, assignees[0].ID)
	assert.Equal(t, alice.ID, assignees[1].ID)

	events, err = store.ListEventsForUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	u := &models.User{Fullname: "Claire", Email: "claire@example.com"}
	require.NoError(t, store.CreateUser(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)

	err := store.CreateUser(ctx, &models.User{Fullname: "Claire 2", Email: "claire@example.com"})
	assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)

	got, err := store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Claire", got.Fullname)

	_, err = store.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestMemoryStore_UpsertSubscription(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	u := &models.User{Fullname: "Dan", Email: "dan@example.com"}
	require.NoError(t, store.CreateUser(ctx, u))

	_, err := store.UpsertSubscription(ctx, u.ID, "ExponentPushToken[first]")
	require.NoError(t, err)
	_, err = store.UpsertSubscription(ctx, u.ID, "ExponentPushToken[second]")
	require.NoError(t, err)

	subs, err := store.ListActiveSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "ExponentPushToken[second]", subs[0].Token)

	_, err = store.UpsertSubscription(ctx, uuid.New(), "ExponentPushToken[x]")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	deleted, err := store.DeleteSubscriptionByToken(ctx, "ExponentPushToken[second]")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = store.DeleteSubscriptionByToken(ctx, "ExponentPushToken[second]")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestMemoryTicketStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTicketStore()
	now := time.Now().UTC()

	tickets := []models.TrackedTicket{
		{ID: "b", Token: "t2", SentAt: now.Add(time.Second), Status: models.TicketStatusOK, ReceiptStatus: models.ReceiptStatusPending},
		{ID: "a", Token: "t1", SentAt: now, Status: models.TicketStatusOK, ReceiptStatus: models.ReceiptStatusPending},
		{ID: "", Token: "t3", SentAt: now, Status: models.TicketStatusError},
	}
	require.NoError(t, store.SaveTickets(ctx, tickets))

	pending, err := store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)

	require.NoError(t, store.UpdateReceipt(ctx, models.Receipt{TicketID: "a", Status: models.ReceiptStatusDelivered}))
	pending, err = store.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)

	got, err := store.GetTicket(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptStatusDelivered, got.ReceiptStatus)

	assert.ErrorIs(t, store.UpdateReceipt(ctx, models.Receipt{TicketID: "zzz"}), models.ErrTicketNotFound)
	_, err = store.GetTicket(ctx, "zzz")
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}
