package mocks

import (
	"context"

	"event-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock EventStore
type EventStore struct {
	mock.Mock
}

func (m *EventStore) CreateEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *EventStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.Event)
	return e, args.Error(1)
}
func (m *EventStore) UpdateEvent(ctx context.Context, id uuid.UUID, input models.EventInput) (*models.Event, error) {
	args := m.Called(ctx, id, input)
	e, _ := args.Get(0).(*models.Event)
	return e, args.Error(1)
}
func (m *EventStore) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *EventStore) TryRegister(ctx context.Context, eventID, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Int(0), args.Error(1)
}
func (m *EventStore) ListAssignees(ctx context.Context, eventID uuid.UUID) ([]models.User, error) {
	args := m.Called(ctx, eventID)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}
func (m *EventStore) ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	args := m.Called(ctx, userID)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

// Mock SubscriptionStore
type SubscriptionStore struct {
	mock.Mock
}

func (m *SubscriptionStore) UpsertSubscription(ctx context.Context, userID uuid.UUID, token string) (*models.PushSubscription, error) {
	args := m.Called(ctx, userID, token)
	sub, _ := args.Get(0).(*models.PushSubscription)
	return sub, args.Error(1)
}
func (m *SubscriptionStore) ListActiveSubscriptions(ctx context.Context) ([]models.PushSubscription, error) {
	args := m.Called(ctx)
	subs, _ := args.Get(0).([]models.PushSubscription)
	return subs, args.Error(1)
}
func (m *SubscriptionStore) DeleteSubscriptionByToken(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// Mock TicketStore
type TicketStore struct {
	mock.Mock
}

func (m *TicketStore) SaveTickets(ctx context.Context, tickets []models.TrackedTicket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}
func (m *TicketStore) GetTicket(ctx context.Context, id string) (*models.TrackedTicket, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.TrackedTicket)
	return t, args.Error(1)
}
func (m *TicketStore) ListPending(ctx context.Context, limit int) ([]models.TrackedTicket, error) {
	args := m.Called(ctx, limit)
	t, _ := args.Get(0).([]models.TrackedTicket)
	return t, args.Error(1)
}
func (m *TicketStore) UpdateReceipt(ctx context.Context, receipt models.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}
