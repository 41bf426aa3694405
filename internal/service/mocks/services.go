package mocks

import (
	"context"

	"event-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock Ledger
type Ledger struct {
	mock.Mock
}

func (m *Ledger) Register(ctx context.Context, eventID, userID uuid.UUID) (*models.RegistrationResult, error) {
	args := m.Called(ctx, eventID, userID)
	res, _ := args.Get(0).(*models.RegistrationResult)
	return res, args.Error(1)
}
func (m *Ledger) ListAssignees(ctx context.Context, eventID uuid.UUID) ([]models.User, error) {
	args := m.Called(ctx, eventID)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}
func (m *Ledger) ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	args := m.Called(ctx, userID)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

// Mock EventService
type EventService struct {
	mock.Mock
}

func (m *EventService) CreateEvent(ctx context.Context, input models.EventInput) (*models.Event, error) {
	args := m.Called(ctx, input)
	e, _ := args.Get(0).(*models.Event)
	return e, args.Error(1)
}
func (m *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.Event)
	return e, args.Error(1)
}
func (m *EventService) UpdateEvent(ctx context.Context, id uuid.UUID, input models.EventInput) (*models.Event, error) {
	args := m.Called(ctx, id, input)
	e, _ := args.Get(0).(*models.Event)
	return e, args.Error(1)
}
func (m *EventService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock SubscriptionService
type SubscriptionService struct {
	mock.Mock
}

func (m *SubscriptionService) SaveToken(ctx context.Context, userID uuid.UUID, token string) (*models.PushSubscription, error) {
	args := m.Called(ctx, userID, token)
	sub, _ := args.Get(0).(*models.PushSubscription)
	return sub, args.Error(1)
}
func (m *SubscriptionService) RemoveToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// Mock UserService
type UserService struct {
	mock.Mock
}

func (m *UserService) CreateUser(ctx context.Context, input models.CreateUserInput) (*models.User, error) {
	args := m.Called(ctx, input)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

// Mock TicketService
type TicketService struct {
	mock.Mock
}

func (m *TicketService) GetTicket(ctx context.Context, id string) (*models.TrackedTicket, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.TrackedTicket)
	return t, args.Error(1)
}
