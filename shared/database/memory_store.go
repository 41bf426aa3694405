package database

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	_ interfaces.EventStore        = (*MemoryStore)(nil)
	_ interfaces.UserRepository    = (*MemoryStore)(nil)
	_ interfaces.SubscriptionStore = (*MemoryStore)(nil)
)

// eventState - неизменяемый снимок события. Любое изменение публикует новый снимок через CAS.
type eventState struct {
	event   models.Event
	deleted bool
}

type eventRecord struct {
	state atomic.Pointer[eventState]
}

// MemoryStore хранит события, пользователей и подписки в памяти процесса.
// Используется в тестах и при запуске без DATABASE_URL.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*eventRecord
	users  map[uuid.UUID]models.User
	emails map[string]uuid.UUID
	subs   map[uuid.UUID]models.PushSubscription

	now    func() time.Time
	logger *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		events: make(map[uuid.UUID]*eventRecord),
		users:  make(map[uuid.UUID]models.User),
		emails: make(map[string]uuid.UUID),
		subs:   make(map[uuid.UUID]models.PushSubscription),
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.Named("MemoryStore"),
	}
}

func (s *MemoryStore) record(id uuid.UUID) (*eventRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.events[id]
	return rec, ok
}

func cloneEvent(e models.Event) models.Event {
	e.Assignes = slices.Clone(e.Assignes)
	return e
}

// --- events ---

func (s *MemoryStore) CreateEvent(_ context.Context, event *models.Event) error {
	if event.Capacity != 0 && len(event.Assignes) > event.Capacity {
		return fmt.Errorf("%w: events_capacity_check", models.ErrInvalidInput)
	}
	event.ID = uuid.New()
	event.CreatedAt = s.now()
	if event.Assignes == nil {
		event.Assignes = []uuid.UUID{}
	}

	rec := &eventRecord{}
	rec.state.Store(&eventState{event: cloneEvent(*event)})

	s.mu.Lock()
	s.events[event.ID] = rec
	s.mu.Unlock()

	s.logger.Debug("Event created", zap.String("eventID", event.ID.String()))
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	rec, ok := s.record(id)
	if !ok {
		return nil, models.ErrEventNotFound
	}
	st := rec.state.Load()
	if st.deleted {
		return nil, models.ErrEventNotFound
	}
	e := cloneEvent(st.event)
	return &e, nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, id uuid.UUID, input models.EventInput) (*models.Event, error) {
	rec, ok := s.record(id)
	if !ok {
		return nil, models.ErrEventNotFound
	}
	for {
		cur := rec.state.Load()
		if cur.deleted {
			return nil, models.ErrEventNotFound
		}
		if input.Capacity != 0 && len(cur.event.Assignes) > input.Capacity {
			return nil, fmt.Errorf("%w: events_capacity_check", models.ErrInvalidInput)
		}
		next := cloneEvent(cur.event)
		input.Apply(&next)
		if rec.state.CompareAndSwap(cur, &eventState{event: next}) {
			out := cloneEvent(next)
			return &out, nil
		}
	}
}

func (s *MemoryStore) DeleteEvent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	rec, ok := s.events[id]
	if ok {
		delete(s.events, id)
	}
	s.mu.Unlock()
	if !ok {
		return models.ErrEventNotFound
	}

	// Запись, успевшая получить rec до удаления из map, увидит deleted и вернет NotFound.
	for {
		cur := rec.state.Load()
		if cur.deleted {
			return models.ErrEventNotFound
		}
		if rec.state.CompareAndSwap(cur, &eventState{event: cur.event, deleted: true}) {
			return nil
		}
	}
}

// TryRegister публикует новый снимок с добавленным userID, если проверки прошли на том же снимке.
func (s *MemoryStore) TryRegister(_ context.Context, eventID, userID uuid.UUID) (int, error) {
	rec, ok := s.record(eventID)
	if !ok {
		return 0, models.ErrEventNotFound
	}
	for {
		cur := rec.state.Load()
		switch {
		case cur.deleted:
			return 0, models.ErrEventNotFound
		case cur.event.IsFull():
			return 0, &models.RegistrationConflict{Reason: models.ConflictFull, EventID: eventID, UserID: userID}
		case cur.event.HasAssignee(userID):
			return 0, &models.RegistrationConflict{Reason: models.ConflictAlreadyRegistered, EventID: eventID, UserID: userID}
		}

		next := cur.event
		next.Assignes = append(slices.Clone(cur.event.Assignes), userID)
		if rec.state.CompareAndSwap(cur, &eventState{event: next}) {
			return len(next.Assignes), nil
		}
	}
}

func (s *MemoryStore) ListAssignees(_ context.Context, eventID uuid.UUID) ([]models.User, error) {
	rec, ok := s.record(eventID)
	if !ok {
		return []models.User{}, nil
	}
	st := rec.state.Load()
	if st.deleted {
		return []models.User{}, nil
	}

	s.mu.RLock()
	users := make([]models.User, 0, len(st.event.Assignes))
	for _, id := range st.event.Assignes {
		if u, ok := s.users[id]; ok {
			users = append(users, u)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(users, func(a, b models.User) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return users, nil
}

func (s *MemoryStore) ListEventsForUser(_ context.Context, userID uuid.UUID) ([]models.Event, error) {
	s.mu.RLock()
	events := make([]models.Event, 0)
	for _, rec := range s.events {
		st := rec.state.Load()
		if !st.deleted && st.event.HasAssignee(userID) {
			events = append(events, cloneEvent(st.event))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(events, func(a, b models.Event) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return events, nil
}

// --- users ---

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	key := strings.ToLower(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.emails[key]; exists {
		return models.ErrEmailAlreadyExists
	}
	user.ID = uuid.New()
	user.CreatedAt = s.now()
	if user.Interests == nil {
		user.Interests = []string{}
	}
	s.users[user.ID] = *user
	s.emails[key] = user.ID
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &u, nil
}

// --- push subscriptions ---

func (s *MemoryStore) UpsertSubscription(_ context.Context, userID uuid.UUID, token string) (*models.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, models.ErrUserNotFound
	}
	sub := models.PushSubscription{UserID: userID, Token: token, UpdatedAt: s.now()}
	s.subs[userID] = sub
	return &sub, nil
}

func (s *MemoryStore) ListActiveSubscriptions(_ context.Context) ([]models.PushSubscription, error) {
	s.mu.RLock()
	subs := make([]models.PushSubscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	slices.SortFunc(subs, func(a, b models.PushSubscription) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.UserID.String(), b.UserID.String())
	})
	return subs, nil
}

func (s *MemoryStore) DeleteSubscriptionByToken(_ context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for userID, sub := range s.subs {
		if sub.Token == token {
			delete(s.subs, userID)
			deleted++
		}
	}
	return deleted, nil
}
