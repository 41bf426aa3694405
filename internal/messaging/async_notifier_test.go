package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"event-server/internal/messaging"
	pushMocks "event-server/shared/interfaces/mocks"
	"event-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAsyncNotifier_DispatchesInBackground(t *testing.T) {
	dispatcher := new(pushMocks.EventDispatcher)
	notifier := messaging.NewAsyncNotifier(dispatcher, 4, 2, zap.NewNop())

	event := &models.Event{ID: uuid.New(), Title: "Atelier"}
	done := make(chan struct{})
	dispatcher.On("NotifyNewEvent", mock.Anything, mock.MatchedBy(func(e *models.Event) bool {
		return e.ID == event.ID
	})).Return(models.DispatchReport{EventID: event.ID, Sent: 1}).Run(func(mock.Arguments) {
		close(done)
	}).Once()

	reqCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, notifier.NotifyEventCreated(reqCtx, event))
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch was not executed")
	}
	require.NoError(t, notifier.Close(context.Background()))
	dispatcher.AssertExpectations(t)
}

func TestAsyncNotifier_ReportsFailedDispatch(t *testing.T) {
	dispatcher := new(pushMocks.EventDispatcher)
	notifier := messaging.NewAsyncNotifier(dispatcher, 4, 1, zap.NewNop())

	eventID := uuid.New()
	dispatcher.On("NotifyNewEvent", mock.Anything, mock.Anything).
		Return(models.DispatchReport{EventID: eventID, Sent: 2, Failed: 3}).Once()

	require.NoError(t, notifier.NotifyEventCreated(context.Background(), &models.Event{ID: eventID}))

	select {
	case err := <-notifier.Errors():
		var dispatchErr *messaging.DispatchError
		require.True(t, errors.As(err, &dispatchErr))
		assert.Equal(t, eventID, dispatchErr.EventID)
		assert.Equal(t, 3, dispatchErr.Report.Failed)
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
	require.NoError(t, notifier.Close(context.Background()))

	_, open := <-notifier.Errors()
	assert.False(t, open, "errors channel is closed after Close")
}

func TestAsyncNotifier_DropsWhenFull(t *testing.T) {
	dispatcher := new(pushMocks.EventDispatcher)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	dispatcher.On("NotifyNewEvent", mock.Anything, mock.Anything).Return(models.DispatchReport{}).Run(func(mock.Arguments) {
		started <- struct{}{}
		<-release
	})

	notifier := messaging.NewAsyncNotifier(dispatcher, 1, 1, zap.NewNop())

	// Первое событие занимает воркер, второе - буфер, третье не помещается.
	require.NoError(t, notifier.NotifyEventCreated(context.Background(), &models.Event{ID: uuid.New()}))
	<-started
	require.NoError(t, notifier.NotifyEventCreated(context.Background(), &models.Event{ID: uuid.New()}))
	err := notifier.NotifyEventCreated(context.Background(), &models.Event{ID: uuid.New()})
	assert.ErrorIs(t, err, messaging.ErrNotifierQueueFull)

	close(release)
	require.NoError(t, notifier.Close(context.Background()))
	dispatcher.AssertNumberOfCalls(t, "NotifyNewEvent", 2)

	assert.ErrorIs(t, notifier.NotifyEventCreated(context.Background(), &models.Event{ID: uuid.New()}), messaging.ErrNotifierClosed)
}

func TestAsyncNotifier_RejectsNilEvent(t *testing.T) {
	notifier := messaging.NewAsyncNotifier(new(pushMocks.EventDispatcher), 1, 1, zap.NewNop())
	defer notifier.Close(context.Background())

	assert.ErrorIs(t, notifier.NotifyEventCreated(context.Background(), nil), models.ErrInvalidInput)
}
