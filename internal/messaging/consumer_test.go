package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"event-server/internal/messaging"
	"event-server/shared/database"
	pushMocks "event-server/shared/interfaces/mocks"
	"event-server/shared/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAcknowledger записывает ack/nack вместо отправки их брокеру.
type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(ack amqp.Acknowledger, tag uint64, body []byte) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: body}
}

func TestProcessor_ProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("Dispatches and acks", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		processor := messaging.NewProcessor(dispatcher, nil, zap.NewNop())
		ack := &fakeAcknowledger{}

		eventID := uuid.New()
		body, err := json.Marshal(models.EventCreatedMessage{EventID: eventID, Title: "Forum", PublishedAt: time.Now()})
		require.NoError(t, err)

		dispatcher.On("NotifyNewEvent", mock.Anything, mock.MatchedBy(func(e *models.Event) bool {
			return e.ID == eventID && e.Title == "Forum"
		})).Return(models.DispatchReport{EventID: eventID, Sent: 3}).Once()

		processor.ProcessMessage(ctx, delivery(ack, 7, body))

		dispatcher.AssertExpectations(t)
		assert.Equal(t, []uint64{7}, ack.acked)
		assert.Empty(t, ack.nacked)
	})

	t.Run("Failed dispatch is still acked", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		processor := messaging.NewProcessor(dispatcher, nil, zap.NewNop())
		ack := &fakeAcknowledger{}

		body, _ := json.Marshal(models.EventCreatedMessage{EventID: uuid.New(), Title: "Forum"})
		dispatcher.On("NotifyNewEvent", mock.Anything, mock.Anything).Return(models.DispatchReport{Failed: 10}).Once()

		processor.ProcessMessage(ctx, delivery(ack, 8, body))

		assert.Equal(t, []uint64{8}, ack.acked)
		assert.Empty(t, ack.nacked)
	})

	t.Run("Malformed JSON is rejected without requeue", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		processor := messaging.NewProcessor(dispatcher, nil, zap.NewNop())
		ack := &fakeAcknowledger{}

		processor.ProcessMessage(ctx, delivery(ack, 9, []byte("{not json")))

		dispatcher.AssertNotCalled(t, "NotifyNewEvent", mock.Anything, mock.Anything)
		assert.Equal(t, []uint64{9}, ack.nacked)
		assert.Equal(t, []bool{false}, ack.requeue)
		assert.Empty(t, ack.acked)
	})

	t.Run("Missing event id is rejected", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		processor := messaging.NewProcessor(dispatcher, nil, zap.NewNop())
		ack := &fakeAcknowledger{}

		processor.ProcessMessage(ctx, delivery(ack, 10, []byte(`{"title":"no id"}`)))

		dispatcher.AssertNotCalled(t, "NotifyNewEvent", mock.Anything, mock.Anything)
		assert.Equal(t, []uint64{10}, ack.nacked)
	})
}

type failingMarker struct{}

func (failingMarker) MarkDispatched(context.Context, uuid.UUID) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func eventCreatedBody(t *testing.T, eventID uuid.UUID) []byte {
	t.Helper()
	body, err := json.Marshal(models.EventCreatedMessage{EventID: eventID, Title: "Salon", PublishedAt: time.Now()})
	require.NoError(t, err)
	return body
}

func TestProcessor_Shutdown(t *testing.T) {
	t.Run("Message received after stop is requeued without dispatch", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		processor := messaging.NewProcessor(dispatcher, database.NewMemoryDispatchMarker(time.Hour), zap.NewNop())
		ack := &fakeAcknowledger{}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		processor.ProcessMessage(ctx, delivery(ack, 11, eventCreatedBody(t, uuid.New())))

		dispatcher.AssertNotCalled(t, "NotifyNewEvent", mock.Anything, mock.Anything)
		assert.Empty(t, ack.acked)
		assert.Equal(t, []uint64{11}, ack.nacked)
		assert.Equal(t, []bool{true}, ack.requeue)
	})

	t.Run("Requeued message is dispatched on the next delivery", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		marker := database.NewMemoryDispatchMarker(time.Hour)
		processor := messaging.NewProcessor(dispatcher, marker, zap.NewNop())
		ack := &fakeAcknowledger{}
		body := eventCreatedBody(t, uuid.New())

		stopped, cancel := context.WithCancel(context.Background())
		cancel()
		processor.ProcessMessage(stopped, delivery(ack, 12, body))

		dispatcher.On("NotifyNewEvent", mock.Anything, mock.Anything).Return(models.DispatchReport{Sent: 3}).Once()
		redelivered := delivery(ack, 13, body)
		redelivered.Redelivered = true
		processor.ProcessMessage(context.Background(), redelivered)

		dispatcher.AssertExpectations(t)
		assert.Equal(t, []uint64{13}, ack.acked)
	})

	t.Run("Stop during dispatch does not cancel it", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		processor := messaging.NewProcessor(dispatcher, nil, zap.NewNop())
		ack := &fakeAcknowledger{}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var dispatchErr error
		dispatcher.On("NotifyNewEvent", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				cancel()
				dispatchErr = args.Get(0).(context.Context).Err()
			}).
			Return(models.DispatchReport{Sent: 3}).Once()

		processor.ProcessMessage(ctx, delivery(ack, 14, eventCreatedBody(t, uuid.New())))

		dispatcher.AssertExpectations(t)
		assert.NoError(t, dispatchErr)
		assert.Equal(t, []uint64{14}, ack.acked)
		assert.Empty(t, ack.nacked)
	})
}

func TestProcessor_Redelivery(t *testing.T) {
	t.Run("Same event is dispatched once", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		processor := messaging.NewProcessor(dispatcher, database.NewMemoryDispatchMarker(time.Hour), zap.NewNop())
		ack := &fakeAcknowledger{}
		body := eventCreatedBody(t, uuid.New())

		dispatcher.On("NotifyNewEvent", mock.Anything, mock.Anything).Return(models.DispatchReport{Sent: 2}).Once()

		processor.ProcessMessage(context.Background(), delivery(ack, 21, body))
		again := delivery(ack, 22, body)
		again.Redelivered = true
		processor.ProcessMessage(context.Background(), again)

		dispatcher.AssertNumberOfCalls(t, "NotifyNewEvent", 1)
		assert.Equal(t, []uint64{21, 22}, ack.acked)
		assert.Empty(t, ack.nacked)
	})

	t.Run("Different events are not deduplicated", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		processor := messaging.NewProcessor(dispatcher, database.NewMemoryDispatchMarker(time.Hour), zap.NewNop())
		ack := &fakeAcknowledger{}

		dispatcher.On("NotifyNewEvent", mock.Anything, mock.Anything).Return(models.DispatchReport{Sent: 1}).Twice()

		processor.ProcessMessage(context.Background(), delivery(ack, 23, eventCreatedBody(t, uuid.New())))
		processor.ProcessMessage(context.Background(), delivery(ack, 24, eventCreatedBody(t, uuid.New())))

		dispatcher.AssertExpectations(t)
		assert.Equal(t, []uint64{23, 24}, ack.acked)
	})

	t.Run("Marker store failure still dispatches", func(t *testing.T) {
		dispatcher := new(pushMocks.EventDispatcher)
		processor := messaging.NewProcessor(dispatcher, failingMarker{}, zap.NewNop())
		ack := &fakeAcknowledger{}

		dispatcher.On("NotifyNewEvent", mock.Anything, mock.Anything).Return(models.DispatchReport{Sent: 1}).Once()

		processor.ProcessMessage(context.Background(), delivery(ack, 25, eventCreatedBody(t, uuid.New())))

		dispatcher.AssertExpectations(t)
		assert.Equal(t, []uint64{25}, ack.acked)
	})
}
