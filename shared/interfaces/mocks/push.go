package mocks

import (
	"context"

	"event-server/shared/models"

	"github.com/stretchr/testify/mock"
)

// Mock PushGateway. Chunk режет по MaxBatchSize, если для него не задано ожидание.
type PushGateway struct {
	mock.Mock
}

func (m *PushGateway) Name() string {
	return "mock"
}
func (m *PushGateway) IsValidToken(token string) bool {
	args := m.Called(token)
	return args.Bool(0)
}
func (m *PushGateway) MaxBatchSize() int {
	args := m.Called()
	return args.Int(0)
}
func (m *PushGateway) Chunk(messages []models.PushMessage) [][]models.PushMessage {
	size := m.MaxBatchSize()
	var chunks [][]models.PushMessage
	for start := 0; start < len(messages); start += size {
		end := min(start+size, len(messages))
		chunks = append(chunks, messages[start:end])
	}
	return chunks
}
func (m *PushGateway) SendBatch(ctx context.Context, batch []models.PushMessage) ([]models.DeliveryTicket, error) {
	args := m.Called(ctx, batch)
	tickets, _ := args.Get(0).([]models.DeliveryTicket)
	return tickets, args.Error(1)
}

// Mock NewEventNotifier
type NewEventNotifier struct {
	mock.Mock
}

func (m *NewEventNotifier) NotifyEventCreated(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Mock EventDispatcher
type EventDispatcher struct {
	mock.Mock
}

func (m *EventDispatcher) NotifyNewEvent(ctx context.Context, event *models.Event) models.DispatchReport {
	args := m.Called(ctx, event)
	report, _ := args.Get(0).(models.DispatchReport)
	return report
}
