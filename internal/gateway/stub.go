package gateway

import (
	"context"
	"strings"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const StubMaxBatchSize = 100

var _ interfaces.PushGateway = (*StubGateway)(nil)

// StubGateway ничего не отправляет: логирует батч и принимает каждое сообщение.
// Используется локально и в окружениях без ключей провайдера.
type StubGateway struct {
	batchSize int
	logger    *zap.Logger
}

func NewStubGateway(batchSize int, logger *zap.Logger) *StubGateway {
	return &StubGateway{
		batchSize: effectiveBatchSize(batchSize, StubMaxBatchSize),
		logger:    logger.Named("stub_gateway"),
	}
}

func (g *StubGateway) Name() string { return "stub" }

func (g *StubGateway) IsValidToken(token string) bool {
	return strings.TrimSpace(token) != ""
}

func (g *StubGateway) MaxBatchSize() int { return g.batchSize }

func (g *StubGateway) Chunk(messages []models.PushMessage) [][]models.PushMessage {
	return chunkMessages(messages, g.batchSize)
}

func (g *StubGateway) SendBatch(ctx context.Context, batch []models.PushMessage) ([]models.DeliveryTicket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tickets := make([]models.DeliveryTicket, len(batch))
	for i, m := range batch {
		tickets[i] = models.DeliveryTicket{
			ID:     uuid.NewString(),
			Token:  m.To,
			Status: models.TicketStatusOK,
		}
	}
	if len(batch) > 0 {
		g.logger.Info("ЗАГЛУШКА: отправка push-батча",
			zap.Int("batch_size", len(batch)),
			zap.String("title", batch[0].Title),
			zap.String("body", batch[0].Body),
		)
	}
	return tickets, nil
}
