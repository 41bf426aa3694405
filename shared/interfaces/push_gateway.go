package interfaces

import (
	"context"

	"event-server/shared/models"
)

// PushGateway - клиент стороннего push-шлюза.
// Создается один раз при старте и передается в диспетчер явно.
type PushGateway interface {
	// Name returns a short provider name for logs and metrics.
	Name() string
	// IsValidToken проверяет синтаксис токена по правилам шлюза.
	IsValidToken(token string) bool
	// MaxBatchSize - максимальный размер батча для одного вызова SendBatch.
	MaxBatchSize() int
	// Chunk режет сообщения на батчи не больше MaxBatchSize, сохраняя порядок.
	Chunk(messages []models.PushMessage) [][]models.PushMessage
	// SendBatch отправляет батч и возвращает по одному тикету на сообщение в том же порядке.
	// Ошибка означает сбой всего батча.
	SendBatch(ctx context.Context, batch []models.PushMessage) ([]models.DeliveryTicket, error)
}
