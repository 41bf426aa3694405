package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// DispatchMarker отмечает события, рассылка по которым уже запускалась.
type DispatchMarker interface {
	// MarkDispatched возвращает true, если отметка поставлена этим вызовом,
	// и false, если событие уже было отмечено раньше.
	MarkDispatched(ctx context.Context, eventID uuid.UUID) (bool, error)
}
