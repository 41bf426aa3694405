package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Убедимся, что publisher реализует интерфейс
var _ interfaces.NewEventNotifier = (*EventCreatedPublisher)(nil)

// EventCreatedPublisher кладет созданные события в очередь event_created.
// Рассылку выполняет Consumer, возможно в другом процессе.
type EventCreatedPublisher struct {
	conn      *amqp.Connection
	queueName string
	logger    *zap.Logger
}

func NewEventCreatedPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*EventCreatedPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}
	p := &EventCreatedPublisher{
		conn:      conn,
		queueName: queueName,
		logger:    logger.Named("EventCreatedPublisher").With(zap.String("queue", queueName)),
	}
	if err := p.verifyQueue(); err != nil {
		return nil, fmt.Errorf("failed to verify queue %s on init: %w", queueName, err)
	}
	p.logger.Info("EventCreatedPublisher инициализирован")
	return p, nil
}

func (p *EventCreatedPublisher) verifyQueue() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()
	return declareQueue(ch, p.queueName)
}

// declareQueue объявляет durable очередь; параметры должны совпадать у publisher и consumer.
func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue '%s': %w", name, err)
	}
	return nil
}

// NotifyEventCreated публикует событие. Публикация не привязана к отмене запроса,
// но ограничена publishTimeout.
func (p *EventCreatedPublisher) NotifyEventCreated(ctx context.Context, event *models.Event) error {
	if event == nil {
		return fmt.Errorf("%w: nil event", models.ErrInvalidInput)
	}
	log := p.logger.With(zap.String("eventID", event.ID.String()))

	body, err := json.Marshal(models.NewEventCreatedMessage(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event_created message: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		log.Error("Не удалось открыть канал для публикации", zap.Error(err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(pubCtx,
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    event.ID.String(),
			Body:         body,
		},
	)
	if err != nil {
		log.Error("Ошибка публикации event_created", zap.Error(err))
		return fmt.Errorf("failed to publish event_created message: %w", err)
	}
	messagesPublishedTotal.Inc()
	log.Info("Событие event_created опубликовано")
	return nil
}
