package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// processTimeout ограничивает один цикл рассылки, запущенный из очереди.
const processTimeout = 2 * time.Minute

// Consumer читает event_created и передает события в Processor.
type Consumer struct {
	conn        *amqp.Connection
	logger      *zap.Logger
	queueName   string
	concurrency int
	prefetch    int
	processor   *Processor
	stopChannel chan struct{}
	stopOnce    sync.Once
	started     atomic.Bool
	finished    chan struct{}
	wg          sync.WaitGroup
}

func NewConsumer(conn *amqp.Connection, queueName string, concurrency, prefetch int, processor *Processor, logger *zap.Logger) (*Consumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if prefetch < concurrency {
		prefetch = concurrency
	}
	return &Consumer{
		conn:        conn,
		logger:      logger.Named("consumer").With(zap.String("queue", queueName)),
		queueName:   queueName,
		concurrency: concurrency,
		prefetch:    prefetch,
		processor:   processor,
		stopChannel: make(chan struct{}),
		finished:    make(chan struct{}),
	}, nil
}

// Start блокируется до вызова Stop или закрытия канала доставки.
func (c *Consumer) Start() error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("consumer is already started")
	}
	defer close(c.finished)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch, c.queueName); err != nil {
		return err
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("не удалось установить QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,
		"event-created-consumer", // consumer tag
		false,                    // auto-ack
		false,                    // exclusive
		false,                    // no-local
		false,                    // no-wait
		nil,                      // args
	)
	if err != nil {
		return fmt.Errorf("не удалось зарегистрировать консьюмера: %w", err)
	}
	c.logger.Info("Консьюмер запущен, ожидание сообщений...", zap.Int("concurrency", c.concurrency))

	done := make(chan struct{})
	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			log := c.logger.With(zap.Int("worker_id", workerID))
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						log.Info("Канал сообщений закрыт, воркер завершает работу")
						return
					}
					c.processor.ProcessMessage(ctx, d)
				}
			}
		}(i)
	}
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-c.stopChannel:
		c.logger.Info("Получен сигнал остановки, отменяем контекст воркеров...")
		cancel()
		<-done
	case <-done:
		c.logger.Warn("Все воркеры завершились до сигнала остановки")
	}
	c.logger.Info("Все воркеры консьюмера остановлены")
	return nil
}

// Stop прекращает прием сообщений и ждет, пока воркеры доведут начатые рассылки,
// но не дольше, чем позволяет ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	c.stopOnce.Do(func() {
		c.logger.Info("Инициирована остановка консьюмера...")
		close(c.stopChannel)
	})
	if !c.started.Load() {
		return nil
	}
	select {
	case <-c.finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("consumer did not stop in time: %w", ctx.Err())
	}
}

// Processor превращает сообщение очереди в вызов EventDispatcher.
type Processor struct {
	dispatcher interfaces.EventDispatcher
	marker     interfaces.DispatchMarker
	logger     *zap.Logger
}

// NewProcessor создает обработчик. С marker == nil повторные доставки не отсекаются.
func NewProcessor(dispatcher interfaces.EventDispatcher, marker interfaces.DispatchMarker, logger *zap.Logger) *Processor {
	return &Processor{
		dispatcher: dispatcher,
		marker:     marker,
		logger:     logger.Named("processor"),
	}
}

// ProcessMessage подтверждает сообщение после рассылки: NotifyNewEvent не возвращает ошибок.
// Сообщение, полученное после остановки консьюмера, возвращается в очередь без рассылки.
// Рассылка по событию запускается не больше одного раза на отметку DispatchMarker.
// Нечитаемое сообщение отклоняется без повтора.
func (p *Processor) ProcessMessage(ctx context.Context, d amqp.Delivery) {
	log := p.logger.With(zap.Uint64("delivery_tag", d.DeliveryTag), zap.Bool("redelivered", d.Redelivered))

	var msg models.EventCreatedMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.EventID == uuid.Nil {
		log.Error("Некорректное сообщение event_created", zap.Error(err), zap.ByteString("body", d.Body))
		messagesConsumedTotal.WithLabelValues("rejected").Inc()
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("Ошибка Nack сообщения", zap.Error(nackErr))
		}
		return
	}
	log = log.With(zap.String("eventID", msg.EventID.String()))

	if ctx.Err() != nil {
		log.Info("Консьюмер остановлен, сообщение возвращается в очередь")
		messagesConsumedTotal.WithLabelValues("requeued").Inc()
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("Ошибка Nack сообщения", zap.Error(nackErr))
		}
		return
	}

	if p.marker != nil {
		claimed, err := p.marker.MarkDispatched(ctx, msg.EventID)
		switch {
		case err != nil:
			// Ошибка хранилища отметок не блокирует рассылку.
			log.Warn("Не удалось поставить отметку рассылки, продолжаем без нее", zap.Error(err))
		case !claimed:
			log.Info("Рассылка по событию уже запускалась, сообщение пропущено")
			messagesConsumedTotal.WithLabelValues("duplicate").Inc()
			if ackErr := d.Ack(false); ackErr != nil {
				log.Error("Ошибка Ack сообщения", zap.Error(ackErr))
			}
			return
		}
	}

	// Начатая рассылка доводится до конца даже при остановке консьюмера.
	processCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), processTimeout)
	defer cancel()

	report := p.dispatcher.NotifyNewEvent(processCtx, msg.ToEvent())
	messagesConsumedTotal.WithLabelValues("dispatched").Inc()

	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("Ошибка Ack сообщения", zap.Error(ackErr))
		return
	}
	log.Info("Сообщение обработано",
		zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
}
