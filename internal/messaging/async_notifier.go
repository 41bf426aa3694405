package messaging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotifierQueueFull возвращается, когда буфер заданий заполнен и событие не принято.
var ErrNotifierQueueFull = errors.New("notifier queue is full")

// ErrNotifierClosed возвращается после Close.
var ErrNotifierClosed = errors.New("notifier is closed")

// DispatchError описывает цикл рассылки, в котором не все сообщения были приняты шлюзом.
type DispatchError struct {
	EventID uuid.UUID
	Report  models.DispatchReport
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch for event %s: %d of %d messages failed", e.EventID, e.Report.Failed, e.Report.Total())
}

var _ interfaces.NewEventNotifier = (*AsyncNotifier)(nil)

// AsyncNotifier выполняет рассылку в пуле горутин процесса, не блокируя создание события.
// Сбои рассылки публикуются в Errors(); если их никто не читает, они отбрасываются.
type AsyncNotifier struct {
	dispatcher interfaces.EventDispatcher
	jobs       chan *models.Event
	errs       chan error
	logger     *zap.Logger

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAsyncNotifier(dispatcher interfaces.EventDispatcher, queueSize, workers int, logger *zap.Logger) *AsyncNotifier {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	n := &AsyncNotifier{
		dispatcher: dispatcher,
		jobs:       make(chan *models.Event, queueSize),
		errs:       make(chan error, queueSize),
		logger:     logger.Named("AsyncNotifier"),
		ctx:        ctx,
		cancel:     cancel,
	}
	n.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go n.worker(i)
	}
	n.logger.Info("AsyncNotifier запущен", zap.Int("workers", workers), zap.Int("queueSize", queueSize))
	return n
}

// NotifyEventCreated ставит событие в очередь и сразу возвращается.
// Контекст запроса не передается воркеру: рассылка переживает завершение запроса.
func (n *AsyncNotifier) NotifyEventCreated(_ context.Context, event *models.Event) error {
	if event == nil {
		return fmt.Errorf("%w: nil event", models.ErrInvalidInput)
	}
	snapshot := *event
	snapshot.Assignes = slices.Clone(event.Assignes)

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierClosed
	}
	select {
	case n.jobs <- &snapshot:
		return nil
	default:
		notifierDroppedTotal.Inc()
		n.logger.Warn("Очередь рассылки заполнена, событие пропущено", zap.String("eventID", event.ID.String()))
		return ErrNotifierQueueFull
	}
}

// Errors возвращает канал сбоев рассылки. Канал закрывается после Close.
func (n *AsyncNotifier) Errors() <-chan error {
	return n.errs
}

func (n *AsyncNotifier) worker(id int) {
	defer n.wg.Done()
	log := n.logger.With(zap.Int("worker_id", id))
	for event := range n.jobs {
		report := n.dispatchSafely(event, log)
		if report.Failed > 0 {
			n.publishError(&DispatchError{EventID: event.ID, Report: report})
		}
	}
}

func (n *AsyncNotifier) dispatchSafely(event *models.Event, log *zap.Logger) (report models.DispatchReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in notification worker", zap.Any("panic", r), zap.String("eventID", event.ID.String()))
			n.publishError(fmt.Errorf("dispatch for event %s panicked: %v", event.ID, r))
		}
	}()
	return n.dispatcher.NotifyNewEvent(n.ctx, event)
}

func (n *AsyncNotifier) publishError(err error) {
	select {
	case n.errs <- err:
	default:
		n.logger.Debug("Errors channel is full, dropping", zap.Error(err))
	}
}

// Close перестает принимать события и ждет, пока воркеры разберут очередь.
// Если ctx истекает раньше, текущие рассылки отменяются.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.jobs)
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		n.cancel()
		<-done
		err = ctx.Err()
	}
	n.cancel()
	close(n.errs)
	n.logger.Info("AsyncNotifier остановлен")
	return err
}
