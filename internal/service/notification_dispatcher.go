package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"event-server/shared/interfaces"
	"event-server/shared/models"
	"event-server/shared/notifications"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDispatchParallelism = 4
	defaultBatchTimeout        = 10 * time.Second
)

// DispatcherOptions - параметры рассылки, берутся из config.PushConfig.
type DispatcherOptions struct {
	Parallelism       int
	BatchTimeout      time.Duration
	Locale            string
	PruneUnregistered bool
}

// Убедимся, что notificationDispatcher реализует интерфейс
var _ interfaces.EventDispatcher = (*notificationDispatcher)(nil)

type notificationDispatcher struct {
	subs    interfaces.SubscriptionStore
	gateway interfaces.PushGateway
	tracker *DeliveryTracker // nil - тикеты только логируются
	opts    DispatcherOptions
	logger  *zap.Logger
}

func NewNotificationDispatcher(
	subs interfaces.SubscriptionStore,
	gateway interfaces.PushGateway,
	tracker *DeliveryTracker,
	opts DispatcherOptions,
	logger *zap.Logger,
) interfaces.EventDispatcher {
	if opts.Parallelism <= 0 {
		opts.Parallelism = defaultDispatchParallelism
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = defaultBatchTimeout
	}
	return &notificationDispatcher{
		subs:    subs,
		gateway: gateway,
		tracker: tracker,
		opts:    opts,
		logger:  logger.Named("notification_dispatcher").With(zap.String("gateway", gateway.Name())),
	}
}

// NotifyNewEvent рассылает уведомление о новом событии всем подпискам.
// Ошибки не возвращаются: каждая подписка попадает ровно в один из счетчиков отчета.
func (d *notificationDispatcher) NotifyNewEvent(ctx context.Context, event *models.Event) (report models.DispatchReport) {
	if event != nil {
		report.EventID = event.ID
	}
	log := d.logger.With(zap.String("eventID", report.EventID.String()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic during notification dispatch",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	subs, err := d.subs.ListActiveSubscriptions(ctx)
	if err != nil {
		log.Error("Failed to load push subscriptions, nothing dispatched", zap.Error(err))
		return report
	}
	if len(subs) == 0 {
		log.Info("No push subscriptions, nothing to dispatch")
		return report
	}

	content, err := notifications.BuildNewEventContent(event, d.opts.Locale)
	if err != nil {
		log.Error("Failed to build push content, all subscriptions marked failed", zap.Error(err))
		report.Failed = len(subs)
		d.observe(report)
		return report
	}

	messages := make([]models.PushMessage, 0, len(subs))
	for _, sub := range subs {
		if !d.gateway.IsValidToken(sub.Token) {
			log.Debug("Skipping invalid push token", zap.String("userID", sub.UserID.String()))
			report.Skipped++
			continue
		}
		messages = append(messages, content.Message(sub.Token))
	}

	batches := d.gateway.Chunk(messages)
	report.Batches = len(batches)
	results := d.sendAll(ctx, batches)

	for i, tickets := range results {
		for _, t := range tickets {
			if t.Status == models.TicketStatusOK {
				report.Sent++
			} else {
				report.Failed++
				log.Debug("Push ticket failed",
					zap.Int("batch", i),
					zap.String("ticketID", t.ID),
					zap.String("error", t.Error),
				)
			}
		}
		report.Tickets = append(report.Tickets, tickets...)
	}

	if d.tracker != nil {
		if _, err := d.tracker.Record(ctx, report.EventID, report.Tickets); err != nil {
			log.Warn("Delivery tickets were not recorded", zap.Error(err))
		}
	}
	if d.opts.PruneUnregistered {
		d.pruneUnregistered(ctx, report.Tickets)
	}

	d.observe(report)
	log.Info("Notification dispatch finished",
		zap.Int("subscriptions", len(subs)),
		zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("batches", report.Batches),
	)
	return report
}

// sendAll отправляет батчи не более чем opts.Parallelism одновременно.
// Результат i-го батча лежит в results[i] независимо от порядка завершения.
func (d *notificationDispatcher) sendAll(ctx context.Context, batches [][]models.PushMessage) [][]models.DeliveryTicket {
	results := make([][]models.DeliveryTicket, len(batches))
	var g errgroup.Group
	g.SetLimit(d.opts.Parallelism)
	for i, batch := range batches {
		g.Go(func() error {
			results[i] = d.sendBatch(ctx, i, batch)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// sendBatch всегда возвращает ровно len(batch) тикетов.
func (d *notificationDispatcher) sendBatch(ctx context.Context, index int, batch []models.PushMessage) (tickets []models.DeliveryTicket) {
	start := time.Now()
	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Panic while sending push batch", zap.Int("batch", index), zap.Any("panic", r))
			tickets = failedTickets(batch)
			result = "panic"
		}
		dispatchBatchDuration.WithLabelValues(d.gateway.Name(), result).Observe(time.Since(start).Seconds())
	}()

	batchCtx, cancel := context.WithTimeout(ctx, d.opts.BatchTimeout)
	defer cancel()

	got, err := d.gateway.SendBatch(batchCtx, batch)
	if err == nil && len(got) != len(batch) {
		err = fmt.Errorf("%w: %d tickets for %d messages", models.ErrGatewayTransport, len(got), len(batch))
	}
	if err != nil {
		result = "error"
		d.logger.Warn("Push batch failed",
			zap.Int("batch", index),
			zap.Int("size", len(batch)),
			zap.Error(err),
		)
		return failedTickets(batch)
	}

	for i := range got {
		if got[i].Token == "" {
			got[i].Token = batch[i].To
		}
	}
	return got
}

func failedTickets(batch []models.PushMessage) []models.DeliveryTicket {
	tickets := make([]models.DeliveryTicket, len(batch))
	for i, msg := range batch {
		tickets[i] = models.DeliveryTicket{
			Token:  msg.To,
			Status: models.TicketStatusError,
			Error:  models.TicketErrBatchFailed,
		}
	}
	return tickets
}

func (d *notificationDispatcher) pruneUnregistered(ctx context.Context, tickets []models.DeliveryTicket) {
	for _, t := range tickets {
		if t.Status != models.TicketStatusError || t.Error != models.TicketErrDeviceNotRegistered {
			continue
		}
		n, err := d.subs.DeleteSubscriptionByToken(ctx, t.Token)
		if err != nil {
			d.logger.Warn("Failed to prune unregistered push token", zap.Error(err))
			continue
		}
		prunedSubscriptionsTotal.Add(float64(n))
	}
}

func (d *notificationDispatcher) observe(report models.DispatchReport) {
	name := d.gateway.Name()
	dispatchMessagesTotal.WithLabelValues(name, "sent").Add(float64(report.Sent))
	dispatchMessagesTotal.WithLabelValues(name, "skipped").Add(float64(report.Skipped))
	dispatchMessagesTotal.WithLabelValues(name, "failed").Add(float64(report.Failed))
}
