package gateway

import (
	"context"
	"fmt"
	"regexp"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
	"go.uber.org/zap"
)

// APNS не имеет батчевого API, батч - это просто порция последовательных запросов по HTTP/2.
const APNSMaxBatchSize = 100

var apnsTokenRe = regexp.MustCompile(`^[0-9a-fA-F]{64,200}$`)

// apnsClient - часть *apns2.Client, которой пользуется шлюз.
type apnsClient interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNSOptions - параметры токен-аутентификации APNS.
type APNSOptions struct {
	KeyPath    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
	BatchSize  int
}

// Compile-time check to ensure APNSGateway implements PushGateway
var _ interfaces.PushGateway = (*APNSGateway)(nil)

type APNSGateway struct {
	client    apnsClient
	topic     string
	batchSize int
	logger    *zap.Logger
}

// NewAPNSGateway создает шлюз APNS. Требует KeyPath, KeyID, TeamID, Topic.
func NewAPNSGateway(opts APNSOptions, logger *zap.Logger) (*APNSGateway, error) {
	if opts.KeyPath == "" || opts.KeyID == "" || opts.TeamID == "" || opts.Topic == "" {
		return nil, fmt.Errorf("APNS config is incomplete (KeyPath, KeyID, TeamID, Topic are required)")
	}
	authKey, err := token.AuthKeyFromFile(opts.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа APNS из файла %s: %w", opts.KeyPath, err)
	}
	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   opts.KeyID,
		TeamID:  opts.TeamID,
	})
	if opts.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	logger.Info("APNS gateway initialized",
		zap.String("key_id", opts.KeyID),
		zap.String("team_id", opts.TeamID),
		zap.String("topic", opts.Topic),
		zap.Bool("production", opts.Production),
	)
	return newAPNSGatewayWithClient(client, opts.Topic, opts.BatchSize, logger), nil
}

func newAPNSGatewayWithClient(client apnsClient, topic string, batchSize int, logger *zap.Logger) *APNSGateway {
	return &APNSGateway{
		client:    client,
		topic:     topic,
		batchSize: effectiveBatchSize(batchSize, APNSMaxBatchSize),
		logger:    logger.Named("apns_gateway"),
	}
}

func (g *APNSGateway) Name() string { return "apns" }

func (g *APNSGateway) IsValidToken(token string) bool {
	return apnsTokenRe.MatchString(token) && len(token)%2 == 0
}

func (g *APNSGateway) MaxBatchSize() int { return g.batchSize }

func (g *APNSGateway) Chunk(messages []models.PushMessage) [][]models.PushMessage {
	return chunkMessages(messages, g.batchSize)
}

// SendBatch шлет сообщения по одному. Если ни одно не дошло до APNS из-за сетевой ошибки,
// батч считается упавшим целиком.
func (g *APNSGateway) SendBatch(ctx context.Context, batch []models.PushMessage) ([]models.DeliveryTicket, error) {
	tickets := make([]models.DeliveryTicket, len(batch))
	transportFailures := 0
	var lastErr error

	for i, m := range batch {
		p := payload.NewPayload().
			AlertTitle(m.Title).
			AlertBody(m.Body).
			Sound(m.Sound)
		for k, v := range m.Data {
			p.Custom(k, v)
		}

		res, err := g.client.PushWithContext(ctx, &apns2.Notification{
			DeviceToken: m.To,
			Topic:       g.topic,
			Payload:     p,
			Priority:    apns2.PriorityHigh,
		})
		tickets[i] = models.DeliveryTicket{Token: m.To}
		if err != nil {
			transportFailures++
			lastErr = err
			tickets[i].Status = models.TicketStatusError
			tickets[i].Error = err.Error()
			continue
		}

		tickets[i].ID = res.ApnsID
		if res.Sent() {
			tickets[i].Status = models.TicketStatusOK
			continue
		}
		tickets[i].Status = models.TicketStatusError
		tickets[i].Error = res.Reason
		if res.Reason == apns2.ReasonUnregistered || res.Reason == apns2.ReasonBadDeviceToken {
			tickets[i].Error = models.TicketErrDeviceNotRegistered
		}
		g.logger.Debug("APNS уведомление не отправлено",
			zap.Int("status_code", res.StatusCode),
			zap.String("apns_id", res.ApnsID),
			zap.String("reason", res.Reason),
		)
	}

	if len(batch) > 0 && transportFailures == len(batch) {
		g.logger.Error("All APNS pushes in batch failed", zap.Int("batch_size", len(batch)), zap.Error(lastErr))
		return nil, fmt.Errorf("%w: %v", models.ErrGatewayTransport, lastErr)
	}
	return tickets, nil
}
