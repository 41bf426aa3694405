package gateway

import (
	"context"
	"fmt"
	"regexp"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	firebase "firebase.google.com/go/v4"
	fcm "firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FCMMaxBatchSize - лимит SendEach в Firebase Admin SDK.
const FCMMaxBatchSize = 500

// RE2 не допускает повторов больше 1000, длину проверяем отдельно.
const (
	fcmMinTokenLen = 32
	fcmMaxTokenLen = 4096
)

var fcmTokenRe = regexp.MustCompile(`^[A-Za-z0-9_:\-]+$`)

// fcmClient - часть *messaging.Client, которой пользуется шлюз.
type fcmClient interface {
	SendEach(ctx context.Context, messages []*fcm.Message) (*fcm.BatchResponse, error)
}

// Compile-time check to ensure FCMGateway implements PushGateway
var _ interfaces.PushGateway = (*FCMGateway)(nil)

// FCMGateway отправляет сообщения через Firebase Cloud Messaging.
type FCMGateway struct {
	client    fcmClient
	batchSize int
	logger    *zap.Logger
}

// NewFCMGateway создает FCM-шлюз из файла ключа сервис-аккаунта Firebase.
func NewFCMGateway(ctx context.Context, credentialsPath string, batchSize int, logger *zap.Logger) (*FCMGateway, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("FCM credentials path (FCM_CREDENTIALS_PATH) is not set")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Firebase App из файла '%s': %w", credentialsPath, err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения FCM Messaging client: %w", err)
	}
	logger.Info("FCM gateway initialized", zap.String("credentials_path", credentialsPath))
	return newFCMGatewayWithClient(client, batchSize, logger), nil
}

func newFCMGatewayWithClient(client fcmClient, batchSize int, logger *zap.Logger) *FCMGateway {
	return &FCMGateway{
		client:    client,
		batchSize: effectiveBatchSize(batchSize, FCMMaxBatchSize),
		logger:    logger.Named("fcm_gateway"),
	}
}

func (g *FCMGateway) Name() string { return "fcm" }

func (g *FCMGateway) IsValidToken(token string) bool {
	return len(token) >= fcmMinTokenLen && len(token) <= fcmMaxTokenLen && fcmTokenRe.MatchString(token)
}

func (g *FCMGateway) MaxBatchSize() int { return g.batchSize }

func (g *FCMGateway) Chunk(messages []models.PushMessage) [][]models.PushMessage {
	return chunkMessages(messages, g.batchSize)
}

// SendBatch отправляет батч через SendEach: ответы приходят в порядке сообщений.
func (g *FCMGateway) SendBatch(ctx context.Context, batch []models.PushMessage) ([]models.DeliveryTicket, error) {
	if len(batch) == 0 {
		return []models.DeliveryTicket{}, nil
	}

	messages := make([]*fcm.Message, len(batch))
	for i, m := range batch {
		messages[i] = &fcm.Message{
			Token: m.To,
			Notification: &fcm.Notification{
				Title: m.Title,
				Body:  m.Body,
			},
			Data: m.Data,
			Android: &fcm.AndroidConfig{
				Priority:     "high",
				Notification: &fcm.AndroidNotification{Sound: m.Sound},
			},
			APNS: &fcm.APNSConfig{
				Payload: &fcm.APNSPayload{Aps: &fcm.Aps{Sound: m.Sound}},
			},
		}
	}

	br, err := g.client.SendEach(ctx, messages)
	if err != nil {
		g.logger.Error("Ошибка вызова SendEach FCM", zap.Int("batch_size", len(batch)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrGatewayTransport, err)
	}
	if br == nil || len(br.Responses) != len(batch) {
		got := 0
		if br != nil {
			got = len(br.Responses)
		}
		return nil, fmt.Errorf("%w: fcm returned %d responses for %d messages", models.ErrGatewayTransport, got, len(batch))
	}

	tickets := make([]models.DeliveryTicket, len(batch))
	for i, resp := range br.Responses {
		tickets[i] = models.DeliveryTicket{Token: batch[i].To}
		if resp.Success {
			tickets[i].ID = resp.MessageID
			tickets[i].Status = models.TicketStatusOK
			continue
		}
		tickets[i].Status = models.TicketStatusError
		switch {
		case fcm.IsUnregistered(resp.Error) || fcm.IsSenderIDMismatch(resp.Error):
			tickets[i].Error = models.TicketErrDeviceNotRegistered
		case resp.Error != nil:
			tickets[i].Error = resp.Error.Error()
		default:
			tickets[i].Error = "unknown FCM error"
		}
	}

	g.logger.Debug("Результат отправки FCM",
		zap.Int("success_count", br.SuccessCount),
		zap.Int("failure_count", br.FailureCount),
	)
	return tickets, nil
}
