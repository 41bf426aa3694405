package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"event-server/shared/interfaces"
	"event-server/shared/models"

	"go.uber.org/zap"
)

const (
	// ExpoMaxBatchSize - лимит Expo Push API на один запрос.
	ExpoMaxBatchSize = 100
	expoHTTPTimeout  = 10 * time.Second
	// Ограничиваем чтение тела ответа, чтобы сломанный прокси не съел память.
	expoMaxResponseBytes = 4 << 20
)

var (
	expoTokenRe     = regexp.MustCompile(`^(Expo|Exponent)PushToken\[.*\]$`)
	expoUUIDTokenRe = regexp.MustCompile(`(?i)^[a-z\d]{8}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{12}$`)
)

// HTTPClient интерфейс для *http.Client для мокирования
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ExpoOptions - параметры Expo-шлюза.
type ExpoOptions struct {
	URL         string
	AccessToken string
	BatchSize   int
	Client      HTTPClient // nil = http.Client с таймаутом 10s
}

// Compile-time check to ensure ExpoGateway implements PushGateway
var _ interfaces.PushGateway = (*ExpoGateway)(nil)

// ExpoGateway отправляет сообщения через Expo Push API.
type ExpoGateway struct {
	url         string
	accessToken string
	batchSize   int
	client      HTTPClient
	logger      *zap.Logger
}

func NewExpoGateway(opts ExpoOptions, logger *zap.Logger) *ExpoGateway {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: expoHTTPTimeout}
	}
	return &ExpoGateway{
		url:         opts.URL,
		accessToken: opts.AccessToken,
		batchSize:   effectiveBatchSize(opts.BatchSize, ExpoMaxBatchSize),
		client:      client,
		logger:      logger.Named("expo_gateway"),
	}
}

func (g *ExpoGateway) Name() string { return "expo" }

// IsValidToken принимает ExponentPushToken[...] / ExpoPushToken[...] и старый формат в виде UUID.
func (g *ExpoGateway) IsValidToken(token string) bool {
	return expoTokenRe.MatchString(token) || expoUUIDTokenRe.MatchString(token)
}

func (g *ExpoGateway) MaxBatchSize() int { return g.batchSize }

func (g *ExpoGateway) Chunk(messages []models.PushMessage) [][]models.PushMessage {
	return chunkMessages(messages, g.batchSize)
}

type expoTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type expoError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type expoResponse struct {
	Data   []expoTicket `json:"data"`
	Errors []expoError  `json:"errors"`
}

// SendBatch отправляет батч одним POST-запросом.
// Ответ без тикетов, не-2xx статус или несовпадение числа тикетов считаются сбоем всего батча.
func (g *ExpoGateway) SendBatch(ctx context.Context, batch []models.PushMessage) ([]models.DeliveryTicket, error) {
	if len(batch) == 0 {
		return []models.DeliveryTicket{}, nil
	}
	if len(batch) > g.batchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds limit %d", models.ErrInvalidInput, len(batch), g.batchSize)
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expo batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build expo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if g.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.accessToken)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("Expo request failed", zap.Int("batch_size", len(batch)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrGatewayTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, expoMaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read expo response: %v", models.ErrGatewayTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Error("Expo responded with non-2xx status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", truncate(raw, 512)),
		)
		return nil, fmt.Errorf("%w: expo status %d", models.ErrGatewayTransport, resp.StatusCode)
	}

	var parsed expoResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed expo response: %v", models.ErrGatewayTransport, err)
	}
	if len(parsed.Errors) > 0 && len(parsed.Data) == 0 {
		first := parsed.Errors[0]
		return nil, fmt.Errorf("%w: expo request error %s: %s", models.ErrGatewayTransport, first.Code, first.Message)
	}
	if len(parsed.Data) != len(batch) {
		return nil, fmt.Errorf("%w: expo returned %d tickets for %d messages", models.ErrGatewayTransport, len(parsed.Data), len(batch))
	}

	tickets := make([]models.DeliveryTicket, len(batch))
	for i, t := range parsed.Data {
		tickets[i] = models.DeliveryTicket{ID: t.ID, Token: batch[i].To}
		if t.Status == "ok" {
			tickets[i].Status = models.TicketStatusOK
			continue
		}
		tickets[i].Status = models.TicketStatusError
		tickets[i].Error = t.Details.Error
		if tickets[i].Error == "" {
			tickets[i].Error = t.Message
		}
	}
	return tickets, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
