package gateway

import (
	"context"
	"fmt"

	"event-server/internal/config"
	"event-server/shared/interfaces"

	"go.uber.org/zap"
)

// New выбирает реализацию шлюза по cfg.Push.Provider.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.PushGateway, error) {
	batchSize := cfg.Push.BatchSize
	switch cfg.Push.Provider {
	case config.PushProviderExpo:
		return NewExpoGateway(ExpoOptions{
			URL:         cfg.Expo.URL,
			AccessToken: cfg.Expo.AccessToken,
			BatchSize:   batchSize,
		}, logger), nil
	case config.PushProviderFCM:
		return NewFCMGateway(ctx, cfg.FCM.CredentialsPath, batchSize, logger)
	case config.PushProviderAPNS:
		return NewAPNSGateway(APNSOptions{
			KeyPath:    cfg.APNS.KeyPath,
			KeyID:      cfg.APNS.KeyID,
			TeamID:     cfg.APNS.TeamID,
			Topic:      cfg.APNS.Topic,
			Production: cfg.APNS.Production,
			BatchSize:  batchSize,
		}, logger)
	case config.PushProviderStub:
		return NewStubGateway(batchSize, logger), nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.Push.Provider)
	}
}
