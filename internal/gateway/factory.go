package gateway

import (
	"context"
	"fmt"

	"tmx-go/internal/config"
	"tmx-go/internal/tmx"
)

// NewGatewayFromConfig creates a StoreGateway implementation based on the store config type.
func NewGatewayFromConfig(ctx context.Context, cfg config.StoreConfig) (tmx.StoreGateway, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryGateway(), nil
	case "s3":
		return NewS3Gateway(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
