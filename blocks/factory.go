package blocks

import (
	"context"
	"fmt"

	"github.com/compozy/compozy-postgres/pkg/config"
	"github.com/compozy/compozy-postgres/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// NewStoreFromConfig builds the configured store backend. The redis backend
// verifies connectivity with a ping before returning. As the plugin's
// bootstrap it also applies cfg.Log to the package default logger, so store
// operations running without a context logger honor the configured level.
func NewStoreFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("blocks: config is required")
	}
	logger.SetupLogger(cfg.Log.Level, cfg.Log.JSON)
	log := logger.FromContext(ctx)
	switch cfg.Store.Backend {
	case "memory":
		log.Debug("using in-memory block store")
		return NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password.Reveal(),
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("blocks: redis ping: %w", err)
		}
		log.Info("using redis block store", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		return NewRedisStore(client, WithPrefix(cfg.Redis.KeyPrefix)), nil
	default:
		return nil, fmt.Errorf("blocks: unknown store backend %q", cfg.Store.Backend)
	}
}
