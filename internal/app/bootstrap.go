package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qemplois/assistant/core/bootstrap"
	corecmd "github.com/qemplois/assistant/core/cmd"
	"github.com/qemplois/assistant/core/logger"
)

const redisPingTimeout = 5 * time.Second

// Load adapts LoadConfig to cmd.Options.
func Load(path string) (corecmd.ConfigCarrier, error) {
	return LoadConfig(path)
}

// Bootstrap initialises logging, the ledger database and Redis, then builds
// the App. It implements cmd.Options.Bootstrap.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.App, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	deps := Deps{DB: res.DB}
	if cfg.Redis.Enabled() {
		client, err := openRedis(cfg.Redis)
		if err != nil {
			_ = res.Close()
			return nil, err
		}
		deps.Redis = client
	}

	a, err := New(cfg, deps)
	if err != nil {
		_ = res.Close()
		if deps.Redis != nil {
			_ = deps.Redis.Close()
		}
		return nil, err
	}
	return a, nil
}

func openRedis(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error(ctx, "redis", "redis.connect",
			slog.String("status", "fail"),
			slog.String("addr", cfg.Addr),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("app: redis ping: %w", err)
	}
	logger.Info(ctx, "redis", "redis.connect",
		slog.String("status", "ok"),
		slog.String("addr", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	)
	return client, nil
}
