// Package kv provides the optional Redis client used for locks and events.
package kv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/samplestore/internal/config"
)

// Module provides a redis.UniversalClient, nil when REDIS_URL is not set.
var Module = fx.Options(
	fx.Provide(newClient),
	fx.Invoke(registerLifecycle),
)

// New parses url and builds a client. An empty url yields a nil client.
func New(url string) (redis.UniversalClient, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

type clientParams struct {
	fx.In

	Config *config.Config
}

func newClient(p clientParams) (redis.UniversalClient, error) {
	return New(p.Config.RedisURL)
}

type lifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    redis.UniversalClient `optional:"true"`
	Logger    *slog.Logger
}

func registerLifecycle(p lifecycleParams) {
	if p.Client == nil {
		return
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := p.Client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			p.Logger.Info("redis connected")
			return nil
		},
		OnStop: func(context.Context) error {
			return p.Client.Close()
		},
	})
}
