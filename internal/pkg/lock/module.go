package lock

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/samplestore/internal/config"
)

const keyPrefix = "samplestore:lock:"

// Module provides the per-key Locker, Redis backed when a client is available.
var Module = fx.Provide(newLocker)

type lockerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Redis  redis.UniversalClient `optional:"true"`
}

func newLocker(p lockerParams) Locker {
	if p.Redis != nil {
		return NewRedisLocker(p.Redis, keyPrefix, p.Config.LockTTL, p.Config.LockWait)
	}
	p.Logger.Info("redis not configured, using in-process locks")
	return NewLocalLocker(p.Config.LockWait)
}
