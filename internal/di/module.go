package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/samplestore/internal/adapter/events"
	"github.com/polkiloo/samplestore/internal/adapter/gateway"
	"github.com/polkiloo/samplestore/internal/app"
	"github.com/polkiloo/samplestore/internal/config"
	"github.com/polkiloo/samplestore/internal/logger"
	"github.com/polkiloo/samplestore/internal/pkg/auth"
	"github.com/polkiloo/samplestore/internal/pkg/lock"
	"github.com/polkiloo/samplestore/internal/server/http/router"
	"github.com/polkiloo/samplestore/internal/storage/kv"
	"github.com/polkiloo/samplestore/internal/storage/postgres"
	"github.com/polkiloo/samplestore/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		kv.Module,
		lock.Module,
		events.Module,
		auth.Module,
		postgres.Module,
		gateway.Module,
		usecase.Module,
		fx.Provide(func(s *postgres.Storage) app.HealthChecker { return s }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
