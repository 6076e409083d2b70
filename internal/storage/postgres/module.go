package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/samplestore/internal/config"
	"github.com/polkiloo/samplestore/internal/domain/repository"
)

// Module wires PostgreSQL storage and repository adapters.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(
		func(s *Storage) repository.SaleRepository { return s.Sales() },
		func(s *Storage) repository.AffiliateRepository { return s.Affiliates() },
		func(s *Storage) repository.WithdrawalRepository { return s.Withdrawals() },
		func(s *Storage) repository.CodeSpace { return s.Codes() },
		func(s *Storage) repository.Transactor { return s },
	),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Storage   *Storage
	Logger    *slog.Logger
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Storage.HealthCheck(ctx); err != nil {
				return fmt.Errorf("ping postgres: %w", err)
			}
			p.Logger.Info("postgres connected")
			return nil
		},
		OnStop: func(context.Context) error {
			p.Storage.Close()
			p.Logger.Info("postgres pool closed")
			return nil
		},
	})
}
