package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/samplestore/internal/adapter/gateway"
	"github.com/polkiloo/samplestore/internal/app"
	"github.com/polkiloo/samplestore/internal/config"
	"github.com/polkiloo/samplestore/internal/domain/repository"
	"github.com/polkiloo/samplestore/internal/server/http/handlers"
	"github.com/polkiloo/samplestore/internal/storage/postgres"
	"github.com/polkiloo/samplestore/internal/test"
	"github.com/polkiloo/samplestore/internal/worker"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		Environment:      config.EnvDevelopment,
		RunAddress:       ":0",
		DatabaseURI:      "postgres://stub",
		GatewayBaseURL:   "http://localhost",
		TokenSecret:      "secret",
		TokenTTL:         time.Hour,
		CodeShape:        config.CodeShapeNumeric,
		CodeLength:       6,
		SamplePrice:      "19.90",
		Timezone:         "UTC",
		WebhookRateLimit: 10,
		WebhookBurst:     10,
		LockWait:         time.Second,
		SweepInterval:    time.Millisecond,
		SweepBatch:       1,
		WorkerPoolSize:   1,
		ShutdownTimeout:  time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := test.NewMemoryStore()

	var (
		facade  *app.StoreFacade
		handler handlers.StoreFacade
		sweeper *worker.Sweeper
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(fx.Annotate(store.Sales(), fx.As(new(repository.SaleRepository)))),
			fx.Replace(fx.Annotate(store.Affiliates(), fx.As(new(repository.AffiliateRepository)))),
			fx.Replace(fx.Annotate(store.Withdrawals(), fx.As(new(repository.WithdrawalRepository)))),
			fx.Replace(fx.Annotate(store.Codes(), fx.As(new(repository.CodeSpace)))),
			fx.Replace(fx.Annotate(store, fx.As(new(repository.Transactor)))),
			fx.Replace(fx.Annotate(test.NewGatewayStub(), fx.As(new(gateway.Client)))),
		),
		fx.Populate(&facade, &handler, &sweeper),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil || handler == nil {
		t.Fatal("expected store facade instance")
	}
	if !sweeper.Enabled() {
		t.Fatal("expected sweeper enabled by config")
	}
}
