package app

import (
	"context"
	"time"

	"github.com/polkiloo/samplestore/internal/adapter/gateway"
	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/usecase"
)

// HealthChecker reports whether the primary store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StoreFacade joins the use cases behind the HTTP handlers and the sweeper.
type StoreFacade struct {
	webhooks    *usecase.WebhookUseCase
	sales       *usecase.SaleUseCase
	withdrawals *usecase.WithdrawalUseCase
	auth        *usecase.AuthUseCase
	reconciler  *usecase.Reconciler
	gateway     gateway.Client
	health      HealthChecker
	now         func() time.Time
}

func NewStoreFacade(
	webhooks *usecase.WebhookUseCase,
	sales *usecase.SaleUseCase,
	withdrawals *usecase.WithdrawalUseCase,
	auth *usecase.AuthUseCase,
	reconciler *usecase.Reconciler,
	client gateway.Client,
	health HealthChecker,
) *StoreFacade {
	return &StoreFacade{
		webhooks:    webhooks,
		sales:       sales,
		withdrawals: withdrawals,
		auth:        auth,
		reconciler:  reconciler,
		gateway:     client,
		health:      health,
		now:         time.Now,
	}
}

func (f *StoreFacade) HandleWebhook(ctx context.Context, event model.WebhookEvent) (model.ReconcileResult, error) {
	return f.webhooks.Handle(ctx, event)
}

func (f *StoreFacade) Checkout(ctx context.Context, in model.CheckoutInput) (*model.CheckoutResult, error) {
	return f.sales.Checkout(ctx, in)
}

func (f *StoreFacade) SaleStatus(ctx context.Context, key model.IdentityKey) (*model.SaleStatusView, error) {
	return f.sales.Status(ctx, key)
}

func (f *StoreFacade) ValidateCode(ctx context.Context, raw string) (*model.Affiliate, error) {
	return f.sales.ValidateCode(ctx, raw)
}

func (f *StoreFacade) Login(user, password string) (string, error) {
	return f.auth.Login(user, password)
}

func (f *StoreFacade) ParseToken(token string) (string, error) {
	return f.auth.ParseToken(token)
}

func (f *StoreFacade) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	return f.sales.Dashboard(ctx, f.now())
}

func (f *StoreFacade) Sales(ctx context.Context, filter model.SaleFilter) ([]model.Sale, error) {
	return f.sales.List(ctx, filter)
}

func (f *StoreFacade) Sale(ctx context.Context, id int64) (*model.Sale, error) {
	return f.sales.Get(ctx, id)
}

func (f *StoreFacade) AdvanceFulfillment(ctx context.Context, id int64, target model.FulfillmentStatus) (*model.Sale, error) {
	return f.sales.AdvanceFulfillment(ctx, id, target)
}

func (f *StoreFacade) Withdrawals(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	return f.withdrawals.List(ctx, status, limit, offset)
}

func (f *StoreFacade) Withdrawal(ctx context.Context, id int64) (*model.WithdrawalDetail, error) {
	return f.withdrawals.Get(ctx, id)
}

func (f *StoreFacade) PayWithdrawal(ctx context.Context, id int64) (*model.Withdrawal, bool, error) {
	return f.withdrawals.MarkPaid(ctx, id)
}

func (f *StoreFacade) Ping(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}

// PendingSales lists sales still awaiting payment that were created before the cutoff.
func (f *StoreFacade) PendingSales(ctx context.Context, before time.Time, limit int) ([]model.Sale, error) {
	return f.sales.PendingBefore(ctx, before, limit)
}

func (f *StoreFacade) SearchPayments(ctx context.Context, reference string) ([]model.GatewayPayment, error) {
	return f.gateway.SearchPayments(ctx, reference)
}

func (f *StoreFacade) Reconcile(ctx context.Context, n model.PaymentNotification) (model.ReconcileResult, error) {
	return f.reconciler.Reconcile(ctx, n)
}
