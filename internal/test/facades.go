package test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/samplestore/internal/domain/model"
)

// WebhookFacadeStub records decoded webhook events.
type WebhookFacadeStub struct {
	HandleFn func(context.Context, model.WebhookEvent) (model.ReconcileResult, error)

	mu     sync.Mutex
	events []model.WebhookEvent
}

// HandleWebhook delegates to HandleFn or reports the event as updated.
func (s *WebhookFacadeStub) HandleWebhook(ctx context.Context, event model.WebhookEvent) (model.ReconcileResult, error) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	if s.HandleFn != nil {
		return s.HandleFn(ctx, event)
	}
	return model.ReconcileResult{Outcome: model.OutcomeUpdated}, nil
}

// Events returns every event received so far.
func (s *WebhookFacadeStub) Events() []model.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.WebhookEvent(nil), s.events...)
}

// StorefrontFacadeStub provides controllable behaviour for storefront endpoints.
type StorefrontFacadeStub struct {
	CheckoutFn func(context.Context, model.CheckoutInput) (*model.CheckoutResult, error)
	StatusFn   func(context.Context, model.IdentityKey) (*model.SaleStatusView, error)
	ValidateFn func(context.Context, string) (*model.Affiliate, error)
}

// Checkout delegates to provided function or returns a default preference.
func (s StorefrontFacadeStub) Checkout(ctx context.Context, in model.CheckoutInput) (*model.CheckoutResult, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, in)
	}
	return &model.CheckoutResult{SaleID: 1, PreferenceID: "pref-1", Reference: "AMO-1", InitPoint: "https://gateway.test/checkout/AMO-1"}, nil
}

// SaleStatus delegates to provided function or reports a pending sale.
func (s StorefrontFacadeStub) SaleStatus(ctx context.Context, key model.IdentityKey) (*model.SaleStatusView, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, key)
	}
	return &model.SaleStatusView{FulfillmentStatus: model.FulfillmentPending, UpdatedAt: time.Unix(0, 0)}, nil
}

// ValidateCode delegates to provided function or accepts the code.
func (s StorefrontFacadeStub) ValidateCode(ctx context.Context, raw string) (*model.Affiliate, error) {
	if s.ValidateFn != nil {
		return s.ValidateFn(ctx, raw)
	}
	return &model.Affiliate{ID: 1, Code: raw, Status: model.AffiliateActive}, nil
}

// AuthFacadeStub simulates admin login.
type AuthFacadeStub struct {
	LoginFn func(string, string) (string, error)
	ParseFn func(string) (string, error)
}

// Login returns configured token or a static one.
func (s AuthFacadeStub) Login(user, password string) (string, error) {
	if s.LoginFn != nil {
		return s.LoginFn(user, password)
	}
	return "token", nil
}

// ParseToken returns the admin user for any token.
func (s AuthFacadeStub) ParseToken(token string) (string, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return "admin", nil
}

// AdminFacadeStub simulates back-office operations.
type AdminFacadeStub struct {
	DashboardFn   func(context.Context) (*model.DashboardStats, error)
	SalesFn       func(context.Context, model.SaleFilter) ([]model.Sale, error)
	SaleFn        func(context.Context, int64) (*model.Sale, error)
	AdvanceFn     func(context.Context, int64, model.FulfillmentStatus) (*model.Sale, error)
	WithdrawalsFn func(context.Context, model.WithdrawalStatus, int, int) ([]model.Withdrawal, error)
	WithdrawalFn  func(context.Context, int64) (*model.WithdrawalDetail, error)
	PayFn         func(context.Context, int64) (*model.Withdrawal, bool, error)
}

// Dashboard returns configured stats.
func (s AdminFacadeStub) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	if s.DashboardFn != nil {
		return s.DashboardFn(ctx)
	}
	return &model.DashboardStats{Today: 1, SevenDays: 2, Total: 3}, nil
}

// Sales returns configured sales.
func (s AdminFacadeStub) Sales(ctx context.Context, filter model.SaleFilter) ([]model.Sale, error) {
	if s.SalesFn != nil {
		return s.SalesFn(ctx, filter)
	}
	return []model.Sale{FakeSale("AMO-1", "pref-1")}, nil
}

// Sale returns one configured sale.
func (s AdminFacadeStub) Sale(ctx context.Context, id int64) (*model.Sale, error) {
	if s.SaleFn != nil {
		return s.SaleFn(ctx, id)
	}
	sale := FakeSale("AMO-1", "pref-1")
	sale.ID = id
	return &sale, nil
}

// AdvanceFulfillment returns the sale moved to target.
func (s AdminFacadeStub) AdvanceFulfillment(ctx context.Context, id int64, target model.FulfillmentStatus) (*model.Sale, error) {
	if s.AdvanceFn != nil {
		return s.AdvanceFn(ctx, id, target)
	}
	sale := FakeSale("AMO-1", "pref-1")
	sale.ID = id
	sale.FulfillmentStatus = target
	return &sale, nil
}

// Withdrawals returns configured payout requests.
func (s AdminFacadeStub) Withdrawals(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	if s.WithdrawalsFn != nil {
		return s.WithdrawalsFn(ctx, status, limit, offset)
	}
	return []model.Withdrawal{{ID: 1, AffiliateID: 1, AffiliateCode: "123456", Amount: decimal.RequireFromString("25"), Status: model.WithdrawalPending}}, nil
}

// Withdrawal returns one configured payout with its ledger.
func (s AdminFacadeStub) Withdrawal(ctx context.Context, id int64) (*model.WithdrawalDetail, error) {
	if s.WithdrawalFn != nil {
		return s.WithdrawalFn(ctx, id)
	}
	return &model.WithdrawalDetail{
		Withdrawal: model.Withdrawal{ID: id, AffiliateID: 1, Amount: decimal.RequireFromString("25"), Status: model.WithdrawalPending},
		Ledger:     model.AffiliateLedger{AffiliateID: 1, TotalPaid: decimal.RequireFromString("10"), SaleCount: 2},
	}, nil
}

// PayWithdrawal marks the payout paid.
func (s AdminFacadeStub) PayWithdrawal(ctx context.Context, id int64) (*model.Withdrawal, bool, error) {
	if s.PayFn != nil {
		return s.PayFn(ctx, id)
	}
	paidAt := time.Unix(0, 0)
	return &model.Withdrawal{ID: id, Amount: decimal.RequireFromString("25"), Status: model.WithdrawalPaid, PaidAt: &paidAt}, true, nil
}

// HealthFacadeStub reports configured health.
type HealthFacadeStub struct {
	Err error
}

// Ping returns the configured error.
func (s HealthFacadeStub) Ping(context.Context) error {
	return s.Err
}

// StoreFacadeStub combines every handler facade stub.
type StoreFacadeStub struct {
	*WebhookFacadeStub
	StorefrontFacadeStub
	AuthFacadeStub
	AdminFacadeStub
	HealthFacadeStub
}

// SweepFacadeStub feeds the pending sale sweeper.
type SweepFacadeStub struct {
	Pending   [][]model.Sale
	PendingFn func(context.Context, time.Time, int) ([]model.Sale, error)
	Payments  map[string][]model.GatewayPayment
	SearchErr error
	Result    model.ReconcileResult
	ReconErr  error

	mu            sync.Mutex
	pendingCalls  int
	Cutoffs       []time.Time
	Notifications []model.PaymentNotification
}

// PendingSales returns queued batches one per call.
func (s *SweepFacadeStub) PendingSales(ctx context.Context, before time.Time, limit int) ([]model.Sale, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, before, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cutoffs = append(s.Cutoffs, before)
	s.pendingCalls++
	if s.pendingCalls <= len(s.Pending) {
		return s.Pending[s.pendingCalls-1], nil
	}
	return nil, nil
}

// SearchPayments returns payments configured for the reference.
func (s *SweepFacadeStub) SearchPayments(_ context.Context, reference string) ([]model.GatewayPayment, error) {
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Payments[reference], nil
}

// Reconcile records the notification.
func (s *SweepFacadeStub) Reconcile(_ context.Context, n model.PaymentNotification) (model.ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notifications = append(s.Notifications, n)
	if s.ReconErr != nil {
		return model.ReconcileResult{Outcome: model.OutcomePersistenceError}, s.ReconErr
	}
	return s.Result, nil
}

// Reconciled returns a copy of recorded notifications.
func (s *SweepFacadeStub) Reconciled() []model.PaymentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PaymentNotification(nil), s.Notifications...)
}

// SeenCutoffs returns a copy of the cutoffs passed to PendingSales.
func (s *SweepFacadeStub) SeenCutoffs() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.Cutoffs...)
}
