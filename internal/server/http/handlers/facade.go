package handlers

import (
	"context"

	"github.com/polkiloo/samplestore/internal/domain/model"
)

// WebhookFacade accepts decoded payment notifications.
type WebhookFacade interface {
	HandleWebhook(ctx context.Context, event model.WebhookEvent) (model.ReconcileResult, error)
}

// StorefrontFacade encapsulates the public customer operations.
type StorefrontFacade interface {
	Checkout(ctx context.Context, in model.CheckoutInput) (*model.CheckoutResult, error)
	SaleStatus(ctx context.Context, key model.IdentityKey) (*model.SaleStatusView, error)
	ValidateCode(ctx context.Context, raw string) (*model.Affiliate, error)
}

// AuthFacade describes admin authentication capabilities required by handlers.
type AuthFacade interface {
	Login(user, password string) (string, error)
	ParseToken(token string) (string, error)
}

// AdminFacade provides back-office operations on sales and withdrawals.
type AdminFacade interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	Sales(ctx context.Context, filter model.SaleFilter) ([]model.Sale, error)
	Sale(ctx context.Context, id int64) (*model.Sale, error)
	AdvanceFulfillment(ctx context.Context, id int64, target model.FulfillmentStatus) (*model.Sale, error)
	Withdrawals(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error)
	Withdrawal(ctx context.Context, id int64) (*model.WithdrawalDetail, error)
	PayWithdrawal(ctx context.Context, id int64) (*model.Withdrawal, bool, error)
}

// HealthFacade reports whether backing services are reachable.
type HealthFacade interface {
	Ping(ctx context.Context) error
}

// StoreFacade aggregates the full set of operations used across handlers.
type StoreFacade interface {
	WebhookFacade
	StorefrontFacade
	AuthFacade
	AdminFacade
	HealthFacade
}
