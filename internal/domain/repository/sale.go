package repository

import (
	"context"
	"time"

	"github.com/polkiloo/samplestore/internal/domain/model"
)

// SaleRepository describes persistence operations with sales.
type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) (*model.Sale, error)
	GetByID(ctx context.Context, id int64) (*model.Sale, error)
	GetByKey(ctx context.Context, key model.IdentityKey) (*model.Sale, error)
	// LockByKey loads the sale and holds a row lock until the surrounding transaction ends.
	LockByKey(ctx context.Context, key model.IdentityKey) (*model.Sale, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) error
	// AssignCode marks the sale paid with the given code. It never overwrites an existing code.
	AssignCode(ctx context.Context, id int64, code string) error
	UpdateFulfillment(ctx context.Context, id int64, from, to model.FulfillmentStatus) error
	List(ctx context.Context, filter model.SaleFilter) ([]model.Sale, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]model.Sale, error)
	PaidStats(ctx context.Context, todayStart, weekStart time.Time) (*model.DashboardStats, error)
}
