package repository

import (
	"context"

	"github.com/polkiloo/samplestore/internal/domain/model"
)

// WithdrawalRepository provides access to affiliate withdrawals.
type WithdrawalRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Withdrawal, error)
	List(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error)
	// MarkPaid moves a pending withdrawal to paid. changed is false when it was already paid.
	MarkPaid(ctx context.Context, id int64) (w *model.Withdrawal, changed bool, err error)
	Ledger(ctx context.Context, affiliateID int64) (*model.AffiliateLedger, error)
}
